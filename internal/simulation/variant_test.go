package simulation

import (
	"errors"
	"reflect"
	"testing"
)

func TestVariantTables(t *testing.T) {
	tests := []struct {
		kind     Kind
		endpoint string
		names    []string
	}{
		{KindEspresso, "espresso_simulation", []string{"Weighing", "Reservoir", "PowerOn", "Grind", "Tamp", "Brew", "Serve"}},
		{KindMoka, "mokapot_simulation", []string{"Weighing", "Grind", "ChooseWater", "AddCoffee", "PutTogether", "Stove", "Serve"}},
	}
	for _, tt := range tests {
		if got := LevelNames(tt.kind); !reflect.DeepEqual(got, tt.names) {
			t.Errorf("%s: got levels %v", tt.kind, got)
		}
		if got := Endpoint(tt.kind); got != tt.endpoint {
			t.Errorf("%s: got endpoint %q", tt.kind, got)
		}
	}

	if err := EspressoVariant(GrindSmall).Validate(); err != nil {
		t.Errorf("espresso table invalid: %v", err)
	}
	if err := MokaVariant(GrindMedium).Validate(); err != nil {
		t.Errorf("moka table invalid: %v", err)
	}
}

func TestMokaFieldPrefixes(t *testing.T) {
	want := []string{"weight", "grind", "chooseWater", "addCoffee", "putTogether", "stove", "serve"}
	for i, l := range MokaVariant(GrindMedium).Levels {
		if l.Field != want[i] {
			t.Errorf("level %s: got field %q, want %q", l.Name, l.Field, want[i])
		}
	}
}

func TestParseHelpers(t *testing.T) {
	if k, err := ParseKind("moka"); err != nil || k != KindMoka {
		t.Errorf("ParseKind(moka) = %s, %v", k, err)
	}
	if _, err := ParseKind("aeropress"); err == nil {
		t.Error("expected error for unknown kind")
	}
	if g, err := ParseGrindSetting("large"); err != nil || g != GrindLarge {
		t.Errorf("ParseGrindSetting(large) = %s, %v", g, err)
	}
	if _, err := ParseGrindSetting("powder"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	if DefaultGrind(KindMoka) != GrindMedium || DefaultGrind(KindEspresso) != GrindSmall {
		t.Error("unexpected default grind settings")
	}
	if EspressoLevel(42).String() != "EspressoLevel(42)" {
		t.Errorf("got %q", EspressoLevel(42).String())
	}
}

func TestVariantValidateRejectsEmpty(t *testing.T) {
	v := Variant[MokaLevel]{Kind: KindMoka}
	if err := v.Validate(); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	v = MokaVariant(GrindMedium)
	v.Levels[2].Field = ""
	if err := v.Validate(); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for empty field, got %v", err)
	}
}
