package simulation

import "fmt"

// Kind identifies a simulation variant.
type Kind string

const (
	KindEspresso Kind = "espresso"
	KindMoka     Kind = "moka"
)

// ParseKind validates a simulation kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindEspresso, KindMoka:
		return k, nil
	}
	return "", fmt.Errorf("unknown simulation kind: %q", s)
}

// Kinds lists the supported variants.
func Kinds() []Kind { return []Kind{KindEspresso, KindMoka} }

// LevelSpec is the static configuration of one level.
type LevelSpec[L LevelName] struct {
	Name   L
	Field  string // backend field prefix
	Params Params
}

// Variant describes an ordered level sequence for one brewing method.
type Variant[L LevelName] struct {
	Kind     Kind
	Endpoint string // backend path suffix
	Levels   []LevelSpec[L]
}

// Validate checks the level table is non-empty with unique names and fields.
func (v Variant[L]) Validate() error {
	if v.Kind == "" {
		return fmt.Errorf("%w: variant has no kind", ErrConfiguration)
	}
	if len(v.Levels) == 0 {
		return fmt.Errorf("%w: %s has no levels", ErrConfiguration, v.Kind)
	}
	seen := make(map[L]bool, len(v.Levels))
	fields := make(map[string]bool, len(v.Levels))
	for i, l := range v.Levels {
		if seen[l.Name] {
			return fmt.Errorf("%w: %s level %d: duplicate level %s", ErrConfiguration, v.Kind, i, l.Name)
		}
		if l.Field == "" {
			return fmt.Errorf("%w: %s level %s has no field", ErrConfiguration, v.Kind, l.Name)
		}
		if fields[l.Field] {
			return fmt.Errorf("%w: %s level %s: duplicate field %s", ErrConfiguration, v.Kind, l.Name, l.Field)
		}
		seen[l.Name] = true
		fields[l.Field] = true
	}
	return nil
}

// EspressoLevel enumerates the espresso machine levels in play order.
type EspressoLevel int

const (
	EspressoWeighing EspressoLevel = iota
	EspressoReservoir
	EspressoPowerOn
	EspressoGrind
	EspressoTamp
	EspressoBrew
	EspressoServe
)

var espressoLevelNames = [...]string{"Weighing", "Reservoir", "PowerOn", "Grind", "Tamp", "Brew", "Serve"}

func (l EspressoLevel) String() string {
	if l < 0 || int(l) >= len(espressoLevelNames) {
		return fmt.Sprintf("EspressoLevel(%d)", int(l))
	}
	return espressoLevelNames[l]
}

// EspressoVariant returns the espresso level table. Grind scenes target grind.
func EspressoVariant(grind GrindSetting) Variant[EspressoLevel] {
	return Variant[EspressoLevel]{
		Kind:     KindEspresso,
		Endpoint: "espresso_simulation",
		Levels: []LevelSpec[EspressoLevel]{
			{Name: EspressoWeighing, Field: "weight"},
			{Name: EspressoReservoir, Field: "reservoir"},
			{Name: EspressoPowerOn, Field: "powerOn"},
			{Name: EspressoGrind, Field: "grind", Params: Params{ParamGrindSetting: grind}},
			{Name: EspressoTamp, Field: "tamp"},
			{Name: EspressoBrew, Field: "brew"},
			{Name: EspressoServe, Field: "serve"},
		},
	}
}

// MokaLevel enumerates the moka pot levels in play order.
type MokaLevel int

const (
	MokaWeighing MokaLevel = iota
	MokaGrind
	MokaChooseWater
	MokaAddCoffee
	MokaPutTogether
	MokaStove
	MokaServe
)

var mokaLevelNames = [...]string{"Weighing", "Grind", "ChooseWater", "AddCoffee", "PutTogether", "Stove", "Serve"}

func (l MokaLevel) String() string {
	if l < 0 || int(l) >= len(mokaLevelNames) {
		return fmt.Sprintf("MokaLevel(%d)", int(l))
	}
	return mokaLevelNames[l]
}

// MokaVariant returns the moka pot level table. Grind scenes target grind.
func MokaVariant(grind GrindSetting) Variant[MokaLevel] {
	return Variant[MokaLevel]{
		Kind:     KindMoka,
		Endpoint: "mokapot_simulation",
		Levels: []LevelSpec[MokaLevel]{
			{Name: MokaWeighing, Field: "weight"},
			{Name: MokaGrind, Field: "grind", Params: Params{ParamGrindSetting: grind}},
			{Name: MokaChooseWater, Field: "chooseWater"},
			{Name: MokaAddCoffee, Field: "addCoffee"},
			{Name: MokaPutTogether, Field: "putTogether"},
			{Name: MokaStove, Field: "stove"},
			{Name: MokaServe, Field: "serve"},
		},
	}
}

// DefaultGrind returns the grind target each variant ships with.
func DefaultGrind(kind Kind) GrindSetting {
	if kind == KindMoka {
		return GrindMedium
	}
	return GrindSmall
}

// Endpoint returns the backend path suffix for a kind.
func Endpoint(kind Kind) string {
	switch kind {
	case KindEspresso:
		return EspressoVariant(GrindSmall).Endpoint
	case KindMoka:
		return MokaVariant(GrindMedium).Endpoint
	}
	return ""
}

// LevelNames returns the ordered level names of a kind.
func LevelNames(kind Kind) []string {
	switch kind {
	case KindEspresso:
		return namesOf(EspressoVariant(GrindSmall))
	case KindMoka:
		return namesOf(MokaVariant(GrindMedium))
	}
	return nil
}

func namesOf[L LevelName](v Variant[L]) []string {
	out := make([]string, len(v.Levels))
	for i, l := range v.Levels {
		out[i] = l.Name.String()
	}
	return out
}
