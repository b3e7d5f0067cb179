package scene

import (
	"bytes"
	"errors"
	"testing"

	"github.com/AaronLay10/BrewSim/internal/simulation"
)

func TestTrackerRecordsLiveScene(t *testing.T) {
	tr := NewTracker()
	if _, ok := tr.Current(); ok {
		t.Fatal("expected no live scene")
	}

	inst, err := tr.Instantiate("Grind", simulation.Params{simulation.ParamGrindSetting: simulation.GrindSmall})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	live, ok := tr.Current()
	if !ok || live.Level != "Grind" {
		t.Fatalf("expected Grind live, got %+v", live)
	}
	if live.Params[simulation.ParamGrindSetting] != simulation.GrindSmall {
		t.Errorf("got params %v", live.Params)
	}

	if _, err := tr.Instantiate("Tamp", nil); err == nil {
		t.Error("expected error while a scene is live")
	}

	inst.Destroy()
	inst.Destroy()
	if _, ok := tr.Current(); ok {
		t.Error("scene should be cleared after destroy")
	}
}

func TestPrinterFormatsParams(t *testing.T) {
	var buf bytes.Buffer
	p := Printer{Out: &buf}
	p.Instantiate("Weighing", nil)
	p.Instantiate("Grind", simulation.Params{"wanted_grind_setting": "medium"})

	want := "> Weighing\n> Grind (wanted_grind_setting=medium)\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

type failingTemplate struct{}

func (failingTemplate) Instantiate(string, simulation.Params) (simulation.SceneInstance, error) {
	return nil, errors.New("broker unavailable")
}

func TestChainRollsBackOnFailure(t *testing.T) {
	tr := NewTracker()
	c := Chain{tr, failingTemplate{}}

	if _, err := c.Instantiate("Brew", nil); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := tr.Current(); ok {
		t.Error("tracker scene should be destroyed after chain failure")
	}

	ok := Chain{tr, Printer{}}
	inst, err := ok.Instantiate("Brew", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inst.Destroy()
	if _, live := tr.Current(); live {
		t.Error("chain destroy should clear the tracker")
	}
}
