package mqtt

import (
	"testing"
)

func TestSceneRegistry_RegisterAndGet(t *testing.T) {
	registry := NewSceneRegistry()

	sc := &LiveScene{
		SessionID:  "s1",
		Level:      "Grind",
		StartTopic: "brewsim/s1/levels/Grind/start",
		StopTopic:  "brewsim/s1/levels/Grind/stop",
	}
	if err := registry.Register(sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := registry.Get("s1")
	if got == nil {
		t.Fatal("expected scene, got nil")
	}
	if got.StopTopic != "brewsim/s1/levels/Grind/stop" {
		t.Errorf("expected stop topic, got %s", got.StopTopic)
	}

	got.Level = "mutated"
	if !registry.IsLive("s1", "Grind") {
		t.Error("Get should return a copy")
	}
	if registry.IsLive("s1", "Tamp") || registry.IsLive("s2", "Grind") {
		t.Error("unexpected live scene")
	}
}

func TestSceneRegistry_OneScenePerSession(t *testing.T) {
	registry := NewSceneRegistry()
	registry.Register(&LiveScene{SessionID: "s1", Level: "Grind"})

	if err := registry.Register(&LiveScene{SessionID: "s1", Level: "Tamp"}); err == nil {
		t.Error("expected error registering a second scene")
	}
	if err := registry.Register(&LiveScene{SessionID: "s2", Level: "Tamp"}); err != nil {
		t.Errorf("other sessions are independent: %v", err)
	}
	if registry.Count() != 2 {
		t.Errorf("expected 2 scenes, got %d", registry.Count())
	}
}

func TestSceneRegistry_Unregister(t *testing.T) {
	registry := NewSceneRegistry()
	registry.Register(&LiveScene{SessionID: "s1", Level: "Grind"})

	registry.Unregister("s1", "Tamp")
	if !registry.IsLive("s1", "Grind") {
		t.Error("unregistering another level must not remove the live scene")
	}
	registry.Unregister("s1", "Grind")
	if registry.Get("s1") != nil {
		t.Error("expected scene removed")
	}
}

func TestSceneRegistry_AllAndClear(t *testing.T) {
	registry := NewSceneRegistry()
	registry.Register(&LiveScene{SessionID: "b", Level: "Brew"})
	registry.Register(&LiveScene{SessionID: "a", Level: "Serve"})

	all := registry.All()
	if len(all) != 2 || all[0].SessionID != "a" {
		t.Errorf("expected scenes sorted by session, got %+v", all)
	}

	registry.Clear()
	if registry.Count() != 0 {
		t.Error("expected empty registry after clear")
	}
}
