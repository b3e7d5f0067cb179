package submission

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/AaronLay10/BrewSim/internal/simulation"
)

func sampleRecord() simulation.Record {
	return simulation.Record{
		Kind: simulation.KindMoka,
		Entries: []simulation.RecordEntry{
			{Level: "Weighing", Field: "weight", Score: 4, MaxScore: 5},
			{Level: "ChooseWater", Field: "chooseWater", Score: 2, MaxScore: 2},
		},
	}
}

func TestHTTPGatewayPostsForm(t *testing.T) {
	var gotPath, gotType, gotAuth string
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotForm, _ = url.ParseQuery(string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL+"/users/", "secret", time.Second)
	if err := g.Submit(context.Background(), "17", simulation.KindMoka, sampleRecord()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/users/17/mokapot_simulation" {
		t.Errorf("got path %q", gotPath)
	}
	if gotType != "application/x-www-form-urlencoded" {
		t.Errorf("got content type %q", gotType)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("got authorization %q", gotAuth)
	}
	want := map[string]string{
		"weightScore":           "4",
		"weightScoreTotal":      "5",
		"chooseWaterScore":      "2",
		"chooseWaterScoreTotal": "2",
	}
	for k, v := range want {
		if gotForm.Get(k) != v {
			t.Errorf("field %s: got %q, want %q", k, gotForm.Get(k), v)
		}
	}
	if len(gotForm) != len(want) {
		t.Errorf("expected %d fields, got %v", len(want), gotForm)
	}
}

func TestHTTPGatewayURL(t *testing.T) {
	g := NewHTTPGateway("http://backend/api", "", 0)
	if got := g.URL("7", simulation.KindEspresso); got != "http://backend/api/7/espresso_simulation" {
		t.Errorf("got %q", got)
	}
	if g.Client.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %s", g.Client.Timeout)
	}
}

func TestHTTPGatewayStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "user not found", http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL+"/", "", time.Second)
	err := g.Submit(context.Background(), "99", simulation.KindEspresso, sampleRecord())

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.StatusCode != http.StatusNotFound {
		t.Errorf("got status %d", te.StatusCode)
	}
	if te.Message != "user not found" {
		t.Errorf("got message %q", te.Message)
	}
}

func TestHTTPGatewayUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	g := NewHTTPGateway(addr+"/", "", time.Second)
	err := g.Submit(context.Background(), "1", simulation.KindEspresso, sampleRecord())

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.StatusCode != 0 {
		t.Errorf("expected no status, got %d", te.StatusCode)
	}
}

func TestHTTPGatewayRequiresAddressAndUser(t *testing.T) {
	if err := (&HTTPGateway{}).Submit(context.Background(), "1", simulation.KindMoka, sampleRecord()); err == nil {
		t.Error("expected error without address")
	}
	g := NewHTTPGateway("http://backend/", "", time.Second)
	if err := g.Submit(context.Background(), "", simulation.KindMoka, sampleRecord()); err == nil {
		t.Error("expected error without user")
	}
}

type memoryStore struct {
	saved []simulation.Record
	err   error
}

func (m *memoryStore) SaveRecord(ctx context.Context, userID string, kind simulation.Kind, rec simulation.Record) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, rec)
	return nil
}

func TestFanoutJoinsErrors(t *testing.T) {
	ok := &memoryStore{}
	bad := &memoryStore{err: errors.New("disk full")}

	f := Fanout{StoreGateway{Store: bad}, StoreGateway{Store: ok}}
	err := f.Submit(context.Background(), "3", simulation.KindMoka, sampleRecord())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(ok.saved) != 1 {
		t.Error("later gateways should still receive the record")
	}
}

func TestNewSelectsGateway(t *testing.T) {
	if _, ok := New("", "", 0).(Discard); !ok {
		t.Error("expected Discard without destinations")
	}
	if _, ok := New("http://backend/", "", 0).(*HTTPGateway); !ok {
		t.Error("expected HTTPGateway for address only")
	}
	f, ok := New("http://backend/", "", 0, &memoryStore{}).(Fanout)
	if !ok || len(f) != 2 {
		t.Errorf("expected two-way fanout, got %#v", f)
	}
}
