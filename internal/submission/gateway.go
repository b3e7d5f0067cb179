package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AaronLay10/BrewSim/internal/simulation"
)

// RecordStore persists completed score records.
// *postgres.Client and *sqlite.Archive satisfy it.
type RecordStore interface {
	SaveRecord(ctx context.Context, userID string, kind simulation.Kind, rec simulation.Record) error
}

// StoreGateway submits by writing to a RecordStore.
type StoreGateway struct {
	Store RecordStore
}

func (g StoreGateway) Submit(ctx context.Context, userID string, kind simulation.Kind, rec simulation.Record) error {
	if g.Store == nil {
		return fmt.Errorf("record store not configured")
	}
	if err := g.Store.SaveRecord(ctx, userID, kind, rec); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

// Fanout submits to every gateway in order and joins their errors.
type Fanout []simulation.Gateway

func (f Fanout) Submit(ctx context.Context, userID string, kind simulation.Kind, rec simulation.Record) error {
	var errs []error
	for _, g := range f {
		if err := g.Submit(ctx, userID, kind, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard accepts every record. Used when no backend is configured.
type Discard struct{}

func (Discard) Submit(context.Context, string, simulation.Kind, simulation.Record) error { return nil }

// New builds the gateway for the configured destinations. An empty address
// and no stores yields Discard.
func New(address, token string, timeout time.Duration, stores ...RecordStore) simulation.Gateway {
	var out Fanout
	if address != "" {
		out = append(out, NewHTTPGateway(address, token, timeout))
	}
	for _, s := range stores {
		if s != nil {
			out = append(out, StoreGateway{Store: s})
		}
	}
	switch len(out) {
	case 0:
		return Discard{}
	case 1:
		return out[0]
	}
	return out
}
