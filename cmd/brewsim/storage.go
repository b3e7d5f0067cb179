package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/AaronLay10/BrewSim/internal/config"
	"github.com/AaronLay10/BrewSim/internal/events"
	"github.com/AaronLay10/BrewSim/internal/simulation"
	"github.com/AaronLay10/BrewSim/internal/storage/postgres"
	"github.com/AaronLay10/BrewSim/internal/storage/sqlite"
	"github.com/AaronLay10/BrewSim/internal/submission"
)

// backing is the storage selected by the config's storage driver.
type backing struct {
	driver  string
	store   submission.RecordStore
	pinger  func(ctx context.Context) error
	history func(ctx context.Context, userID string, limit int) ([]runSummary, error)
	close   func() error
}

// runSummary is one archived record, whichever driver stored it.
type runSummary struct {
	ID       string                   `json:"id"`
	Created  time.Time                `json:"created"`
	Kind     string                   `json:"kind"`
	Score    int                      `json:"score"`
	MaxScore int                      `json:"max_score"`
	Entries  []simulation.RecordEntry `json:"entries"`
}

func (b *backing) enabled() bool { return b.store != nil }

func (b *backing) ping(ctx context.Context) error {
	if b.pinger == nil {
		return fmt.Errorf("storage driver %s not open", b.driver)
	}
	return b.pinger(ctx)
}

func (b *backing) Close() error {
	if b.close == nil {
		return nil
	}
	events.SetAppender(nil)
	return b.close()
}

// openBacking opens the configured store and installs it as the event
// appender. A "none" driver returns an empty backing.
func openBacking(cfg *config.ServiceConfig) (*backing, error) {
	b := &backing{driver: cfg.StorageDriver()}
	switch b.driver {
	case "postgres":
		pg, err := postgres.New(cfg.ServiceName())
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		events.SetAppender(pg)
		b.store, b.pinger, b.close = pg, pg.Ping, pg.Close
		b.history = func(ctx context.Context, userID string, limit int) ([]runSummary, error) {
			rows, err := pg.Records(ctx, userID, limit)
			if err != nil {
				return nil, err
			}
			out := make([]runSummary, len(rows))
			for i, r := range rows {
				out[i] = runSummary{
					ID: strconv.FormatInt(r.RecordID, 10), Created: r.Created,
					Kind: r.Kind, Score: r.Score, MaxScore: r.MaxScore, Entries: r.Entries,
				}
			}
			return out, nil
		}
	case "sqlite":
		a, err := sqlite.Open(cfg.SQLitePath())
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		events.SetAppender(a)
		b.store, b.pinger, b.close = a, a.Ping, a.Close
		b.history = func(ctx context.Context, userID string, limit int) ([]runSummary, error) {
			runs, err := a.ListRuns(ctx, userID, limit)
			if err != nil {
				return nil, err
			}
			out := make([]runSummary, len(runs))
			for i, r := range runs {
				out[i] = runSummary{
					ID: r.ID, Created: r.CreatedAt,
					Kind: r.Kind, Score: r.Score, MaxScore: r.MaxScore, Entries: r.Entries,
				}
			}
			return out, nil
		}
	}
	if b.enabled() {
		log.Printf("storage: %s enabled", b.driver)
	}
	return b, nil
}

// gatewayFor builds the submission gateway from the backend settings and
// the opened storage.
func gatewayFor(cfg *config.ServiceConfig, b *backing) (simulation.Gateway, error) {
	token, err := config.ResolveSecret("BREWSIM_BACKEND_TOKEN")
	if err != nil {
		return nil, err
	}
	if b != nil && b.enabled() {
		return submission.New(cfg.BackendAddress(), token, cfg.SubmitTimeout(), b.store), nil
	}
	return submission.New(cfg.BackendAddress(), token, cfg.SubmitTimeout()), nil
}

// grindSettings reads the per-variant grind targets, falling back to each
// variant's default.
func grindSettings(cfg *config.ServiceConfig) (map[simulation.Kind]simulation.GrindSetting, error) {
	out := make(map[simulation.Kind]simulation.GrindSetting)
	for _, k := range simulation.Kinds() {
		g, err := simulation.ParseGrindSetting(cfg.GrindSetting(string(k), string(simulation.DefaultGrind(k))))
		if err != nil {
			return nil, fmt.Errorf("simulations.%s: %w", k, err)
		}
		out[k] = g
	}
	return out, nil
}

func resultSpacing(cfg *config.ServiceConfig) *float64 {
	spacing := cfg.ResultSpacing()
	return &spacing
}
