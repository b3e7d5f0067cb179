package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/BrewSim/internal/api"
	"github.com/AaronLay10/BrewSim/internal/config"
	"github.com/AaronLay10/BrewSim/internal/events"
	"github.com/AaronLay10/BrewSim/internal/mqtt"
	"github.com/AaronLay10/BrewSim/internal/session"
	"github.com/AaronLay10/BrewSim/internal/simulation"
	"github.com/AaronLay10/BrewSim/internal/version"
)

const (
	shutdownTimeout    = 10 * time.Second
	healthPollInterval = 5 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and MQTT scene bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			logEvents, _ := cmd.Flags().GetBool("log-events")

			cfg, err := config.LoadServiceConfig(path)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", path, err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logEvents)
		},
	}
	cmd.Flags().Bool("log-events", true, "Print every event to stdout as a JSON line")
	return cmd
}

func serve(ctx context.Context, cfg *config.ServiceConfig, logEvents bool) error {
	if logEvents {
		stopLog := printEvents(os.Stdout)
		defer stopLog()
	}

	if err := api.InitAuth(); err != nil {
		return err
	}
	if err := api.InitTLS(); err != nil {
		return err
	}
	api.InitMetrics()
	api.InitAlerts(cfg.ServiceName())

	hostname, _ := os.Hostname()
	events.Emit("info", "system.startup", "brewsim starting", map[string]interface{}{
		"service":  cfg.ServiceName(),
		"version":  version.Version,
		"hostname": hostname,
		"pid":      os.Getpid(),
	})

	store, err := openBacking(cfg)
	if err != nil {
		// storage is optional at runtime; records still go to the backend
		log.Printf("storage unavailable: %v", err)
		events.Emit("error", "system.error", "storage unavailable", map[string]interface{}{
			"driver": cfg.StorageDriver(),
			"error":  err.Error(),
		})
		store = &backing{driver: cfg.StorageDriver()}
	}
	defer store.Close()
	storageEnabled := cfg.StorageDriver() != "none"
	api.SetStorageState(store.enabled(), true)

	gateway, err := gatewayFor(cfg, store)
	if err != nil {
		return err
	}
	grind, err := grindSettings(cfg)
	if err != nil {
		return err
	}

	opts := session.Options{
		Context: ctx,
		Gateway: gateway,
		Grind:   grind,
		Spacing: resultSpacing(cfg),
	}
	var registry *session.Registry

	var client *mqtt.Client
	if cfg.MQTT.Enabled {
		client = mqtt.NewClient(mqtt.BrokerURL(cfg.MQTT.URL), cfg.ServiceName()+"-"+hostname)
		// the registry is assigned before the client connects
		bridge := mqtt.NewBridge(client, cfg.TopicPrefix(), routerFunc(func(sessionID, level string, result simulation.SingleScore) error {
			return registry.Deliver(sessionID, level, result)
		}))
		client.OnConnect(bridge.Resubscribe)
		opts.Scenes = bridge.Template
		defer client.Disconnect()
	}
	registry = session.NewRegistry(opts)

	if client != nil {
		api.SetMQTTState(client.Start(), true)
	}
	api.SetSessionsReady(true)

	stopAlerts := api.StartAlertMonitor(healthPollInterval, cfg.MQTT.Enabled, storageEnabled)
	defer stopAlerts()
	go pollDependencies(ctx, client, store)

	srv := api.NewHTTPServer(cfg.HTTPPort(), api.NewServer(registry, cfg.ServiceName()).Routes())
	errCh := make(chan error, 1)
	go func() { errCh <- api.Serve(srv) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	api.SetSessionsReady(false)
	events.Emit("info", "system.shutdown", "brewsim stopping", map[string]interface{}{
		"sessions": registry.Count(),
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	events.CloseAllSubscribers()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return <-errCh
}

// pollDependencies keeps the readiness state in step with the broker and
// storage connections.
func pollDependencies(ctx context.Context, client *mqtt.Client, store *backing) {
	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if client != nil {
				api.SetMQTTState(client.IsConnected(), true)
			}
			if store.enabled() {
				pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
				err := store.ping(pctx)
				cancel()
				api.SetStorageState(err == nil, true)
			}
		}
	}
}

// routerFunc adapts a function to mqtt.Router.
type routerFunc func(sessionID, level string, result simulation.SingleScore) error

func (f routerFunc) Deliver(sessionID, level string, result simulation.SingleScore) error {
	return f(sessionID, level, result)
}

// printEvents writes every emitted event to w as a JSON line until the
// returned function is called.
func printEvents(w *os.File) (stop func()) {
	sub := events.Subscribe(nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		enc := json.NewEncoder(w)
		for e := range sub.C {
			enc.Encode(e)
		}
	}()
	return func() {
		events.Unsubscribe(sub)
		<-done
	}
}
