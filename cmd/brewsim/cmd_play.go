package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AaronLay10/BrewSim/internal/config"
	"github.com/AaronLay10/BrewSim/internal/scene"
	"github.com/AaronLay10/BrewSim/internal/session"
	"github.com/AaronLay10/BrewSim/internal/simulation"
	"github.com/AaronLay10/BrewSim/internal/submission"
)

// Script is a scripted run: one result per level, in play order.
type Script struct {
	Kind   string        `yaml:"kind"`
	User   string        `yaml:"user"`
	Levels []ScriptLevel `yaml:"levels"`
}

// ScriptLevel is the result a level scene reports. Level is optional and,
// when set, must match the level being played.
type ScriptLevel struct {
	Level    string   `yaml:"level"`
	Score    int      `yaml:"score"`
	MaxScore int      `yaml:"max_score"`
	Comments []string `yaml:"comments"`
}

func loadScript(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Script
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(s.Levels) == 0 {
		return nil, fmt.Errorf("%s: no levels", path)
	}
	return &s, nil
}

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run a simulation headless from a score script",
		Long: `Run every level of a simulation with scripted results, printing the
level feedback after each level and the results board at the end.

The record is only sent to the backend and storage with --submit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			scriptPath, _ := cmd.Flags().GetString("script")
			kind, _ := cmd.Flags().GetString("kind")
			user, _ := cmd.Flags().GetString("user")
			submit, _ := cmd.Flags().GetBool("submit")
			jsonOut, _ := cmd.Flags().GetBool("json")

			script, err := loadScript(scriptPath)
			if err != nil {
				return err
			}
			if kind == "" {
				kind = script.Kind
			}
			if user == "" {
				user = script.User
			}

			cfg, err := playConfig(cmd)
			if err != nil {
				return err
			}

			var gateway simulation.Gateway = submission.Discard{}
			if submit {
				store, err := openBacking(cfg)
				if err != nil {
					return err
				}
				defer store.Close()
				if gateway, err = gatewayFor(cfg, store); err != nil {
					return err
				}
				if _, ok := gateway.(submission.Discard); ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning: --submit without a backend address or storage; the record is discarded")
				}
			}

			grind, err := grindSettings(cfg)
			if err != nil {
				return err
			}
			view, err := play(cmd.Context(), cmd.OutOrStdout(), script, simulation.Kind(kind), user, session.Options{
				Gateway: gateway,
				Grind:   grind,
				Spacing: resultSpacing(cfg),
			})
			if jsonOut && view != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				enc.Encode(view)
			}
			return err
		},
	}
	cmd.Flags().String("script", "", "Score script (YAML)")
	cmd.Flags().String("kind", "", "Simulation kind: espresso or moka (overrides the script)")
	cmd.Flags().String("user", "", "User ID (overrides the script)")
	cmd.Flags().Bool("submit", false, "Send the finished record to the backend and storage")
	cmd.MarkFlagRequired("script")
	return cmd
}

// playConfig loads --config. The default path may be missing, in which
// case built-in defaults apply.
func playConfig(cmd *cobra.Command) (*config.ServiceConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServiceConfig(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.ParseServiceConfig([]byte("version: 1\n"))
	}
	return nil, fmt.Errorf("failed to load %s: %w", path, err)
}

// play runs one session through every level of script and waits for the
// submission outcome. It returns the final session view.
func play(ctx context.Context, out io.Writer, script *Script, kind simulation.Kind, userID string, opts session.Options) (*session.View, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts.Context = ctx
	opts.Scenes = func(string) simulation.SceneTemplate { return scene.Printer{Out: out} }

	sess, err := session.NewRegistry(opts).Create(userID, kind)
	if err != nil {
		return nil, err
	}

	levels := sess.View().Levels
	if len(script.Levels) != len(levels) {
		return nil, fmt.Errorf("%s has %d levels, script has %d", kind, len(levels), len(script.Levels))
	}

	for i, lvl := range levels {
		entry := script.Levels[i]
		if entry.Level != "" && !strings.EqualFold(entry.Level, lvl.Name) {
			return nil, fmt.Errorf("script level %d is %q, expected %q", i+1, entry.Level, lvl.Name)
		}
		if err := sess.Advance(); err != nil {
			return nil, err
		}
		err := sess.CompleteLevel(simulation.SingleScore{
			Score:    entry.Score,
			MaxScore: entry.MaxScore,
			Comments: entry.Comments,
		})
		if err != nil {
			return nil, fmt.Errorf("level %s: %w", lvl.Name, err)
		}
		if fb := sess.View().Feedback; fb != nil {
			printFeedback(out, *fb)
		}
	}

	lines, err := sess.Results()
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(out, "Results")
	for _, l := range lines {
		fmt.Fprintf(out, "  %s\n", l.Text)
	}

	view := sess.View()
	select {
	case o := <-sess.Submitted():
		if !o.OK() {
			return &view, fmt.Errorf("submission failed: %w", o.Err)
		}
	case <-ctx.Done():
		return &view, ctx.Err()
	}
	return &view, nil
}

func printFeedback(out io.Writer, fb simulation.Feedback) {
	fmt.Fprintf(out, "  %s\n", fb.Header)
	for _, line := range strings.Split(fb.Body, "\n") {
		fmt.Fprintf(out, "    %s\n", line)
	}
	fmt.Fprintf(out, "  [%s]\n", fb.Label)
}
