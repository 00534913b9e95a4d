package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/dshills/sigslot/internal/config"
	"github.com/dshills/sigslot/internal/logging"
	"github.com/dshills/sigslot/internal/property"
	"github.com/dshills/sigslot/internal/script"
)

// reloadKey is the script signal that receives applied configurations.
const reloadKey = "config.reloaded"

func (a *app) runCmd() *cobra.Command {
	var (
		emits   []string
		watch   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run <script.lua>",
		Short: "Run a Lua script against a signal set",
		Long: `Runs a Lua script that uses the signals module, then performs each
--emit in order. Emit values are parsed as JSON when valid and passed as
strings otherwise.

With --watch the configuration file is watched after the script has run.
Every reload is emitted to the script on "config.reloaded" and a changed
logging level is applied immediately. The command then runs until
interrupted.`,
		Example: `  sigslot run hooks.lua --emit 'saved={"path":"a.txt"}'
  sigslot run hooks.lua --config sigslot.toml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch && a.configPath == "" {
				return fmt.Errorf("--watch requires --config")
			}

			ctx := cmd.Context()
			wait := a.serveMetrics(ctx)
			defer wait()

			state := script.NewState(
				script.WithOutput(cmd.OutOrStdout()),
				script.WithLogger(a.logger.WithComponent("script")),
				script.WithExecutionTimeout(timeout),
			)
			defer state.Close()

			if err := state.DoFile(args[0]); err != nil {
				return fmt.Errorf("running %s: %w", args[0], err)
			}

			for _, e := range emits {
				key, raw, ok := strings.Cut(e, "=")
				if !ok {
					return fmt.Errorf("invalid --emit %q: expected key=value", e)
				}
				if err := state.Emit(key, parseEmitValue(raw)); err != nil {
					return fmt.Errorf("emitting %s: %w", key, err)
				}
			}

			if !watch {
				return nil
			}

			live := config.NewLive(a.cfg, config.WithLogger(a.logger.WithComponent("config")))
			live.LogLevel.Changed().ConnectFunc(func(p *property.Property[string]) {
				a.logger.SetLevel(logging.ParseLogLevel(p.Value()))
			})
			live.Reloaded().ConnectFunc(func(cfg *config.Config) {
				if err := state.Emit(reloadKey, configPayload(cfg)); err != nil {
					a.logger.Error("forwarding reload: %v", err)
				}
			})

			a.logger.Info("watching %s, press Ctrl+C to stop", a.configPath)
			return live.Watch(ctx, a.configPath)
		},
	}

	cmd.Flags().StringArrayVarP(&emits, "emit", "e", nil, "Emit key=value after the script has run (repeatable)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Watch the config file and forward reloads to the script")
	cmd.Flags().DurationVar(&timeout, "timeout", script.DefaultExecutionTimeout, "Timeout of each call into Lua (0 disables)")

	return cmd
}

// parseEmitValue decodes raw as JSON when it is valid JSON.
func parseEmitValue(raw string) any {
	if gjson.Valid(raw) {
		return gjson.Parse(raw).Value()
	}
	return raw
}

func configPayload(cfg *config.Config) map[string]any {
	return map[string]any{
		"logging":  map[string]any{"level": cfg.Logging.Level},
		"throttle": map[string]any{"window": cfg.Throttle.Window.String()},
		"timer":    map[string]any{"interval": cfg.Timer.Interval.String()},
		"metrics":  map[string]any{"namespace": cfg.Metrics.Namespace, "addr": cfg.Metrics.Addr},
	}
}
