// Command aox-demo runs the missile game objects on the active-object
// kernel, either stepping the logical clock synchronously or driving it from
// wall time, and can dump the decoded event trace or the state diagram.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Archontes/aox"
	"github.com/Archontes/aox/game"
	"github.com/Archontes/aox/realtime"
)

var (
	flagTicks int
	flagRate  time.Duration
	flagTrace bool
	flagDOT   bool
)

func main() {
	cmd := &cobra.Command{
		Use:          "aox-demo",
		Short:        "Run the missile demo on the active-object kernel",
		SilenceUsage: true,
		RunE:         run,
	}
	cmd.Flags().IntVar(&flagTicks, "ticks", 200, "number of clock ticks to run")
	cmd.Flags().DurationVar(&flagRate, "rate", 0, "wall-clock tick period (0 = step synchronously)")
	cmd.Flags().BoolVar(&flagTrace, "trace", false, "print the decoded event trace on exit")
	cmd.Flags().BoolVar(&flagDOT, "dot", false, "print the missile state diagram as Graphviz DOT and exit")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	rec := aox.NewRecorder()
	opts := []aox.Option{aox.WithLogger(logger)}
	if flagTrace {
		opts = append(opts, aox.WithTracer(rec))
	}
	k := aox.NewKernel(opts...)

	missile, err := game.NewMissile(k, 1)
	if err != nil {
		return err
	}
	if flagDOT {
		fmt.Print(aox.ExportDOT(missile.Active().Machine()))
		return nil
	}

	if err := addSink(k, game.TunnelName, 2, logger); err != nil {
		return err
	}
	if err := addSink(k, game.ShipName, 3, logger); err != nil {
		return err
	}
	if err := k.Start(); err != nil {
		return err
	}

	fire, err := k.Allocate(game.SigMissileFire, game.ObjectPos{X: 10, Y: 20})
	if err != nil {
		return err
	}
	if err := missile.Active().Post(fire); err != nil {
		return err
	}

	if flagRate > 0 {
		d := realtime.New(k, realtime.Config{TickRate: flagRate})
		if err := d.Start(context.Background()); err != nil {
			return err
		}
		time.Sleep(time.Duration(flagTicks) * flagRate)
		d.Stop()
	} else {
		for i := 0; i < flagTicks; i++ {
			k.Tick()
			k.RunToIdle()
		}
	}
	logger.Info("demo finished",
		"ticks", k.Ticks(),
		"pool_high_water", k.Pool().HighWater(),
		"missile_state", missile.Active().State())

	if flagTrace {
		d := aox.NewDictionary()
		game.RegisterNames(d)
		for _, line := range rec.Decode(d) {
			fmt.Println(line)
		}
	}
	return nil
}

// addSink registers a one-state active that logs every event it receives.
// It stands in for the renderer and the ship so the missile has live
// collaborators to post to.
func addSink(k *aox.Kernel, name string, prio uint8, logger *slog.Logger) error {
	m, err := aox.NewMachine(name, "running", []aox.State{{
		ID: "running",
		Handler: func(e *aox.Event) aox.Disposition {
			logger.Info("event received", "active", name, "signal", e.Sig, "data", e.Data)
			return aox.Handled()
		},
	}})
	if err != nil {
		return err
	}
	_, err = k.AddActive(name, prio, m)
	return err
}
