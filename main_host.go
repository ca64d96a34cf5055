//go:build !tinygo

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"ember/app"
	"ember/hal"
	"ember/internal/buildinfo"

	"github.com/samber/do"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:    "ember",
		Usage:   "run the firmware on a simulated board",
		Version: buildinfo.Long(),
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "headless", Usage: "run without a window"},
			&cli.Uint64Flag{Name: "ticks", Usage: "stop after N timer interrupts in headless mode (0 = run forever)"},
			&cli.StringFlag{Name: "config", Usage: "TOML file overriding the board defaults"},
			&cli.UintFlag{Name: "beats", Usage: "stop the firmware after N beat phases (0 = run forever)"},
			&cli.IntFlag{Name: "timer-hz", Usage: "timer interrupt rate"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address"},
			&cli.BoolFlag{Name: "quiet-leds", Usage: "do not log LED edges"},
		},
		Action: run,
	}
	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	opts := options{
		ConfigPath:  c.String("config"),
		Beats:       uint32(c.Uint("beats")),
		TimerHz:     c.Int("timer-hz"),
		MetricsAddr: c.String("metrics-addr"),
		QuietLEDs:   c.Bool("quiet-leds"),
	}

	i := do.New()
	provideServices(i, opts)
	defer func() {
		if err := i.Shutdown(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}()

	board := do.MustInvoke[*hal.HostBoard](i)
	sys, err := do.Invoke[*app.System](i)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if opts.MetricsAddr != "" {
		if _, err := do.Invoke[*metricsServer](i); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}
	go sys.Run()

	if !c.Bool("headless") {
		return hal.RunWindow(board)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()
	err = hal.RunHeadless(ctx, board, hal.HeadlessConfig{Enabled: true, Ticks: c.Uint64("ticks")})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
