// Command asynclanes replays async/await scenarios lane by lane.
//
// Usage:
//
//	asynclanes list
//	asynclanes trace  [-scenario id | -file path] [-mode ui|server] [-step n]
//	asynclanes export [-scenario id | -file path] [-format json|yaml|dot] [-out path]
//	asynclanes lint   [-scenario id | -file path]
//	asynclanes play   [-scenario id | -file path] [-speed x] [-i]
//
// Every flag can also be set through its ASYNCLANES_* environment variable.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/comalice/asynclanes/internal/config"
	"github.com/comalice/asynclanes/internal/core"
	"github.com/comalice/asynclanes/internal/extensibility"
	"github.com/comalice/asynclanes/internal/production"
	"github.com/comalice/asynclanes/internal/scenario"
	"github.com/comalice/asynclanes/timeline"
)

var errUsage = errors.New("usage")

const usage = `Usage: asynclanes <command> [flags]

Commands:
  list     list the built-in scenarios
  trace    replay a scenario and print the trace at -step
  export   replay a scenario and write every frame as json, yaml or dot
  lint     check a scenario log for ordering mistakes
  play     replay a scenario at -speed, printing each frame (-i for the TUI)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if len(args) == 0 {
		fmt.Fprint(errOut, usage)
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet("asynclanes "+cmd, flag.ContinueOnError)
	fs.SetOutput(errOut)
	interactive := fs.Bool("i", false, "interactive terminal UI (play only)")
	cfg, err := config.ParseConfig(fs, rest)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errUsage
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd == "play" && *interactive)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	core.SetLogger(logger.Named("core"))
	timeline.SetLogger(logger.Named("timeline"))

	switch cmd {
	case "list":
		return runList(out)
	case "trace":
		return runTrace(cfg, out)
	case "export":
		return runExport(cfg, out)
	case "lint":
		return runLint(cfg, out)
	case "play":
		if *interactive {
			return runInteractive(cfg)
		}
		return runPlay(ctx, cfg, out, logger)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	}
	fmt.Fprintf(errOut, "unknown command %q\n\n%s", cmd, usage)
	return errUsage
}

// newLogger keeps logs off the terminal while the interactive player owns it:
// without a log file they are discarded.
func newLogger(cfg config.Config, interactive bool) (*zap.Logger, error) {
	if interactive && cfg.LogFile == "" {
		return zap.NewNop(), nil
	}
	return cfg.NewLogger()
}

func loadScenario(cfg config.Config) (*scenario.Scenario, error) {
	if cfg.ScenarioFile != "" {
		return scenario.LoadFile(cfg.ScenarioFile)
	}
	return scenario.Lookup(cfg.Scenario)
}

func newSession(cfg config.Config) (*scenario.Scenario, *timeline.Session, error) {
	sc, err := loadScenario(cfg)
	if err != nil {
		return nil, nil, err
	}
	return sc, timeline.NewSession(sc.ID, sc.Events, cfg.EnvMode()), nil
}

// lastIndex maps the -step flag onto the log: negative means the whole log.
func lastIndex(cfg config.Config, s *timeline.Session) int {
	if cfg.Step < 0 {
		return s.Len() - 1
	}
	return min(cfg.Step, s.Len()-1)
}

func runList(out io.Writer) error {
	all, err := scenario.Catalog()
	if err != nil {
		return err
	}
	for _, sc := range all {
		fmt.Fprintf(out, "%-30s %s (%d events)\n", sc.ID, sc.Title, len(sc.Events))
	}
	return nil
}

func runTrace(cfg config.Config, out io.Writer) error {
	sc, s, err := newSession(cfg)
	if err != nil {
		return err
	}
	s.JumpTo(lastIndex(cfg, s))

	fmt.Fprintf(out, "%s: %s\n", sc.ID, sc.Title)
	fmt.Fprintf(out, "Step %d/%d\n", s.Index()+1, s.Len())
	if note := s.Frame().Note(); note != "" {
		fmt.Fprintf(out, "Note: %s\n", note)
	}
	fmt.Fprintln(out)
	v := &production.TextVisualizer{}
	fmt.Fprint(out, v.Trace(s.Snapshot()))
	return nil
}

func runExport(cfg config.Config, out io.Writer) error {
	_, s, err := newSession(cfg)
	if err != nil {
		return err
	}
	frames := production.CollectFrames(s, lastIndex(cfg, s))
	if cfg.Out != "" {
		return production.WriteFile(cfg.Out, frames)
	}
	exp, err := production.ExporterFor(cfg.Format)
	if err != nil {
		return err
	}
	return exp.Export(out, frames)
}

func runLint(cfg config.Config, out io.Writer) error {
	sc, err := loadScenario(cfg)
	if err != nil {
		return err
	}
	findings := scenario.Lint(sc.Events)
	if len(findings) == 0 {
		fmt.Fprintf(out, "%s: ok\n", sc.ID)
		return nil
	}
	lines := make([]string, len(findings))
	for i, f := range findings {
		lines[i] = "  " + f.String()
	}
	fmt.Fprintf(out, "%s: %d finding(s)\n%s\n", sc.ID, len(findings), strings.Join(lines, "\n"))
	return fmt.Errorf("%s: %d lint finding(s)", sc.ID, len(findings))
}

func runPlay(ctx context.Context, cfg config.Config, out io.Writer, logger *zap.Logger) error {
	sc, s, err := newSession(cfg)
	if err != nil {
		return err
	}

	frames := make(chan timeline.Frame, s.Len()+1)
	publisher := production.NewChannelPublisher(frames)
	player := timeline.NewPlayer(s, extensibility.TickerClock{},
		timeline.WithSpeed(cfg.Speed),
		timeline.WithPublisher(publisher),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		v := &production.TextVisualizer{}
		for f := range frames {
			fmt.Fprintf(out, "\n--- %s step %d/%d: %s ---\n", sc.ID, f.Index+1, f.Total, f.Event)
			if note := f.Note(); note != "" {
				fmt.Fprintf(out, "%s\n\n", note)
			}
			fmt.Fprint(out, v.Trace(f.Snapshot))
		}
	}()

	logger.Info("play", zap.String("scenario", sc.ID), zap.Float64("speed", player.Speed()))
	runErr := player.Run(ctx)
	_ = publisher.Close()
	<-done

	if errors.Is(runErr, context.Canceled) {
		fmt.Fprintln(out, "\nStopped.")
		return nil
	}
	return runErr
}
