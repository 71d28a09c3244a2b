package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/phasor/internal/config"
	"github.com/aristath/phasor/internal/demo"
	"github.com/aristath/phasor/internal/history"
	"github.com/aristath/phasor/internal/scheduler"
	"github.com/aristath/phasor/internal/tui"
)

// Field dimensions for the particle world, in cell units.
const (
	fieldWidth  = 80.0
	fieldHeight = 24.0
)

func main() {
	// Signal-aware context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
		os.Exit(1)
	}
	globalPath := filepath.Join(homeDir, ".phasor", "config.json")
	projectPath := filepath.Join(".phasor", "config.json")

	// Logs go to a file: stderr belongs to the TUI while it is running.
	log := newLogger(cfg.LogLevel)

	world := demo.NewWorld(fieldWidth, fieldHeight, cfg.Demo.Seed)
	sched := scheduler.New(world, scheduler.WithLogger[*demo.World](log))

	if err := demo.Install(sched, cfg.Demo, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error wiring demo: %v\n", err)
		os.Exit(1)
	}

	if cfg.History.Enabled {
		store, err := history.NewStore(ctx, cfg.History.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening history store: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		if err := sched.AddPlugin(history.NewRecorder[*demo.World](store, log)); err != nil {
			fmt.Fprintf(os.Stderr, "Error wiring history recorder: %v\n", err)
			os.Exit(1)
		}
	}

	model := tui.New(cfg, globalPath, projectPath, fieldWidth, fieldHeight, world.TogglePause)
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Forward failure reports into the log pane.
	sched.OnSystemError(func(se scheduler.SystemError) {
		label := ""
		if se.Phase != nil {
			label = se.Phase.Label()
		}
		p.Send(tui.FailureMsg{
			Time:   time.Now(),
			System: se.System,
			Phase:  label,
			Stage:  se.Stage,
			Error:  se.Err.Error(),
		})
	})

	tickRate := cfg.Demo.TickRate
	if tickRate <= 0 {
		tickRate = 30
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		_, err := p.Run()
		// TUI exited (quit key or error): cancel the signal context so the
		// tick loop stops too.
		stop()
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Second / time.Duration(tickRate))
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				sched.RunAll()
				p.Send(tui.FrameMsg{
					Snap:   world.Snapshot(),
					Phases: phaseStatuses(sched),
				})
			}
		}
	})

	g.Go(func() error {
		// Signal received: ask the TUI to quit; its exit unwinds the rest.
		<-gctx.Done()
		p.Quit()
		return nil
	})

	runErr := g.Wait()

	sched.Cleanup()
	log.Info().Msg("shutdown complete")

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

// newLogger builds the file-backed logger. Logging degrades to a no-op if
// the log file cannot be opened.
func newLogger(levelName string) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if err := os.MkdirAll(".phasor", 0755); err != nil {
		return zerolog.Nop()
	}
	f, err := os.OpenFile(filepath.Join(".phasor", "phasor.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return zerolog.Nop()
	}
	return zerolog.New(f).With().Timestamp().Logger().Level(level)
}

// phaseStatuses collects the default trigger group's order with the systems
// registered in each phase, for the phases pane.
func phaseStatuses(s *scheduler.Scheduler[*demo.World]) []tui.PhaseStatus {
	phases := s.OrderedPhases()
	out := make([]tui.PhaseStatus, 0, len(phases))
	for _, ph := range phases {
		infos := s.SystemsIn(ph)
		names := make([]string, 0, len(infos))
		for _, info := range infos {
			names = append(names, info.Name)
		}
		out = append(out, tui.PhaseStatus{
			Label:   ph.Label(),
			Once:    ph.Once(),
			Systems: names,
		})
	}
	return out
}
