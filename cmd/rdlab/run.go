package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/rdlab/internal/capture"
	"github.com/san-kum/rdlab/internal/config"
	"github.com/san-kum/rdlab/internal/logger"
	"github.com/san-kum/rdlab/internal/panel"
	"github.com/san-kum/rdlab/internal/rd"
	"github.com/san-kum/rdlab/internal/recorder"
	"github.com/san-kum/rdlab/internal/settings"
)

// actionsFor resolves the recording controls: saved settings, then config,
// then flags.
func (e *env) actionsFor(cmd *cobra.Command, saved *settings.Actions) settings.Actions {
	a := settings.Actions{
		TotalRecordingFrames:   e.app.Recording.Frames,
		RecordingPrefix:        e.app.Recording.Prefix,
		RestartBeforeRecording: e.app.Recording.Restart,
	}
	if saved != nil {
		a = *saved
	}
	if cmd.Flags().Changed("frames") {
		a.TotalRecordingFrames = frames
	}
	if cmd.Flags().Changed("prefix") {
		a.RecordingPrefix = prefix
	}
	if cmd.Flags().Changed("restart") {
		a.RestartBeforeRecording = restart
	}
	return a
}

func (e *env) recorderOptions() recorder.Options {
	opts := recorder.FromApp(e.app)
	if output != "" {
		opts.Output = output
	}
	if steps > 0 {
		opts.StepsPerFrame = steps
	}
	return opts
}

func runRecording(cmd *cobra.Command, args []string) error {
	e, err := newEnv("run")
	if err != nil {
		return err
	}
	cfg, saved, err := e.simConfig()
	if err != nil {
		return err
	}
	actions := e.actionsFor(cmd, saved)
	opts := e.recorderOptions()
	if opts.Output != config.OutputZip && opts.Output != config.OutputDir {
		return fmt.Errorf("unknown output %q (zip or dir)", opts.Output)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dir, closeDir, err := e.directory(ctx)
	if err != nil {
		return err
	}
	defer closeDir()

	grid, err := rd.New(cfg, e.app.Grid.Workers)
	if err != nil {
		return err
	}
	rec := recorder.New(grid, dir, opts, e.log)
	session := capture.Begin(actions.TotalRecordingFrames, actions.RecordingPrefix, actions.RestartBeforeRecording)

	fmt.Printf("recording %d frames (%dx%d, %d steps/frame)...\n",
		session.TotalFrames, grid.W, grid.H, opts.StepsPerFrame)
	start := time.Now()

	res, err := rec.Run(ctx, session, func(r *capture.FrameRecord) {
		e.log.Debug().Str("file", r.Filename).Int("bytes", len(r.Payload)).Msg("frame")
	})
	if res == nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("session: %s\n", session.ID)
	fmt.Printf("frames: %d\n", session.CurrentFrame())
	if res.Archive != nil {
		fmt.Printf("archive: %s (%d bytes)\n", res.Archive.Name, len(res.Archive.Data))
	}
	if plot && len(res.MeanB) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(res.MeanB,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("mean B per frame"),
		))
	}
	return err
}

func runImage(cmd *cobra.Command, args []string) error {
	e, err := newEnv("image")
	if err != nil {
		return err
	}
	cfg, _, err := e.simConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	dir, closeDir, err := e.directory(ctx)
	if err != nil {
		return err
	}
	defer closeDir()

	grid, err := rd.New(cfg, e.app.Grid.Workers)
	if err != nil {
		return err
	}
	grid.Step(warmup)

	name, err := recorder.New(grid, dir, e.recorderOptions(), e.log).Snapshot(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("saved %s after %d steps\n", name, grid.Steps())
	return nil
}

func runPanel(cmd *cobra.Command, args []string) error {
	e, err := newEnv("panel")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(e.app.DataDir, 0755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(filepath.Join(e.app.DataDir, "panel.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer logFile.Close()
	e.log = logger.NewWriter(logFile, e.app.Debug)

	cfg, saved, err := e.simConfig()
	if err != nil {
		return err
	}
	store, closeStore, err := e.store()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	dir, closeDir, err := e.directory(ctx)
	if err != nil {
		return err
	}
	defer closeDir()

	grid, err := rd.New(cfg, e.app.Grid.Workers)
	if err != nil {
		return err
	}
	m := panel.New(panel.Deps{
		Config:   cfg,
		Grid:     grid,
		Store:    store,
		Recorder: recorder.New(grid, dir, e.recorderOptions(), e.log),
		Actions:  e.actionsFor(cmd, saved),
		Log:      e.log,
	})

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
