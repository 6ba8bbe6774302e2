package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/rdlab/internal/config"
	"github.com/san-kum/rdlab/internal/export"
	"github.com/san-kum/rdlab/internal/kv"
	"github.com/san-kum/rdlab/internal/logger"
	"github.com/san-kum/rdlab/internal/notify"
	"github.com/san-kum/rdlab/internal/rd"
	"github.com/san-kum/rdlab/internal/settings"
)

var (
	appFile string
	dataDir string
	debug   bool
	jsonLog bool
	noColor bool

	// simulation source
	preset       string
	paramsFile   string
	fromSettings string
	styleMapFile string
	width        int
	height       int

	// recording
	frames    int
	prefix    string
	restart   bool
	output    string
	outDir    string
	bucket    string
	steps     int
	warmup    int
	plot      bool
	keepImage bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "rdlab",
		Short:         "reaction-diffusion playground",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPanel,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&appFile, "config", "rdlab.yaml", "application config file")
	pf.StringVar(&dataDir, "data", "", "data directory (overrides config)")
	pf.BoolVar(&debug, "debug", false, "debug logging")
	pf.BoolVar(&jsonLog, "json-log", false, "log as json lines")
	pf.BoolVar(&noColor, "no-color", false, "disable colored logs")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "record a frame sequence",
		RunE:  runRecording,
	}
	sourceFlags(runCmd)
	runCmd.Flags().IntVar(&frames, "frames", 0, "frames to record")
	runCmd.Flags().StringVar(&prefix, "prefix", "", "frame file name prefix")
	runCmd.Flags().BoolVar(&restart, "restart", true, "reset the simulation before recording")
	runCmd.Flags().StringVar(&output, "output", "", "zip or dir")
	runCmd.Flags().StringVar(&outDir, "out", "", "output directory")
	runCmd.Flags().StringVar(&bucket, "bucket", "", "write to a cloud storage bucket instead of --out")
	runCmd.Flags().IntVar(&steps, "steps", 0, "simulation steps per frame")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot mean B concentration per frame")

	imageCmd := &cobra.Command{
		Use:   "image",
		Short: "export a single frame",
		RunE:  runImage,
	}
	sourceFlags(imageCmd)
	imageCmd.Flags().IntVar(&warmup, "steps", 2000, "simulation steps before the frame")
	imageCmd.Flags().StringVar(&outDir, "out", "", "output directory")
	imageCmd.Flags().StringVar(&bucket, "bucket", "", "write to a cloud storage bucket instead of --out")

	panelCmd := &cobra.Command{
		Use:   "panel",
		Short: "interactive control panel",
		RunE:  runPanel,
	}
	sourceFlags(panelCmd)
	panelCmd.Flags().StringVar(&outDir, "out", "", "output directory")

	rootCmd.AddCommand(runCmd, imageCmd, panelCmd, presetsCommand(), settingsCommand(), configCommand())

	if err := rootCmd.Execute(); err != nil {
		if n, ok := notify.FromError(err); ok {
			fmt.Fprintf(os.Stderr, "%s: %s\n", n.Kind, n.Message)
		}
		os.Exit(1)
	}
}

func sourceFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "", "start from a built-in preset")
	f.StringVar(&paramsFile, "params", "", "parameter file (yaml)")
	f.StringVar(&fromSettings, "settings", "", "start from saved settings")
	f.StringVar(&styleMapFile, "style-map", "", "style map image")
	f.IntVar(&width, "width", 0, "canvas width")
	f.IntVar(&height, "height", 0, "canvas height")
}

type env struct {
	app *config.App
	log *logger.Logger
}

func newEnv(tag string) (*env, error) {
	app, err := config.LoadApp(appFile)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", appFile, err)
	}
	if dataDir != "" {
		app.DataDir = dataDir
	}
	app.Debug = app.Debug || debug

	log := logger.NewConsole(app.Debug, tag, noColor)
	if jsonLog {
		log = logger.New(app.Debug)
	}
	return &env{app: app, log: log}, nil
}

func (e *env) store() (*settings.Store, func() error, error) {
	st, err := kv.Open(e.app.Store.Backend, e.app.DataDir, e.app.Store.Quota)
	if err != nil {
		return nil, nil, err
	}
	closer := func() error { return nil }
	if c, ok := st.(io.Closer); ok {
		closer = c.Close
	}
	e.log.Debug().Str("backend", e.app.Store.Backend).Str("dir", e.app.DataDir).Msg("settings store open")
	return settings.New(st, e.log), closer, nil
}

// simConfig builds the starting parameters: preset, then parameter file,
// then saved settings, then flags.
func (e *env) simConfig() (*config.Config, *settings.Actions, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if paramsFile != "" {
		loaded, err := config.Load(paramsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load params: %w", err)
		}
		cfg = loaded
	}

	var actions *settings.Actions
	if fromSettings != "" {
		store, closeStore, err := e.store()
		if err != nil {
			return nil, nil, err
		}
		defer closeStore()
		snap, err := store.Load(fromSettings)
		if err != nil {
			return nil, nil, err
		}
		if err := cfg.Merge(snap.Configuration); err != nil {
			return nil, nil, err
		}
		actions = snap.Actions
	}

	if styleMapFile != "" {
		data, err := rd.DataURL(styleMapFile)
		if err != nil {
			return nil, nil, err
		}
		cfg.StyleMap.ImageData, cfg.StyleMap.ImageLoaded = data, true
	}
	if width > 0 {
		cfg.Canvas.Width = width
	}
	if height > 0 {
		cfg.Canvas.Height = height
	}
	return cfg, actions, nil
}

func (e *env) directory(ctx context.Context) (export.Directory, func() error, error) {
	name, prefix := e.app.Bucket.Name, e.app.Bucket.Prefix
	if bucket != "" {
		name = bucket
	}
	if name != "" {
		e.log.Info().Str("bucket", name).Str("prefix", prefix).Msg("writing to bucket")
		return export.NewBucketDir(ctx, name, prefix)
	}
	dir := e.app.Recording.OutDir
	if outDir != "" {
		dir = outDir
	}
	return export.OSDir{Path: dir}, func() error { return nil }, nil
}
