package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/rdlab/internal/config"
	"github.com/san-kum/rdlab/internal/notify"
	"github.com/san-kum/rdlab/internal/settings"
)

func presetsCommand() *cobra.Command {
	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "built-in parameter presets",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tF\tK\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%s\n", name, cfg.F, cfg.K, config.Presets[name].Description)
			}
			return w.Flush()
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export [name] [file]",
		Short: "write a preset as a parameter file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(args[0])
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
			}
			if len(args) == 2 {
				return config.Save(args[1], cfg)
			}
			return yaml.NewEncoder(os.Stdout).Encode(cfg)
		},
	}

	presetsCmd.AddCommand(listCmd, exportCmd)
	return presetsCmd
}

func settingsCommand() *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "saved settings",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore("settings", func(e *env, st *settings.Store) error {
				names, err := st.List()
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tVERSION\tFRAMES\tPREFIX")
				for _, name := range names {
					snap, err := st.Load(name)
					if err != nil {
						return err
					}
					frames, prefix := "-", "-"
					if snap.Actions != nil {
						frames = fmt.Sprint(snap.Actions.TotalRecordingFrames)
						prefix = snap.Actions.RecordingPrefix
					}
					fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", name, snap.Version, frames, prefix)
				}
				return w.Flush()
			})
		},
	}

	saveCmd := &cobra.Command{
		Use:   "save [name]",
		Short: "save the current parameters under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore("settings", func(e *env, st *settings.Store) error {
				cfg, saved, err := e.simConfig()
				if err != nil {
					return err
				}
				tree, err := cfg.Tree()
				if err != nil {
					return err
				}
				exclusions := settings.ImageExclusions
				if keepImage {
					exclusions = nil
				}
				if err := st.Save(args[0], tree, exclusions, settings.WithActions(e.actionsFor(cmd, saved))); err != nil {
					return err
				}
				fmt.Println(notify.Successf("Settings saved as %q.", args[0]))
				return nil
			})
		},
	}
	sourceFlags(saveCmd)
	saveCmd.Flags().IntVar(&frames, "frames", 0, "frames to record")
	saveCmd.Flags().StringVar(&prefix, "prefix", "", "frame file name prefix")
	saveCmd.Flags().BoolVar(&restart, "restart", true, "reset the simulation before recording")
	saveCmd.Flags().BoolVar(&keepImage, "keep-image", false, "store the style map image too")

	var outFile string
	loadCmd := &cobra.Command{
		Use:   "load [name]",
		Short: "print saved settings as a parameter file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore("settings", func(e *env, st *settings.Store) error {
				snap, err := st.Load(args[0])
				if err != nil {
					return err
				}
				cfg := config.DefaultConfig()
				if err := cfg.Merge(snap.Configuration); err != nil {
					return err
				}
				if snap.Legacy() {
					e.log.Info().Str("name", args[0]).Msg("legacy settings without version")
				}
				if outFile != "" {
					return config.Save(outFile, cfg)
				}
				return yaml.NewEncoder(os.Stdout).Encode(cfg)
			})
		},
	}
	loadCmd.Flags().StringVarP(&outFile, "out", "o", "", "write to a parameter file")

	deleteCmd := &cobra.Command{
		Use:   "delete [name]",
		Short: "delete saved settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore("settings", func(e *env, st *settings.Store) error {
				if err := st.Delete(args[0]); err != nil {
					return err
				}
				fmt.Println(notify.Successf("Settings %q deleted.", args[0]))
				return nil
			})
		},
	}

	settingsCmd.AddCommand(listCmd, saveCmd, loadCmd, deleteCmd)
	return settingsCmd
}

func withStore(tag string, fn func(*env, *settings.Store) error) error {
	e, err := newEnv(tag)
	if err != nil {
		return err
	}
	st, closeStore, err := e.store()
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(e, st)
}

func configCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "application config",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "write the default config to --config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.InitApp(appFile, force); err != nil {
				if errors.Is(err, config.ErrAppExists) {
					return fmt.Errorf("%s exists (use --force to overwrite)", appFile)
				}
				return err
			}
			fmt.Println(notify.Successf("Wrote %s.", appFile))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	configCmd.AddCommand(initCmd)
	return configCmd
}
