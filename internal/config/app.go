package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// Storage backends for saved settings.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Recording outputs.
const (
	OutputZip = "zip"
	OutputDir = "dir"
)

// DefaultQuota matches the 5 MiB a browser grants local storage.
const DefaultQuota = 5 << 20

// App is the lab's own configuration, read from rdlab.yaml.
type App struct {
	DataDir   string          `yaml:"data_dir"`
	Debug     bool            `yaml:"debug"`
	Store     StoreConfig     `yaml:"store"`
	Grid      GridConfig      `yaml:"grid"`
	Recording RecordingConfig `yaml:"recording"`
	Bucket    BucketConfig    `yaml:"bucket"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"`
	Quota   int    `yaml:"quota"`
}

type GridConfig struct {
	StepsPerFrame int `yaml:"steps_per_frame"`
	Workers       int `yaml:"workers"`
}

type RecordingConfig struct {
	Frames        int    `yaml:"frames"`
	Prefix        string `yaml:"prefix"`
	Restart       bool   `yaml:"restart"`
	Output        string `yaml:"output"`
	OutDir        string `yaml:"out_dir"`
	ArchivePrefix string `yaml:"archive_prefix"`
}

// BucketConfig points frame streaming at a Google Cloud Storage bucket
// instead of a local folder when Name is set.
type BucketConfig struct {
	Name   string `yaml:"name"`
	Prefix string `yaml:"prefix"`
}

func DefaultApp() *App {
	return &App{
		DataDir: ".rdlab",
		Store:   StoreConfig{Backend: BackendFile, Quota: DefaultQuota},
		Grid:    GridConfig{StepsPerFrame: 60},
		Recording: RecordingConfig{
			Frames:        100,
			Prefix:        "frame_",
			Restart:       true,
			Output:        OutputZip,
			OutDir:        "frames",
			ArchivePrefix: "reaction-diffusion",
		},
	}
}

// LoadApp reads path over the defaults. A missing file is not an error.
func LoadApp(path string) (*App, error) {
	cfg := DefaultApp()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func SaveApp(path string, cfg *App) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var ErrAppExists = errors.New("config: application config already exists")

// InitApp writes the default application config to path. An existing file is
// kept unless force is set.
func InitApp(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return ErrAppExists
		}
	}
	return SaveApp(path, DefaultApp())
}
