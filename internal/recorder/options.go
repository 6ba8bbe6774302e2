package recorder

import "github.com/san-kum/rdlab/internal/config"

type Options struct {
	// StepsPerFrame is how far the simulation advances between captures.
	StepsPerFrame int
	// Output is config.OutputZip or config.OutputDir.
	Output        string
	ArchivePrefix string
	// Retries bounds consecutive not-ready captures before Run gives up.
	Retries int
}

func DefaultOptions() Options {
	return Options{StepsPerFrame: 60, Output: config.OutputZip, ArchivePrefix: "reaction-diffusion", Retries: 3}
}

// FromApp takes the recording section of the application config.
func FromApp(app *config.App) Options {
	o := DefaultOptions()
	if app.Grid.StepsPerFrame > 0 {
		o.StepsPerFrame = app.Grid.StepsPerFrame
	}
	if app.Recording.Output != "" {
		o.Output = app.Recording.Output
	}
	if app.Recording.ArchivePrefix != "" {
		o.ArchivePrefix = app.Recording.ArchivePrefix
	}
	return o
}
