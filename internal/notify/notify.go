// Package notify turns operation outcomes into short user-facing notices.
package notify

import (
	"errors"
	"fmt"

	"github.com/san-kum/rdlab/internal/capture"
	"github.com/san-kum/rdlab/internal/export"
	"github.com/san-kum/rdlab/internal/settings"
)

type Kind int

const (
	Info Kind = iota
	Success
	ValidationAlert
	QuotaAlert
	ErrorAlert
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case ValidationAlert:
		return "validation"
	case QuotaAlert:
		return "quota"
	case ErrorAlert:
		return "error"
	}
	return "info"
}

// Alert reports whether the notice needs the user's attention.
func (k Kind) Alert() bool { return k >= ValidationAlert }

type Notice struct {
	Kind    Kind
	Message string
}

func (n Notice) String() string { return n.Message }

func Successf(format string, args ...any) Notice {
	return Notice{Kind: Success, Message: fmt.Sprintf(format, args...)}
}

func Infof(format string, args ...any) Notice {
	return Notice{Kind: Info, Message: fmt.Sprintf(format, args...)}
}

// FromError picks the notice for err. A nil error has no notice.
func FromError(err error) (Notice, bool) {
	if err == nil {
		return Notice{}, false
	}

	var partial *export.PartialWriteFailure
	switch {
	case errors.Is(err, settings.ErrValidation):
		return Notice{ValidationAlert, "Please enter a name for the settings."}, true
	case errors.Is(err, settings.ErrStorageQuota):
		return Notice{QuotaAlert, "Failed to save settings. The data might be too large (e.g., images). Try excluding large fields."}, true
	case errors.Is(err, settings.ErrNotFound):
		return Notice{ValidationAlert, err.Error()}, true
	case errors.Is(err, capture.ErrEncodeNotReady):
		return Notice{Info, "Frame not ready yet, retrying."}, true
	case errors.As(err, &partial):
		return Notice{ErrorAlert, partial.Error()}, true
	}
	return Notice{ErrorAlert, err.Error()}, true
}
