// Package export packages captured frames: as one zip archive held in memory,
// or streamed file by file into a directory.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/san-kum/rdlab/internal/capture"
)

const ArchiveExt = ".zip"

// Archive is a finished zip, ready to hand to a directory or serve as a download.
type Archive struct {
	Name string
	Data []byte
}

// ArchiveName is prefix-<unix millis>.zip.
func ArchiveName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%d%s", prefix, now.UnixMilli(), ArchiveExt)
}

// ImageName names a single exported frame.
func ImageName(now time.Time) string {
	return fmt.Sprintf("reaction-diffusion-%d%s", now.UnixMilli(), capture.FrameExt)
}

// PackageAsArchive zips records in order, each under its own filename.
// The same records and time always produce the same bytes.
func PackageAsArchive(records []capture.FrameRecord, prefix string, now time.Time) (*Archive, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, rec := range records {
		hdr := &zip.FileHeader{
			Name: rec.Filename,
			// frames are already compressed PNGs
			Method:   zip.Store,
			Modified: now.UTC(),
		}
		f, err := w.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("export: add %s: %w", rec.Filename, err)
		}
		if _, err := f.Write(rec.Payload); err != nil {
			return nil, fmt.Errorf("export: write %s: %w", rec.Filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("export: close archive: %w", err)
	}
	return &Archive{Name: ArchiveName(prefix, now), Data: buf.Bytes()}, nil
}

// WriteTo stores the archive in dir under its name.
func (a *Archive) WriteTo(ctx context.Context, dir Directory) error {
	return writeFile(ctx, dir, a.Name, a.Data)
}
