package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/san-kum/rdlab/internal/capture"
)

var ErrInvalidName = errors.New("export: invalid file name")

// Directory is a place frames can be written to by name. Create replaces an
// existing file of the same name.
type Directory interface {
	Create(ctx context.Context, name string) (io.WriteCloser, error)
}

// WriteResult is the outcome of writing one record.
type WriteResult struct {
	Filename string
	Err      error
}

func (r WriteResult) OK() bool { return r.Err == nil }

// PartialWriteFailure summarises the failed files of a batch.
type PartialWriteFailure struct {
	Failed []WriteResult
	Total  int
}

func (e *PartialWriteFailure) Error() string {
	names := make([]string, len(e.Failed))
	for i, r := range e.Failed {
		names[i] = r.Filename
	}
	return fmt.Sprintf("export: %d of %d files failed: %s", len(e.Failed), e.Total, strings.Join(names, ", "))
}

// Failed returns nil when every write succeeded, and a PartialWriteFailure
// listing the failures otherwise.
func Failed(results []WriteResult) error {
	var failed []WriteResult
	for _, r := range results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &PartialWriteFailure{Failed: failed, Total: len(results)}
}

// StreamToDirectory writes each record independently. A failed write is
// recorded and the remaining records are still written; the result has one
// entry per record, in order.
func StreamToDirectory(ctx context.Context, dir Directory, records ...capture.FrameRecord) []WriteResult {
	results := make([]WriteResult, len(records))
	for i, rec := range records {
		results[i] = WriteResult{Filename: rec.Filename, Err: writeFile(ctx, dir, rec.Filename, rec.Payload)}
	}
	return results
}

func writeFile(ctx context.Context, dir Directory, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w, err := dir.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// OSDir writes into a local folder, creating it on first use.
type OSDir struct {
	Path string
}

func (d OSDir) Create(_ context.Context, name string) (io.WriteCloser, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(d.Path, 0755); err != nil {
		return nil, err
	}
	return os.Create(filepath.Join(d.Path, name))
}

// BucketDir writes objects into a Google Cloud Storage bucket under Prefix.
type BucketDir struct {
	Bucket *storage.BucketHandle
	Prefix string
}

// NewBucketDir connects with application default credentials.
func NewBucketDir(ctx context.Context, bucket, prefix string) (*BucketDir, func() error, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("export: storage client: %w", err)
	}
	return &BucketDir{Bucket: client.Bucket(bucket), Prefix: prefix}, client.Close, nil
}

func (d *BucketDir) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	w := d.Bucket.Object(path.Join(d.Prefix, name)).NewWriter(ctx)
	if strings.HasSuffix(name, capture.FrameExt) {
		w.ContentType = "image/png"
	} else if strings.HasSuffix(name, ArchiveExt) {
		w.ContentType = "application/zip"
	}
	return w, nil
}
