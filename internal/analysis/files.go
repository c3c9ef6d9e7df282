package analysis

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/BetterCallFirewall/Sentinel/internal/models"
	"golang.org/x/sync/errgroup"
)

// FileSource is one file of a submission, whatever it came from
type FileSource interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// MultipartFile is a file uploaded through the New Analysis form.
// It must be read before the HTTP handler returns.
type MultipartFile struct {
	Header *multipart.FileHeader
}

func (f MultipartFile) Name() string                 { return f.Header.Filename }
func (f MultipartFile) Open() (io.ReadCloser, error) { return f.Header.Open() }

// LocalFile is a file on disk, used by the CLI
type LocalFile struct {
	Path string
}

func (f LocalFile) Name() string                 { return filepath.ToSlash(filepath.Clean(f.Path)) }
func (f LocalFile) Open() (io.ReadCloser, error) { return os.Open(f.Path) }

// StaticFile is text that is already in memory (GitHub intake, tests)
type StaticFile struct {
	FileName string
	Text     string
}

func (f StaticFile) Name() string { return f.FileName }
func (f StaticFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.Text)), nil
}

// ReadFiles reads every source concurrently and returns them in the given order.
// A single failure fails the whole batch with ErrReadFiles.
// maxSize <= 0 disables the size limit.
func ReadFiles(ctx context.Context, sources []FileSource, maxSize int64) ([]models.SourceFile, error) {
	files := make([]models.SourceFile, len(sources))

	g, gCtx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			content, err := readSource(src, maxSize)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrReadFiles, src.Name(), err)
			}
			files[i] = models.SourceFile{Name: src.Name(), Content: content}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func readSource(src FileSource, maxSize int64) (string, error) {
	rc, err := src.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxSize > 0 {
		r = io.LimitReader(rc, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return "", fmt.Errorf("file exceeds %d bytes", maxSize)
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}
