package github

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/BetterCallFirewall/Sentinel/internal/models"
	"github.com/google/go-github/v77/github"
	log "github.com/sirupsen/logrus"
)

// ErrTooManyFiles is returned when a directory holds more files than the fetch limit
var ErrTooManyFiles = errors.New("too many files in repository path")

// FetchOptions bounds a repository fetch
type FetchOptions struct {
	// Ref is a branch, tag or commit; empty means the default branch
	Ref string
	// MaxFiles <= 0 means no limit
	MaxFiles int
	// MaxFileSize skips larger files; <= 0 means no limit
	MaxFileSize int64
}

// FetchFiles returns the text of every file under dir (recursively), or of dir itself if it is a file
func (c *Client) FetchFiles(ctx context.Context, dir string, opts FetchOptions) ([]models.SourceFile, error) {
	var files []models.SourceFile
	if err := c.fetch(ctx, path.Clean("/"+dir)[1:], opts, &files); err != nil {
		return nil, err
	}
	log.Infof("📥 Fetched %d files from %s/%s", len(files), c.FullName(), dir)
	return files, nil
}

func (c *Client) fetch(ctx context.Context, p string, opts FetchOptions, files *[]models.SourceFile) error {
	getOpts := &github.RepositoryContentGetOptions{Ref: opts.Ref}

	file, entries, _, err := c.github.Repositories.GetContents(ctx, c.Owner, c.Name, p, getOpts)
	if err != nil {
		return fmt.Errorf("failed to get contents of %q: %w", p, err)
	}

	if file != nil {
		return c.appendFile(file, opts, files)
	}

	for _, entry := range entries {
		switch entry.GetType() {
		case "dir":
			if err := c.fetch(ctx, entry.GetPath(), opts, files); err != nil {
				return err
			}
		case "file":
			if opts.MaxFileSize > 0 && int64(entry.GetSize()) > opts.MaxFileSize {
				log.Warnf("⚠️ Skipping %s: %d bytes", entry.GetPath(), entry.GetSize())
				continue
			}
			content, _, _, err := c.github.Repositories.GetContents(ctx, c.Owner, c.Name, entry.GetPath(), getOpts)
			if err != nil {
				return fmt.Errorf("failed to get file %q: %w", entry.GetPath(), err)
			}
			if content == nil {
				continue
			}
			if err := c.appendFile(content, opts, files); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Client) appendFile(file *github.RepositoryContent, opts FetchOptions, files *[]models.SourceFile) error {
	if opts.MaxFiles > 0 && len(*files) >= opts.MaxFiles {
		return fmt.Errorf("%w: limit is %d", ErrTooManyFiles, opts.MaxFiles)
	}
	if opts.MaxFileSize > 0 && int64(file.GetSize()) > opts.MaxFileSize {
		log.Warnf("⚠️ Skipping %s: %d bytes", file.GetPath(), file.GetSize())
		return nil
	}

	text, err := file.GetContent()
	if err != nil {
		return fmt.Errorf("failed to decode %q: %w", file.GetPath(), err)
	}
	*files = append(*files, models.SourceFile{Name: file.GetPath(), Content: text})
	return nil
}
