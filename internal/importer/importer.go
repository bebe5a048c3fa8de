// Package importer loads cards from files, directories and git
// repositories into a deck.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/conorfennell/studybuddy/internal/domain"
	"github.com/conorfennell/studybuddy/internal/gitsource"
	"github.com/conorfennell/studybuddy/internal/parser"
	"github.com/conorfennell/studybuddy/internal/study"
	"github.com/conorfennell/studybuddy/internal/transfer"
)

// CardImporter stores a batch of cards in a deck. study.Service satisfies it.
type CardImporter interface {
	ImportCards(deckID int64, cards []domain.CardInput, skipDuplicates bool) (study.ImportResult, error)
}

// SyncFunc brings a local clone of url at localPath up to date.
type SyncFunc func(ctx context.Context, url, localPath string) error

// Importer reads card files and hands their contents to a CardImporter.
type Importer struct {
	cards    CardImporter
	reposDir string
	logger   *slog.Logger
	sync     SyncFunc
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(i *Importer) { i.logger = l }
}

// WithSync replaces the git clone/pull step.
func WithSync(fn SyncFunc) Option {
	return func(i *Importer) { i.sync = fn }
}

// WithProgress sends git transfer progress to w.
func WithProgress(w io.Writer) Option {
	return func(i *Importer) {
		i.sync = func(ctx context.Context, url, localPath string) error {
			return gitsource.Sync(ctx, url, localPath, w)
		}
	}
}

// New returns an Importer. Git repositories are cloned under reposDir.
func New(cards CardImporter, reposDir string, opts ...Option) *Importer {
	i := &Importer{
		cards:    cards,
		reposDir: reposDir,
		logger:   slog.Default(),
		sync: func(ctx context.Context, url, localPath string) error {
			return gitsource.Sync(ctx, url, localPath, nil)
		},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Report summarises a directory or repository import.
type Report struct {
	study.ImportResult
	Files  int
	Errors []error
}

// Supported reports whether a file name has an importable extension.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".csv", ".xlsx":
		return true
	}
	return false
}

// ImportFile imports a single Markdown, CSV or XLSX file. Rows the file
// reader rejected are added to Skipped.
func (i *Importer) ImportFile(deckID int64, path string, skipDuplicates bool) (study.ImportResult, error) {
	inputs, skipped, err := readCards(path)
	if err != nil {
		return study.ImportResult{}, err
	}
	res, err := i.cards.ImportCards(deckID, inputs, skipDuplicates)
	res.Skipped += skipped
	if err != nil {
		return res, err
	}
	i.logger.Info("file imported", "path", path, "deck_id", deckID, "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}

func readCards(path string) ([]domain.CardInput, int, error) {
	if strings.EqualFold(filepath.Ext(path), ".md") {
		entries, err := parser.ParseFile(path)
		if err != nil {
			return nil, 0, err
		}
		inputs := make([]domain.CardInput, 0, len(entries))
		for _, e := range entries {
			inputs = append(inputs, domain.CardInput{Front: e.Front, Back: e.CardBack()})
		}
		return inputs, 0, nil
	}
	rows, err := transfer.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	return rows.Cards, rows.Skipped, nil
}

// ImportDir imports every supported file under dir, skipping hidden
// directories such as .git. A file that fails is recorded in the report and
// the walk continues, unless the failure would repeat for every file.
func (i *Importer) ImportDir(deckID int64, dir string, skipDuplicates bool) (Report, error) {
	var report Report
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !Supported(d.Name()) {
			return nil
		}

		res, err := i.ImportFile(deckID, path, skipDuplicates)
		report.Add(res)
		if err != nil {
			if isFatal(err) {
				return err
			}
			i.logger.Warn("file import failed", "path", path, "error", err)
			report.Errors = append(report.Errors, fmt.Errorf("importing %s: %w", path, err))
			return nil
		}
		report.Files++
		return nil
	})
	if walkErr != nil {
		return report, walkErr
	}

	i.logger.Info("directory import complete",
		"path", dir,
		"files", report.Files,
		"imported", report.Imported,
		"skipped", report.Skipped,
		"duplicates", report.Duplicates,
		"errors", len(report.Errors),
	)
	return report, nil
}

// ImportGit clones or pulls url under the repositories directory and
// imports the working tree.
func (i *Importer) ImportGit(ctx context.Context, deckID int64, url string, skipDuplicates bool) (Report, error) {
	localPath, err := RepoPath(i.reposDir, url)
	if err != nil {
		return Report{}, err
	}
	if err := i.sync(ctx, url, localPath); err != nil {
		i.logger.Error("git sync failed", "url", url, "error", err)
		return Report{}, err
	}
	return i.ImportDir(deckID, localPath, skipDuplicates)
}

// isFatal reports errors that would repeat for every remaining file.
func isFatal(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrStorage)
}
