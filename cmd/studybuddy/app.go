package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/studybuddy/internal/auth"
	"github.com/conorfennell/studybuddy/internal/backup"
	"github.com/conorfennell/studybuddy/internal/config"
	"github.com/conorfennell/studybuddy/internal/domain"
	"github.com/conorfennell/studybuddy/internal/importer"
	"github.com/conorfennell/studybuddy/internal/storage"
	"github.com/conorfennell/studybuddy/internal/study"
)

// app wires the store and services together for one process.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	in     *bufio.Scanner
	out    io.Writer
	errOut io.Writer

	store    *storage.Store
	auth     *auth.Manager
	study    *study.Service
	importer *importer.Importer
	backups  *backup.Manager
}

func newApp(cfg *config.Config, logger *slog.Logger, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		in:      bufio.NewScanner(stdin),
		out:     stdout,
		errOut:  stderr,
		backups: backup.New(cfg.DataDir, cfg.BackupDir, backup.WithLogger(logger)),
	}
	if err := a.open(); err != nil {
		return nil, err
	}
	return a, nil
}

// open connects the store and builds the services on it. Any session is
// lost.
func (a *app) open() error {
	store, err := storage.Open(a.cfg.Storage.Driver, a.cfg.DataDir, a.cfg.Storage.SQLitePath, time.Now)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	a.store = store
	a.auth = auth.NewManager(store.Users, a.logger)
	a.study = study.New(store, a.auth, study.WithLogger(a.logger))
	a.importer = importer.New(a.study, a.cfg.Import.ReposDir,
		importer.WithLogger(a.logger),
		importer.WithProgress(a.errOut),
	)
	a.logger.Debug("store opened", "driver", a.cfg.Storage.Driver, "data_dir", a.cfg.DataDir)
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// restore swaps in a backup with the store closed, then reopens it.
func (a *app) restore(name string) (string, error) {
	if err := a.close(); err != nil {
		return "", fmt.Errorf("failed to close store: %w", err)
	}
	saved, restoreErr := a.backups.Restore(name)
	if err := a.open(); err != nil {
		return saved, errors.Join(restoreErr, err)
	}
	return saved, restoreErr
}

// ask prints label and reads one trimmed line. It fails at end of input.
func (a *app) ask(label string) (string, error) {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(a.in.Text()), nil
}

// askSecret reads a password from STUDYBUDDY_PASSWORD, or prompts for it.
func (a *app) askSecret(label string) (string, error) {
	if p, ok := os.LookupEnv("STUDYBUDDY_PASSWORD"); ok {
		return p, nil
	}
	return a.ask(label)
}

func (a *app) askInt(label string, lo, hi int) (int, error) {
	for {
		s, err := a.ask(label)
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(s)
		if convErr == nil && n >= lo && n <= hi {
			return n, nil
		}
		fmt.Fprintf(a.out, "Please enter a number between %d and %d.\n", lo, hi)
	}
}

// askOptional returns nil for an empty answer.
func (a *app) askOptional(label string) (*string, error) {
	s, err := a.ask(label)
	if err != nil || s == "" {
		return nil, err
	}
	return &s, nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation(fmt.Sprintf("%q is not a valid id", s))
	}
	return id, nil
}

// describe is the user-facing text of an error.
func describe(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
