package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/conorfennell/studybuddy/internal/domain"
)

// commandLine is a parsed one-shot invocation.
type commandLine struct {
	email          string
	skipDuplicates bool
	args           []string
}

func (a *app) oneShot(ctx context.Context, cmd commandLine) error {
	name, args := cmd.args[0], cmd.args[1:]
	switch name {
	case "register":
		return a.cmdRegister(cmd.email)
	case "backup":
		return a.cmdBackup(args)
	}

	if err := a.loginFromFlags(cmd.email); err != nil {
		return err
	}
	switch name {
	case "import":
		if len(args) != 2 {
			return domain.Validation("usage: import DECK_ID PATH|URL")
		}
		deckID, err := parseID(args[0])
		if err != nil {
			return err
		}
		return a.runImport(ctx, deckID, args[1], cmd.skipDuplicates)
	case "export":
		if len(args) < 1 || len(args) > 2 {
			return domain.Validation("usage: export FILE [DECK_ID]")
		}
		return a.runExport(args[0], args[1:])
	case "due":
		return a.printDue(args)
	case "stats":
		if err := a.printToday(); err != nil {
			return err
		}
		return a.printWeek()
	}
	return domain.Validation(fmt.Sprintf("unknown command %q, run with --help for usage", name))
}

func (a *app) cmdRegister(email string) error {
	var err error
	if email == "" {
		if email, err = a.ask("Email: "); err != nil {
			return err
		}
	}
	password, err := a.askSecret("Password (min 6 characters): ")
	if err != nil {
		return err
	}
	user, err := a.auth.Register(email, password)
	if err != nil {
		return err
	}
	a.printf("Registered %s (id %d).\n", user.Email, user.ID)
	return nil
}

func (a *app) loginFromFlags(email string) error {
	if email == "" {
		return domain.Unauthorized("--email is required for this command")
	}
	password, err := a.askSecret("Password: ")
	if err != nil {
		return err
	}
	_, err = a.auth.Login(email, password)
	return err
}

func (a *app) cmdBackup(args []string) error {
	if len(args) == 0 {
		return domain.Validation("usage: backup create|list|restore NAME|delete NAME")
	}
	switch args[0] {
	case "create":
		return a.createBackup()
	case "list":
		return a.printBackups()
	case "restore", "delete":
		if len(args) != 2 {
			return domain.Validation("usage: backup " + args[0] + " NAME")
		}
		if args[0] == "delete" {
			if err := a.backups.Delete(args[1]); err != nil {
				return err
			}
			a.printf("Deleted %s.\n", args[1])
			return nil
		}
		return a.restoreBackup(args[1])
	}
	return domain.Validation(fmt.Sprintf("unknown backup command %q", args[0]))
}

// runImport imports a file, a directory or a git repository into a deck.
func (a *app) runImport(ctx context.Context, deckID int64, source string, skipDuplicates bool) error {
	if _, err := a.study.GetDeck(deckID); err != nil {
		return err
	}
	if isGitURL(source) {
		report, err := a.importer.ImportGit(ctx, deckID, source, skipDuplicates)
		if err != nil {
			return err
		}
		a.printReport(report.Files, report.Imported, report.Skipped, report.Duplicates, len(report.Errors))
		return nil
	}

	st, err := os.Stat(source)
	if err != nil {
		return domain.NotFound("no such file or directory: " + source)
	}
	if st.IsDir() {
		report, err := a.importer.ImportDir(deckID, source, skipDuplicates)
		if err != nil {
			return err
		}
		a.printReport(report.Files, report.Imported, report.Skipped, report.Duplicates, len(report.Errors))
		for _, e := range report.Errors {
			a.printf("  %v\n", e)
		}
		return nil
	}
	res, err := a.importer.ImportFile(deckID, source, skipDuplicates)
	if err != nil {
		return err
	}
	a.printReport(1, res.Imported, res.Skipped, res.Duplicates, 0)
	return nil
}

func (a *app) printReport(files, imported, skipped, duplicates, failed int) {
	a.printf("Imported %d cards from %d files (%d skipped, %d duplicates, %d files failed).\n",
		imported, files, skipped, duplicates, failed)
}

func isGitURL(s string) bool {
	for _, p := range []string{"https://", "http://", "ssh://", "git://", "git@"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
