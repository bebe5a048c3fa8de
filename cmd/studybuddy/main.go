package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/conorfennell/studybuddy/internal/config"
	"github.com/conorfennell/studybuddy/internal/logging"
)

const usage = `studybuddy - spaced repetition flashcards

Usage:
  studybuddy [flags]                          start the interactive shell
  studybuddy [flags] register                 create an account
  studybuddy [flags] import DECK_ID PATH|URL  import cards from a file, directory or git repository
  studybuddy [flags] export FILE [DECK_ID]    export cards to .csv or .xlsx
  studybuddy [flags] due [DECK_ID]            list cards due today
  studybuddy [flags] stats                    today's summary and the last seven days
  studybuddy [flags] backup create|list
  studybuddy [flags] backup restore|delete NAME

Commands that act on your cards need --email; the password is read from
STUDYBUDDY_PASSWORD or prompted for.

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "error:", describe(err))
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("studybuddy", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	config.RegisterFlags(flags)
	email := flags.String("email", "", "account to act as for one-shot commands")
	skipDuplicates := flags.Bool("skip-duplicates", false, "skip imported cards already in the deck")
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	logger, err := logging.Setup(cfg.Log.Level, cfg.Log.Format, stderr)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, logger, stdin, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.close()

	cmd := commandLine{email: *email, skipDuplicates: *skipDuplicates, args: flags.Args()}
	if len(cmd.args) == 0 || cmd.args[0] == "shell" {
		return a.shell(ctx)
	}
	return a.oneShot(ctx, cmd)
}
