package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/conorfennell/studybuddy/internal/domain"
	"github.com/conorfennell/studybuddy/internal/study"
	"github.com/conorfennell/studybuddy/internal/transfer"
)

type shellCommand struct {
	usage string
	help  string
	run   func(a *app, ctx context.Context, args []string) error
}

var shellCommands map[string]shellCommand

func init() {
	shellCommands = map[string]shellCommand{
		"help":     {"help", "show this list", func(a *app, _ context.Context, _ []string) error { a.printHelp(); return nil }},
		"register": {"register", "create an account", func(a *app, _ context.Context, _ []string) error { return a.cmdRegister("") }},
		"login":    {"login", "log in", (*app).shellLogin},
		"logout":   {"logout", "log out", (*app).shellLogout},
		"whoami":   {"whoami", "show the logged-in account", (*app).shellWhoami},

		"decks":       {"decks", "list your decks", (*app).shellDecks},
		"deck-add":    {"deck-add", "create a deck", (*app).shellDeckAdd},
		"deck-edit":   {"deck-edit ID", "rename a deck or change its description", (*app).shellDeckEdit},
		"deck-delete": {"deck-delete ID", "delete a deck with its cards", (*app).shellDeckDelete},

		"cards":       {"cards DECK_ID", "list the cards of a deck", (*app).shellCards},
		"card-add":    {"card-add DECK_ID", "add cards to a deck", (*app).shellCardAdd},
		"card-edit":   {"card-edit ID", "change a card", (*app).shellCardEdit},
		"card-delete": {"card-delete ID", "delete a card", (*app).shellCardDelete},
		"reset":       {"reset ID", "restart a card's schedule", (*app).shellReset},
		"search":      {"search [DECK_ID]", "find cards by text", (*app).shellSearch},

		"due":    {"due [DECK_ID]", "list cards due today", func(a *app, _ context.Context, args []string) error { return a.printDue(args) }},
		"review": {"review [DECK_ID]", "study the cards due today", (*app).shellReview},
		"today":  {"today", "today's summary", func(a *app, _ context.Context, _ []string) error { return a.printToday() }},
		"week":   {"week", "reviews over the last seven days", func(a *app, _ context.Context, _ []string) error { return a.printWeek() }},
		"report": {"report [DECK_ID]", "deck statistics and mastery", (*app).shellReport},

		"import": {"import DECK_ID PATH|URL", "import a .csv, .xlsx or .md file, a directory or a git repository", (*app).shellImport},
		"export": {"export FILE [DECK_ID]", "export cards to .csv or .xlsx", func(a *app, _ context.Context, args []string) error {
			if len(args) < 1 {
				return domain.Validation("usage: export FILE [DECK_ID]")
			}
			return a.runExport(args[0], args[1:])
		}},

		"backup":        {"backup", "back up the data directory", func(a *app, _ context.Context, _ []string) error { return a.createBackup() }},
		"backups":       {"backups", "list backups", func(a *app, _ context.Context, _ []string) error { return a.printBackups() }},
		"restore":       {"restore NAME", "restore a backup", (*app).shellRestore},
		"backup-delete": {"backup-delete NAME", "delete a backup", (*app).shellBackupDelete},
	}
}

// shell reads commands until quit or end of input.
func (a *app) shell(ctx context.Context) error {
	a.printf("StudyBuddy. Type help for commands, quit to leave.\n")
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := a.ask(a.prompt())
		if errors.Is(err, io.EOF) {
			a.printf("\n")
			return nil
		}
		if err != nil {
			return err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		cmd, ok := shellCommands[fields[0]]
		if !ok {
			a.printf("Unknown command %q. Type help for commands.\n", fields[0])
			continue
		}
		if err := cmd.run(a, ctx, fields[1:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			a.printf("Error: %s\n", describe(err))
		}
	}
}

func (a *app) prompt() string {
	if u, ok := a.auth.CurrentUser(); ok {
		return u.Email + "> "
	}
	return "> "
}

func (a *app) printHelp() {
	names := []string{
		"register", "login", "logout", "whoami",
		"decks", "deck-add", "deck-edit", "deck-delete",
		"cards", "card-add", "card-edit", "card-delete", "reset", "search",
		"due", "review", "today", "week", "report",
		"import", "export", "backup", "backups", "restore", "backup-delete",
		"help",
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, n := range names {
		c := shellCommands[n]
		fmt.Fprintf(w, "  %s\t%s\n", c.usage, c.help)
	}
	fmt.Fprintf(w, "  quit\tleave\n")
	w.Flush()
}

func (a *app) shellLogin(_ context.Context, _ []string) error {
	email, err := a.ask("Email: ")
	if err != nil {
		return err
	}
	password, err := a.ask("Password: ")
	if err != nil {
		return err
	}
	user, err := a.auth.Login(email, password)
	if err != nil {
		return err
	}
	a.printf("Welcome, %s.\n", user.Email)
	return nil
}

func (a *app) shellLogout(_ context.Context, _ []string) error {
	if err := a.auth.Logout(); err != nil {
		return err
	}
	a.printf("Logged out.\n")
	return nil
}

func (a *app) shellWhoami(_ context.Context, _ []string) error {
	u, ok := a.auth.CurrentUser()
	if !ok {
		a.printf("Not logged in.\n")
		return nil
	}
	a.printf("%s (id %d)\n", u.Email, u.ID)
	return nil
}

func (a *app) shellDecks(_ context.Context, _ []string) error {
	decks, err := a.study.ListDecks()
	if err != nil {
		return err
	}
	if len(decks) == 0 {
		a.printf("No decks yet. Create one with deck-add.\n")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCARDS\tDESCRIPTION")
	for _, d := range decks {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", d.ID, d.Name, d.CardCount, d.Description)
	}
	return w.Flush()
}

func (a *app) shellDeckAdd(_ context.Context, _ []string) error {
	name, err := a.ask("Name: ")
	if err != nil {
		return err
	}
	desc, err := a.ask("Description (optional): ")
	if err != nil {
		return err
	}
	deck, err := a.study.CreateDeck(name, desc)
	if err != nil {
		return err
	}
	a.printf("Created deck %d.\n", deck.ID)
	return nil
}

func (a *app) shellDeckEdit(_ context.Context, args []string) error {
	id, err := oneID(args, "deck-edit ID")
	if err != nil {
		return err
	}
	if _, err := a.study.GetDeck(id); err != nil {
		return err
	}
	name, err := a.askOptional("New name (empty keeps it): ")
	if err != nil {
		return err
	}
	desc, err := a.askOptional("New description (empty keeps it): ")
	if err != nil {
		return err
	}
	deck, err := a.study.UpdateDeck(id, name, desc)
	if err != nil {
		return err
	}
	a.printf("Deck %d is now %q.\n", deck.ID, deck.Name)
	return nil
}

func (a *app) shellDeckDelete(_ context.Context, args []string) error {
	id, err := oneID(args, "deck-delete ID")
	if err != nil {
		return err
	}
	deck, err := a.study.GetDeck(id)
	if err != nil {
		return err
	}
	if !a.confirm(fmt.Sprintf("Delete %q and all its cards? [y/N] ", deck.Name)) {
		return nil
	}
	n, err := a.study.DeleteDeck(id)
	if err != nil {
		return err
	}
	a.printf("Deleted deck %q and %d cards.\n", deck.Name, n)
	return nil
}

func (a *app) shellCards(_ context.Context, args []string) error {
	id, err := oneID(args, "cards DECK_ID")
	if err != nil {
		return err
	}
	cards, err := a.study.ListCards(id)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		a.printf("This deck has no cards.\n")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFRONT\tBACK\tDUE\tEF")
	for _, c := range cards {
		due, ef := "-", "-"
		if c.Srs != nil {
			due, ef = c.Srs.DueDate.String(), fmt.Sprintf("%.2f", c.Srs.EF)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, oneLine(c.Front), oneLine(c.Back), due, ef)
	}
	return w.Flush()
}

func (a *app) shellCardAdd(_ context.Context, args []string) error {
	deckID, err := oneID(args, "card-add DECK_ID")
	if err != nil {
		return err
	}
	if _, err := a.study.GetDeck(deckID); err != nil {
		return err
	}
	a.printf("Enter an empty front to stop.\n")
	for {
		front, err := a.ask("Front: ")
		if err != nil || front == "" {
			return err
		}
		back, err := a.ask("Back: ")
		if err != nil {
			return err
		}
		card, err := a.study.CreateCard(deckID, front, back)
		if err != nil {
			a.printf("Error: %s\n", describe(err))
			continue
		}
		a.printf("Added card %d.\n", card.ID)
	}
}

func (a *app) shellCardEdit(_ context.Context, args []string) error {
	id, err := oneID(args, "card-edit ID")
	if err != nil {
		return err
	}
	card, err := a.study.GetCard(id)
	if err != nil {
		return err
	}
	a.printf("Front: %s\nBack: %s\n", card.Front, card.Back)
	front, err := a.askOptional("New front (empty keeps it): ")
	if err != nil {
		return err
	}
	back, err := a.askOptional("New back (empty keeps it): ")
	if err != nil {
		return err
	}
	if _, err := a.study.UpdateCard(id, front, back); err != nil {
		return err
	}
	a.printf("Card %d updated.\n", id)
	return nil
}

func (a *app) shellCardDelete(_ context.Context, args []string) error {
	id, err := oneID(args, "card-delete ID")
	if err != nil {
		return err
	}
	if err := a.study.DeleteCard(id); err != nil {
		return err
	}
	a.printf("Card %d deleted.\n", id)
	return nil
}

func (a *app) shellReset(_ context.Context, args []string) error {
	id, err := oneID(args, "reset ID")
	if err != nil {
		return err
	}
	st, err := a.study.ResetCard(id)
	if err != nil {
		return err
	}
	a.printf("Card %d starts over, due %s.\n", id, st.DueDate)
	return nil
}

func (a *app) shellSearch(_ context.Context, args []string) error {
	deckID, err := optionalID(args)
	if err != nil {
		return err
	}
	query, err := a.ask("Search for: ")
	if err != nil {
		return err
	}
	cards, err := a.study.SearchCards(query, deckID)
	if err != nil {
		return err
	}
	a.printf("%d matches.\n", len(cards))
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, c := range cards {
		fmt.Fprintf(w, "%d\tdeck %d\t%s\t%s\n", c.ID, c.DeckID, oneLine(c.Front), oneLine(c.Back))
	}
	return w.Flush()
}

func (a *app) printDue(args []string) error {
	deckID, err := optionalID(args)
	if err != nil {
		return err
	}
	due, err := a.study.DueCards(deckID)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		a.printf("Nothing is due today.\n")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDECK\tFRONT\tDUE")
	for _, d := range due {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", d.Card.ID, d.DeckName, oneLine(d.Card.Front), d.Srs.DueDate)
	}
	return w.Flush()
}

func (a *app) shellReview(ctx context.Context, args []string) error {
	deckID, err := optionalID(args)
	if err != nil {
		return err
	}
	due, err := a.study.DueCards(deckID)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		a.printf("No cards left for today. Come back tomorrow!\n")
		return nil
	}

	reviewed := 0
	for i, d := range due {
		if ctx.Err() != nil {
			break
		}
		a.printf("\n[%d/%d] %s\n%s\n", i+1, len(due), d.DeckName, d.Card.Front)
		if _, err := a.ask("Press Enter to show the answer..."); err != nil {
			return err
		}
		a.printf("%s\n", d.Card.Back)
		a.printf("0 blackout, 1 wrong, 2 wrong but familiar, 3 hard, 4 good, 5 easy\n")
		q, err := a.askInt("Quality (0-5): ", 0, 5)
		if err != nil {
			return err
		}
		st, err := a.study.SubmitReview(d.Card.ID, q)
		if err != nil {
			return err
		}
		reviewed++
		a.printf("Next review in %d days (%s).\n", st.IntervalDays, st.DueDate)
	}
	a.printf("\nSession complete: %d cards reviewed.\n", reviewed)
	return nil
}

func (a *app) printToday() error {
	s, err := a.study.TodaySummary()
	if err != nil {
		return err
	}
	a.printf("%s: %d due, %d reviewed today, average quality %.2f\n",
		s.Date, s.DueCards, s.ReviewedToday, s.AverageQuality)
	return nil
}

func (a *app) printWeek() error {
	s, err := a.study.WeeklyStats()
	if err != nil {
		return err
	}
	a.printf("Last 7 days: %d reviews, average quality %.2f\n", s.TotalReviews, s.AverageQuality)
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, d := range s.Days {
		fmt.Fprintf(w, "  %s\t%d\t%.2f\n", d.Date, d.Count, d.AverageQuality)
	}
	return w.Flush()
}

func (a *app) shellReport(_ context.Context, args []string) error {
	deckID, err := optionalID(args)
	if err != nil {
		return err
	}
	var reports []study.DeckReport
	if deckID != nil {
		r, err := a.study.DeckReport(*deckID)
		if err != nil {
			return err
		}
		reports = append(reports, r)
	} else if reports, err = a.study.AllDecksReport(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DECK\tCARDS\tDUE\tAVG EF\tLEARNING\tREVIEWING\tMASTERED")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\t%d\t%d\t%d\n",
			r.DeckName, r.TotalCards, r.DueCards, r.AverageEF,
			r.Mastery.Learning, r.Mastery.Reviewing, r.Mastery.Mastered)
	}
	return w.Flush()
}

func (a *app) shellImport(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return domain.Validation("usage: import DECK_ID PATH|URL")
	}
	deckID, err := parseID(args[0])
	if err != nil {
		return err
	}
	return a.runImport(ctx, deckID, args[1], a.confirm("Skip cards already in the deck? [y/N] "))
}

func (a *app) runExport(path string, rest []string) error {
	deckID, err := optionalID(rest)
	if err != nil {
		return err
	}
	cards, err := a.study.ExportCards(deckID)
	if err != nil {
		return err
	}
	if err := transfer.WriteFile(path, cards); err != nil {
		return err
	}
	a.printf("Exported %d cards to %s.\n", len(cards), path)
	return nil
}

func (a *app) createBackup() error {
	info, err := a.backups.Create()
	if err != nil {
		return err
	}
	a.printf("Created %s (%.2f MB).\n", info.Name, info.SizeMB())
	return nil
}

func (a *app) printBackups() error {
	list, err := a.backups.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.printf("No backups yet.\n")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCREATED\tSIZE MB")
	for _, b := range list {
		fmt.Fprintf(w, "%s\t%s\t%.2f\n", b.Name, b.Created.Format("2006-01-02 15:04:05"), b.SizeMB())
	}
	return w.Flush()
}

func (a *app) restoreBackup(name string) error {
	saved, err := a.restore(name)
	if err != nil {
		return err
	}
	if saved != "" {
		a.printf("Previous data saved as %s.\n", saved)
	}
	a.printf("Restored %s.\n", name)
	return nil
}

func (a *app) shellRestore(_ context.Context, args []string) error {
	if len(args) != 1 {
		return domain.Validation("usage: restore NAME")
	}
	if !a.confirm("Replace the current data with " + args[0] + "? [y/N] ") {
		return nil
	}
	if err := a.restoreBackup(args[0]); err != nil {
		return err
	}
	a.printf("Please log in again.\n")
	return nil
}

func (a *app) shellBackupDelete(_ context.Context, args []string) error {
	if len(args) != 1 {
		return domain.Validation("usage: backup-delete NAME")
	}
	if err := a.backups.Delete(args[0]); err != nil {
		return err
	}
	a.printf("Deleted %s.\n", args[0])
	return nil
}

func (a *app) confirm(label string) bool {
	s, err := a.ask(label)
	return err == nil && strings.EqualFold(s, "y")
}

func oneID(args []string, usage string) (int64, error) {
	if len(args) != 1 {
		return 0, domain.Validation("usage: " + usage)
	}
	return parseID(args[0])
}

func optionalID(args []string) (*int64, error) {
	if len(args) == 0 {
		return nil, nil
	}
	id, err := parseID(args[0])
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", " / ")
}
