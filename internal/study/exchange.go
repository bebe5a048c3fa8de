package study

import (
	"errors"

	"github.com/conorfennell/studybuddy/internal/domain"
	"github.com/conorfennell/studybuddy/internal/knol"
)

// ImportResult counts what happened to each incoming card.
type ImportResult struct {
	Imported   int `json:"imported"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
}

// Add folds another result into r.
func (r *ImportResult) Add(o ImportResult) {
	r.Imported += o.Imported
	r.Skipped += o.Skipped
	r.Duplicates += o.Duplicates
}

// ImportCards adds cards to one of the current user's decks. Cards that
// fail validation are counted as skipped. With skipDuplicates, a card whose
// fingerprint matches one already in the deck, or earlier in the batch, is
// counted as a duplicate instead.
func (s *Service) ImportCards(deckID int64, cards []domain.CardInput, skipDuplicates bool) (ImportResult, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return ImportResult{}, err
	}
	if _, err := s.ownedDeck(userID, deckID); err != nil {
		return ImportResult{}, err
	}

	seen := knol.Set{}
	if skipDuplicates {
		existing, err := s.store.Cards.FindAll(func(c domain.Card) bool { return c.DeckID == deckID })
		if err != nil {
			return ImportResult{}, err
		}
		for _, c := range existing {
			seen.Add(c.Front, c.Back)
		}
	}

	var res ImportResult
	for _, in := range cards {
		if skipDuplicates && !seen.Add(in.Front, in.Back) {
			res.Duplicates++
			continue
		}
		if _, err := s.createCard(userID, deckID, in.Front, in.Back); err != nil {
			if errors.Is(err, domain.ErrValidation) {
				res.Skipped++
				continue
			}
			return res, err
		}
		res.Imported++
	}

	s.logger.Info("cards imported",
		"deck_id", deckID,
		"imported", res.Imported,
		"skipped", res.Skipped,
		"duplicates", res.Duplicates,
	)
	return res, nil
}

// ExportCards returns the current user's cards, from every deck or from one.
func (s *Service) ExportCards(deckID *int64) ([]domain.Card, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return nil, err
	}
	if deckID != nil {
		if _, err := s.ownedDeck(userID, *deckID); err != nil {
			return nil, err
		}
	}
	owned, err := s.ownedDecks(userID)
	if err != nil {
		return nil, err
	}
	return s.store.Cards.FindAll(func(c domain.Card) bool {
		if _, ok := owned[c.DeckID]; !ok {
			return false
		}
		return deckID == nil || c.DeckID == *deckID
	})
}
