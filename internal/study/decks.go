package study

import (
	"strings"

	"github.com/conorfennell/studybuddy/internal/domain"
)

// DeckSummary is a deck with the number of cards in it.
type DeckSummary struct {
	domain.Deck
	CardCount int `json:"card_count"`
}

// CreateDeck creates a deck for the current user. Names are trimmed and
// must be unique per user, ignoring case.
func (s *Service) CreateDeck(name, description string) (domain.Deck, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return domain.Deck{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Deck{}, domain.Validation("deck name cannot be empty")
	}
	if err := s.checkDeckNameFree(userID, name, 0); err != nil {
		return domain.Deck{}, err
	}

	deck, err := s.store.Decks.Insert(domain.Deck{
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(description),
	})
	if err != nil {
		return domain.Deck{}, err
	}
	s.logger.Info("deck created", "deck_id", deck.ID, "user_id", userID, "name", name)
	return deck, nil
}

// ListDecks returns the current user's decks in creation order.
func (s *Service) ListDecks() ([]DeckSummary, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return nil, err
	}

	decks, err := s.store.Decks.FindAll(func(d domain.Deck) bool { return d.UserID == userID })
	if err != nil {
		return nil, err
	}
	cards, err := s.store.Cards.Load()
	if err != nil {
		return nil, err
	}
	counts := make(map[int64]int)
	for _, c := range cards {
		counts[c.DeckID]++
	}

	out := make([]DeckSummary, 0, len(decks))
	for _, d := range decks {
		out = append(out, DeckSummary{Deck: d, CardCount: counts[d.ID]})
	}
	return out, nil
}

// GetDeck returns one of the current user's decks.
func (s *Service) GetDeck(deckID int64) (domain.Deck, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return domain.Deck{}, err
	}
	return s.ownedDeck(userID, deckID)
}

// UpdateDeck changes the name and/or description. A nil argument leaves
// that field alone; at least one must be given.
func (s *Service) UpdateDeck(deckID int64, name, description *string) (domain.Deck, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return domain.Deck{}, err
	}
	if _, err := s.ownedDeck(userID, deckID); err != nil {
		return domain.Deck{}, err
	}
	if name == nil && description == nil {
		return domain.Deck{}, domain.Validation("nothing to update")
	}

	var newName string
	if name != nil {
		newName = strings.TrimSpace(*name)
		if newName == "" {
			return domain.Deck{}, domain.Validation("deck name cannot be empty")
		}
		if err := s.checkDeckNameFree(userID, newName, deckID); err != nil {
			return domain.Deck{}, err
		}
	}

	deck, err := s.store.Decks.Update(deckID, func(d *domain.Deck) {
		if name != nil {
			d.Name = newName
		}
		if description != nil {
			d.Description = strings.TrimSpace(*description)
		}
	})
	if err != nil {
		return domain.Deck{}, err
	}
	s.logger.Info("deck updated", "deck_id", deckID)
	return deck, nil
}

// DeleteDeck removes a deck and everything hanging off it, in the order
// srs_state, reviews, cards, deck. It returns the number of cards removed.
// A failure midway leaves the earlier deletions in place.
func (s *Service) DeleteDeck(deckID int64) (int, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return 0, err
	}
	deck, err := s.ownedDeck(userID, deckID)
	if err != nil {
		return 0, err
	}

	cards, err := s.store.Cards.FindAll(func(c domain.Card) bool { return c.DeckID == deckID })
	if err != nil {
		return 0, err
	}
	cardIDs := make(map[int64]bool, len(cards))
	for _, c := range cards {
		cardIDs[c.ID] = true
	}

	states, err := s.store.SrsStates.DeleteWhere(func(st domain.SrsState) bool { return cardIDs[st.CardID] })
	if err != nil {
		return 0, err
	}
	reviews, err := s.store.Reviews.DeleteWhere(func(r domain.Review) bool { return cardIDs[r.CardID] })
	if err != nil {
		return 0, err
	}
	removed, err := s.store.Cards.DeleteWhere(func(c domain.Card) bool { return c.DeckID == deckID })
	if err != nil {
		return 0, err
	}
	ok, err := s.store.Decks.Delete(deckID)
	if err != nil {
		return removed, err
	}
	if !ok {
		return removed, domain.NotFound("deck not found")
	}

	s.logger.Info("deck deleted",
		"deck_id", deckID,
		"name", deck.Name,
		"cards", removed,
		"srs_states", states,
		"reviews", reviews,
	)
	return removed, nil
}

// DeckStats summarises one deck for the current user.
type DeckStats struct {
	DeckID     int64   `json:"deck_id"`
	DeckName   string  `json:"deck_name"`
	TotalCards int     `json:"total_cards"`
	DueCards   int     `json:"due_cards"`
	AverageEF  float64 `json:"average_ef"`
}

// DeckStats returns card totals, due count and average easiness factor.
func (s *Service) DeckStats(deckID int64) (DeckStats, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return DeckStats{}, err
	}
	deck, err := s.ownedDeck(userID, deckID)
	if err != nil {
		return DeckStats{}, err
	}
	report, err := s.deckReport(userID, deck)
	if err != nil {
		return DeckStats{}, err
	}
	return report.DeckStats, nil
}

// checkDeckNameFree fails with a conflict when userID already has a deck
// called name, other than the deck with id except.
func (s *Service) checkDeckNameFree(userID int64, name string, except int64) error {
	_, taken, err := s.store.Decks.Find(func(d domain.Deck) bool {
		return d.UserID == userID && d.ID != except && strings.EqualFold(d.Name, name)
	})
	if err != nil {
		return err
	}
	if taken {
		return domain.Conflict("a deck with this name already exists")
	}
	return nil
}
