package study

import (
	"strings"

	"github.com/conorfennell/studybuddy/internal/domain"
)

// CardView is a card together with the current user's schedule for it.
// Srs is nil when the user has no state for the card yet.
type CardView struct {
	domain.Card
	Srs *domain.SrsState `json:"srs,omitempty"`
}

// CreateCard adds a card to one of the current user's decks and creates
// its schedule, due today.
func (s *Service) CreateCard(deckID int64, front, back string) (domain.Card, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return domain.Card{}, err
	}
	return s.createCard(userID, deckID, front, back)
}

func (s *Service) createCard(userID, deckID int64, front, back string) (domain.Card, error) {
	if _, err := s.ownedDeck(userID, deckID); err != nil {
		return domain.Card{}, err
	}

	front, back = strings.TrimSpace(front), strings.TrimSpace(back)
	if front == "" {
		return domain.Card{}, domain.Validation("card front cannot be empty")
	}
	if back == "" {
		return domain.Card{}, domain.Validation("card back cannot be empty")
	}

	card, err := s.store.Cards.Insert(domain.Card{DeckID: deckID, Front: front, Back: back})
	if err != nil {
		return domain.Card{}, err
	}
	if _, err := s.store.SrsStates.Insert(domain.NewSrsState(userID, card.ID, s.today())); err != nil {
		return card, err
	}
	s.logger.Debug("card created", "card_id", card.ID, "deck_id", deckID)
	return card, nil
}

// ListCards returns the cards of a deck annotated with their schedule.
func (s *Service) ListCards(deckID int64) ([]CardView, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedDeck(userID, deckID); err != nil {
		return nil, err
	}

	cards, err := s.store.Cards.FindAll(func(c domain.Card) bool { return c.DeckID == deckID })
	if err != nil {
		return nil, err
	}
	states, err := s.statesByCard(userID)
	if err != nil {
		return nil, err
	}

	out := make([]CardView, 0, len(cards))
	for _, c := range cards {
		view := CardView{Card: c}
		if st, ok := states[c.ID]; ok {
			view.Srs = &st
		}
		out = append(out, view)
	}
	return out, nil
}

// GetCard returns a card from one of the current user's decks.
func (s *Service) GetCard(cardID int64) (domain.Card, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return domain.Card{}, err
	}
	return s.ownedCard(userID, cardID)
}

// UpdateCard changes the front and/or back. A nil argument leaves that
// side alone; at least one must be given.
func (s *Service) UpdateCard(cardID int64, front, back *string) (domain.Card, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return domain.Card{}, err
	}
	if _, err := s.ownedCard(userID, cardID); err != nil {
		return domain.Card{}, err
	}
	if front == nil && back == nil {
		return domain.Card{}, domain.Validation("nothing to update")
	}

	var newFront, newBack string
	if front != nil {
		if newFront = strings.TrimSpace(*front); newFront == "" {
			return domain.Card{}, domain.Validation("card front cannot be empty")
		}
	}
	if back != nil {
		if newBack = strings.TrimSpace(*back); newBack == "" {
			return domain.Card{}, domain.Validation("card back cannot be empty")
		}
	}

	return s.store.Cards.Update(cardID, func(c *domain.Card) {
		if front != nil {
			c.Front = newFront
		}
		if back != nil {
			c.Back = newBack
		}
	})
}

// DeleteCard removes a card with its schedule and review history.
func (s *Service) DeleteCard(cardID int64) error {
	userID, err := s.id.RequireUser()
	if err != nil {
		return err
	}
	if _, err := s.ownedCard(userID, cardID); err != nil {
		return err
	}

	if _, err := s.store.SrsStates.DeleteWhere(func(st domain.SrsState) bool { return st.CardID == cardID }); err != nil {
		return err
	}
	if _, err := s.store.Reviews.DeleteWhere(func(r domain.Review) bool { return r.CardID == cardID }); err != nil {
		return err
	}
	ok, err := s.store.Cards.Delete(cardID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFound("card not found")
	}
	s.logger.Info("card deleted", "card_id", cardID)
	return nil
}

// SearchCards finds cards whose front or back contains query, ignoring
// case, across the current user's decks or within one of them.
func (s *Service) SearchCards(query string, deckID *int64) ([]domain.Card, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, domain.Validation("search query cannot be empty")
	}

	owned, err := s.ownedDecks(userID)
	if err != nil {
		return nil, err
	}
	return s.store.Cards.FindAll(func(c domain.Card) bool {
		if _, ok := owned[c.DeckID]; !ok {
			return false
		}
		if deckID != nil && c.DeckID != *deckID {
			return false
		}
		return strings.Contains(strings.ToLower(c.Front), query) ||
			strings.Contains(strings.ToLower(c.Back), query)
	})
}

// statesByCard indexes the user's schedules by card id.
func (s *Service) statesByCard(userID int64) (map[int64]domain.SrsState, error) {
	states, err := s.store.SrsStates.FindAll(func(st domain.SrsState) bool { return st.UserID == userID })
	if err != nil {
		return nil, err
	}
	byCard := make(map[int64]domain.SrsState, len(states))
	for _, st := range states {
		byCard[st.CardID] = st
	}
	return byCard, nil
}
