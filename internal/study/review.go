package study

import (
	"cmp"
	"errors"
	"slices"

	"github.com/conorfennell/studybuddy/internal/domain"
	"github.com/conorfennell/studybuddy/internal/sm2"
)

// DueCard is an entry of the review queue.
type DueCard struct {
	Card     domain.Card     `json:"card"`
	DeckName string          `json:"deck_name"`
	Srs      domain.SrsState `json:"srs"`
}

// DueCards returns the current user's cards due today or earlier,
// optionally limited to one deck. Schedules whose card is gone, or whose
// card sits in a deck the user does not own, are skipped. The queue is
// ordered by due date, then by schedule id.
func (s *Service) DueCards(deckID *int64) ([]DueCard, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return nil, err
	}
	today := s.today()

	states, err := s.store.SrsStates.FindAll(func(st domain.SrsState) bool {
		return st.UserID == userID && st.IsDue(today)
	})
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return []DueCard{}, nil
	}

	cards, err := s.store.Cards.Load()
	if err != nil {
		return nil, err
	}
	cardsByID := make(map[int64]domain.Card, len(cards))
	for _, c := range cards {
		cardsByID[c.ID] = c
	}
	owned, err := s.ownedDecks(userID)
	if err != nil {
		return nil, err
	}

	due := make([]DueCard, 0, len(states))
	for _, st := range states {
		card, ok := cardsByID[st.CardID]
		if !ok {
			continue
		}
		deck, ok := owned[card.DeckID]
		if !ok {
			continue
		}
		if deckID != nil && card.DeckID != *deckID {
			continue
		}
		due = append(due, DueCard{Card: card, DeckName: deck.Name, Srs: st})
	}

	slices.SortStableFunc(due, func(a, b DueCard) int {
		return cmp.Or(
			cmp.Compare(a.Srs.DueDate, b.Srs.DueDate),
			cmp.Compare(a.Srs.ID, b.Srs.ID),
		)
	})
	return due, nil
}

// SubmitReview records a review of quality 0-5 for a card, reschedules it
// and appends the review to the history. A missing schedule is created
// with the defaults first. If appending the review fails, the new schedule
// stays saved and only the error is returned.
func (s *Service) SubmitReview(cardID int64, quality int) (domain.SrsState, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return domain.SrsState{}, err
	}
	q := sm2.Quality(quality)
	if !q.Valid() {
		return domain.SrsState{}, domain.Validation("quality must be between 0 and 5")
	}
	if _, err := s.ownedCard(userID, cardID); err != nil {
		return domain.SrsState{}, err
	}

	now := s.now()
	today := domain.DateOf(now)

	state, found, err := s.findState(userID, cardID)
	if err != nil {
		return domain.SrsState{}, err
	}
	if !found {
		state = domain.NewSrsState(userID, cardID, today)
	}

	next, err := s.params.Schedule(sm2.State{
		Repetition:   state.Repetition,
		EF:           state.EF,
		IntervalDays: state.IntervalDays,
	}, q)
	if err != nil {
		if errors.Is(err, sm2.ErrInvalidQuality) {
			return domain.SrsState{}, domain.Validation("quality must be between 0 and 5")
		}
		return domain.SrsState{}, err
	}

	due, err := sm2.NextDueDate(today, next.IntervalDays)
	if err != nil {
		return domain.SrsState{}, err
	}

	apply := func(st *domain.SrsState) {
		st.Repetition = next.Repetition
		st.IntervalDays = next.IntervalDays
		st.EF = next.EF
		st.DueDate = due
		st.LastQuality = &quality
		st.LastReviewed = &now
	}

	if found {
		state, err = s.store.SrsStates.Update(state.ID, apply)
	} else {
		apply(&state)
		state, err = s.store.SrsStates.Insert(state)
	}
	if err != nil {
		return domain.SrsState{}, err
	}

	if _, err := s.store.Reviews.Insert(domain.Review{
		UserID:     userID,
		CardID:     cardID,
		Quality:    quality,
		ReviewedAt: now,
	}); err != nil {
		return domain.SrsState{}, err
	}

	s.logger.Info("review recorded",
		"card_id", cardID,
		"quality", quality,
		"repetition", state.Repetition,
		"interval_days", state.IntervalDays,
		"due_date", state.DueDate,
	)
	return state, nil
}

// SrsState returns the current user's schedule for a card.
func (s *Service) SrsState(cardID int64) (domain.SrsState, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return domain.SrsState{}, err
	}
	state, found, err := s.findState(userID, cardID)
	if err != nil {
		return domain.SrsState{}, err
	}
	if !found {
		return domain.SrsState{}, domain.NotFound("no schedule for this card")
	}
	return state, nil
}

// ResetCard puts a card's schedule back to the defaults, due today.
func (s *Service) ResetCard(cardID int64) (domain.SrsState, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return domain.SrsState{}, err
	}
	if _, err := s.ownedCard(userID, cardID); err != nil {
		return domain.SrsState{}, err
	}
	state, found, err := s.findState(userID, cardID)
	if err != nil {
		return domain.SrsState{}, err
	}
	if !found {
		return domain.SrsState{}, domain.NotFound("no schedule for this card")
	}

	today := s.today()
	state, err = s.store.SrsStates.Update(state.ID, func(st *domain.SrsState) {
		fresh := domain.NewSrsState(st.UserID, st.CardID, today)
		st.Repetition = fresh.Repetition
		st.IntervalDays = fresh.IntervalDays
		st.EF = fresh.EF
		st.DueDate = fresh.DueDate
		st.LastQuality = nil
	})
	if err != nil {
		return domain.SrsState{}, err
	}
	s.logger.Info("card schedule reset", "card_id", cardID)
	return state, nil
}

func (s *Service) findState(userID, cardID int64) (domain.SrsState, bool, error) {
	return s.store.SrsStates.Find(func(st domain.SrsState) bool {
		return st.UserID == userID && st.CardID == cardID
	})
}
