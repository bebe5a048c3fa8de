// Package study implements deck and card management, the review flow
// and the reports, all scoped to the logged-in user.
package study

import (
	"log/slog"
	"time"

	"github.com/conorfennell/studybuddy/internal/domain"
	"github.com/conorfennell/studybuddy/internal/sm2"
	"github.com/conorfennell/studybuddy/internal/storage"
)

// Identity is the login gate. auth.Manager satisfies it.
type Identity interface {
	RequireUser() (int64, error)
}

// Service runs every user-scoped operation against the store.
type Service struct {
	store  *storage.Store
	id     Identity
	params *sm2.Params
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, which decides "today" and review timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithParams replaces the default scheduling constants.
func WithParams(p *sm2.Params) Option {
	return func(s *Service) { s.params = p }
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New returns a Service.
func New(store *storage.Store, id Identity, opts ...Option) *Service {
	s := &Service{
		store:  store,
		id:     id,
		params: sm2.DefaultParams(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() domain.Date {
	return domain.DateOf(s.now())
}

// ownedDeck loads a deck and checks it belongs to userID.
func (s *Service) ownedDeck(userID, deckID int64) (domain.Deck, error) {
	deck, ok, err := s.store.Decks.FindByID(deckID)
	if err != nil {
		return domain.Deck{}, err
	}
	if !ok {
		return domain.Deck{}, domain.NotFound("deck not found")
	}
	if deck.UserID != userID {
		s.logger.Warn("denied deck access", "user_id", userID, "deck_id", deckID, "owner_id", deck.UserID)
		return domain.Deck{}, domain.Unauthorized(domain.MsgAccessDenied)
	}
	return deck, nil
}

// ownedCard loads a card and checks its deck belongs to userID.
func (s *Service) ownedCard(userID, cardID int64) (domain.Card, error) {
	card, ok, err := s.store.Cards.FindByID(cardID)
	if err != nil {
		return domain.Card{}, err
	}
	if !ok {
		return domain.Card{}, domain.NotFound("card not found")
	}
	deck, ok, err := s.store.Decks.FindByID(card.DeckID)
	if err != nil {
		return domain.Card{}, err
	}
	if !ok || deck.UserID != userID {
		s.logger.Warn("denied card access", "user_id", userID, "card_id", cardID, "deck_id", card.DeckID)
		return domain.Card{}, domain.Unauthorized(domain.MsgAccessDenied)
	}
	return card, nil
}

// ownedDecks indexes the decks owned by userID by id.
func (s *Service) ownedDecks(userID int64) (map[int64]domain.Deck, error) {
	decks, err := s.store.Decks.FindAll(func(d domain.Deck) bool { return d.UserID == userID })
	if err != nil {
		return nil, err
	}
	owned := make(map[int64]domain.Deck, len(decks))
	for _, d := range decks {
		owned[d.ID] = d
	}
	return owned, nil
}
