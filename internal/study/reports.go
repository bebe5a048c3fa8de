package study

import (
	"math"

	"github.com/conorfennell/studybuddy/internal/domain"
)

// Mastery buckets by easiness factor.
const (
	reviewingEF = 2.0
	masteredEF  = 2.5
)

// TodaySummary is the dashboard line for the current day.
type TodaySummary struct {
	Date           domain.Date `json:"date"`
	DueCards       int         `json:"due_cards"`
	ReviewedToday  int         `json:"reviewed_today"`
	AverageQuality float64     `json:"average_quality"`
}

// DayStats is one row of the weekly breakdown.
type DayStats struct {
	Date           domain.Date `json:"date"`
	Count          int         `json:"count"`
	AverageQuality float64     `json:"avg_quality"`
}

// WeeklyStats covers today and the six days before it.
type WeeklyStats struct {
	TotalReviews   int        `json:"total_reviews"`
	AverageQuality float64    `json:"average_quality"`
	Days           []DayStats `json:"daily_breakdown"`
}

// Mastery counts a deck's schedules per easiness bucket.
type Mastery struct {
	Learning  int `json:"learning"`
	Reviewing int `json:"reviewing"`
	Mastered  int `json:"mastered"`
}

// DeckReport extends DeckStats with the mastery distribution.
type DeckReport struct {
	DeckStats
	Mastery Mastery `json:"mastery_distribution"`
}

// TodaySummary counts due cards and today's reviews.
func (s *Service) TodaySummary() (TodaySummary, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return TodaySummary{}, err
	}
	today := s.today()

	due, err := s.store.SrsStates.FindAll(func(st domain.SrsState) bool {
		return st.UserID == userID && st.IsDue(today)
	})
	if err != nil {
		return TodaySummary{}, err
	}
	reviews, err := s.store.Reviews.FindAll(func(r domain.Review) bool {
		return r.UserID == userID && s.reviewDate(r) == today
	})
	if err != nil {
		return TodaySummary{}, err
	}

	return TodaySummary{
		Date:           today,
		DueCards:       len(due),
		ReviewedToday:  len(reviews),
		AverageQuality: averageQuality(reviews),
	}, nil
}

// WeeklyStats returns per-day review counts and qualities for the last
// seven calendar days, newest first.
func (s *Service) WeeklyStats() (WeeklyStats, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return WeeklyStats{}, err
	}
	today := s.today()

	days := make([]domain.Date, 7)
	byDay := make(map[domain.Date][]domain.Review, 7)
	for i := range days {
		if days[i], err = today.AddDays(-i); err != nil {
			return WeeklyStats{}, err
		}
		byDay[days[i]] = nil
	}

	reviews, err := s.store.Reviews.FindAll(func(r domain.Review) bool {
		if r.UserID != userID {
			return false
		}
		_, inWindow := byDay[s.reviewDate(r)]
		return inWindow
	})
	if err != nil {
		return WeeklyStats{}, err
	}
	for _, r := range reviews {
		d := s.reviewDate(r)
		byDay[d] = append(byDay[d], r)
	}

	stats := WeeklyStats{
		TotalReviews:   len(reviews),
		AverageQuality: averageQuality(reviews),
		Days:           make([]DayStats, 0, len(days)),
	}
	for _, d := range days {
		stats.Days = append(stats.Days, DayStats{
			Date:           d,
			Count:          len(byDay[d]),
			AverageQuality: averageQuality(byDay[d]),
		})
	}
	return stats, nil
}

// DeckReport returns the statistics and mastery distribution of a deck.
func (s *Service) DeckReport(deckID int64) (DeckReport, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return DeckReport{}, err
	}
	deck, err := s.ownedDeck(userID, deckID)
	if err != nil {
		return DeckReport{}, err
	}
	return s.deckReport(userID, deck)
}

// AllDecksReport returns a DeckReport for every deck of the current user.
func (s *Service) AllDecksReport() ([]DeckReport, error) {
	userID, err := s.id.RequireUser()
	if err != nil {
		return nil, err
	}
	decks, err := s.store.Decks.FindAll(func(d domain.Deck) bool { return d.UserID == userID })
	if err != nil {
		return nil, err
	}
	reports := make([]DeckReport, 0, len(decks))
	for _, d := range decks {
		r, err := s.deckReport(userID, d)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func (s *Service) deckReport(userID int64, deck domain.Deck) (DeckReport, error) {
	cards, err := s.store.Cards.FindAll(func(c domain.Card) bool { return c.DeckID == deck.ID })
	if err != nil {
		return DeckReport{}, err
	}
	inDeck := make(map[int64]bool, len(cards))
	for _, c := range cards {
		inDeck[c.ID] = true
	}
	states, err := s.store.SrsStates.FindAll(func(st domain.SrsState) bool {
		return st.UserID == userID && inDeck[st.CardID]
	})
	if err != nil {
		return DeckReport{}, err
	}

	today := s.today()
	report := DeckReport{DeckStats: DeckStats{
		DeckID:     deck.ID,
		DeckName:   deck.Name,
		TotalCards: len(cards),
		AverageEF:  domain.DefaultEasinessFactor,
	}}
	var sumEF float64
	for _, st := range states {
		if st.IsDue(today) {
			report.DueCards++
		}
		sumEF += st.EF
		switch {
		case st.EF < reviewingEF:
			report.Mastery.Learning++
		case st.EF < masteredEF:
			report.Mastery.Reviewing++
		default:
			report.Mastery.Mastered++
		}
	}
	if len(states) > 0 {
		report.AverageEF = round2(sumEF / float64(len(states)))
	}
	return report, nil
}

// reviewDate is the calendar day of a review in the service clock's zone.
func (s *Service) reviewDate(r domain.Review) domain.Date {
	return domain.DateOf(r.ReviewedAt.In(s.now().Location()))
}

func averageQuality(reviews []domain.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Quality
	}
	return round2(float64(sum) / float64(len(reviews)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
