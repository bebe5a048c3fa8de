package sm2

import (
	"errors"
	"fmt"
	"math"

	"github.com/conorfennell/studybuddy/internal/domain"
)

// Quality is the user's 0-5 recall score for a review.
type Quality int

const (
	Blackout          Quality = 0 // no recall at all
	Wrong             Quality = 1 // wrong, but the answer was recognised
	WrongFamiliar     Quality = 2 // wrong, but the answer felt familiar
	CorrectDifficult  Quality = 3 // correct with serious difficulty
	CorrectHesitation Quality = 4 // correct after some hesitation
	Perfect           Quality = 5
)

// ErrInvalidQuality is returned for a quality outside [0, 5].
var ErrInvalidQuality = errors.New("quality must be between 0 and 5")

// Valid reports whether q is within [0, 5].
func (q Quality) Valid() bool {
	return q >= Blackout && q <= Perfect
}

// Params holds the constants of the algorithm.
type Params struct {
	InitialEF      float64 // easiness factor of a fresh card
	MinEF          float64 // floor for the easiness factor
	PassQuality    Quality // lowest quality that counts as recalled
	FirstInterval  int     // days after the first successful repetition
	SecondInterval int     // days after the second successful repetition
}

// DefaultParams returns the classic SM-2 constants.
func DefaultParams() *Params {
	return &Params{
		InitialEF:      domain.DefaultEasinessFactor,
		MinEF:          domain.MinEasinessFactor,
		PassQuality:    CorrectDifficult,
		FirstInterval:  1,
		SecondInterval: 6,
	}
}

// State is the part of a card's schedule the algorithm reads and writes.
type State struct {
	Repetition   int
	EF           float64
	IntervalDays int
}

// Schedule computes the next state after a review of the given quality.
// It is a pure function of its inputs.
func (p *Params) Schedule(current State, quality Quality) (State, error) {
	if !quality.Valid() {
		return State{}, fmt.Errorf("%w: got %d", ErrInvalidQuality, quality)
	}

	newEF := p.nextEF(current.EF, quality)

	if quality < p.PassQuality {
		// A lapse resets the streak regardless of how long it was.
		return State{Repetition: 0, EF: roundEF(newEF), IntervalDays: 1}, nil
	}

	next := State{Repetition: current.Repetition + 1, EF: roundEF(newEF)}
	switch next.Repetition {
	case 1:
		next.IntervalDays = p.FirstInterval
	case 2:
		next.IntervalDays = p.SecondInterval
	default:
		// The unrounded factor feeds the product; only the stored EF is rounded.
		next.IntervalDays = int(math.RoundToEven(float64(current.IntervalDays) * newEF))
	}
	if next.IntervalDays < 1 {
		next.IntervalDays = 1
	}
	return next, nil
}

// nextEF applies EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02)), floored at MinEF.
func (p *Params) nextEF(ef float64, quality Quality) float64 {
	d := float64(Perfect - quality)
	newEF := ef + (0.1 - d*(0.08+d*0.02))
	if newEF < p.MinEF {
		newEF = p.MinEF
	}
	return newEF
}

func roundEF(ef float64) float64 {
	return math.Round(ef*100) / 100
}

// Schedule runs the default parameters.
func Schedule(quality Quality, repetition int, ef float64, intervalDays int) (State, error) {
	return DefaultParams().Schedule(State{Repetition: repetition, EF: ef, IntervalDays: intervalDays}, quality)
}

// NextDueDate returns the calendar date intervalDays after today.
func NextDueDate(today domain.Date, intervalDays int) (domain.Date, error) {
	return today.AddDays(intervalDays)
}
