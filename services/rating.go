package services

import (
	"fmt"
	"math"
	"time"

	"match-settlement-system/models"
)

const decayRatePerWeek = 0.02

// ExpectedScore is the Elo win expectancy of a player rated a against an
// opponent rated b. ExpectedScore(a,b) + ExpectedScore(b,a) == 1.
func ExpectedScore(a, b float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (b-a)/400.0))
}

// KFactor controls how hard one result moves a rating. Provisional players
// (fewer than 20 games) always move at 32; established players step down
// to 24 at rating 1200 and 16 at 1600.
func KFactor(rating float64, gamesPlayed int) int {
	if gamesPlayed < 20 {
		return 32
	}
	switch {
	case rating < 1200:
		return 32
	case rating < 1600:
		return 24
	default:
		return 16
	}
}

// NextRating applies one result to a rating baseline. score is 1 for a win
// and 0 for a loss; the result is rounded and floored at models.MinRating.
func NextRating(rating float64, k int, score, expected float64) int {
	next := math.Round(rating + float64(k)*(score-expected))
	if next < models.MinRating {
		return int(models.MinRating)
	}
	return int(next)
}

// DecayResult is the inactivity-adjusted baseline for the current match.
type DecayResult struct {
	Rating float64
	Weeks  int
	Amount float64
}

// ApplyDecay erodes a stored rating by 2% per full week since the player's
// last match, floored at models.MinRating. The decayed value is only the
// baseline for the current match; it is never persisted as its own event.
func ApplyDecay(rating float64, lastMatchAt *time.Time, now time.Time) DecayResult {
	if lastMatchAt == nil {
		return DecayResult{Rating: rating}
	}
	weeks := int(math.Floor(now.Sub(*lastMatchAt).Hours() / (24 * 7)))
	if weeks <= 0 {
		return DecayResult{Rating: rating}
	}
	amount := rating * decayRatePerWeek * float64(weeks)
	decayed := rating - amount
	if decayed < models.MinRating {
		decayed = models.MinRating
	}
	return DecayResult{Rating: decayed, Weeks: weeks, Amount: amount}
}

// TierFor buckets a rating into its display tier.
func TierFor(rating float64) string {
	switch {
	case rating < 1300:
		return models.TierBronze
	case rating < 1500:
		return models.TierSilver
	case rating < 1700:
		return models.TierGold
	case rating < 1900:
		return models.TierPlatinum
	default:
		return models.TierDiamond
	}
}

// SeasonFor derives the calendar-quarter season tag, e.g. "2026-Q1".
func SeasonFor(now time.Time) string {
	quarter := (int(now.Month())-1)/3 + 1
	return fmt.Sprintf("%d-Q%d", now.Year(), quarter)
}
