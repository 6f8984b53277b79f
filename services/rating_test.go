package services

import (
	"testing"
	"time"

	"match-settlement-system/models"

	"github.com/stretchr/testify/assert"
)

func TestExpectedScore(t *testing.T) {
	assert.InDelta(t, 0.5, ExpectedScore(1200, 1200), 1e-9)

	// Higher-rated side is favored.
	assert.Greater(t, ExpectedScore(1400, 1200), 0.5)
	assert.Less(t, ExpectedScore(1200, 1400), 0.5)

	// Complementary for any pairing.
	pairs := [][2]float64{
		{1200, 1200},
		{1200, 1400},
		{900, 1500},
		{100, 2500},
		{1716.4, 1687.2},
	}
	for _, p := range pairs {
		assert.InDelta(t, 1.0, ExpectedScore(p[0], p[1])+ExpectedScore(p[1], p[0]), 1e-9,
			"expected scores of %v and %v must sum to 1", p[0], p[1])
	}
}

func TestKFactor(t *testing.T) {
	tests := []struct {
		name        string
		rating      float64
		gamesPlayed int
		expected    int
	}{
		{"provisional regardless of rating", 1200, 19, 32},
		{"provisional high rating", 2000, 5, 32},
		{"established below 1200", 1199, 20, 32},
		{"established at 1200", 1200, 20, 24},
		{"established mid range", 1300, 25, 24},
		{"established just below 1600", 1599, 50, 24},
		{"established at 1600", 1600, 20, 16},
		{"established high", 1650, 25, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KFactor(tt.rating, tt.gamesPlayed))
		})
	}
}

func TestNextRatingFloor(t *testing.T) {
	// A loss can never push a rating below the floor.
	assert.Equal(t, 100, NextRating(100, 32, 0, 0.99))
	assert.Equal(t, 100, NextRating(105, 32, 0, 0.9))
	assert.Equal(t, 100, NextRating(models.MinRating, 16, 0, 0.5))

	assert.Equal(t, 1216, NextRating(1200, 32, 1, 0.5))
	assert.Equal(t, 1184, NextRating(1200, 32, 0, 0.5))
}

func TestApplyDecay(t *testing.T) {
	now := time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)

	t.Run("no prior match", func(t *testing.T) {
		res := ApplyDecay(1500, nil, now)
		assert.Equal(t, 1500.0, res.Rating)
		assert.Equal(t, 0, res.Weeks)
	})

	t.Run("within the same week", func(t *testing.T) {
		last := now.Add(-3 * 24 * time.Hour)
		res := ApplyDecay(1500, &last, now)
		assert.Equal(t, 1500.0, res.Rating)
		assert.Equal(t, 0, res.Weeks)
	})

	t.Run("monotonic in weeks", func(t *testing.T) {
		oneWeek := now.Add(-8 * 24 * time.Hour)
		threeWeeks := now.Add(-22 * 24 * time.Hour)

		after1 := ApplyDecay(1500, &oneWeek, now)
		after3 := ApplyDecay(1500, &threeWeeks, now)

		assert.Equal(t, 1, after1.Weeks)
		assert.Equal(t, 3, after3.Weeks)
		assert.InDelta(t, 1470.0, after1.Rating, 1e-9)
		assert.InDelta(t, 1410.0, after3.Rating, 1e-9)
		assert.Less(t, after3.Rating, after1.Rating)
		assert.Less(t, after1.Rating, 1500.0)
	})

	t.Run("floored at minimum", func(t *testing.T) {
		last := now.Add(-10 * 7 * 24 * time.Hour)
		res := ApplyDecay(110, &last, now)
		assert.Equal(t, models.MinRating, res.Rating)
		assert.Equal(t, 10, res.Weeks)
	})
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		rating   float64
		expected string
	}{
		{100, models.TierBronze},
		{1299, models.TierBronze},
		{1300, models.TierSilver},
		{1499, models.TierSilver},
		{1500, models.TierGold},
		{1699, models.TierGold},
		{1700, models.TierPlatinum},
		{1899, models.TierPlatinum},
		{1900, models.TierDiamond},
		{2400, models.TierDiamond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, TierFor(tt.rating), "tier(%v)", tt.rating)
	}
}

func TestSeasonFor(t *testing.T) {
	tests := []struct {
		date     time.Time
		expected string
	}{
		{time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC), "2026-Q1"},
		{time.Date(2026, time.March, 31, 23, 59, 0, 0, time.UTC), "2026-Q1"},
		{time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), "2026-Q2"},
		{time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC), "2026-Q3"},
		{time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), "2025-Q4"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SeasonFor(tt.date))
	}
}

func TestAIOpponentRating(t *testing.T) {
	easy := "easy"
	hard := "hard"
	nightmare := "nightmare"

	difficulty, rating := AIOpponentRating(&easy)
	assert.Equal(t, "easy", difficulty)
	assert.Equal(t, 900.0, rating)

	difficulty, rating = AIOpponentRating(&hard)
	assert.Equal(t, "hard", difficulty)
	assert.Equal(t, 1500.0, rating)

	difficulty, rating = AIOpponentRating(nil)
	assert.Equal(t, "medium", difficulty)
	assert.Equal(t, 1200.0, rating)

	difficulty, rating = AIOpponentRating(&nightmare)
	assert.Equal(t, "medium", difficulty)
	assert.Equal(t, 1200.0, rating)
}
