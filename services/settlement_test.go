package services

import (
	"context"
	"testing"
	"time"

	"match-settlement-system/models"
	"match-settlement-system/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)

func newTestService(mem *repository.Memory) *SettlementService {
	svc := NewSettlementService(mem)
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedPvPMatch(mem *repository.Memory, id, blue, red, winner string) {
	mem.PutMatch(models.Match{
		ID:           id,
		BluePlayerID: blue,
		RedPlayerID:  red,
		Status:       models.MatchStatusFinished,
		Winner:       winner,
		GameMode:     models.GameModeOnline,
	})
}

func TestSettleHumanVsHuman(t *testing.T) {
	mem := repository.NewMemory()
	mem.SetConfig(models.ConfigKeyMatchGoldReward, "10")
	mem.PutProfile(models.PlayerProfile{UserID: "alice", Username: "Alice", GoldBalance: 100})
	mem.PutProfile(models.PlayerProfile{UserID: "bob", Username: "Bob"})
	seedPvPMatch(mem, "m1", "alice", "bob", models.ColorBlue)

	svc := newTestService(mem)
	result, err := svc.Settle(context.Background(), "alice", "m1")
	require.NoError(t, err)

	assert.False(t, result.AlreadyProcessed)
	assert.Equal(t, "m1", result.GameID)
	assert.Equal(t, models.ColorBlue, result.Winner)
	assert.Equal(t, models.GameModeOnline, result.GameMode)
	assert.Nil(t, result.AIOpponent)
	assert.Equal(t, testNow.Format(time.RFC3339), result.ProcessedAt)
	require.Len(t, result.Participants, 2)

	winner := result.Participants[0]
	loser := result.Participants[1]

	// Seat order: blue before red.
	assert.Equal(t, "alice", winner.UserID)
	assert.Equal(t, models.ColorBlue, winner.Color)
	assert.Equal(t, "bob", loser.UserID)
	assert.Equal(t, models.ColorRed, loser.Color)

	// Both players start at the 1200 default with 0 games: even odds, K=32.
	assert.Equal(t, 1, winner.Score)
	assert.Equal(t, 0.5, winner.ExpectedScore)
	assert.Equal(t, 32, winner.KFactor)
	assert.Equal(t, 1200, winner.PreviousRating)
	assert.Equal(t, 1216, winner.NewRating)
	assert.Equal(t, 16, winner.RatingDelta)
	assert.Equal(t, 1, winner.GamesPlayed)
	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 0, winner.Losses)
	assert.Equal(t, models.TierBronze, winner.Tier)
	assert.Equal(t, "2026-Q1", winner.Season)
	assert.Nil(t, winner.Decay)
	assert.Equal(t, int64(10), winner.GoldReward)
	assert.Equal(t, int64(110), winner.GoldBalance)
	assert.Equal(t, "Alice", winner.Username)

	assert.Equal(t, 0, loser.Score)
	assert.Equal(t, 0.5, loser.ExpectedScore)
	assert.Equal(t, 1184, loser.NewRating)
	assert.Equal(t, -16, loser.RatingDelta)
	assert.Equal(t, 1, loser.GamesPlayed)
	assert.Equal(t, 0, loser.Wins)
	assert.Equal(t, 1, loser.Losses)
	assert.Equal(t, models.TierBronze, loser.Tier)
	assert.Equal(t, int64(5), loser.GoldReward)
	assert.Equal(t, int64(5), loser.GoldBalance)

	// Persisted state matches the summaries.
	aliceRating, ok := mem.Rating("alice")
	require.True(t, ok, "rating record created lazily")
	assert.Equal(t, 1216.0, aliceRating.Rating)
	assert.Equal(t, 1, aliceRating.GamesPlayed)
	require.NotNil(t, aliceRating.LastMatchAt)
	assert.Equal(t, testNow, *aliceRating.LastMatchAt)

	aliceProfile, _ := mem.Profile("alice")
	assert.Equal(t, int64(110), aliceProfile.GoldBalance)

	aliceLedger := mem.LedgerFor("alice")
	require.Len(t, aliceLedger, 1)
	assert.Equal(t, int64(10), aliceLedger[0].Amount)
	assert.Equal(t, int64(110), aliceLedger[0].BalanceAfter)
	assert.Equal(t, models.LedgerEntryTypeCredit, aliceLedger[0].EntryType)
	assert.Equal(t, models.LedgerReasonMatchReward, aliceLedger[0].Reason)
	assert.Equal(t, "m1", aliceLedger[0].MatchID)

	bobLedger := mem.LedgerFor("bob")
	require.Len(t, bobLedger, 1)
	assert.Equal(t, int64(5), bobLedger[0].Amount)

	match, _ := mem.Match("m1")
	assert.True(t, match.RankingProcessed)

	_, ok = mem.Settlement("m1")
	assert.True(t, ok)
}

func TestSettleIdempotent(t *testing.T) {
	mem := repository.NewMemory()
	mem.SetConfig(models.ConfigKeyMatchGoldReward, "10")
	seedPvPMatch(mem, "m1", "alice", "bob", models.ColorRed)

	svc := newTestService(mem)
	first, err := svc.Settle(context.Background(), "alice", "m1")
	require.NoError(t, err)
	writesAfterFirst := mem.Writes()

	// Repeat from the other participant: same payload, no new writes.
	second, err := svc.Settle(context.Background(), "bob", "m1")
	require.NoError(t, err)

	assert.False(t, first.AlreadyProcessed)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, first.Winner, second.Winner)
	assert.Equal(t, first.Participants, second.Participants)
	assert.Equal(t, first.ProcessedAt, second.ProcessedAt)
	assert.Equal(t, writesAfterFirst, mem.Writes())

	aliceRating, _ := mem.Rating("alice")
	assert.Equal(t, 1, aliceRating.GamesPlayed)
	assert.Len(t, mem.LedgerFor("alice"), 1)
}

func TestSettleHumanVsAI(t *testing.T) {
	mem := repository.NewMemory()
	mem.SetConfig(models.ConfigKeyMatchGoldReward, "10")
	difficulty := "hard"
	mem.PutMatch(models.Match{
		ID:           "m2",
		BluePlayerID: "carol",
		RedPlayerID:  models.ComputerOpponentID,
		Status:       models.MatchStatusFinished,
		Winner:       models.ColorRed,
		GameMode:     models.GameModePvAI,
		AIDifficulty: &difficulty,
	})
	mem.PutRating(models.PlayerRating{
		UserID:      "carol",
		Rating:      1400,
		GamesPlayed: 30,
		Wins:        18,
		Losses:      12,
	})

	svc := newTestService(mem)
	result, err := svc.Settle(context.Background(), "carol", "m2")
	require.NoError(t, err)

	require.NotNil(t, result.AIOpponent)
	assert.Equal(t, "hard", result.AIOpponent.Difficulty)
	assert.Equal(t, 1500, result.AIOpponent.Rating)
	assert.Equal(t, models.GameModePvAI, result.GameMode)

	require.Len(t, result.Participants, 1)
	carol := result.Participants[0]
	assert.Equal(t, "carol", carol.UserID)
	assert.Equal(t, 0, carol.Score)
	assert.Equal(t, 0.3599, carol.ExpectedScore)
	assert.Equal(t, 24, carol.KFactor)
	assert.Equal(t, 1400, carol.PreviousRating)
	assert.Equal(t, 1391, carol.NewRating)
	assert.Equal(t, -9, carol.RatingDelta)
	assert.Equal(t, 31, carol.GamesPlayed)
	assert.Equal(t, 13, carol.Losses)
	assert.Equal(t, int64(5), carol.GoldReward)

	// The AI seat owns no leaderboard record, profile or ledger.
	_, ok := mem.Rating(models.ComputerOpponentID)
	assert.False(t, ok)
	assert.Empty(t, mem.LedgerFor(models.ComputerOpponentID))
}

func TestSettleAIDifficultyDefaultsToMedium(t *testing.T) {
	mem := repository.NewMemory()
	mem.PutMatch(models.Match{
		ID:           "m3",
		BluePlayerID: models.ComputerOpponentID,
		RedPlayerID:  "dave",
		Status:       models.MatchStatusFinished,
		Winner:       models.ColorRed,
		GameMode:     models.GameModePvAI,
	})

	svc := newTestService(mem)
	result, err := svc.Settle(context.Background(), "dave", "m3")
	require.NoError(t, err)

	require.NotNil(t, result.AIOpponent)
	assert.Equal(t, "medium", result.AIOpponent.Difficulty)
	assert.Equal(t, 1200, result.AIOpponent.Rating)
	require.Len(t, result.Participants, 1)
	assert.Equal(t, "dave", result.Participants[0].UserID)
	assert.Equal(t, 0.5, result.Participants[0].ExpectedScore)
}

func TestSettleRejectsMatchWithoutHumans(t *testing.T) {
	mem := repository.NewMemory()
	seedPvPMatch(mem, "m4", models.ComputerOpponentID, models.ComputerOpponentID, models.ColorBlue)

	svc := newTestService(mem)
	_, err := svc.Settle(context.Background(), "eve", "m4")
	assert.ErrorIs(t, err, ErrFailedPrecondition)
	assert.Equal(t, 0, mem.Writes())

	match, _ := mem.Match("m4")
	assert.False(t, match.RankingProcessed)
}

func TestSettlePermissionDenied(t *testing.T) {
	mem := repository.NewMemory()
	seedPvPMatch(mem, "m5", "alice", "bob", models.ColorBlue)

	svc := newTestService(mem)
	_, err := svc.Settle(context.Background(), "mallory", "m5")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 0, mem.Writes())
}

func TestSettlePreconditions(t *testing.T) {
	mem := repository.NewMemory()
	mem.PutMatch(models.Match{
		ID:           "running",
		BluePlayerID: "alice",
		RedPlayerID:  "bob",
		Status:       models.MatchStatusInProgress,
		GameMode:     models.GameModeOnline,
	})
	mem.PutMatch(models.Match{
		ID:           "no-winner",
		BluePlayerID: "alice",
		RedPlayerID:  "bob",
		Status:       models.MatchStatusFinished,
		GameMode:     models.GameModeOnline,
	})

	svc := newTestService(mem)

	_, err := svc.Settle(context.Background(), "alice", "running")
	assert.ErrorIs(t, err, ErrFailedPrecondition)

	_, err = svc.Settle(context.Background(), "alice", "no-winner")
	assert.ErrorIs(t, err, ErrFailedPrecondition)

	_, err = svc.Settle(context.Background(), "alice", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Settle(context.Background(), "", "running")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Settle(context.Background(), "alice", "   ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, 0, mem.Writes())
}

func TestSettleRewardUnitEdges(t *testing.T) {
	t.Run("unit of one floors loser to zero", func(t *testing.T) {
		mem := repository.NewMemory()
		mem.SetConfig(models.ConfigKeyMatchGoldReward, "1")
		seedPvPMatch(mem, "m6", "alice", "bob", models.ColorBlue)

		svc := newTestService(mem)
		result, err := svc.Settle(context.Background(), "alice", "m6")
		require.NoError(t, err)

		assert.Equal(t, int64(1), result.Participants[0].GoldReward)
		assert.Equal(t, int64(0), result.Participants[1].GoldReward)
		assert.Len(t, mem.LedgerFor("alice"), 1)
		assert.Empty(t, mem.LedgerFor("bob"), "zero reward must not produce a ledger entry")

		_, ok := mem.Profile("bob")
		assert.False(t, ok, "zero reward must not touch the balance")
	})

	t.Run("missing config grants nothing", func(t *testing.T) {
		mem := repository.NewMemory()
		seedPvPMatch(mem, "m7", "alice", "bob", models.ColorBlue)

		svc := newTestService(mem)
		result, err := svc.Settle(context.Background(), "bob", "m7")
		require.NoError(t, err)

		assert.Equal(t, int64(0), result.Participants[0].GoldReward)
		assert.Equal(t, int64(0), result.Participants[1].GoldReward)
		assert.Empty(t, mem.LedgerFor("alice"))
		assert.Empty(t, mem.LedgerFor("bob"))

		// Ratings still settle even when no gold is configured.
		aliceRating, ok := mem.Rating("alice")
		require.True(t, ok)
		assert.Equal(t, 1216.0, aliceRating.Rating)
	})

	t.Run("malformed config grants nothing", func(t *testing.T) {
		mem := repository.NewMemory()
		mem.SetConfig(models.ConfigKeyMatchGoldReward, "lots")
		seedPvPMatch(mem, "m8", "alice", "bob", models.ColorBlue)

		svc := newTestService(mem)
		result, err := svc.Settle(context.Background(), "alice", "m8")
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.Participants[0].GoldReward)
	})
}

func TestSettleAppliesInactivityDecay(t *testing.T) {
	mem := repository.NewMemory()
	mem.SetConfig(models.ConfigKeyMatchGoldReward, "10")
	lastMatch := testNow.Add(-22 * 24 * time.Hour) // three full weeks ago
	mem.PutRating(models.PlayerRating{
		UserID:      "alice",
		Rating:      1500,
		GamesPlayed: 25,
		Wins:        15,
		Losses:      10,
		LastMatchAt: &lastMatch,
	})
	seedPvPMatch(mem, "m9", "alice", "bob", models.ColorBlue)

	svc := newTestService(mem)
	result, err := svc.Settle(context.Background(), "alice", "m9")
	require.NoError(t, err)

	alice := result.Participants[0]
	require.NotNil(t, alice.Decay)
	assert.Equal(t, 3, alice.Decay.Weeks)
	assert.Equal(t, 90.0, alice.Decay.Amount)

	// Decayed baseline 1410 drives expected score, K and the delta.
	assert.Equal(t, 1500, alice.PreviousRating)
	assert.Equal(t, 0.7701, alice.ExpectedScore)
	assert.Equal(t, 24, alice.KFactor)
	assert.Equal(t, 1416, alice.NewRating)
	assert.Equal(t, 6, alice.RatingDelta)
	assert.Equal(t, models.TierSilver, alice.Tier)

	bob := result.Participants[1]
	assert.Nil(t, bob.Decay)
	assert.Equal(t, 0.2299, bob.ExpectedScore)
	assert.Equal(t, 1193, bob.NewRating)
}
