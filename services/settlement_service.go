package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"match-settlement-system/models"
	"match-settlement-system/repository"

	"github.com/google/uuid"
)

// ParticipantSummary is the per-player slice of a settlement, returned to
// the caller and persisted verbatim inside the settlement record.
type ParticipantSummary struct {
	UserID         string        `json:"userId"`
	Username       string        `json:"username"`
	Color          string        `json:"color"`
	Score          int           `json:"score"`
	ExpectedScore  float64       `json:"expectedScore"`
	PreviousRating int           `json:"previousRating"`
	NewRating      int           `json:"newRating"`
	RatingDelta    int           `json:"ratingDelta"`
	GamesPlayed    int           `json:"gamesPlayed"`
	Wins           int           `json:"wins"`
	Losses         int           `json:"losses"`
	KFactor        int           `json:"kFactor"`
	Tier           string        `json:"tier"`
	Season         string        `json:"season"`
	Decay          *DecaySummary `json:"decay"`
	GoldReward     int64         `json:"goldReward"`
	GoldBalance    int64         `json:"goldBalance"`
}

// DecaySummary is present only when inactivity decay applied this match.
type DecaySummary struct {
	Weeks  int     `json:"weeks"`
	Amount float64 `json:"amount"`
}

type AIOpponentSummary struct {
	Difficulty string `json:"difficulty"`
	Rating     int    `json:"rating"`
}

// SettlementResult is the invocation response for a settled match.
type SettlementResult struct {
	AlreadyProcessed bool                 `json:"alreadyProcessed"`
	GameID           string               `json:"gameId"`
	Winner           string               `json:"winner"`
	Participants     []ParticipantSummary `json:"participants"`
	ProcessedAt      string               `json:"processedAt"`
	AIOpponent       *AIOpponentSummary   `json:"aiOpponent"`
	GameMode         string               `json:"gameMode"`
}

// SettlementService turns a finished match into updated ratings, tiers,
// season stats, gold rewards and an immutable settlement record, all inside
// one transaction per invocation.
type SettlementService struct {
	repo repository.Runner
	now  func() time.Time
}

func NewSettlementService(repo repository.Runner) *SettlementService {
	return &SettlementService{repo: repo, now: time.Now}
}

// Settle settles the referenced match on behalf of callerID. Calling it
// again for an already-settled match returns the stored result with
// AlreadyProcessed set and performs no writes.
func (s *SettlementService) Settle(ctx context.Context, callerID, gameID string) (*SettlementResult, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: missing caller identity", ErrUnauthenticated)
	}
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, fmt.Errorf("%w: gameId is required", ErrInvalidArgument)
	}

	var result *SettlementResult
	err := s.repo.InTx(ctx, func(tx repository.Tx) error {
		match, err := tx.Matches().Get(gameID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: match %s", ErrNotFound, gameID)
		}
		if err != nil {
			return err
		}

		if match.Status != models.MatchStatusFinished || match.Winner == "" {
			return fmt.Errorf("%w: match %s is not finished with a declared winner", ErrFailedPrecondition, gameID)
		}

		blue, red := resolveSeats(match)
		// Checked before the participant check: a match with two AI seats
		// has no occupant any caller could be.
		if blue.Kind == SeatComputer && red.Kind == SeatComputer {
			return fmt.Errorf("%w: match %s has no human participant", ErrFailedPrecondition, gameID)
		}
		if !blue.HeldBy(callerID) && !red.HeldBy(callerID) {
			return fmt.Errorf("%w: caller is not a participant of match %s", ErrPermissionDenied, gameID)
		}

		// Idempotency guard: the existence check and the eventual record
		// write share this transaction, so concurrent attempts cannot both
		// observe "no record" and settle twice.
		prior, err := tx.Settlements().Get(match.ID)
		if err == nil {
			stored, err := resultFromRecord(prior)
			if err != nil {
				return err
			}
			stored.AlreadyProcessed = true
			result = stored
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		now := s.now().UTC()
		season := SeasonFor(now)
		goldUnit := rewardUnit(tx)

		var aiOpponent *AIOpponentSummary
		var summaries []ParticipantSummary

		if blue.Kind == SeatHuman && red.Kind == SeatHuman {
			blueState, err := loadRatingState(tx, blue.UserID, now)
			if err != nil {
				return err
			}
			redState, err := loadRatingState(tx, red.UserID, now)
			if err != nil {
				return err
			}
			// Both decayed baselines are fixed before either side updates.
			blueSummary, err := settleParticipant(tx, match, blueState, redState.decayed.Rating, blue.Color, now, season, goldUnit)
			if err != nil {
				return err
			}
			redSummary, err := settleParticipant(tx, match, redState, blueState.decayed.Rating, red.Color, now, season, goldUnit)
			if err != nil {
				return err
			}
			summaries = append(summaries, *blueSummary, *redSummary)
		} else {
			human := blue
			if human.Kind != SeatHuman {
				human = red
			}
			difficulty, aiRating := AIOpponentRating(match.AIDifficulty)
			aiOpponent = &AIOpponentSummary{Difficulty: difficulty, Rating: int(aiRating)}

			state, err := loadRatingState(tx, human.UserID, now)
			if err != nil {
				return err
			}
			summary, err := settleParticipant(tx, match, state, aiRating, human.Color, now, season, goldUnit)
			if err != nil {
				return err
			}
			summaries = append(summaries, *summary)
		}

		raw, err := json.Marshal(summaries)
		if err != nil {
			return err
		}
		record := &models.Settlement{
			MatchID:      match.ID,
			Winner:       match.Winner,
			GameMode:     match.GameMode,
			Participants: raw,
			ProcessedAt:  now,
		}
		if aiOpponent != nil {
			record.AIDifficulty = &aiOpponent.Difficulty
			record.AIRating = &aiOpponent.Rating
		}
		if err := tx.Settlements().Create(record); err != nil {
			return err
		}
		if err := tx.Matches().MarkRankingProcessed(match.ID); err != nil {
			return err
		}

		result = &SettlementResult{
			GameID:       match.ID,
			Winner:       match.Winner,
			Participants: summaries,
			ProcessedAt:  now.Format(time.RFC3339),
			AIOpponent:   aiOpponent,
			GameMode:     match.GameMode,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyProcessed {
		log.Printf("🏁 Match %s settled: winner=%s participants=%d mode=%s",
			result.GameID, result.Winner, len(result.Participants), result.GameMode)
	}
	return result, nil
}

// ratingState is one participant's leaderboard record plus the decayed
// baseline used for this match.
type ratingState struct {
	record  *models.PlayerRating
	decayed DecayResult
}

func loadRatingState(tx repository.Tx, userID string, now time.Time) (*ratingState, error) {
	rec, err := tx.Ratings().Get(userID)
	if errors.Is(err, repository.ErrNotFound) {
		rec = &models.PlayerRating{
			ID:     uuid.NewString(),
			UserID: userID,
			Rating: models.DefaultRating,
			Tier:   TierFor(models.DefaultRating),
		}
		return &ratingState{record: rec, decayed: DecayResult{Rating: rec.Rating}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ratingState{record: rec, decayed: ApplyDecay(rec.Rating, rec.LastMatchAt, now)}, nil
}

// settleParticipant updates one human participant's rating record, credits
// the gold reward, and builds the participant summary.
func settleParticipant(tx repository.Tx, match *models.Match, state *ratingState, opponentRating float64, color string, now time.Time, season string, rewardUnit int64) (*ParticipantSummary, error) {
	rec := state.record

	score := 0.0
	if match.Winner == color {
		score = 1.0
	}

	expected := ExpectedScore(state.decayed.Rating, opponentRating)
	k := KFactor(state.decayed.Rating, rec.GamesPlayed)
	newRating := NextRating(state.decayed.Rating, k, score, expected)

	previous := int(math.Round(rec.Rating))
	// Delta is measured from the decayed baseline, not the stored rating.
	delta := newRating - int(math.Round(state.decayed.Rating))

	rec.Rating = float64(newRating)
	rec.GamesPlayed++
	if score == 1 {
		rec.Wins++
	} else {
		rec.Losses++
	}
	lastMatch := now
	rec.LastMatchAt = &lastMatch
	rec.Tier = TierFor(rec.Rating)
	rec.Season = season

	var balance int64
	profile, err := tx.Profiles().Get(rec.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if profile != nil {
		balance = profile.GoldBalance
		rec.Username = profile.Username
		rec.AvatarURL = profile.AvatarURL
	}

	reward := rewardUnit
	if score == 0 {
		reward = rewardUnit / 2
	}
	if reward > 0 {
		balance += reward
		if err := tx.Profiles().SetGoldBalance(rec.UserID, balance); err != nil {
			return nil, err
		}
		entry := &models.GoldLedgerEntry{
			ID:           uuid.NewString(),
			UserID:       rec.UserID,
			MatchID:      match.ID,
			Amount:       reward,
			EntryType:    models.LedgerEntryTypeCredit,
			Reason:       models.LedgerReasonMatchReward,
			BalanceAfter: balance,
			CreatedAt:    now,
		}
		if err := tx.Ledger().Append(entry); err != nil {
			return nil, err
		}
	}

	if err := tx.Ratings().Save(rec); err != nil {
		return nil, err
	}

	summary := &ParticipantSummary{
		UserID:         rec.UserID,
		Username:       rec.Username,
		Color:          color,
		Score:          int(score),
		ExpectedScore:  round4(expected),
		PreviousRating: previous,
		NewRating:      newRating,
		RatingDelta:    delta,
		GamesPlayed:    rec.GamesPlayed,
		Wins:           rec.Wins,
		Losses:         rec.Losses,
		KFactor:        k,
		Tier:           rec.Tier,
		Season:         season,
		GoldReward:     reward,
		GoldBalance:    balance,
	}
	if state.decayed.Weeks > 0 {
		summary.Decay = &DecaySummary{Weeks: state.decayed.Weeks, Amount: round2(state.decayed.Amount)}
	}
	return summary, nil
}

// rewardUnit reads the per-match gold unit; missing, malformed or negative
// config means no gold is granted.
func rewardUnit(tx repository.Tx) int64 {
	raw, err := tx.Config().Get(models.ConfigKeyMatchGoldReward)
	if err != nil {
		return 0
	}
	unit, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || unit < 0 {
		return 0
	}
	return unit
}

func resultFromRecord(rec *models.Settlement) (*SettlementResult, error) {
	var participants []ParticipantSummary
	if err := json.Unmarshal(rec.Participants, &participants); err != nil {
		return nil, fmt.Errorf("corrupt settlement record for match %s: %w", rec.MatchID, err)
	}
	result := &SettlementResult{
		GameID:       rec.MatchID,
		Winner:       rec.Winner,
		Participants: participants,
		ProcessedAt:  rec.ProcessedAt.UTC().Format(time.RFC3339),
		GameMode:     rec.GameMode,
	}
	if rec.AIDifficulty != nil && rec.AIRating != nil {
		result.AIOpponent = &AIOpponentSummary{Difficulty: *rec.AIDifficulty, Rating: *rec.AIRating}
	}
	return result, nil
}

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
