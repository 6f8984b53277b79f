package services

import "match-settlement-system/models"

// SeatKind tags a seat occupant as a human account or the built-in AI,
// replacing sentinel-id string comparisons downstream of the match load.
type SeatKind int

const (
	SeatHuman SeatKind = iota
	SeatComputer
)

// Seat is one color-coded side of a match.
type Seat struct {
	Color  string
	Kind   SeatKind
	UserID string // set only when Kind == SeatHuman
}

func (s Seat) HeldBy(userID string) bool {
	return s.Kind == SeatHuman && s.UserID == userID
}

// resolveSeats builds the tagged seat pair from the stored match,
// blue first.
func resolveSeats(m *models.Match) (blue, red Seat) {
	return seatFor(models.ColorBlue, m.BluePlayerID), seatFor(models.ColorRed, m.RedPlayerID)
}

func seatFor(color, occupant string) Seat {
	if occupant == models.ComputerOpponentID {
		return Seat{Color: color, Kind: SeatComputer}
	}
	return Seat{Color: color, Kind: SeatHuman, UserID: occupant}
}

// Reference ratings the human is scored against per AI difficulty.
var aiOpponentRatings = map[string]float64{
	"easy":   900,
	"medium": 1200,
	"hard":   1500,
}

const defaultAIDifficulty = "medium"

// AIOpponentRating resolves a match's difficulty tag to the difficulty
// actually used and its reference rating. Unset or unrecognized tags fall
// back to medium.
func AIOpponentRating(difficulty *string) (string, float64) {
	if difficulty != nil {
		if rating, ok := aiOpponentRatings[*difficulty]; ok {
			return *difficulty, rating
		}
	}
	return defaultAIDifficulty, aiOpponentRatings[defaultAIDifficulty]
}
