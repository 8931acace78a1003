package refset

import "github.com/kailas-cloud/spherenn/internal/domain"

// Mode selects how a nearest query is answered.
type Mode string

const (
	// ModeIndex answers from the cached spatial index.
	ModeIndex Mode = "index"
	// ModeBrute scans every reference point.
	ModeBrute Mode = "brute"
)

// ParseMode parses a mode name. Empty means ModeIndex.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeIndex:
		return ModeIndex, nil
	case ModeBrute:
		return ModeBrute, nil
	default:
		return "", domain.NewQueryError("mode", "must be index or brute")
	}
}
