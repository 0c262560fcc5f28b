package brackets

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/dart-tournament/models"
)

var (
	ErrUnsupportedFormat    = errors.New("bracket format is not supported")
	ErrNotEnoughPlayers     = errors.New("at least two participants are required")
	ErrDrawPositionMissing  = errors.New("participant has no draw position")
	ErrDrawPositionConflict = errors.New("draw positions are not a permutation of 1..N")
)

type GenerateBracketParams struct {
	Tournament   *models.Tournament
	Participants []*models.Participant
}

// BracketGenerator materializes the first round of a tournament. Matches it returns
// are not persisted yet: ID, CreatedAt and UpdatedAt are left to the store.
type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*models.Match, error)

	GetName() string
}

// Options are the operator policies shared by every generator.
type Options struct {
	ByePolicy ByePolicy
	BaseTime  Clock
}

func NewGenerator(format models.TournamentFormat, opts Options) (BracketGenerator, error) {
	switch format {
	case models.FormatSingleElimination, "":
		return NewSingleEliminationGenerator(opts), nil
	case models.FormatDoubleElimination, models.FormatPools:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrUnsupportedFormat, format)
	}
}
