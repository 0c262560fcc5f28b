package models

// TournamentFormat is the bracket format declared on a tournament.
type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single_elimination"
	FormatDoubleElimination TournamentFormat = "double_elimination"
	FormatPools             TournamentFormat = "pools"
)

func (f TournamentFormat) IsValid() bool {
	switch f {
	case FormatSingleElimination, FormatDoubleElimination, FormatPools:
		return true
	}
	return false
}
