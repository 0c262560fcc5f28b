package models

// MatchCommand is one of the state transitions an operator can request on a match.
// Each variant carries exactly the fields it needs.
type MatchCommand interface {
	commandName() string
}

type ActivateMatch struct{}

type UpdateScore struct {
	Score1 int `json:"score1"`
	Score2 int `json:"score2"`
}

type FinishMatch struct {
	WinnerID int `json:"winner_id"`
}

type ReplaceSlot struct {
	TargetID      int `json:"target_id"`
	ReplacementID int `json:"replacement_id"`
}

type FillEmptySlots struct {
	ReplacementID int `json:"replacement_id"`
}

func (ActivateMatch) commandName() string  { return "activate" }
func (UpdateScore) commandName() string    { return "update_score" }
func (FinishMatch) commandName() string    { return "finish" }
func (ReplaceSlot) commandName() string    { return "replace_slot" }
func (FillEmptySlots) commandName() string { return "fill_empty_slots" }

// CommandName exposes the wire name of a command, mostly for logging.
func CommandName(cmd MatchCommand) string {
	if cmd == nil {
		return ""
	}
	return cmd.commandName()
}
