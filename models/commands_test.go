package models

import "testing"

func TestCommandName(t *testing.T) {
	tests := []struct {
		cmd  MatchCommand
		want string
	}{
		{ActivateMatch{}, "activate"},
		{UpdateScore{Score1: 3}, "update_score"},
		{FinishMatch{WinnerID: 1}, "finish"},
		{ReplaceSlot{TargetID: 1, ReplacementID: 2}, "replace_slot"},
		{FillEmptySlots{ReplacementID: 2}, "fill_empty_slots"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := CommandName(tt.cmd); got != tt.want {
			t.Errorf("CommandName(%T) = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}
