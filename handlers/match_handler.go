package handlers

import (
	"fmt"
	"net/http"

	"github.com/Dosada05/dart-tournament/models"
	"github.com/Dosada05/dart-tournament/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

type scoreRequest struct {
	Score1 *int `json:"score1"`
	Score2 *int `json:"score2"`
}

type endMatchRequest struct {
	WinnerID int `json:"winner_id"`
}

type replaceRequest struct {
	TargetID      int `json:"target_id"`
	ReplacementID int `json:"replacement_id"`
}

type fillRequest struct {
	ReplacementID int `json:"replacement_id"`
}

// commandRequest is the envelope of POST /matches/{matchID}/commands.
type commandRequest struct {
	Type          string `json:"type"`
	Score1        *int   `json:"score1,omitempty"`
	Score2        *int   `json:"score2,omitempty"`
	WinnerID      int    `json:"winner_id,omitempty"`
	TargetID      int    `json:"target_id,omitempty"`
	ReplacementID int    `json:"replacement_id,omitempty"`
}

func (c commandRequest) toCommand() (models.MatchCommand, error) {
	switch c.Type {
	case "activate":
		return models.ActivateMatch{}, nil
	case "update_score":
		if c.Score1 == nil || c.Score2 == nil {
			return nil, fmt.Errorf("%w: score1 and score2 are required", services.ErrValidationFailed)
		}
		return models.UpdateScore{Score1: *c.Score1, Score2: *c.Score2}, nil
	case "finish":
		if c.WinnerID <= 0 {
			return nil, fmt.Errorf("%w: winner_id is required", services.ErrValidationFailed)
		}
		return models.FinishMatch{WinnerID: c.WinnerID}, nil
	case "replace_slot":
		if c.TargetID <= 0 || c.ReplacementID <= 0 {
			return nil, fmt.Errorf("%w: target_id and replacement_id are required", services.ErrValidationFailed)
		}
		return models.ReplaceSlot{TargetID: c.TargetID, ReplacementID: c.ReplacementID}, nil
	case "fill_empty_slots":
		if c.ReplacementID <= 0 {
			return nil, fmt.Errorf("%w: replacement_id is required", services.ErrValidationFailed)
		}
		return models.FillEmptySlots{ReplacementID: c.ReplacementID}, nil
	}
	return nil, fmt.Errorf("%w: unknown command type %q", services.ErrValidationFailed, c.Type)
}

func (h *MatchHandler) respondMatch(w http.ResponseWriter, r *http.Request, match *models.Match, err error) {
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ActiveHandler handles GET /matches/active?tournament_id=
func (h *MatchHandler) ActiveHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := queryInt(r, "tournament_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListActiveMatches(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.GetMatch(r.Context(), id)
	h.respondMatch(w, r, match, err)
}

func (h *MatchHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	history, err := h.matchService.ScoreHistory(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"history": history}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ActivateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.ActivateMatch(r.Context(), id)
	h.respondMatch(w, r, match, err)
}

func (h *MatchHandler) ScoreHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req scoreRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.Score1 == nil || req.Score2 == nil {
		badRequestResponse(w, r, fmt.Errorf("%w: score1 and score2 are required", services.ErrValidationFailed))
		return
	}

	match, err := h.matchService.UpdateScore(r.Context(), id, *req.Score1, *req.Score2)
	h.respondMatch(w, r, match, err)
}

func (h *MatchHandler) EndHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req endMatchRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.WinnerID <= 0 {
		badRequestResponse(w, r, fmt.Errorf("%w: winner_id is required", services.ErrValidationFailed))
		return
	}

	match, err := h.matchService.FinishMatch(r.Context(), id, req.WinnerID)
	h.respondMatch(w, r, match, err)
}

func (h *MatchHandler) ReplaceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req replaceRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.TargetID <= 0 || req.ReplacementID <= 0 {
		badRequestResponse(w, r, fmt.Errorf("%w: target_id and replacement_id are required", services.ErrValidationFailed))
		return
	}

	match, err := h.matchService.ReplaceInSlot(r.Context(), id, req.TargetID, req.ReplacementID)
	h.respondMatch(w, r, match, err)
}

func (h *MatchHandler) FillHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req fillRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.ReplacementID <= 0 {
		badRequestResponse(w, r, fmt.Errorf("%w: replacement_id is required", services.ErrValidationFailed))
		return
	}

	match, err := h.matchService.FillEmptySlots(r.Context(), id, req.ReplacementID)
	h.respondMatch(w, r, match, err)
}

func (h *MatchHandler) CommandHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req commandRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	cmd, err := req.toCommand()
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Apply(r.Context(), id, cmd)
	h.respondMatch(w, r, match, err)
}
