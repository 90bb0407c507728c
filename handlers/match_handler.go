package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/jpmahinay/smashers/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListOngoing(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matchService.ListOngoing(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		ScoreTeamA int `json:"score_team_a"`
		ScoreTeamB int `json:"score_team_b"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	update, err := h.matchService.UpdateScore(r.Context(), matchID, input.ScoreTeamA, input.ScoreTeamB)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success":    true,
		"match":      update.Match,
		"game_point": update.GamePoint,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) End(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchService.EndMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success":     true,
		"winner_team": result.WinnerTeam,
		"match":       result.Match,
	}
	if len(result.Warnings) > 0 {
		// Матч завершён; предупреждения - про неудавшиеся записи
		// рейтингов, клиенту о них стоит знать.
		response["warnings"] = result.Warnings
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// History: завершённые матчи за период, обе границы включительно.
func (h *MatchHandler) History(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("startDate")
	endStr := r.URL.Query().Get("endDate")
	if startStr == "" || endStr == "" {
		badRequestResponse(w, r, errors.New("startDate and endDate are required"))
		return
	}

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		badRequestResponse(w, r, errors.New("invalid startDate: expected YYYY-MM-DD"))
		return
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		badRequestResponse(w, r, errors.New("invalid endDate: expected YYYY-MM-DD"))
		return
	}

	matches, err := h.matchService.History(r.Context(), start, end)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
