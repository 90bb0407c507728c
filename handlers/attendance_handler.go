package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/jpmahinay/smashers/services"
)

type AttendanceHandler struct {
	rosterService services.RosterService
}

func NewAttendanceHandler(rosterService services.RosterService) *AttendanceHandler {
	return &AttendanceHandler{rosterService: rosterService}
}

// Save полностью заменяет список присутствующих за день.
func (h *AttendanceHandler) Save(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Date           string `json:"date"`
		PresentUserIDs []int  `json:"present_user_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	day := time.Now().UTC()
	if input.Date != "" {
		parsed, err := time.Parse("2006-01-02", input.Date)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid date: expected YYYY-MM-DD"))
			return
		}
		day = parsed
	}

	if err := h.rosterService.SaveAttendance(r.Context(), day, input.PresentUserIDs); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AttendanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	day, err := getDateFromQuery(r, "date")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	record, err := h.rosterService.GetAttendance(r.Context(), day)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"attendance": record}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Available - кандидаты на новый матч: approved, отмечены и свободны.
func (h *AttendanceHandler) Available(w http.ResponseWriter, r *http.Request) {
	day, err := getDateFromQuery(r, "date")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	players, err := h.rosterService.GetAvailablePlayers(r.Context(), day)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
