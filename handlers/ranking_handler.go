package handlers

import (
	"net/http"

	"github.com/jpmahinay/smashers/services"
)

type RankingHandler struct {
	rankingService services.RankingService
}

func NewRankingHandler(rankingService services.RankingService) *RankingHandler {
	return &RankingHandler{rankingService: rankingService}
}

func (h *RankingHandler) Players(w http.ResponseWriter, r *http.Request) {
	players, err := h.rankingService.PlayerLeaderboard(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RankingHandler) Couples(w http.ResponseWriter, r *http.Request) {
	couples, err := h.rankingService.CoupleLeaderboard(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"couples": couples}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
