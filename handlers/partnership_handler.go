package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/jpmahinay/smashers/middleware"
	"github.com/jpmahinay/smashers/services"
)

type PartnershipHandler struct {
	partnershipService services.PartnershipService
}

func NewPartnershipHandler(partnershipService services.PartnershipService) *PartnershipHandler {
	return &PartnershipHandler{partnershipService: partnershipService}
}

func (h *PartnershipHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	requesterID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input struct {
		PartnerID int `json:"partner_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PartnerID <= 0 {
		badRequestResponse(w, r, errors.New("partner_id is required"))
		return
	}

	request, err := h.partnershipService.RequestPartner(r.Context(), requesterID, input.PartnerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"request": request}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PartnershipHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	requests, err := h.partnershipService.ListRequests(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"requests": requests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AcceptRequest: заявка становится парой и исчезает.
func (h *PartnershipHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	requestID, actorID, ok := h.requestAndActor(w, r)
	if !ok {
		return
	}

	couple, err := h.partnershipService.AcceptRequest(r.Context(), requestID, actorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"couple": couple}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PartnershipHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	h.removeRequest(w, r, h.partnershipService.DeclineRequest)
}

func (h *PartnershipHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.removeRequest(w, r, h.partnershipService.CancelRequest)
}

func (h *PartnershipHandler) removeRequest(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, requestID, actorID int) error) {
	requestID, actorID, ok := h.requestAndActor(w, r)
	if !ok {
		return
	}

	if err := apply(r.Context(), requestID, actorID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PartnershipHandler) ListCouples(w http.ResponseWriter, r *http.Request) {
	couples, err := h.partnershipService.ListCouples(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"couples": couples}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateCouple - прямой админский путь, без обмена заявками.
func (h *PartnershipHandler) CreateCouple(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Player1ID int `json:"player1_id"`
		Player2ID int `json:"player2_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Player1ID <= 0 || input.Player2ID <= 0 {
		badRequestResponse(w, r, errors.New("player1_id and player2_id are required"))
		return
	}

	couple, err := h.partnershipService.CreateCouple(r.Context(), input.Player1ID, input.Player2ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"couple": couple}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PartnershipHandler) DisbandCouple(w http.ResponseWriter, r *http.Request) {
	coupleID, err := getIDFromURL(r, "coupleID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.partnershipService.Disband(r.Context(), coupleID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PartnershipHandler) requestAndActor(w http.ResponseWriter, r *http.Request) (requestID, actorID int, ok bool) {
	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, false
	}
	actorID, err = middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return 0, 0, false
	}
	return requestID, actorID, true
}
