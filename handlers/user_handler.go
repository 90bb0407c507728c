package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/jpmahinay/smashers/middleware"
	"github.com/jpmahinay/smashers/models"
	"github.com/jpmahinay/smashers/services"
)

type UserHandler struct {
	rosterService services.RosterService
}

func NewUserHandler(rosterService services.RosterService) *UserHandler {
	return &UserHandler{rosterService: rosterService}
}

// ListMembers выдаёт ростер, опционально отфильтрованный по статусу
// (?status=pending - очередь на одобрение).
func (h *UserHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	var status *models.UserStatus
	if value := r.URL.Query().Get("status"); value != "" {
		s := models.UserStatus(value)
		switch s {
		case models.StatusPending, models.StatusApproved, models.StatusRejected:
			status = &s
		default:
			badRequestResponse(w, r, errors.New("invalid status filter"))
			return
		}
	}

	users, err := h.rosterService.ListMembers(r.Context(), status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"users": users}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.rosterService.GetMember(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateProfile: игрок правит свой профиль, админ - любой.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !h.actorCanManage(r, userID) {
		forbiddenResponse(w, r, services.ErrForbiddenOperation.Error())
		return
	}

	var input services.UpdateProfileInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.rosterService.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !h.actorCanManage(r, userID) {
		forbiddenResponse(w, r, services.ErrForbiddenOperation.Error())
		return
	}

	// Ограничиваем размер до парсинга формы.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequestResponse(w, r, errors.New("avatar file is required"))
		return
	}
	defer file.Close()

	url, err := h.rosterService.UploadAvatar(r.Context(), userID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"avatar_url": url}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolveMembership(w, r, h.rosterService.Approve)
}

func (h *UserHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolveMembership(w, r, h.rosterService.Reject)
}

func (h *UserHandler) resolveMembership(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, userID int) error) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := apply(r.Context(), userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) actorCanManage(r *http.Request, userID int) bool {
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err == nil && role == models.RoleAdmin {
		return true
	}
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	return err == nil && actorID == userID
}
