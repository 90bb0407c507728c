package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jpmahinay/smashers/models"
	"github.com/jpmahinay/smashers/storage"
)

type fakeUploader struct {
	uploads map[string]string // key -> contentType
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, _ io.Reader) (*storage.UploadResult, error) {
	if u.uploads == nil {
		u.uploads = make(map[string]string)
	}
	u.uploads[key] = contentType
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	delete(u.uploads, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

type rosterHarness struct {
	users      *fakeUserRepo
	attendance *fakeAttendanceRepo
	matches    *fakeMatchRepo
	uploader   *fakeUploader
	svc        RosterService
}

func newRosterHarness(users ...*models.User) *rosterHarness {
	h := &rosterHarness{
		users:      newFakeUserRepo(users...),
		attendance: newFakeAttendanceRepo(),
		matches:    newFakeMatchRepo(),
		uploader:   &fakeUploader{},
	}
	h.svc = NewRosterService(h.users, h.attendance, h.matches, h.uploader)
	return h
}

func pendingPlayer(id int, name string) *models.User {
	user := approvedPlayer(id, name, models.DefaultRating)
	user.Status = models.StatusPending
	return user
}

func TestApprove(t *testing.T) {
	h := newRosterHarness(pendingPlayer(1, "Anna"))

	if err := h.svc.Approve(context.Background(), 1); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	user, _ := h.users.GetByID(context.Background(), 1)
	if user.Status != models.StatusApproved {
		t.Errorf("status = %q, want approved", user.Status)
	}

	// Повторное одобрение уже approved пользователя отклоняется.
	if err := h.svc.Approve(context.Background(), 1); !errors.Is(err, ErrUserNotPending) {
		t.Errorf("err = %v, want ErrUserNotPending", err)
	}
	if err := h.svc.Approve(context.Background(), 99); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestRejectDeletesUser(t *testing.T) {
	h := newRosterHarness(pendingPlayer(1, "Anna"), approvedPlayer(2, "Boris", 1500))

	if err := h.svc.Reject(context.Background(), 1); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if _, err := h.users.GetByID(context.Background(), 1); err == nil {
		t.Errorf("rejected user still exists")
	}

	// Отклонить можно только pending-заявку.
	if err := h.svc.Reject(context.Background(), 2); !errors.Is(err, ErrUserNotPending) {
		t.Errorf("err = %v, want ErrUserNotPending", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	h := newRosterHarness(approvedPlayer(1, "Anna", 1500))

	user, err := h.svc.UpdateProfile(context.Background(), 1, UpdateProfileInput{
		Name:          "Anna K",
		Racket:        "Astrox 88D",
		StringTension: "26 lbs",
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if user.Name != "Anna K" || user.Racket != "Astrox 88D" {
		t.Errorf("profile = %+v", user)
	}

	if _, err := h.svc.UpdateProfile(context.Background(), 1, UpdateProfileInput{}); !errors.Is(err, ErrNameRequired) {
		t.Errorf("err = %v, want ErrNameRequired", err)
	}
}

func TestUploadAvatar(t *testing.T) {
	h := newRosterHarness(approvedPlayer(1, "Anna", 1500))

	location, err := h.svc.UploadAvatar(context.Background(), 1, "image/png", strings.NewReader("img"))
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if location != "https://cdn.test/avatars/1.png" {
		t.Errorf("location = %q", location)
	}
	user, _ := h.users.GetByID(context.Background(), 1)
	if user.AvatarKey == nil || *user.AvatarKey != "avatars/1.png" {
		t.Errorf("avatar key = %v", user.AvatarKey)
	}

	if _, err := h.svc.UploadAvatar(context.Background(), 1, "image/gif", strings.NewReader("img")); !errors.Is(err, ErrUnsupportedContentType) {
		t.Errorf("err = %v, want ErrUnsupportedContentType", err)
	}
}

func TestUploadAvatarDisabled(t *testing.T) {
	users := newFakeUserRepo(approvedPlayer(1, "Anna", 1500))
	svc := NewRosterService(users, newFakeAttendanceRepo(), newFakeMatchRepo(), nil)

	_, err := svc.UploadAvatar(context.Background(), 1, "image/png", strings.NewReader("img"))
	if !errors.Is(err, ErrAvatarUploadsDisabled) {
		t.Fatalf("err = %v, want ErrAvatarUploadsDisabled", err)
	}
}

func TestSaveAttendance(t *testing.T) {
	h := newRosterHarness(approvedPlayer(1, "Anna", 1500), approvedPlayer(2, "Boris", 1500))
	day := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)

	// Дубликаты в списке схлопываются.
	if err := h.svc.SaveAttendance(context.Background(), day, []int{1, 2, 1}); err != nil {
		t.Fatalf("SaveAttendance: %v", err)
	}
	record, err := h.svc.GetAttendance(context.Background(), day)
	if err != nil {
		t.Fatalf("GetAttendance: %v", err)
	}
	if len(record.PresentUserIDs) != 2 {
		t.Errorf("present = %v, want [1 2]", record.PresentUserIDs)
	}

	// Повторное сохранение полностью заменяет список.
	if err := h.svc.SaveAttendance(context.Background(), day, []int{2}); err != nil {
		t.Fatalf("SaveAttendance: %v", err)
	}
	record, _ = h.svc.GetAttendance(context.Background(), day)
	if len(record.PresentUserIDs) != 1 || record.PresentUserIDs[0] != 2 {
		t.Errorf("present = %v, want [2]", record.PresentUserIDs)
	}

	if err := h.svc.SaveAttendance(context.Background(), day, []int{1, 99}); !errors.Is(err, ErrUnknownAttendee) {
		t.Errorf("err = %v, want ErrUnknownAttendee", err)
	}
}

func TestGetAttendanceMissingDay(t *testing.T) {
	h := newRosterHarness()

	record, err := h.svc.GetAttendance(context.Background(), time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetAttendance: %v", err)
	}
	if record == nil || len(record.PresentUserIDs) != 0 {
		t.Errorf("record = %+v, want empty list", record)
	}
}

func TestGetAvailablePlayers(t *testing.T) {
	pending := pendingPlayer(5, "Egor")
	h := newRosterHarness(
		approvedPlayer(1, "Anna", 1500),
		approvedPlayer(2, "Boris", 1500),
		approvedPlayer(3, "Carl", 1500),
		approvedPlayer(4, "Dina", 1500),
		pending,
	)
	day := time.Now().UTC()
	// Игрок 4 отмечен не был, игрок 5 не approved.
	h.attendance.markPresent(day, 1, 2, 3, 5)

	// Игроки 1 и 2 заняты в идущем матче.
	h.matches.Create(context.Background(), &models.Match{
		TeamAPlayer1: 1, TeamAPlayer2: 2,
		TeamBPlayer1: 7, TeamBPlayer2: 8,
		Status: models.MatchStatusOngoing,
	})

	available, err := h.svc.GetAvailablePlayers(context.Background(), day)
	if err != nil {
		t.Fatalf("GetAvailablePlayers: %v", err)
	}
	if len(available) != 1 || available[0].ID != 3 {
		ids := make([]int, 0, len(available))
		for _, u := range available {
			ids = append(ids, u.ID)
		}
		t.Errorf("available = %v, want [3]", ids)
	}
}

func TestGetAvailablePlayersNoAttendance(t *testing.T) {
	h := newRosterHarness(approvedPlayer(1, "Anna", 1500))

	available, err := h.svc.GetAvailablePlayers(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("GetAvailablePlayers: %v", err)
	}
	if len(available) != 0 {
		t.Errorf("available = %v, want empty", available)
	}
}
