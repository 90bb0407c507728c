package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jpmahinay/smashers/models"
	"github.com/jpmahinay/smashers/repositories"
)

// In-memory repositories used by the service tests.

type fakeUserRepo struct {
	mu            sync.Mutex
	users         map[int]*models.User
	nextID        int
	ratingWrites  map[int]int // userID -> write count
	failRatingFor map[int]bool
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		users:         make(map[int]*models.User),
		nextID:        1,
		ratingWrites:  make(map[int]int),
		failRatingFor: make(map[int]bool),
	}
	for _, u := range users {
		repo.users[u.ID] = u
		if u.ID >= repo.nextID {
			repo.nextID = u.ID + 1
		}
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.nextID++
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) List(_ context.Context, status *models.UserStatus) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		if status == nil || user.Status == *status {
			users = append(users, *user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (r *fakeUserRepo) ListByIDs(_ context.Context, ids []int) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			users = append(users, *user)
		}
	}
	return users, nil
}

func (r *fakeUserRepo) UpdateStatus(_ context.Context, id int, status models.UserStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.Status = status
	return nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id int, name, racket, stringTension string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.Name = name
	user.Racket = racket
	user.StringTension = stringTension
	return nil
}

func (r *fakeUserRepo) UpdateRating(_ context.Context, id int, rating int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failRatingFor[id] {
		return repositories.ErrUserNotFound
	}
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.Rating = rating
	r.ratingWrites[id]++
	return nil
}

func (r *fakeUserRepo) UpdateAvatarKey(_ context.Context, id int, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.AvatarKey = &key
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[int]*models.Match
	nextID  int
}

func newFakeMatchRepo(matches ...*models.Match) *fakeMatchRepo {
	repo := &fakeMatchRepo{matches: make(map[int]*models.Match), nextID: 1}
	for _, m := range matches {
		repo.matches[m.ID] = m
		if m.ID >= repo.nextID {
			repo.nextID = m.ID + 1
		}
	}
	return repo
}

func (r *fakeMatchRepo) Create(_ context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match.ID = r.nextID
	match.CreatedAt = time.Now()
	r.nextID++
	copied := *match
	r.matches[match.ID] = &copied
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (r *fakeMatchRepo) ListByStatus(_ context.Context, status models.MatchStatus) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matches := make([]*models.Match, 0)
	for _, match := range r.matches {
		if match.Status == status {
			copied := *match
			matches = append(matches, &copied)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID > matches[j].ID })
	return matches, nil
}

func (r *fakeMatchRepo) ListCompletedBetween(_ context.Context, start, end time.Time) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matches := make([]*models.Match, 0)
	for _, match := range r.matches {
		if match.Status != models.MatchStatusCompleted {
			continue
		}
		if match.PlayedOn.Before(start) || match.PlayedOn.After(end) {
			continue
		}
		copied := *match
		matches = append(matches, &copied)
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].PlayedOn.Equal(matches[j].PlayedOn) {
			return matches[i].PlayedOn.After(matches[j].PlayedOn)
		}
		return matches[i].ID > matches[j].ID
	})
	return matches, nil
}

func (r *fakeMatchRepo) UpdateScore(_ context.Context, id, scoreTeamA, scoreTeamB int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok || match.Status != models.MatchStatusOngoing {
		return repositories.ErrMatchNotOngoing
	}
	match.ScoreTeamA = scoreTeamA
	match.ScoreTeamB = scoreTeamB
	return nil
}

func (r *fakeMatchRepo) Complete(_ context.Context, id int, winner models.TeamKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok || match.Status != models.MatchStatusOngoing {
		return repositories.ErrMatchNotOngoing
	}
	match.Status = models.MatchStatusCompleted
	match.WinnerTeam = &winner
	return nil
}

type fakeCoupleRepo struct {
	mu      sync.Mutex
	couples map[int]*models.Couple
	nextID  int
}

func newFakeCoupleRepo(couples ...*models.Couple) *fakeCoupleRepo {
	repo := &fakeCoupleRepo{couples: make(map[int]*models.Couple), nextID: 1}
	for _, c := range couples {
		repo.couples[c.ID] = c
		if c.ID >= repo.nextID {
			repo.nextID = c.ID + 1
		}
	}
	return repo
}

func (r *fakeCoupleRepo) Create(_ context.Context, couple *models.Couple) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	couple.ID = r.nextID
	couple.CreatedAt = time.Now()
	r.nextID++
	copied := *couple
	r.couples[couple.ID] = &copied
	return nil
}

func (r *fakeCoupleRepo) GetByID(_ context.Context, id int) (*models.Couple, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	couple, ok := r.couples[id]
	if !ok {
		return nil, repositories.ErrCoupleNotFound
	}
	copied := *couple
	return &copied, nil
}

func (r *fakeCoupleRepo) List(_ context.Context) ([]*models.Couple, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	couples := make([]*models.Couple, 0, len(r.couples))
	for _, couple := range r.couples {
		copied := *couple
		couples = append(couples, &copied)
	}
	sort.Slice(couples, func(i, j int) bool { return couples[i].Rating > couples[j].Rating })
	return couples, nil
}

func (r *fakeCoupleRepo) FindByMember(_ context.Context, userID int) (*models.Couple, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, couple := range r.couples {
		if couple.Contains(userID) {
			copied := *couple
			return &copied, nil
		}
	}
	return nil, repositories.ErrCoupleNotFound
}

func (r *fakeCoupleRepo) FindByPair(_ context.Context, player1ID, player2ID int) (*models.Couple, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, couple := range r.couples {
		if couple.HasPair(player1ID, player2ID) {
			copied := *couple
			return &copied, nil
		}
	}
	return nil, repositories.ErrCoupleNotFound
}

func (r *fakeCoupleRepo) UpdateStats(_ context.Context, id, rating, totalMatches, totalWins int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	couple, ok := r.couples[id]
	if !ok {
		return repositories.ErrCoupleNotFound
	}
	couple.Rating = rating
	couple.TotalMatches = totalMatches
	couple.TotalWins = totalWins
	return nil
}

func (r *fakeCoupleRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.couples[id]; !ok {
		return repositories.ErrCoupleNotFound
	}
	delete(r.couples, id)
	return nil
}

type fakeAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]*models.AttendanceRecord
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]*models.AttendanceRecord)}
}

func (r *fakeAttendanceRepo) markPresent(day time.Time, ids ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := day.Format("2006-01-02")
	r.records[key] = &models.AttendanceRecord{Day: day, PresentUserIDs: ids, UpdatedAt: time.Now()}
}

func (r *fakeAttendanceRepo) Upsert(_ context.Context, day time.Time, presentUserIDs []int) error {
	r.markPresent(day, presentUserIDs...)
	return nil
}

func (r *fakeAttendanceRepo) GetByDay(_ context.Context, day time.Time) (*models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[day.Format("2006-01-02")]
	if !ok {
		return nil, repositories.ErrAttendanceNotFound
	}
	copied := *record
	return &copied, nil
}

type fakePartnershipRepo struct {
	mu         sync.Mutex
	requests   map[int]*models.PartnershipRequest
	nextID     int
	coupleRepo *fakeCoupleRepo // Accept создаёт пару здесь
}

func newFakePartnershipRepo(coupleRepo *fakeCoupleRepo) *fakePartnershipRepo {
	return &fakePartnershipRepo{
		requests:   make(map[int]*models.PartnershipRequest),
		nextID:     1,
		coupleRepo: coupleRepo,
	}
}

func (r *fakePartnershipRepo) Create(_ context.Context, request *models.PartnershipRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	request.ID = r.nextID
	request.CreatedAt = time.Now()
	r.nextID++
	copied := *request
	r.requests[request.ID] = &copied
	return nil
}

func (r *fakePartnershipRepo) GetByID(_ context.Context, id int) (*models.PartnershipRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok {
		return nil, repositories.ErrPartnershipRequestNotFound
	}
	copied := *request
	return &copied, nil
}

func (r *fakePartnershipRepo) ListByUser(_ context.Context, userID int) ([]*models.PartnershipRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	requests := make([]*models.PartnershipRequest, 0)
	for _, request := range r.requests {
		if request.RequesterID == userID || request.PartnerID == userID {
			copied := *request
			requests = append(requests, &copied)
		}
	}
	return requests, nil
}

func (r *fakePartnershipRepo) ExistsBetween(_ context.Context, userA, userB int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, request := range r.requests {
		if (request.RequesterID == userA && request.PartnerID == userB) ||
			(request.RequesterID == userB && request.PartnerID == userA) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePartnershipRepo) Accept(ctx context.Context, requestID int, couple *models.Couple) error {
	r.mu.Lock()
	if _, ok := r.requests[requestID]; !ok {
		r.mu.Unlock()
		return repositories.ErrPartnershipRequestNotFound
	}
	delete(r.requests, requestID)
	r.mu.Unlock()
	return r.coupleRepo.Create(ctx, couple)
}

func (r *fakePartnershipRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[id]; !ok {
		return repositories.ErrPartnershipRequestNotFound
	}
	delete(r.requests, id)
	return nil
}

type publishedEvent struct {
	matchID   int
	eventType string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) PublishMatchEvent(matchID int, eventType string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{matchID: matchID, eventType: eventType})
}

func (p *fakePublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.eventType)
	}
	return types
}
