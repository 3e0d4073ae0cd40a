package impl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"sahara/config"
	"sahara/internal/domain/entity"
	"sahara/internal/domain/repository"
	"sahara/internal/domain/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFanoutConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Notification.ScanPageSize = 2

	return cfg
}

// fakeUserRepo is an in-memory UserRepository with deterministic iteration order.
type fakeUserRepo struct {
	order []string
	users map[string]*entity.UserProfile
}

func newFakeUserRepo(users ...*entity.UserProfile) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*entity.UserProfile)}
	for _, user := range users {
		repo.order = append(repo.order, user.PhoneNumber)
		repo.users[user.PhoneNumber] = user
	}

	return repo
}

func (r *fakeUserRepo) FindByPhone(ctx context.Context, phoneNumber string) (*entity.UserProfile, error) {
	user, ok := r.users[phoneNumber]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return user, nil
}

func (r *fakeUserRepo) FindByAttribute(ctx context.Context, field, value string) ([]*entity.UserProfile, error) {
	var matched []*entity.UserProfile
	for _, phone := range r.order {
		user := r.users[phone]
		var got string
		switch field {
		case "disabilityType":
			got = user.DisabilityType
		case "state":
			got = user.State
		case "district":
			got = user.District
		}
		if got == value {
			matched = append(matched, user)
		}
	}

	return matched, nil
}

func (r *fakeUserRepo) ForEachUser(ctx context.Context, pageSize int, fn func(*entity.UserProfile) error) error {
	sorted := append([]string(nil), r.order...)
	sort.Strings(sorted)
	for _, phone := range sorted {
		if err := fn(r.users[phone]); err != nil {
			return err
		}
	}

	return nil
}

func (r *fakeUserRepo) AddPushToken(ctx context.Context, phoneNumber, token string) error {
	user, ok := r.users[phoneNumber]
	if !ok {
		return repository.ErrUserNotFound
	}
	for _, existing := range user.PushTokens {
		if existing == token {
			return nil
		}
	}
	user.PushTokens = append(user.PushTokens, token)

	return nil
}

// fakeNotificationRepo is an in-memory NotificationRepository that records
// every commit size so tests can assert batch splitting.
type fakeNotificationRepo struct {
	batchLimit  int
	nextID      int
	records     map[string]*entity.UserNotification
	commitSizes []int
	// failOnCommit fails the nth CreateBatch call (1-based); 0 disables.
	failOnCommit int
	readBatches  []int
	sub          *fakeSubscription
}

func newFakeNotificationRepo(batchLimit int) *fakeNotificationRepo {
	return &fakeNotificationRepo{
		batchLimit: batchLimit,
		records:    make(map[string]*entity.UserNotification),
	}
}

func (r *fakeNotificationRepo) BatchLimit() int {
	return r.batchLimit
}

func (r *fakeNotificationRepo) CreateBatch(ctx context.Context, records []*entity.UserNotification) error {
	if len(records) > r.batchLimit {
		return repository.ErrBatchTooLarge
	}
	r.commitSizes = append(r.commitSizes, len(records))
	if r.failOnCommit > 0 && len(r.commitSizes) == r.failOnCommit {
		return fmt.Errorf("simulated commit failure")
	}
	for _, record := range records {
		r.nextID++
		stored := *record
		stored.ID = fmt.Sprintf("n-%d", r.nextID)
		stored.CreatedAt = time.Now()
		r.records[stored.ID] = &stored
	}

	return nil
}

func (r *fakeNotificationRepo) FindByUser(ctx context.Context, phoneNumber string) ([]*entity.UserNotification, error) {
	var out []*entity.UserNotification
	for _, record := range r.records {
		if record.PhoneNumber == phoneNumber {
			out = append(out, record)
		}
	}

	return out, nil
}

func (r *fakeNotificationRepo) FindUnreadByUser(ctx context.Context, phoneNumber string) ([]*entity.UserNotification, error) {
	var out []*entity.UserNotification
	for _, record := range r.records {
		if record.PhoneNumber == phoneNumber && !record.IsRead {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, notificationID string) error {
	record, ok := r.records[notificationID]
	if !ok {
		return repository.ErrNotificationNotFound
	}
	if record.IsRead {
		return nil
	}
	now := time.Now()
	record.IsRead = true
	record.ReadAt = &now

	return nil
}

func (r *fakeNotificationRepo) MarkReadBatch(ctx context.Context, ids []string) error {
	if len(ids) > r.batchLimit {
		return repository.ErrBatchTooLarge
	}
	r.readBatches = append(r.readBatches, len(ids))
	for _, id := range ids {
		if err := r.MarkRead(ctx, id); err != nil {
			return err
		}
	}

	return nil
}

func (r *fakeNotificationRepo) Subscribe(ctx context.Context, phoneNumber string) (repository.NotificationSubscription, error) {
	r.sub = newFakeSubscription()

	return r.sub, nil
}

// fakeSubscription lets tests push updates by hand.
type fakeSubscription struct {
	updates chan []*entity.UserNotification
	err     error
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{updates: make(chan []*entity.UserNotification, 4)}
}

func (s *fakeSubscription) push(records []*entity.UserNotification) {
	s.updates <- records
}

func (s *fakeSubscription) close() {
	close(s.updates)
}

func (s *fakeSubscription) Updates() <-chan []*entity.UserNotification { return s.updates }
func (s *fakeSubscription) Err() error                                 { return s.err }
func (s *fakeSubscription) Cancel()                                    {}

// fakePushService records chunk sizes and can fail selected calls.
type fakePushService struct {
	chunkLimit int
	chunks     [][]string
	// failOnCall fails the nth SendChunk call (1-based); 0 disables.
	failOnCall int
}

func newFakePushService(chunkLimit int) *fakePushService {
	return &fakePushService{chunkLimit: chunkLimit}
}

func (s *fakePushService) ChunkLimit() int {
	return s.chunkLimit
}

func (s *fakePushService) SendChunk(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	s.chunks = append(s.chunks, append([]string(nil), tokens...))
	if s.failOnCall > 0 && len(s.chunks) == s.failOnCall {
		return fmt.Errorf("simulated push failure")
	}

	return nil
}

// fakePublisher records published audit events.
type fakePublisher struct {
	events []*service.FanoutEvent
}

func (p *fakePublisher) PublishFanoutEvent(ctx context.Context, event *service.FanoutEvent) error {
	p.events = append(p.events, event)

	return nil
}

func (p *fakePublisher) Close() error { return nil }

// fakeScheduleRepo is an in-memory ScheduleRepository.
type fakeScheduleRepo struct {
	nextID   int
	records  map[string]*entity.ScheduledNotification
	statuses map[string]entity.ScheduledStatus
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{
		records:  make(map[string]*entity.ScheduledNotification),
		statuses: make(map[string]entity.ScheduledStatus),
	}
}

func (r *fakeScheduleRepo) CreateScheduled(ctx context.Context, record *entity.ScheduledNotification) (string, error) {
	r.nextID++
	id := fmt.Sprintf("s-%d", r.nextID)
	stored := *record
	stored.ID = id
	r.records[id] = &stored
	r.statuses[id] = stored.Status

	return id, nil
}

func (r *fakeScheduleRepo) FindDue(ctx context.Context, now time.Time, limit int) ([]*entity.ScheduledNotification, error) {
	var due []*entity.ScheduledNotification
	for _, record := range r.records {
		if r.statuses[record.ID] == entity.ScheduledStatusPending && !record.ScheduledAt.After(now) {
			due = append(due, record)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledAt.Before(due[j].ScheduledAt) })
	if len(due) > limit {
		due = due[:limit]
	}

	return due, nil
}

func (r *fakeScheduleRepo) UpdateScheduledStatus(ctx context.Context, id string, scheduledStatus entity.ScheduledStatus) error {
	r.statuses[id] = scheduledStatus

	return nil
}
