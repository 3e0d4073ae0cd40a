package impl

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"sahara/internal/domain/entity"
	domainerrors "sahara/internal/domain/errors"
	"sahara/internal/domain/repository"
	"sahara/internal/usecase"

	"github.com/pkg/errors"
)

type inboxService struct {
	logger           *slog.Logger
	notificationRepo repository.NotificationRepository
}

// NewInboxService creates the inbox use case instance.
func NewInboxService(logger *slog.Logger, notificationRepo repository.NotificationRepository) usecase.InboxUsecase {
	return &inboxService{
		logger:           logger,
		notificationRepo: notificationRepo,
	}
}

// List returns a snapshot of the user's inbox, newest first.
func (s *inboxService) List(ctx context.Context, phoneNumber string) ([]*entity.UserNotification, error) {
	records, err := s.notificationRepo.FindByUser(ctx, phoneNumber)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}

	sortNewestFirst(records)

	return records, nil
}

// UnreadCount returns the current number of unread records for the user.
func (s *inboxService) UnreadCount(ctx context.Context, phoneNumber string) (int, error) {
	unread, err := s.notificationRepo.FindUnreadByUser(ctx, phoneNumber)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count unread notifications")
	}

	return len(unread), nil
}

// Subscribe opens a live inbox view. The store does not guarantee ordering,
// so every update is re-sorted here rather than trusting delivery order.
func (s *inboxService) Subscribe(ctx context.Context, phoneNumber string) (usecase.InboxSubscription, error) {
	inner, err := s.notificationRepo.Subscribe(ctx, phoneNumber)
	if err != nil {
		return nil, errors.Wrap(err, "failed to subscribe to notifications")
	}

	sub := &inboxSubscription{
		inner:   inner,
		updates: make(chan []*entity.UserNotification),
		done:    make(chan struct{}),
	}
	go sub.run()

	return sub, nil
}

// SubscribeUnreadCount opens a live unread-count view derived from the full
// record state on every update, never patched incrementally.
func (s *inboxService) SubscribeUnreadCount(ctx context.Context, phoneNumber string) (usecase.UnreadCountSubscription, error) {
	inner, err := s.notificationRepo.Subscribe(ctx, phoneNumber)
	if err != nil {
		return nil, errors.Wrap(err, "failed to subscribe to unread count")
	}

	sub := &unreadCountSubscription{
		inner:   inner,
		updates: make(chan int),
		done:    make(chan struct{}),
	}
	go sub.run()

	return sub, nil
}

// MarkAsRead marks one record read. Idempotent.
func (s *inboxService) MarkAsRead(ctx context.Context, notificationID string) error {
	if err := s.notificationRepo.MarkRead(ctx, notificationID); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return domainerrors.ErrNotificationNotFound
		}

		return errors.Wrap(err, "failed to mark notification as read")
	}

	return nil
}

// MarkAllAsRead snapshots the current unread set and transitions it in
// sequential batched commits. Records arriving after the snapshot are left
// untouched; the next call picks them up.
func (s *inboxService) MarkAllAsRead(ctx context.Context, phoneNumber string) error {
	unread, err := s.notificationRepo.FindUnreadByUser(ctx, phoneNumber)
	if err != nil {
		return errors.Wrap(err, "failed to fetch unread notifications")
	}

	ids := make([]string, 0, len(unread))
	for _, record := range unread {
		ids = append(ids, record.ID)
	}

	limit := s.notificationRepo.BatchLimit()
	for i := 0; i < len(ids); i += limit {
		end := min(i+limit, len(ids))

		if err := s.notificationRepo.MarkReadBatch(ctx, ids[i:end]); err != nil {
			return domainerrors.NewStoreWriteError(err, "mark-all-as-read batch commit failed")
		}
	}

	return nil
}

// Delete removes a notification from the user's view. The mobile app has
// always implemented delete as mark-as-read, keeping the record for audit;
// that behavior is preserved here.
func (s *inboxService) Delete(ctx context.Context, notificationID string) error {
	return s.MarkAsRead(ctx, notificationID)
}

// sortNewestFirst orders records by creation time descending, in place.
func sortNewestFirst(records []*entity.UserNotification) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

// inboxSubscription adapts a repository subscription to the sorted inbox view.
type inboxSubscription struct {
	inner      repository.NotificationSubscription
	updates    chan []*entity.UserNotification
	done       chan struct{}
	cancelOnce sync.Once
}

func (s *inboxSubscription) run() {
	defer close(s.updates)

	for {
		select {
		case <-s.done:
			return
		case records, ok := <-s.inner.Updates():
			if !ok {
				return
			}

			sortNewestFirst(records)

			// A consumer that stopped reading must not pin this goroutine
			// on the send forever.
			select {
			case s.updates <- records:
			case <-s.done:
				return
			}
		}
	}
}

func (s *inboxSubscription) Updates() <-chan []*entity.UserNotification {
	return s.updates
}

func (s *inboxSubscription) Err() error {
	return s.inner.Err()
}

func (s *inboxSubscription) Cancel() {
	s.cancelOnce.Do(func() { close(s.done) })
	s.inner.Cancel()
}

// unreadCountSubscription derives the unread count from full record state.
type unreadCountSubscription struct {
	inner      repository.NotificationSubscription
	updates    chan int
	done       chan struct{}
	cancelOnce sync.Once
}

func (s *unreadCountSubscription) run() {
	defer close(s.updates)

	for {
		select {
		case <-s.done:
			return
		case records, ok := <-s.inner.Updates():
			if !ok {
				return
			}

			count := 0
			for _, record := range records {
				if !record.IsRead {
					count++
				}
			}

			select {
			case s.updates <- count:
			case <-s.done:
				return
			}
		}
	}
}

func (s *unreadCountSubscription) Updates() <-chan int {
	return s.updates
}

func (s *unreadCountSubscription) Err() error {
	return s.inner.Err()
}

func (s *unreadCountSubscription) Cancel() {
	s.cancelOnce.Do(func() { close(s.done) })
	s.inner.Cancel()
}
