package firestore

import (
	"context"
	"sync"

	"sahara/config"
	"sahara/internal/domain/entity"
	"sahara/internal/domain/repository"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// notificationRepository implements the repository.NotificationRepository
// interface on top of the userNotifications collection.
type notificationRepository struct {
	client     *firestore.Client
	batchLimit int
}

// NewNotificationRepository is the constructor for notificationRepository.
func NewNotificationRepository(client *firestore.Client, cfg *config.Config) repository.NotificationRepository {
	return &notificationRepository{
		client:     client,
		batchLimit: cfg.Notification.StoreBatchLimit,
	}
}

// BatchLimit reports the maximum number of writes a single commit accepts.
func (repo *notificationRepository) BatchLimit() int {
	return repo.batchLimit
}

// CreateBatch persists all records in one atomic commit. WriteBatch keeps the
// commit all-or-nothing; BulkWriter does not.
func (repo *notificationRepository) CreateBatch(ctx context.Context, records []*entity.UserNotification) error {
	if len(records) == 0 {
		return nil
	}
	if len(records) > repo.batchLimit {
		return repository.ErrBatchTooLarge
	}

	batch := repo.client.Batch()
	collection := repo.client.Collection(notificationsCollection)
	for _, record := range records {
		batch.Create(collection.NewDoc(), record)
	}

	if _, err := batch.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit notification batch")
	}

	return nil
}

// FindByUser returns every record addressed to the phone number.
func (repo *notificationRepository) FindByUser(ctx context.Context, phoneNumber string) ([]*entity.UserNotification, error) {
	docs, err := repo.client.Collection(notificationsCollection).
		Where("phoneNumber", "==", phoneNumber).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch notifications")
	}

	return toNotificationDomains(docs)
}

// FindUnreadByUser returns the user's records with isRead still false.
func (repo *notificationRepository) FindUnreadByUser(ctx context.Context, phoneNumber string) ([]*entity.UserNotification, error) {
	docs, err := repo.client.Collection(notificationsCollection).
		Where("phoneNumber", "==", phoneNumber).
		Where("isRead", "==", false).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch unread notifications")
	}

	return toNotificationDomains(docs)
}

// MarkRead transitions one record to read inside a transaction so repeat
// calls never move readAt after the first transition.
func (repo *notificationRepository) MarkRead(ctx context.Context, notificationID string) error {
	ref := repo.client.Collection(notificationsCollection).Doc(notificationID)

	err := repo.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}

		isRead, err := doc.DataAt("isRead")
		if err == nil {
			if read, ok := isRead.(bool); ok && read {
				return nil
			}
		}

		return tx.Update(ref, readUpdates())
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return repository.ErrNotificationNotFound
		}

		return errors.Wrap(err, "failed to mark notification as read")
	}

	return nil
}

// MarkReadBatch transitions all given records in one commit.
func (repo *notificationRepository) MarkReadBatch(ctx context.Context, notificationIDs []string) error {
	if len(notificationIDs) == 0 {
		return nil
	}
	if len(notificationIDs) > repo.batchLimit {
		return repository.ErrBatchTooLarge
	}

	batch := repo.client.Batch()
	collection := repo.client.Collection(notificationsCollection)
	for _, id := range notificationIDs {
		batch.Update(collection.Doc(id), readUpdates())
	}

	if _, err := batch.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit mark-read batch")
	}

	return nil
}

// Subscribe streams the full matching record set on every store change until
// the subscription is cancelled or its parent context ends.
func (repo *notificationRepository) Subscribe(ctx context.Context, phoneNumber string) (repository.NotificationSubscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	iter := repo.client.Collection(notificationsCollection).
		Where("phoneNumber", "==", phoneNumber).
		Snapshots(ctx)

	sub := &notificationSubscription{
		iter:    iter,
		cancel:  cancel,
		updates: make(chan []*entity.UserNotification),
		done:    make(chan struct{}),
	}
	go sub.run()

	return sub, nil
}

type notificationSubscription struct {
	iter       *firestore.QuerySnapshotIterator
	cancel     context.CancelFunc
	updates    chan []*entity.UserNotification
	done       chan struct{}
	cancelOnce sync.Once

	// err is written once by run before updates closes; the channel close
	// publishes it to readers.
	err error
}

func (s *notificationSubscription) run() {
	defer close(s.updates)
	defer s.iter.Stop()

	for {
		snap, err := s.iter.Next()
		if err != nil {
			if status.Code(err) != codes.Canceled {
				s.err = errors.Wrap(err, "notification snapshot stream failed")
			}

			return
		}

		docs, err := snap.Documents.GetAll()
		if err != nil {
			s.err = errors.Wrap(err, "failed to read snapshot documents")

			return
		}

		records, err := toNotificationDomains(docs)
		if err != nil {
			s.err = err

			return
		}

		// Cancelling the context unblocks iter.Next but not a send to a
		// consumer that stopped reading; done covers that path.
		select {
		case s.updates <- records:
		case <-s.done:
			return
		}
	}
}

func (s *notificationSubscription) Updates() <-chan []*entity.UserNotification {
	return s.updates
}

func (s *notificationSubscription) Err() error {
	return s.err
}

func (s *notificationSubscription) Cancel() {
	s.cancelOnce.Do(func() { close(s.done) })
	s.cancel()
}

// readUpdates is the field set applied by every read transition.
func readUpdates() []firestore.Update {
	return []firestore.Update{
		{Path: "isRead", Value: true},
		{Path: "readAt", Value: firestore.ServerTimestamp},
	}
}

// toNotificationDomain converts a Firestore document to a domain record.
func toNotificationDomain(doc *firestore.DocumentSnapshot) (*entity.UserNotification, error) {
	var record entity.UserNotification
	if err := doc.DataTo(&record); err != nil {
		return nil, errors.Wrapf(err, "malformed notification document %s", doc.Ref.ID)
	}

	record.ID = doc.Ref.ID

	return &record, nil
}

func toNotificationDomains(docs []*firestore.DocumentSnapshot) ([]*entity.UserNotification, error) {
	records := make([]*entity.UserNotification, 0, len(docs))
	for _, doc := range docs {
		record, err := toNotificationDomain(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}
