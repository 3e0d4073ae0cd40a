package firestore

import (
	"context"
	"time"

	"sahara/internal/domain/entity"
	"sahara/internal/domain/repository"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
)

// scheduleRepository implements the repository.ScheduleRepository interface
// on top of the scheduledNotifications collection.
type scheduleRepository struct {
	client *firestore.Client
}

// NewScheduleRepository is the constructor for scheduleRepository.
func NewScheduleRepository(client *firestore.Client) repository.ScheduleRepository {
	return &scheduleRepository{
		client: client,
	}
}

// CreateScheduled persists a pending record and returns its generated ID.
func (repo *scheduleRepository) CreateScheduled(ctx context.Context, record *entity.ScheduledNotification) (string, error) {
	ref := repo.client.Collection(scheduledCollection).NewDoc()
	if _, err := ref.Create(ctx, record); err != nil {
		return "", errors.Wrap(err, "failed to create scheduled notification")
	}

	return ref.ID, nil
}

// FindDue returns pending records whose delivery time has passed, oldest
// first, capped at limit.
func (repo *scheduleRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*entity.ScheduledNotification, error) {
	docs, err := repo.client.Collection(scheduledCollection).
		Where("status", "==", string(entity.ScheduledStatusPending)).
		Where("scheduledTime", "<=", now).
		OrderBy("scheduledTime", firestore.Asc).
		Limit(limit).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch due notifications")
	}

	records := make([]*entity.ScheduledNotification, 0, len(docs))
	for _, doc := range docs {
		var record entity.ScheduledNotification
		if err := doc.DataTo(&record); err != nil {
			return nil, errors.Wrapf(err, "malformed scheduled document %s", doc.Ref.ID)
		}
		record.ID = doc.Ref.ID
		records = append(records, &record)
	}

	return records, nil
}

// UpdateScheduledStatus moves a record out of the pending state.
func (repo *scheduleRepository) UpdateScheduledStatus(ctx context.Context, id string, scheduledStatus entity.ScheduledStatus) error {
	_, err := repo.client.Collection(scheduledCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(scheduledStatus)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return errors.Wrap(err, "failed to update scheduled status")
	}

	return nil
}
