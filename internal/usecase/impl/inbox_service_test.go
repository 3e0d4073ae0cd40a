package impl

import (
	"context"
	"testing"
	"time"

	"sahara/internal/domain/entity"
	domainerrors "sahara/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNotifications(t *testing.T, repo *fakeNotificationRepo, phone string, count int) []string {
	t.Helper()

	records := make([]*entity.UserNotification, 0, count)
	for range count {
		records = append(records, &entity.UserNotification{
			PhoneNumber: phone,
			Title:       "Title",
			Body:        "Body",
			Category:    entity.CategoryInfo,
		})
	}
	// Seed in batch-limit-sized commits like the fan-out path does.
	for i := 0; i < len(records); i += repo.batchLimit {
		end := min(i+repo.batchLimit, len(records))
		require.NoError(t, repo.CreateBatch(context.Background(), records[i:end]))
	}

	ids := make([]string, 0, count)
	for id := range repo.records {
		ids = append(ids, id)
	}

	return ids
}

func TestInboxService_List_SortsNewestFirst(t *testing.T) {
	repo := newFakeNotificationRepo(500)
	svc := NewInboxService(testLogger(), repo)

	base := time.Now()
	repo.records["old"] = &entity.UserNotification{ID: "old", PhoneNumber: "04", CreatedAt: base.Add(-time.Hour)}
	repo.records["new"] = &entity.UserNotification{ID: "new", PhoneNumber: "04", CreatedAt: base}
	repo.records["mid"] = &entity.UserNotification{ID: "mid", PhoneNumber: "04", CreatedAt: base.Add(-time.Minute)}

	records, err := svc.List(context.Background(), "04")

	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "new", records[0].ID)
	assert.Equal(t, "mid", records[1].ID)
	assert.Equal(t, "old", records[2].ID)
}

func TestInboxService_UnreadCount(t *testing.T) {
	repo := newFakeNotificationRepo(500)
	svc := NewInboxService(testLogger(), repo)

	ids := seedNotifications(t, repo, "04", 3)
	require.NoError(t, repo.MarkRead(context.Background(), ids[0]))

	count, err := svc.UnreadCount(context.Background(), "04")

	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInboxService_MarkAsRead_Idempotent(t *testing.T) {
	repo := newFakeNotificationRepo(500)
	svc := NewInboxService(testLogger(), repo)

	ids := seedNotifications(t, repo, "04", 1)
	id := ids[0]

	require.NoError(t, svc.MarkAsRead(context.Background(), id))
	firstReadAt := repo.records[id].ReadAt
	require.NotNil(t, firstReadAt)

	// Second call is a no-op and keeps the original timestamp.
	require.NoError(t, svc.MarkAsRead(context.Background(), id))
	assert.Equal(t, firstReadAt, repo.records[id].ReadAt)
}

func TestInboxService_MarkAsRead_UnknownID(t *testing.T) {
	svc := NewInboxService(testLogger(), newFakeNotificationRepo(500))

	err := svc.MarkAsRead(context.Background(), "missing")

	assert.ErrorIs(t, err, domainerrors.ErrNotificationNotFound)
}

func TestInboxService_MarkAllAsRead_SplitsBatches(t *testing.T) {
	repo := newFakeNotificationRepo(500)
	svc := NewInboxService(testLogger(), repo)

	seedNotifications(t, repo, "04", 1200)

	require.NoError(t, svc.MarkAllAsRead(context.Background(), "04"))

	assert.Equal(t, []int{500, 500, 200}, repo.readBatches)
	count, err := svc.UnreadCount(context.Background(), "04")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInboxService_Delete_MarksRead(t *testing.T) {
	repo := newFakeNotificationRepo(500)
	svc := NewInboxService(testLogger(), repo)

	ids := seedNotifications(t, repo, "04", 1)

	require.NoError(t, svc.Delete(context.Background(), ids[0]))

	// The record is retained, just marked read.
	record, ok := repo.records[ids[0]]
	require.True(t, ok)
	assert.True(t, record.IsRead)
}

func TestInboxService_Subscribe_ResortsEachUpdate(t *testing.T) {
	repo := newFakeNotificationRepo(500)
	svc := NewInboxService(testLogger(), repo)

	sub, err := svc.Subscribe(context.Background(), "04")
	require.NoError(t, err)
	defer sub.Cancel()

	base := time.Now()
	repo.sub.push([]*entity.UserNotification{
		{ID: "old", CreatedAt: base.Add(-time.Hour)},
		{ID: "new", CreatedAt: base},
	})

	update := <-sub.Updates()
	require.Len(t, update, 2)
	assert.Equal(t, "new", update[0].ID)

	repo.sub.close()
	_, open := <-sub.Updates()
	assert.False(t, open)
	assert.NoError(t, sub.Err())
}

func TestInboxService_Subscribe_CancelReleasesUndeliveredUpdate(t *testing.T) {
	repo := newFakeNotificationRepo(500)
	svc := NewInboxService(testLogger(), repo)

	sub, err := svc.Subscribe(context.Background(), "04")
	require.NoError(t, err)

	// The update arrives but the consumer never reads it, so the forwarding
	// goroutine is parked on the send when Cancel comes in.
	repo.sub.push([]*entity.UserNotification{{ID: "a"}})
	sub.Cancel()

	drained := make(chan struct{})
	go func() {
		for range sub.Updates() {
		}
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("updates channel never closed after Cancel")
	}
}

func TestInboxService_SubscribeUnreadCount_CancelReleasesUndeliveredUpdate(t *testing.T) {
	repo := newFakeNotificationRepo(500)
	svc := NewInboxService(testLogger(), repo)

	sub, err := svc.SubscribeUnreadCount(context.Background(), "04")
	require.NoError(t, err)

	repo.sub.push([]*entity.UserNotification{{ID: "a", IsRead: false}})
	sub.Cancel()

	drained := make(chan struct{})
	go func() {
		for range sub.Updates() {
		}
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("updates channel never closed after Cancel")
	}
}

func TestInboxService_SubscribeUnreadCount_DerivesFromFullState(t *testing.T) {
	repo := newFakeNotificationRepo(500)
	svc := NewInboxService(testLogger(), repo)

	sub, err := svc.SubscribeUnreadCount(context.Background(), "04")
	require.NoError(t, err)
	defer sub.Cancel()

	repo.sub.push([]*entity.UserNotification{
		{ID: "a", IsRead: false},
		{ID: "b", IsRead: true},
		{ID: "c", IsRead: false},
	})
	assert.Equal(t, 2, <-sub.Updates())

	repo.sub.push([]*entity.UserNotification{
		{ID: "a", IsRead: true},
		{ID: "b", IsRead: true},
		{ID: "c", IsRead: false},
	})
	assert.Equal(t, 1, <-sub.Updates())

	repo.sub.close()
}
