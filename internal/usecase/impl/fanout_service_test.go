package impl

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sahara/internal/domain/entity"
	domainerrors "sahara/internal/domain/errors"
	"sahara/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFanoutFixture(t *testing.T, users ...*entity.UserProfile) (*fanoutService, *fakeUserRepo, *fakeNotificationRepo, *fakePushService, *fakePublisher) {
	t.Helper()

	userRepo := newFakeUserRepo(users...)
	notificationRepo := newFakeNotificationRepo(500)
	pushSvc := newFakePushService(100)
	publisher := &fakePublisher{}

	svc := NewNotificationService(
		testLogger(),
		testFanoutConfig(),
		userRepo,
		notificationRepo,
		newFakeScheduleRepo(),
		pushSvc,
		publisher,
	)

	fanout, ok := svc.(*fanoutService)
	require.True(t, ok)

	return fanout, userRepo, notificationRepo, pushSvc, publisher
}

func profile(phone string, tokens ...string) *entity.UserProfile {
	return &entity.UserProfile{PhoneNumber: phone, PushTokens: tokens}
}

func TestFanoutService_Resolve_SpecificMissYieldsEmptyResolution(t *testing.T) {
	svc, _, _, _, _ := newFanoutFixture(t)

	res, err := svc.Resolve(context.Background(), usecase.TargetUser("0400000000"))

	require.NoError(t, err)
	assert.Empty(t, res.MatchedUsers)
	assert.Empty(t, res.Tokens)
	assert.Equal(t, 1, res.MissedUsers)
}

func TestFanoutService_Resolve_DeduplicatesTokensAcrossUsers(t *testing.T) {
	svc, _, _, _, _ := newFanoutFixture(t,
		profile("0411111111", "t1", "t2"),
		profile("0422222222", "t2", "t3"),
	)

	res, err := svc.Resolve(context.Background(), usecase.TargetUsers("0411111111", "0422222222"))

	require.NoError(t, err)
	assert.Equal(t, []string{"0411111111", "0422222222"}, res.MatchedUsers)
	assert.Equal(t, []string{"t1", "t2", "t3"}, res.Tokens)
	assert.Zero(t, res.MissedUsers)
}

func TestFanoutService_Resolve_MultipleToleratesPartialMisses(t *testing.T) {
	svc, _, _, _, _ := newFanoutFixture(t,
		profile("0411111111", "t1"),
	)

	res, err := svc.Resolve(context.Background(), usecase.TargetUsers("0411111111", "0499999999"))

	require.NoError(t, err)
	assert.Equal(t, []string{"0411111111"}, res.MatchedUsers)
	assert.Equal(t, 1, res.MissedUsers)
}

func TestFanoutService_Resolve_MultipleDeduplicatesRepeatedPhones(t *testing.T) {
	svc, _, notificationRepo, _, _ := newFanoutFixture(t,
		profile("0411111111", "t1"),
	)

	res, err := svc.Resolve(context.Background(), usecase.TargetUsers("0411111111", "0411111111"))

	require.NoError(t, err)
	assert.Equal(t, []string{"0411111111"}, res.MatchedUsers)
	assert.Zero(t, res.MissedUsers)

	// One recipient means one persisted record, however often the request
	// repeats the phone number.
	_, err = svc.Send(context.Background(), usecase.TargetUsers("0411111111", "0411111111"), usecase.NotificationInput{
		Title: "Hello", Body: "World",
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, notificationRepo.commitSizes)
}

func TestFanoutService_Resolve_FilteredRejectsUnknownField(t *testing.T) {
	svc, _, _, _, _ := newFanoutFixture(t)

	_, err := svc.Resolve(context.Background(), usecase.TargetFiltered("phoneNumber", "0411111111"))

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FILTER_FIELD_NOT_ALLOWED", appErr.ErrorCode())
}

func TestFanoutService_Resolve_FilteredMatchesAttribute(t *testing.T) {
	blind := profile("0411111111", "t1")
	blind.DisabilityType = "visual"
	deaf := profile("0422222222", "t2")
	deaf.DisabilityType = "hearing"

	svc, _, _, _, _ := newFanoutFixture(t, blind, deaf)

	res, err := svc.Resolve(context.Background(), usecase.TargetFiltered("disabilityType", "visual"))

	require.NoError(t, err)
	assert.Equal(t, []string{"0411111111"}, res.MatchedUsers)
	assert.Equal(t, []string{"t1"}, res.Tokens)
}

func TestFanoutService_Resolve_InvalidTargets(t *testing.T) {
	svc, _, _, _, _ := newFanoutFixture(t)

	cases := []usecase.Target{
		{Kind: usecase.TargetKindSpecific},
		{Kind: usecase.TargetKindMultiple},
		{Kind: usecase.TargetKindFiltered, FilterField: "state"},
		{Kind: "bogus"},
	}
	for _, target := range cases {
		_, err := svc.Resolve(context.Background(), target)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidTarget, "target %+v", target)
	}
}

func TestFanoutService_Send_SpecificMissReturnsRecipientNotFound(t *testing.T) {
	svc, _, notificationRepo, pushSvc, _ := newFanoutFixture(t)

	_, err := svc.Send(context.Background(), usecase.TargetUser("0400000000"), usecase.NotificationInput{
		Title: "Hello", Body: "World",
	})

	assert.ErrorIs(t, err, domainerrors.ErrRecipientNotFound)
	assert.Empty(t, notificationRepo.commitSizes)
	assert.Empty(t, pushSvc.chunks)
}

func TestFanoutService_Send_EmptyAudienceIsANoOp(t *testing.T) {
	user := profile("0411111111", "t1")
	user.State = "Sabah"

	svc, _, notificationRepo, pushSvc, _ := newFanoutFixture(t, user)

	outcome, err := svc.Send(context.Background(), usecase.TargetFiltered("state", "Perlis"), usecase.NotificationInput{
		Title: "Hello", Body: "World",
	})

	require.NoError(t, err)
	assert.Zero(t, outcome.SuccessCount)
	assert.Zero(t, outcome.FailedCount)
	assert.Empty(t, notificationRepo.commitSizes)
	assert.Empty(t, pushSvc.chunks)
}

func TestFanoutService_Send_BroadcastSplitsCommitsAtBatchLimit(t *testing.T) {
	users := make([]*entity.UserProfile, 0, 1200)
	for i := range 1200 {
		users = append(users, profile(fmt.Sprintf("04%08d", i)))
	}

	svc, _, notificationRepo, _, publisher := newFanoutFixture(t, users...)

	outcome, err := svc.Send(context.Background(), usecase.TargetBroadcast(), usecase.NotificationInput{
		Title: "Announcement", Body: "Details",
	})

	require.NoError(t, err)
	assert.Equal(t, 1200, outcome.SuccessCount)
	assert.Zero(t, outcome.FailedCount)
	assert.Equal(t, []int{500, 500, 200}, notificationRepo.commitSizes)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, "broadcast", publisher.events[0].TargetType)
	assert.Equal(t, 1200, publisher.events[0].SuccessCount)
}

func TestFanoutService_Send_CommitFailureRejectsWithoutRollback(t *testing.T) {
	users := make([]*entity.UserProfile, 0, 700)
	for i := range 700 {
		users = append(users, profile(fmt.Sprintf("04%08d", i)))
	}

	svc, _, notificationRepo, pushSvc, _ := newFanoutFixture(t, users...)
	notificationRepo.failOnCommit = 2

	_, err := svc.Send(context.Background(), usecase.TargetBroadcast(), usecase.NotificationInput{
		Title: "Announcement", Body: "Details",
	})

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "STORE_WRITE_FAILED", appErr.ErrorCode())

	// First commit's records stay; no push dispatch happened.
	assert.Len(t, notificationRepo.records, 500)
	assert.Empty(t, pushSvc.chunks)
}

func TestFanoutService_Send_DispatchChunksAtLimitAndSurvivesFailures(t *testing.T) {
	// 250 tokens spread over users so chunking yields 100/100/50.
	users := make([]*entity.UserProfile, 0, 250)
	for i := range 250 {
		users = append(users, profile(fmt.Sprintf("04%08d", i), fmt.Sprintf("token-%03d", i)))
	}

	svc, _, _, pushSvc, publisher := newFanoutFixture(t, users...)
	pushSvc.failOnCall = 2

	outcome, err := svc.Send(context.Background(), usecase.TargetBroadcast(), usecase.NotificationInput{
		Title: "Announcement", Body: "Details",
	})

	// A failed chunk never fails the send.
	require.NoError(t, err)
	assert.Equal(t, 250, outcome.SuccessCount)

	require.Len(t, pushSvc.chunks, 3)
	assert.Len(t, pushSvc.chunks[0], 100)
	assert.Len(t, pushSvc.chunks[1], 100)
	assert.Len(t, pushSvc.chunks[2], 50)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, 250, publisher.events[0].TokenCount)
}

func TestFanoutService_Send_MultipleCountsMissesAsFailed(t *testing.T) {
	svc, _, _, _, _ := newFanoutFixture(t,
		profile("0411111111", "t1"),
	)

	outcome, err := svc.Send(context.Background(),
		usecase.TargetUsers("0411111111", "0488888888", "0499999999"),
		usecase.NotificationInput{Title: "Hello", Body: "World"},
	)

	require.NoError(t, err)
	assert.Equal(t, 1, outcome.SuccessCount)
	assert.Equal(t, 2, outcome.FailedCount)
}

func TestFanoutService_Send_DefaultsCategoryToInfo(t *testing.T) {
	svc, _, notificationRepo, _, _ := newFanoutFixture(t,
		profile("0411111111"),
	)

	_, err := svc.Send(context.Background(), usecase.TargetUser("0411111111"), usecase.NotificationInput{
		Title: "Hello", Body: "World",
	})

	require.NoError(t, err)
	require.Len(t, notificationRepo.records, 1)
	for _, record := range notificationRepo.records {
		assert.Equal(t, entity.CategoryInfo, record.Category)
		assert.False(t, record.IsRead)
		assert.Equal(t, entity.TargetTypeSpecific, record.TargetType)
	}
}

func TestFanoutService_Send_RejectsUnknownCategory(t *testing.T) {
	svc, _, _, _, _ := newFanoutFixture(t, profile("0411111111"))

	_, err := svc.Send(context.Background(), usecase.TargetUser("0411111111"), usecase.NotificationInput{
		Title: "Hello", Body: "World", Category: "critical",
	})

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INVALID_CATEGORY", appErr.ErrorCode())
}

func TestFanoutService_Send_FilteredStampsCriteria(t *testing.T) {
	user := profile("0411111111", "t1")
	user.State = "Sabah"

	svc, _, notificationRepo, _, _ := newFanoutFixture(t, user)

	_, err := svc.Send(context.Background(), usecase.TargetFiltered("state", "Sabah"), usecase.NotificationInput{
		Title: "Hello", Body: "World",
	})

	require.NoError(t, err)
	for _, record := range notificationRepo.records {
		assert.Equal(t, entity.TargetTypeFiltered, record.TargetType)
		require.NotNil(t, record.FilterCriteria)
		assert.Equal(t, "state", record.FilterCriteria.Field)
		assert.Equal(t, "Sabah", record.FilterCriteria.Value)
	}
}

func TestFanoutService_Schedule(t *testing.T) {
	scheduleRepo := newFakeScheduleRepo()
	svc := NewNotificationService(
		testLogger(),
		testFanoutConfig(),
		newFakeUserRepo(),
		newFakeNotificationRepo(500),
		scheduleRepo,
		newFakePushService(100),
		&fakePublisher{},
	)

	t.Run("queues a pending record", func(t *testing.T) {
		at := time.Now().Add(time.Hour)
		id, err := svc.Schedule(context.Background(), "0411111111", usecase.NotificationInput{
			Title: "Reminder", Body: "Appointment tomorrow",
		}, at)

		require.NoError(t, err)
		require.NotEmpty(t, id)
		assert.Equal(t, entity.ScheduledStatusPending, scheduleRepo.statuses[id])
	})

	t.Run("rejects past delivery times", func(t *testing.T) {
		_, err := svc.Schedule(context.Background(), "0411111111", usecase.NotificationInput{
			Title: "Reminder", Body: "Too late",
		}, time.Now().Add(-time.Minute))

		assert.ErrorIs(t, err, domainerrors.ErrScheduleInPast)
	})

	t.Run("rejects empty phone number", func(t *testing.T) {
		_, err := svc.Schedule(context.Background(), "", usecase.NotificationInput{
			Title: "Reminder", Body: "Nobody",
		}, time.Now().Add(time.Hour))

		assert.ErrorIs(t, err, domainerrors.ErrInvalidTarget)
	})
}
