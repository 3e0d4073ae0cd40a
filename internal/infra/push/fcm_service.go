package push

import (
	"context"
	"log/slog"

	"sahara/internal/domain/service"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// fcmService implements PushService using Firebase Cloud Messaging multicast.
type fcmService struct {
	client     *messaging.Client
	chunkLimit int
	logger     *slog.Logger
}

// NewFCMService creates an FCM push delivery service.
func NewFCMService(ctx context.Context, credentialsPath string, chunkLimit int, logger *slog.Logger) (service.PushService, error) {
	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Firebase app")
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get messaging client")
	}

	return &fcmService{
		client:     client,
		chunkLimit: chunkLimit,
		logger:     logger,
	}, nil
}

// ChunkLimit reports the maximum token count per multicast request.
func (s *fcmService) ChunkLimit() int {
	return s.chunkLimit
}

// SendChunk delivers one chunk of tokens via multicast. Per-token failures
// inside an accepted request are logged, not returned; the chunk succeeded.
func (s *fcmService) SendChunk(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) > s.chunkLimit {
		return errors.Errorf("token count exceeds chunk limit: %d (max %d)", len(tokens), s.chunkLimit)
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	response, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return errors.Wrap(err, "failed to send multicast notification")
	}

	if response.FailureCount > 0 {
		invalid := 0
		for _, sendResponse := range response.Responses {
			if sendResponse.Error == nil {
				continue
			}
			if messaging.IsInvalidArgument(sendResponse.Error) || messaging.IsUnregistered(sendResponse.Error) {
				invalid++
			}
		}

		s.logger.Warn("[FCMPush] Partial chunk failure",
			slog.Int("success_count", response.SuccessCount),
			slog.Int("failure_count", response.FailureCount),
			slog.Int("invalid_tokens", invalid),
		)
	}

	return nil
}
