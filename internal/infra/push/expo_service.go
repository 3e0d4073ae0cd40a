package push

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"sahara/internal/domain/service"

	"github.com/pkg/errors"
)

// DefaultExpoEndpoint is the public Expo push API.
const DefaultExpoEndpoint = "https://exp.host/--/api/v2/push/send"

// expoService implements PushService against the Expo push HTTP API.
type expoService struct {
	endpoint   string
	chunkLimit int
	httpClient *http.Client
	logger     *slog.Logger
}

// expoMessage is one entry in the Expo push request body.
type expoMessage struct {
	To    string            `json:"to"`
	Sound string            `json:"sound"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// NewExpoService creates an Expo push delivery service. An empty endpoint
// selects the public Expo API.
func NewExpoService(endpoint string, chunkLimit int, logger *slog.Logger) service.PushService {
	if endpoint == "" {
		endpoint = DefaultExpoEndpoint
	}

	return &expoService{
		endpoint:   endpoint,
		chunkLimit: chunkLimit,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// ChunkLimit reports the maximum token count per Expo request.
func (s *expoService) ChunkLimit() int {
	return s.chunkLimit
}

// SendChunk posts one chunk of device messages to the Expo API.
func (s *expoService) SendChunk(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) > s.chunkLimit {
		return errors.Errorf("token count exceeds chunk limit: %d (max %d)", len(tokens), s.chunkLimit)
	}

	messages := make([]expoMessage, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, expoMessage{
			To:    token,
			Sound: "default",
			Title: title,
			Body:  body,
			Data:  data,
		})
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "expo push request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return errors.Errorf("expo returned non-success status: %d (%s)", resp.StatusCode, string(respBody))
	}

	s.logger.Debug("[ExpoPush] Chunk delivered",
		slog.Int("token_count", len(tokens)),
	)

	return nil
}
