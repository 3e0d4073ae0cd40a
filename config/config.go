// Package config loads the service configuration from YAML files with
// environment variable overrides.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultPath = "."

	defaultStoreBatchLimit = 500 // Firestore's documented per-commit record limit
	defaultPushChunkLimit  = 100 // Expo push API's documented per-request limit
	defaultScanPageSize    = 300
	defaultSchedulerTick   = time.Minute
	defaultSchedulerMaxDue = 50
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port     int `json:"port" yaml:"port"`
		Timeouts struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	SecretKey struct {
		Access  string `json:"access" yaml:"access"`
		Refresh string `json:"refresh" yaml:"refresh"`
	} `json:"secretKey" yaml:"secretKey"`

	// Admin configuration for the PIN-gated operator panel
	Admin *AdminConfig `json:"admin" yaml:"admin"`

	// Firebase configuration for the Firestore record store and FCM
	Firebase *FirebaseConfig `json:"firebase" yaml:"firebase"`

	// Push configuration for the device push delivery channel
	Push *PushConfig `json:"push" yaml:"push"`

	// Notification configuration for fan-out limits
	Notification NotificationConfig `json:"notification" yaml:"notification"`

	// Scheduler configuration for deferred deliveries
	Scheduler *SchedulerConfig `json:"scheduler" yaml:"scheduler"`

	// PubSub configuration for fan-out audit events
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// AdminConfig defines operator authentication configuration
type AdminConfig struct {
	// Bcrypt hash of the operator PIN
	PinHash string `json:"pinHash" yaml:"pinHash"`
	// Operator identifier embedded in issued tokens
	OperatorID string `json:"operatorId" yaml:"operatorId"`
}

// FirebaseConfig defines Firebase project configuration
type FirebaseConfig struct {
	ProjectID       string `json:"projectId" yaml:"projectId"`
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`
}

// PushConfig defines push delivery configuration
type PushConfig struct {
	// Provider type: "expo" for the Expo push HTTP API, "fcm" for Firebase
	// Cloud Messaging, empty to disable device pushes
	Provider string `json:"provider" yaml:"provider"`

	// Endpoint overrides the Expo push API URL (for expo provider)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// ChunkLimit is the maximum token count per delivery request
	ChunkLimit int `json:"chunkLimit" yaml:"chunkLimit"`
}

// NotificationConfig defines record store fan-out limits
type NotificationConfig struct {
	// StoreBatchLimit is the record store's maximum record count per atomic
	// commit; larger writes are split into sequential commits
	StoreBatchLimit int `json:"storeBatchLimit" yaml:"storeBatchLimit"`

	// ScanPageSize bounds each page of a full directory enumeration
	ScanPageSize int `json:"scanPageSize" yaml:"scanPageSize"`
}

// SchedulerConfig defines the deferred delivery loop configuration
type SchedulerConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Interval between due-notification polls
	Tick time.Duration `json:"tick" yaml:"tick"`

	// MaxDuePerTick bounds how many due notifications one tick dispatches
	MaxDuePerTick int `json:"maxDuePerTick" yaml:"maxDuePerTick"`
}

// PubSubConfig defines Pub/Sub configuration for audit event publishing
type PubSubConfig struct {
	// Provider type: "local" for local HTTP or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: FIREBASE_PROJECTID -> firebase.projectId (not firebase.projectid)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return cfg, nil
}

// applyDefaults fills in the store and push limits when the YAML omits them.
func (cfg *Config) applyDefaults() {
	if cfg.Notification.StoreBatchLimit <= 0 {
		cfg.Notification.StoreBatchLimit = defaultStoreBatchLimit
	}
	if cfg.Notification.ScanPageSize <= 0 {
		cfg.Notification.ScanPageSize = defaultScanPageSize
	}
	if cfg.Push != nil && cfg.Push.ChunkLimit <= 0 {
		cfg.Push.ChunkLimit = defaultPushChunkLimit
	}
	if cfg.Scheduler != nil {
		if cfg.Scheduler.Tick <= 0 {
			cfg.Scheduler.Tick = defaultSchedulerTick
		}
		if cfg.Scheduler.MaxDuePerTick <= 0 {
			cfg.Scheduler.MaxDuePerTick = defaultSchedulerMaxDue
		}
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
