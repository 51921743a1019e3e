// Package config loads, defaults and validates the bot configuration from a
// YAML file and BOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every error returned by LoadConfig.
var ErrConfiguration = errors.New("configuration error")

// SupportedLanguages lists the language tags users can select.
var SupportedLanguages = []string{"en", "es", "pt", "ko"}

// Config is the root configuration.
type Config struct {
	Logger       LoggerConfig       `mapstructure:"logger"`
	Telegram     TelegramConfig     `mapstructure:"telegram"`
	Store        StoreConfig        `mapstructure:"store"`
	AI           AIConfig           `mapstructure:"ai"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Registry     RegistryConfig     `mapstructure:"registry"`
	Broadcast    BroadcastConfig    `mapstructure:"broadcast"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	Messages     MessagesConfig     `mapstructure:"messages"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and the admin allowed to run privileged commands.
type TelegramConfig struct {
	Token       string `mapstructure:"token"         validate:"required"`
	AdminUserID int64  `mapstructure:"admin_user_id" validate:"required,gt=0"`

	// MaxMessageLength splits longer outgoing text into several messages.
	MaxMessageLength int `mapstructure:"max_message_length" validate:"min=1,max=4096"`

	// BotInfo is filled at startup from getMe.
	BotInfo *models.User `mapstructure:"-" validate:"-"`
}

// StoreConfig selects and configures the key-value backend.
type StoreConfig struct {
	Driver     string         `mapstructure:"driver"      validate:"required,oneof=sqlite redis dynamodb"`
	MaxRetries int            `mapstructure:"max_retries" validate:"min=0,max=50"`
	SQLite     SQLiteConfig   `mapstructure:"sqlite"`
	Redis      RedisConfig    `mapstructure:"redis"`
	DynamoDB   DynamoDBConfig `mapstructure:"dynamodb"`
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

// DynamoDBConfig configures the DynamoDB backend. Endpoint is only set for
// local emulators.
type DynamoDBConfig struct {
	Table    string `mapstructure:"table"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
}

// AIConfig configures the generation provider.
type AIConfig struct {
	Provider          string        `mapstructure:"provider"           validate:"required,oneof=gemini openai"`
	Temperature       float32       `mapstructure:"temperature"        validate:"min=0,max=2"`
	SystemInstruction string        `mapstructure:"system_instruction" validate:"required"`
	Timeout           time.Duration `mapstructure:"timeout"            validate:"min=1s,max=10m"`
	WebSearch         bool          `mapstructure:"web_search"`
	Breaker           BreakerConfig `mapstructure:"breaker"`
	Gemini            GeminiConfig  `mapstructure:"gemini"`
	OpenAI            OpenAIConfig  `mapstructure:"openai"`
}

// BreakerConfig configures the circuit breaker around the generator.
type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures uint32        `mapstructure:"max_failures" validate:"min=1"`
	OpenTimeout time.Duration `mapstructure:"open_timeout" validate:"min=1s"`
}

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey            string `mapstructure:"api_key"`
	ModelName         string `mapstructure:"model_name"          validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries"         validate:"min=0,max=5"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"min=0,max=60"`
}

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	Model   string `mapstructure:"model"    validate:"required"`
}

// ConversationConfig holds the conversation defaults.
type ConversationConfig struct {
	DefaultLanguage string `mapstructure:"default_language" validate:"required,oneof=en es pt ko"`

	// Temperature overrides ai.temperature for chat replies when set.
	Temperature *float32 `mapstructure:"temperature" validate:"omitempty,min=0,max=2"`
}

// RegistryConfig holds the active destination eviction policy. A zero TTL
// keeps destinations forever.
type RegistryConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"min=0"`
}

// BroadcastConfig configures the scheduled broadcast.
type BroadcastConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"min=1s"`

	// Temperature overrides ai.temperature for broadcasts when set.
	Temperature *float32 `mapstructure:"temperature" validate:"omitempty,min=0,max=2"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig is a single scheduled task entry.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// HTTPConfig configures the health and metrics endpoint.
type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required_if=Enabled true"`
}

// MessagesConfig holds user-facing texts keyed by language tag.
type MessagesConfig struct {
	Welcome          map[string]string `mapstructure:"welcome"           validate:"required"`
	Help             map[string]string `mapstructure:"help"              validate:"required"`
	GenerationError  map[string]string `mapstructure:"generation_error"  validate:"required"`
	LeaderboardEmpty map[string]string `mapstructure:"leaderboard_empty" validate:"required"`
	LeaderboardTitle map[string]string `mapstructure:"leaderboard_title" validate:"required"`
	PollUsage        map[string]string `mapstructure:"poll_usage"        validate:"required"`
	PollInvalid      map[string]string `mapstructure:"poll_invalid"      validate:"required"`
	LanguageUsage    map[string]string `mapstructure:"language_usage"    validate:"required"`
	LanguageSet      map[string]string `mapstructure:"language_set"      validate:"required"`
	Unauthorized     map[string]string `mapstructure:"unauthorized"      validate:"required"`
	BroadcastDone    map[string]string `mapstructure:"broadcast_done"    validate:"required"`
	BroadcastFailed  map[string]string `mapstructure:"broadcast_failed"  validate:"required"`
	NoBroadcast      map[string]string `mapstructure:"no_broadcast"      validate:"required"`
}

// Text returns msgs[lang], falling back to fallback and then to English.
func Text(msgs map[string]string, lang, fallback string) string {
	if s, ok := msgs[lang]; ok && s != "" {
		return s
	}
	if s, ok := msgs[fallback]; ok && s != "" {
		return s
	}
	return msgs["en"]
}

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"pt": "Portuguese",
	"ko": "Korean",
}

// LanguageName returns the English name of a supported language tag, or the
// tag itself when it is unknown.
func LanguageName(tag string) string {
	if name, ok := languageNames[tag]; ok {
		return name
	}
	return tag
}

// IsSupportedLanguage reports whether tag is one of SupportedLanguages.
func IsSupportedLanguage(tag string) bool {
	for _, l := range SupportedLanguages {
		if l == tag {
			return true
		}
	}
	return false
}

// LoadConfig reads configPath (optional), overlays BOT_* environment variables
// on top of the defaults and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, configPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLite.Path == "" {
			return errors.New("store.sqlite.path is required for the sqlite driver")
		}
	case "redis":
		if c.Store.Redis.URL == "" {
			return errors.New("store.redis.url is required for the redis driver")
		}
	case "dynamodb":
		if c.Store.DynamoDB.Table == "" {
			return errors.New("store.dynamodb.table is required for the dynamodb driver")
		}
	}

	switch c.AI.Provider {
	case "gemini":
		if c.AI.Gemini.APIKey == "" {
			return errors.New("ai.gemini.api_key is required for the gemini provider")
		}
	case "openai":
		if c.AI.OpenAI.APIKey == "" {
			return errors.New("ai.openai.api_key is required for the openai provider")
		}
	}

	return nil
}
