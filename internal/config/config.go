package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	API       APIConfig       `yaml:"api" mapstructure:"api"`
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Harvest   HarvestConfig   `yaml:"harvest" mapstructure:"harvest"`
	Refresh   RefreshConfig   `yaml:"refresh" mapstructure:"refresh"`
	Validate  ValidateConfig  `yaml:"validate" mapstructure:"validate"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// APIConfig configures the start.gg GraphQL client and its retry gate.
type APIConfig struct {
	URL           string `yaml:"url" mapstructure:"url"`
	Token         string `yaml:"token" mapstructure:"token"`
	MaxRetries    int    `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelaySec int    `yaml:"retry_delay_sec" mapstructure:"retry_delay_sec"`
	PageDelayMs   int    `yaml:"page_delay_ms" mapstructure:"page_delay_ms"`
	TimeoutSec    int    `yaml:"timeout_sec" mapstructure:"timeout_sec"`
}

// RetryDelay returns the flat inter-attempt delay as a duration.
func (c APIConfig) RetryDelay() time.Duration { return time.Duration(c.RetryDelaySec) * time.Second }

// PageDelay returns the inter-page pagination pause as a duration.
func (c APIConfig) PageDelay() time.Duration { return time.Duration(c.PageDelayMs) * time.Millisecond }

// Timeout returns the per-request HTTP timeout as a duration.
func (c APIConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// DataConfig names the on-disk dataset locations.
type DataConfig struct {
	EventsRoot      string `yaml:"events_root" mapstructure:"events_root"`
	UsersFile       string `yaml:"users_file" mapstructure:"users_file"`
	TournamentsFile string `yaml:"tournaments_file" mapstructure:"tournaments_file"`
	DoneFile        string `yaml:"done_file" mapstructure:"done_file"`
	DoneEventsFile  string `yaml:"done_events_file" mapstructure:"done_events_file"`
	RunLogFile      string `yaml:"runlog_file" mapstructure:"runlog_file"`
}

// HarvestConfig configures the incremental tournament harvest.
type HarvestConfig struct {
	GameID             string   `yaml:"game_id" mapstructure:"game_id"`
	CountryCode        string   `yaml:"country_code" mapstructure:"country_code"`
	FinishDate         string   `yaml:"finish_date" mapstructure:"finish_date"`
	StartDate          string   `yaml:"start_date" mapstructure:"start_date"`
	ExcludeKeywords    []string `yaml:"exclude_keywords" mapstructure:"exclude_keywords"`
	TournamentsPerPage int      `yaml:"tournaments_per_page" mapstructure:"tournaments_per_page"`
	StandingsPerPage   int      `yaml:"standings_per_page" mapstructure:"standings_per_page"`
	SeedsPerPage       int      `yaml:"seeds_per_page" mapstructure:"seeds_per_page"`
	SetsPerPage        int      `yaml:"sets_per_page" mapstructure:"sets_per_page"`
}

// RefreshConfig configures the user refresh pass.
type RefreshConfig struct {
	SleepMs          int    `yaml:"sleep_ms" mapstructure:"sleep_ms"`
	UserRetries      int    `yaml:"user_retries" mapstructure:"user_retries"`
	PauseEvery       int    `yaml:"pause_every" mapstructure:"pause_every"`
	PauseSec         int    `yaml:"pause_sec" mapstructure:"pause_sec"`
	ProgressInterval int    `yaml:"progress_interval" mapstructure:"progress_interval"`
	CheckpointFile   string `yaml:"checkpoint_file" mapstructure:"checkpoint_file"`
}

// Sleep returns the inter-call sleep as a duration.
func (c RefreshConfig) Sleep() time.Duration { return time.Duration(c.SleepMs) * time.Millisecond }

// Pause returns the periodic long-run pause as a duration.
func (c RefreshConfig) Pause() time.Duration { return time.Duration(c.PauseSec) * time.Second }

// ValidateConfig holds the warning/error thresholds for dataset validation.
type ValidateConfig struct {
	NullUserRatio        float64 `yaml:"null_user_ratio" mapstructure:"null_user_ratio"`
	NullSlotRatio        float64 `yaml:"null_slot_ratio" mapstructure:"null_slot_ratio"`
	UnknownRefRatio      float64 `yaml:"unknown_ref_ratio" mapstructure:"unknown_ref_ratio"`
	UnknownRefMatchFloor int     `yaml:"unknown_ref_match_floor" mapstructure:"unknown_ref_match_floor"`
	Concurrency          int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// AnthropicConfig holds the label classifier settings.
type AnthropicConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	Model      string `yaml:"model" mapstructure:"model"`
	PromptFile string `yaml:"prompt_file" mapstructure:"prompt_file"`
	MaxTokens  int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STARTGG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.url", "https://api.start.gg/gql/alpha")
	v.SetDefault("api.max_retries", 10)
	v.SetDefault("api.retry_delay_sec", 5)
	v.SetDefault("api.page_delay_ms", 750)
	v.SetDefault("api.timeout_sec", 30)
	v.SetDefault("data.events_root", "data/startgg/events")
	v.SetDefault("data.users_file", "data/startgg/users.jsonl")
	v.SetDefault("data.tournaments_file", "data/startgg/tournaments.jsonl")
	v.SetDefault("data.done_file", "data/startgg/done.csv")
	v.SetDefault("data.done_events_file", "data/startgg/done_events.csv")
	v.SetDefault("data.runlog_file", "data/startgg/runs.db")
	v.SetDefault("harvest.game_id", "1386")
	v.SetDefault("harvest.finish_date", "2018-01-01")
	v.SetDefault("harvest.tournaments_per_page", 100)
	v.SetDefault("harvest.standings_per_page", 200)
	v.SetDefault("harvest.seeds_per_page", 200)
	v.SetDefault("harvest.sets_per_page", 50)
	v.SetDefault("refresh.sleep_ms", 250)
	v.SetDefault("refresh.user_retries", 5)
	v.SetDefault("refresh.pause_every", 200)
	v.SetDefault("refresh.pause_sec", 20)
	v.SetDefault("refresh.progress_interval", 50)
	v.SetDefault("validate.null_user_ratio", 0.2)
	v.SetDefault("validate.null_slot_ratio", 0.2)
	v.SetDefault("validate.unknown_ref_ratio", 0.1)
	v.SetDefault("validate.unknown_ref_match_floor", 10)
	v.SetDefault("validate.concurrency", 8)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
