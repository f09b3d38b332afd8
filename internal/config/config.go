package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rewired-gh/evsignal/internal/bankroll"
	"github.com/rewired-gh/evsignal/internal/models"
	"github.com/rewired-gh/evsignal/internal/value"
)

// Config represents the complete application configuration
type Config struct {
	Model       ModelConfig       `mapstructure:"model"`
	Value       ValueConfig       `mapstructure:"value"`
	Bankroll    BankrollConfig    `mapstructure:"bankroll"`
	APIFootball APIFootballConfig `mapstructure:"apifootball"`
	Session     SessionConfig     `mapstructure:"session"`
	Server      ServerConfig      `mapstructure:"server"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ModelConfig holds scoreline model parameters
type ModelConfig struct {
	MaxGoals    int       `mapstructure:"max_goals"`
	RateFloor   float64   `mapstructure:"rate_floor"`
	DefaultRate float64   `mapstructure:"default_rate"`
	Lines       []float64 `mapstructure:"lines"`
}

// ValueConfig holds the Kelly cap and classification thresholds
type ValueConfig struct {
	KellyCap   float64          `mapstructure:"kelly_cap"`
	Thresholds value.Thresholds `mapstructure:"thresholds"`
}

// BankrollConfig holds the pool split per risk profile
type BankrollConfig struct {
	DefaultProfile string                        `mapstructure:"default_profile"`
	Profiles       map[string]bankroll.Fractions `mapstructure:"profiles"`
}

// APIFootballConfig holds statistics provider configuration
type APIFootballConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	LeagueID       int           `mapstructure:"league_id"`
	Season         int           `mapstructure:"season"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// SessionConfig holds bet slip session limits
type SessionConfig struct {
	MaxSessions    int           `mapstructure:"max_sessions"`
	MaxBetsPerSlip int           `mapstructure:"max_bets_per_slip"`
	TTL            time.Duration `mapstructure:"ttl"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. An empty path
// skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// EVSIGNAL_APIFOOTBALL_API_KEY overrides apifootball.api_key
	v.SetEnvPrefix("EVSIGNAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Model defaults
	v.SetDefault("model.max_goals", 7)
	v.SetDefault("model.rate_floor", models.DefaultRateFloor)
	v.SetDefault("model.default_rate", 1.0)
	v.SetDefault("model.lines", []float64{1.5, 2.5, 3.5})

	// Value defaults
	t := value.DefaultThresholds()
	v.SetDefault("value.kelly_cap", value.DefaultKellyCap)
	v.SetDefault("value.thresholds.simple_high_min_ev", t.SimpleHighMinEV)
	v.SetDefault("value.thresholds.simple_high_min_prob", t.SimpleHighMinProb)
	v.SetDefault("value.thresholds.simple_high_min_odd", t.SimpleHighMinOdd)
	v.SetDefault("value.thresholds.simple_high_max_odd", t.SimpleHighMaxOdd)
	v.SetDefault("value.thresholds.high_risk_min_ev", t.HighRiskMinEV)
	v.SetDefault("value.thresholds.high_risk_min_odd", t.HighRiskMinOdd)
	v.SetDefault("value.thresholds.multi_leg_min_ev", t.MultiLegMinEV)
	v.SetDefault("value.thresholds.multi_leg_max_ev", t.MultiLegMaxEV)
	v.SetDefault("value.thresholds.multi_leg_min_prob", t.MultiLegMinProb)

	// Bankroll defaults
	v.SetDefault("bankroll.default_profile", string(models.Balanced))
	for name, f := range bankroll.DefaultProfiles() {
		prefix := "bankroll.profiles." + string(name)
		v.SetDefault(prefix+".simple", f.Simple)
		v.SetDefault(prefix+".combined", f.Combined)
		v.SetDefault(prefix+".high_risk", f.HighRisk)
	}

	// API-Football defaults
	v.SetDefault("apifootball.base_url", "https://v3.football.api-sports.io")
	v.SetDefault("apifootball.league_id", 71)
	v.SetDefault("apifootball.season", 2025)
	v.SetDefault("apifootball.timeout", "15s")
	v.SetDefault("apifootball.max_retries", 3)
	v.SetDefault("apifootball.retry_delay_base", "1s")

	// Session defaults
	v.SetDefault("session.max_sessions", 1000)
	v.SetDefault("session.max_bets_per_slip", 50)
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.sweep_interval", "10m")

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Model config
	if c.Model.MaxGoals < 0 || c.Model.MaxGoals > 20 {
		return fmt.Errorf("model.max_goals must be between 0 and 20")
	}
	if c.Model.RateFloor <= 0 {
		return fmt.Errorf("model.rate_floor must be positive")
	}
	if c.Model.DefaultRate <= 0 {
		return fmt.Errorf("model.default_rate must be positive")
	}
	for _, line := range c.Model.Lines {
		if line <= 0 {
			return fmt.Errorf("model.lines must contain positive totals, got %v", line)
		}
	}

	// Validate Value config
	if c.Value.KellyCap <= 0 || c.Value.KellyCap > 1 {
		return fmt.Errorf("value.kelly_cap must be in (0, 1]")
	}
	if c.Value.Thresholds.SimpleHighMinOdd > c.Value.Thresholds.SimpleHighMaxOdd {
		return fmt.Errorf("value.thresholds.simple_high_min_odd must not exceed simple_high_max_odd")
	}
	if c.Value.Thresholds.MultiLegMinEV > c.Value.Thresholds.MultiLegMaxEV {
		return fmt.Errorf("value.thresholds.multi_leg_min_ev must not exceed multi_leg_max_ev")
	}

	// Validate Bankroll config
	if _, err := models.ParseRiskProfile(c.Bankroll.DefaultProfile); err != nil {
		return fmt.Errorf("bankroll.default_profile: %w", err)
	}
	if _, err := bankroll.NewAllocator(c.ProfileTable()); err != nil {
		return fmt.Errorf("bankroll.profiles: %w", err)
	}

	// Validate API-Football config
	if c.APIFootball.BaseURL == "" {
		return fmt.Errorf("apifootball.base_url is required")
	}
	if c.APIFootball.Timeout < time.Second {
		return fmt.Errorf("apifootball.timeout must be at least 1 second")
	}
	if c.APIFootball.MaxRetries < 1 {
		return fmt.Errorf("apifootball.max_retries must be at least 1")
	}

	// Validate Session config
	if c.Session.MaxSessions < 1 {
		return fmt.Errorf("session.max_sessions must be at least 1")
	}
	if c.Session.MaxBetsPerSlip < 1 {
		return fmt.Errorf("session.max_bets_per_slip must be at least 1")
	}
	if c.Session.TTL < time.Minute {
		return fmt.Errorf("session.ttl must be at least 1 minute")
	}
	if c.Session.SweepInterval < time.Second {
		return fmt.Errorf("session.sweep_interval must be at least 1 second")
	}

	// Validate Server config
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// ProfileTable converts the configured profiles for the allocator.
func (c *Config) ProfileTable() bankroll.ProfileTable {
	table := make(bankroll.ProfileTable, len(c.Bankroll.Profiles))
	for name, f := range c.Bankroll.Profiles {
		table[models.RiskProfile(strings.ToLower(name))] = f
	}
	return table
}

// DefaultProfile returns the parsed default risk profile.
func (c *Config) DefaultProfile() models.RiskProfile {
	p, err := models.ParseRiskProfile(c.Bankroll.DefaultProfile)
	if err != nil {
		return models.Balanced
	}
	return p
}
