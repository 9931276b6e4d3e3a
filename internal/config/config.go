// internal/config/config.go
//
// Process configuration loaded from the environment.
// Responsibilities:
//   - Load a `.env` file when present (development).
//   - Parse environment variables into Config with defaults.
//   - Configure the global zerolog level.

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Evaluator target selection modes.
const (
	EvaluatorFixed  = "fixed"
	EvaluatorRandom = "random"
	EvaluatorDaily  = "daily"
)

// Config holds every setting of the server.
type Config struct {
	Port     string `env:"PORT" envDefault:"5175"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	NodeEnv  string `env:"NODE_ENV"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/app.db"`

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"wordle_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`

	TimeoutBlocks uint64        `env:"TIMEOUT_BLOCKS" envDefault:"200"`
	BlockInterval time.Duration `env:"BLOCK_INTERVAL" envDefault:"1s"`

	EvaluatorMode   string `env:"EVALUATOR_MODE" envDefault:"random"`
	EvaluatorAnswer string `env:"EVALUATOR_ANSWER"`
	DailySalt       string `env:"DAILY_SALT" envDefault:"local_dev_salt"`
	WinFirst        bool   `env:"WIN_FIRST" envDefault:"false"`
	StrictWords     bool   `env:"STRICT_WORDS" envDefault:"false"`

	WordsAnswersFile string `env:"WORDS_ANSWERS_FILE"`
	WordsAllowedFile string `env:"WORDS_ALLOWED_FILE"`
}

// Production reports whether cookies should be marked Secure / SameSite=None.
func (c Config) Production() bool { return c.NodeEnv == "production" }

// Load reads `.env` (if any) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env parsing cannot.
func (c Config) Validate() error {
	switch c.EvaluatorMode {
	case EvaluatorRandom, EvaluatorDaily:
	case EvaluatorFixed:
		if c.EvaluatorAnswer == "" {
			return fmt.Errorf("config: EVALUATOR_ANSWER is required in %q mode", EvaluatorFixed)
		}
	default:
		return fmt.Errorf("config: unknown EVALUATOR_MODE %q", c.EvaluatorMode)
	}
	if c.BlockInterval <= 0 {
		return fmt.Errorf("config: BLOCK_INTERVAL must be positive")
	}
	return nil
}

// ApplyLogLevel sets the global zerolog level; unknown levels keep the default.
func (c Config) ApplyLogLevel() {
	if lvl, err := zerolog.ParseLevel(c.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
}
