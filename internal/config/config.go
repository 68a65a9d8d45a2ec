// /internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read from the environment, optionally seeded by a .env file.
type Config struct {
	CommandPrefix string `env:"CHATCMD_PREFIX" envDefault:"/"`

	LogLevel      string `env:"CHATCMD_LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"CHATCMD_LOG_FILE"`
	LogMaxSizeMB  int    `env:"CHATCMD_LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups int    `env:"CHATCMD_LOG_MAX_BACKUPS" envDefault:"3"`

	StoragePath     string `env:"CHATCMD_STORAGE_PATH" envDefault:"data/grants.json"`
	PermissionsFile string `env:"CHATCMD_PERMISSIONS_FILE" envDefault:"permissions.yml"`
	ScriptsDir      string `env:"CHATCMD_SCRIPTS_DIR" envDefault:"scripts"`

	ScriptTimeout time.Duration `env:"CHATCMD_SCRIPT_TIMEOUT" envDefault:"2s"`
	ScriptWorkers int           `env:"CHATCMD_SCRIPT_WORKERS" envDefault:"4"`

	CooldownRate  float64       `env:"CHATCMD_COOLDOWN_RATE" envDefault:"2"`
	CooldownBurst int           `env:"CHATCMD_COOLDOWN_BURST" envDefault:"5"`
	CooldownIdle  time.Duration `env:"CHATCMD_COOLDOWN_IDLE" envDefault:"10m"`

	GrammarTimeout time.Duration `env:"CHATCMD_GRAMMAR_TIMEOUT" envDefault:"100ms"`

	ConsolePlayer string `env:"CHATCMD_CONSOLE_PLAYER" envDefault:"console"`
}

// Load reads .env (when present) and parses the environment.
// It reports whether a .env file was found so callers can log it.
func Load(files ...string) (*Config, bool, error) {
	found := true
	if err := godotenv.Load(files...); err != nil {
		if !os.IsNotExist(err) {
			return nil, false, fmt.Errorf("load .env: %w", err)
		}
		found = false
	}

	cfg, err := Parse()
	if err != nil {
		return nil, found, err
	}
	return cfg, found, nil
}

// Parse reads the environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.CommandPrefix == "" {
		return fmt.Errorf("CHATCMD_PREFIX must not be empty")
	}
	if strings.ContainsAny(c.CommandPrefix, " \t") {
		return fmt.Errorf("CHATCMD_PREFIX must not contain whitespace")
	}
	if c.CooldownRate < 0 {
		return fmt.Errorf("CHATCMD_COOLDOWN_RATE must not be negative")
	}
	if c.CooldownRate > 0 && c.CooldownBurst < 1 {
		return fmt.Errorf("CHATCMD_COOLDOWN_BURST must be at least 1")
	}
	if c.ScriptTimeout <= 0 {
		return fmt.Errorf("CHATCMD_SCRIPT_TIMEOUT must be positive")
	}
	if c.GrammarTimeout <= 0 {
		return fmt.Errorf("CHATCMD_GRAMMAR_TIMEOUT must be positive")
	}
	return nil
}
