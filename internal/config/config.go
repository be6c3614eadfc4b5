package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

const EnvPrefix = "MB_"

type (
	Config struct {
		TelegramAPIToken string `env:"TOKEN"`
		AdminID          int64  `env:"ADMIN_ID"`
		DefaultLanguage  string `env:"LANG,default=en"`
		LogLevel         int    `env:"LOG_LEVEL,default=4"`
		DotPath          string `env:"DOT_PATH,default=~/.multibot"`
		DBFile           string `env:"DB_FILE,default=bot.db"`

		Gate          Gate
		Observability Observability
		LLM           LLM
		Tools         Tools
	}

	Gate struct {
		CommandCooldown time.Duration `env:"COOLDOWN_COMMAND,default=5s"`
		InlineCooldown  time.Duration `env:"COOLDOWN_INLINE,default=700ms"`
		MessageFlood    time.Duration `env:"FLOOD_MESSAGE,default=3s"`
		InlineFlood     time.Duration `env:"FLOOD_INLINE,default=700ms"`
		HandlerTimeout  time.Duration `env:"HANDLER_TIMEOUT,default=30s"`
		MaxConcurrency  int64         `env:"MAX_CONCURRENCY,default=64"`
		TrackerIdleTTL  time.Duration `env:"TRACKER_IDLE_TTL,default=10m"`
		UpdateMaxAge    time.Duration `env:"UPDATE_MAX_AGE,default=5m"`
	}

	Observability struct {
		MetricsAddr string `env:"METRICS_ADDR"`
		AuditLog    string `env:"AUDIT_LOG"`
	}

	Tools struct {
		QRDumpChatID int64         `env:"QR_DUMP_CHAT_ID"`
		WhoisTimeout time.Duration `env:"WHOIS_TIMEOUT,default=10s"`
		ShortenerURL string        `env:"SHORTENER_URL,default=https://tinyurl.com/api-create.php"`
	}

	LLM struct {
		APIKey      string `env:"LLM_API_KEY"`
		Model       string `env:"LLM_API_MODEL,default=gpt-4o-mini"`
		BaseURL     string `env:"LLM_API_URL,default=https://api.openai.com/v1"`
		Type        string `env:"LLM_API_TYPE,default=openai"`
		TranslateTo string `env:"TRANSLATE_TO,default=en"`
	}
)

// LoadEnvFiles loads .env.local, then .env. Variables already set win, and
// missing files are skipped.
func LoadEnvFiles(dir string) error {
	for _, name := range []string{".env.local", ".env"} {
		file := filepath.Join(dir, name)
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "load %s", file)
		}
	}
	return nil
}

// Load reads the configuration through lookuper, applying the MB_ prefix.
// A nil lookuper reads the process environment.
func Load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	cfg := &Config{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, lookuper),
	}); err != nil {
		return nil, errors.Wrap(err, "process env config")
	}

	dotPath, err := homedir.Expand(cfg.DotPath)
	if err != nil {
		return nil, errors.Wrap(err, "expand dot path")
	}
	cfg.DotPath = dotPath

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Traceln("loaded config")
	return cfg, nil
}

// Validate checks values that have no sane fallback.
func (c *Config) Validate() error {
	switch {
	case c.LogLevel < int(log.PanicLevel) || c.LogLevel > int(log.TraceLevel):
		return errors.Errorf("log level %d out of range", c.LogLevel)
	case c.Gate.HandlerTimeout <= 0:
		return errors.New("handler timeout must be positive")
	case c.Gate.MaxConcurrency <= 0:
		return errors.New("max concurrency must be positive")
	case c.Gate.CommandCooldown < 0 || c.Gate.InlineCooldown < 0 ||
		c.Gate.MessageFlood < 0 || c.Gate.InlineFlood < 0:
		return errors.New("throttle intervals must not be negative")
	case c.Tools.WhoisTimeout <= 0:
		return errors.New("whois timeout must be positive")
	case c.LLM.Type != "openai" && c.LLM.Type != "gemini":
		return errors.Errorf("unsupported llm type %q", c.LLM.Type)
	}
	return nil
}

// RequireToken is checked only by commands that talk to the chat platform.
func (c *Config) RequireToken() error {
	if c.TelegramAPIToken == "" {
		return errors.New(EnvPrefix + "TOKEN is required")
	}
	return nil
}

// DBPath is the sqlite file location inside the work dir.
func (c *Config) DBPath() string {
	if filepath.IsAbs(c.DBFile) {
		return c.DBFile
	}
	return filepath.Join(c.DotPath, c.DBFile)
}
