// Package config loads knoldeck settings from, in increasing priority,
// flag defaults, an optional YAML file, KNOLDECK_* environment variables
// and flags set on the command line.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by Load.
// KNOLDECK_SYNC_REPOS_DIR maps to sync.repos_dir.
const EnvPrefix = "KNOLDECK_"

// Config holds runtime settings.
type Config struct {
	DB     DBConfig     `koanf:"db"`
	HTTP   HTTPConfig   `koanf:"http"`
	Sync   SyncConfig   `koanf:"sync"`
	Log    LogConfig    `koanf:"log"`
	Review ReviewConfig `koanf:"review"`
}

type DBConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr" validate:"required,hostname_port"`
}

// SyncConfig controls deck source synchronization. An Interval of zero
// disables periodic sync while serving.
type SyncConfig struct {
	Interval time.Duration `koanf:"interval" validate:"gte=0"`
	ReposDir string        `koanf:"repos_dir" validate:"required"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// ReviewConfig shapes review queues. A Limit of zero means unlimited.
type ReviewConfig struct {
	Shuffle bool `koanf:"shuffle"`
	Limit   int  `koanf:"limit" validate:"gte=0"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"db":            "db.path",
	"addr":          "http.addr",
	"sync-interval": "sync.interval",
	"repos-dir":     "sync.repos_dir",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"shuffle":       "review.shuffle",
	"limit":         "review.limit",
}

// RegisterFlags defines the configuration flags and their defaults on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("db", "knoldeck.db", "path to the SQLite database file")
	fs.String("addr", ":8080", "HTTP listen address")
	fs.Duration("sync-interval", time.Hour, "how often to sync deck sources while serving (0 disables)")
	fs.String("repos-dir", "repos", "directory for git source checkouts")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.String("log-format", "text", "log format: text or json")
	fs.Bool("shuffle", false, "shuffle review queues")
	fs.Int("limit", 0, "maximum cards per review queue (0 = unlimited)")
}

// Load builds a Config from the layers described in the package comment.
// fs must have been set up with RegisterFlags and parsed.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	flags := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	})
	if err := k.Load(flags, nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns KNOLDECK_SECTION_SOME_KEY into section.some_key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// NewLogger builds the process logger described by c, writing to w
// (os.Stderr when w is nil).
func NewLogger(c LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(c.Level)}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
