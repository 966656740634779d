// internal/config/config.go
//
// This package handles configuration and the .shunkan directory structure.
// Every project that studies with shunkan gets a .shunkan/ folder created in
// its root, unless SHUNKAN_HOME points somewhere else.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/shunkan/internal/srs"
)

const (
	// Dir is the name of the directory we create in each project
	Dir = ".shunkan"

	// HomeEnv overrides the data directory location.
	HomeEnv = "SHUNKAN_HOME"

	configHeader = "# shunkan configuration. Environment variables override these values.\n"
)

// StorageConfig selects where state blobs live.
type StorageConfig struct {
	Backend    string `yaml:"backend"     env:"SHUNKAN_STORAGE_BACKEND" env-default:"file" validate:"oneof=file sqlite"`
	SQLitePath string `yaml:"sqlite_path" env:"SHUNKAN_SQLITE_PATH"     env-default:"state/shunkan.db" validate:"required"`
}

// StudyConfig holds the defaults for a fresh session.
type StudyConfig struct {
	Level     int    `yaml:"level"     env:"SHUNKAN_LEVEL"     env-default:"1" validate:"oneof=1 2"`
	Direction string `yaml:"direction" env:"SHUNKAN_DIRECTION" env-default:"source_to_target" validate:"oneof=source_to_target target_to_source"`
	// TimerEnabled takes its default from Default(); an env-default tag
	// would overwrite an explicit false in the file.
	TimerEnabled bool   `yaml:"timer_enabled" env:"SHUNKAN_TIMER_ENABLED"`
	TimerSeconds int    `yaml:"timer_seconds" env:"SHUNKAN_TIMER_SECONDS" env-default:"3" validate:"min=1,max=60"`
	Sheet        string `yaml:"sheet,omitempty" env:"SHUNKAN_XLSX_SHEET"`
}

// SRSConfig holds the fixed-multiplier schedule parameters, in days.
type SRSConfig struct {
	MaxIntervalDays float64 `yaml:"max_interval_days" env:"SHUNKAN_SRS_MAX_INTERVAL" env-default:"365"  validate:"gt=0"`
	HardMinInterval float64 `yaml:"hard_min_interval" env:"SHUNKAN_SRS_HARD_MIN"     env-default:"0.25" validate:"gt=0"`
	HardFactor      float64 `yaml:"hard_factor"       env:"SHUNKAN_SRS_HARD_FACTOR"  env-default:"1.5"  validate:"gte=1"`
	GoodFactor      float64 `yaml:"good_factor"       env:"SHUNKAN_SRS_GOOD_FACTOR"  env-default:"2"    validate:"gte=1"`
	EasyFactor      float64 `yaml:"easy_factor"       env:"SHUNKAN_SRS_EASY_FACTOR"  env-default:"3"    validate:"gte=1"`
	HardFirst       float64 `yaml:"hard_first"        env:"SHUNKAN_SRS_HARD_FIRST"   env-default:"0.25" validate:"gt=0"`
	GoodFirst       float64 `yaml:"good_first"        env:"SHUNKAN_SRS_GOOD_FIRST"   env-default:"1"    validate:"gt=0"`
	EasyFirst       float64 `yaml:"easy_first"        env:"SHUNKAN_SRS_EASY_FIRST"   env-default:"3"    validate:"gt=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"SHUNKAN_LOG_LEVEL"  env-default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"SHUNKAN_LOG_FORMAT" env-default:"text" validate:"oneof=json text"`
}

// Config holds the runtime configuration for shunkan.
type Config struct {
	// ProjectDir is the directory where the user ran `shunkan` from
	ProjectDir string `yaml:"-" env:"-"`

	// DataDir is ProjectDir/.shunkan or $SHUNKAN_HOME
	DataDir string `yaml:"-" env:"-"`

	Storage StorageConfig `yaml:"storage"`
	Study   StudyConfig   `yaml:"study"`
	SRS     SRSConfig     `yaml:"srs"`
	Log     LogConfig     `yaml:"log"`
}

// Default returns the stock configuration without any paths.
func Default() Config {
	policy := srs.DefaultPolicy()
	return Config{
		Storage: StorageConfig{Backend: "file", SQLitePath: filepath.Join("state", "shunkan.db")},
		Study: StudyConfig{
			Level:        1,
			Direction:    "source_to_target",
			TimerEnabled: true,
			TimerSeconds: 3,
		},
		SRS: SRSConfig{
			MaxIntervalDays: policy.MaxInterval,
			HardMinInterval: policy.HardMinInterval,
			HardFactor:      policy.HardFactor,
			GoodFactor:      policy.GoodFactor,
			EasyFactor:      policy.EasyFactor,
			HardFirst:       policy.HardFirst,
			GoodFirst:       policy.GoodFirst,
			EasyFirst:       policy.EasyFirst,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// ResolveDataDir returns $SHUNKAN_HOME when set, else projectDir/.shunkan.
func ResolveDataDir(projectDir string) string {
	if home := strings.TrimSpace(os.Getenv(HomeEnv)); home != "" {
		return filepath.Clean(home)
	}
	return filepath.Join(projectDir, Dir)
}

// InitDataDir creates the data directory structure for projectDir.
// This is called before the TUI starts up.
//
// Structure created:
// .shunkan/
// ├── config.yaml   <- written with defaults when absent
// ├── logs/         <- shunkan.log and journal.log
// └── state/        <- phrases/progress/session blobs or shunkan.db
func InitDataDir(projectDir string) error {
	dataDir := ResolveDataDir(projectDir)
	dirs := []string{
		filepath.Join(dataDir, "logs"),
		filepath.Join(dataDir, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	return ensureConfigFile(filepath.Join(dataDir, "config.yaml"))
}

// NewConfig loads config.yaml from the data directory, applies environment
// overrides and validates the result. A missing file means defaults + env.
func NewConfig(projectDir string) (*Config, error) {
	cfg := Default()
	cfg.ProjectDir = projectDir
	cfg.DataDir = ResolveDataDir(projectDir)

	path := cfg.ConfigPath()
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	} else {
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks struct tags and the schedule's business rules.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return err
	}
	if err := c.SRS.Policy().Validate(); err != nil {
		return err
	}
	return nil
}

// Policy converts the schedule settings into a scheduler policy.
func (s SRSConfig) Policy() srs.Policy {
	return srs.Policy{
		MaxInterval:     s.MaxIntervalDays,
		HardMinInterval: s.HardMinInterval,
		HardFactor:      s.HardFactor,
		GoodFactor:      s.GoodFactor,
		EasyFactor:      s.EasyFactor,
		HardFirst:       s.HardFirst,
		GoodFirst:       s.GoodFirst,
		EasyFirst:       s.EasyFirst,
	}
}

// ConfigPath returns the on-disk location for the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.DataDir, "config.yaml")
}

// EnvPath returns the optional .env file inside the data directory.
func (c *Config) EnvPath() string {
	return filepath.Join(c.DataDir, ".env")
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// LogPath returns the diagnostic log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "shunkan.log")
}

// JournalPath returns the review journal file.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journal.log")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.DataDir, "state")
}

// SQLitePath returns the database file, resolved against the data directory.
func (c *Config) SQLitePath() string {
	return resolvePath(c.DataDir, c.Storage.SQLitePath)
}

func (c *Config) normalize() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.Storage.SQLitePath = strings.TrimSpace(c.Storage.SQLitePath)
	c.Study.Direction = strings.ToLower(strings.TrimSpace(c.Study.Direction))
	c.Study.Sheet = strings.TrimSpace(c.Study.Sheet)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("config: encode defaults: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0o644)
}
