package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	appDir             = "casper-client"
	DefaultNodeAddress = "http://localhost:7777"
	DefaultTimeout     = 30 * time.Second
)

type GlobalFlags struct {
	ConfigPath     string
	Plain          bool
	Select         string
	Envelope       bool
	EnableCommands string
	Timeout        string
	Retries        int
	NoCache        bool
	NoJournal      bool
}

type Settings struct {
	NodeAddress     string
	ChainName       string
	Timeout         time.Duration
	Retries         int
	Verbosity       int
	OutputMode      string
	SelectFields    []string
	Envelope        bool
	EnableCommands  []string
	CacheEnabled    bool
	CachePath       string
	CacheLockPath   string
	JournalEnabled  bool
	JournalPath     string
	JournalLockPath string
}

type fileConfig struct {
	NodeAddress string `yaml:"node_address"`
	ChainName   string `yaml:"chain_name"`
	Output      string `yaml:"output"`
	Timeout     string `yaml:"timeout"`
	Retries     *int   `yaml:"retries"`
	Verbose     *int   `yaml:"verbose"`
	Envelope    *bool  `yaml:"envelope"`
	Cache       struct {
		Enabled  *bool  `yaml:"enabled"`
		Path     string `yaml:"path"`
		LockPath string `yaml:"lock_path"`
	} `yaml:"cache"`
	Journal struct {
		Enabled  *bool  `yaml:"enabled"`
		Path     string `yaml:"path"`
		LockPath string `yaml:"lock_path"`
	} `yaml:"journal"`
}

// envConfig is filled from CASPER_* variables. Nil fields were not set.
type envConfig struct {
	NodeAddress     string         `env:"NODE_ADDRESS"`
	ChainName       string         `env:"CHAIN_NAME"`
	Output          string         `env:"OUTPUT"`
	Timeout         *time.Duration `env:"TIMEOUT"`
	Retries         *int           `env:"RETRIES"`
	Verbose         *int           `env:"VERBOSE"`
	Envelope        *bool          `env:"ENVELOPE"`
	NoCache         *bool          `env:"NO_CACHE"`
	CachePath       string         `env:"CACHE_PATH"`
	CacheLockPath   string         `env:"CACHE_LOCK_PATH"`
	NoJournal       *bool          `env:"NO_JOURNAL"`
	JournalPath     string         `env:"JOURNAL_PATH"`
	JournalLockPath string         `env:"JOURNAL_LOCK_PATH"`
}

// Load resolves settings with precedence flags > environment > config file > defaults.
func Load(flags GlobalFlags) (Settings, error) {
	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}

	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	if err := applyEnv(&settings); err != nil {
		return Settings{}, err
	}

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	if settings.NodeAddress == "" {
		settings.NodeAddress = DefaultNodeAddress
	}
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}
	if settings.Retries < 0 {
		settings.Retries = 0
	}
	if settings.Verbosity < 0 {
		settings.Verbosity = 0
	}

	return settings, nil
}

func defaultSettings() (Settings, error) {
	dir, err := defaultCacheDir()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		NodeAddress:     DefaultNodeAddress,
		OutputMode:      "json",
		Timeout:         DefaultTimeout,
		CacheEnabled:    true,
		CachePath:       filepath.Join(dir, "cache.db"),
		CacheLockPath:   filepath.Join(dir, "cache.lock"),
		JournalEnabled:  true,
		JournalPath:     filepath.Join(dir, "journal.db"),
		JournalLockPath: filepath.Join(dir, "journal.lock"),
	}, nil
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appDir, "config.yaml"), nil
}

func defaultCacheDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, appDir), nil
}

func applyFileConfig(path string, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.NodeAddress != "" {
		settings.NodeAddress = cfg.NodeAddress
	}
	if cfg.ChainName != "" {
		settings.ChainName = cfg.ChainName
	}
	if cfg.Output != "" {
		settings.OutputMode = strings.ToLower(cfg.Output)
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		settings.Timeout = d
	}
	if cfg.Retries != nil {
		settings.Retries = *cfg.Retries
	}
	if cfg.Verbose != nil {
		settings.Verbosity = *cfg.Verbose
	}
	if cfg.Envelope != nil {
		settings.Envelope = *cfg.Envelope
	}
	if cfg.Cache.Enabled != nil {
		settings.CacheEnabled = *cfg.Cache.Enabled
	}
	if cfg.Cache.Path != "" {
		settings.CachePath = cfg.Cache.Path
	}
	if cfg.Cache.LockPath != "" {
		settings.CacheLockPath = cfg.Cache.LockPath
	}
	if cfg.Journal.Enabled != nil {
		settings.JournalEnabled = *cfg.Journal.Enabled
	}
	if cfg.Journal.Path != "" {
		settings.JournalPath = cfg.Journal.Path
	}
	if cfg.Journal.LockPath != "" {
		settings.JournalLockPath = cfg.Journal.LockPath
	}
	return nil
}

func applyEnv(settings *Settings) error {
	var e envConfig
	if err := env.ParseWithOptions(&e, env.Options{Prefix: "CASPER_"}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	if e.NodeAddress != "" {
		settings.NodeAddress = e.NodeAddress
	}
	if e.ChainName != "" {
		settings.ChainName = e.ChainName
	}
	if e.Output != "" {
		settings.OutputMode = strings.ToLower(e.Output)
	}
	if e.Timeout != nil {
		settings.Timeout = *e.Timeout
	}
	if e.Retries != nil {
		settings.Retries = *e.Retries
	}
	if e.Verbose != nil {
		settings.Verbosity = *e.Verbose
	}
	if e.Envelope != nil {
		settings.Envelope = *e.Envelope
	}
	if e.NoCache != nil {
		settings.CacheEnabled = !*e.NoCache
	}
	if e.CachePath != "" {
		settings.CachePath = e.CachePath
	}
	if e.CacheLockPath != "" {
		settings.CacheLockPath = e.CacheLockPath
	}
	if e.NoJournal != nil {
		settings.JournalEnabled = !*e.NoJournal
	}
	if e.JournalPath != "" {
		settings.JournalPath = e.JournalPath
	}
	if e.JournalLockPath != "" {
		settings.JournalLockPath = e.JournalLockPath
	}
	return nil
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.Plain {
		settings.OutputMode = "plain"
	}
	if fields := splitList(flags.Select); len(fields) > 0 {
		settings.SelectFields = fields
	}
	if flags.Envelope {
		settings.Envelope = true
	}
	if allowed := splitList(flags.EnableCommands); len(allowed) > 0 {
		settings.EnableCommands = allowed
	}
	if flags.Timeout != "" {
		d, err := time.ParseDuration(flags.Timeout)
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
		settings.Timeout = d
	}
	if flags.Retries >= 0 {
		settings.Retries = flags.Retries
	}
	if flags.NoCache {
		settings.CacheEnabled = false
	}
	if flags.NoJournal {
		settings.JournalEnabled = false
	}

	if settings.OutputMode != "json" && settings.OutputMode != "plain" {
		return fmt.Errorf("output must be json or plain")
	}
	return nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
