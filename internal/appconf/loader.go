package appconf

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Credential overrides read from the environment, so secrets can stay out
// of the config file.
const (
	EnvEmail    = "BUSMONITOR_EMAIL"
	EnvPassword = "BUSMONITOR_PASSWORD"
	EnvToken    = "BUSMONITOR_TOKEN"
)

// Load reads the YAML file at path and returns a validated Config with
// defaults applied.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, os.LookupEnv)
}

// Parse decodes and validates configuration bytes. lookupEnv supplies the
// credential overrides; pass nil to disable them.
func Parse(data []byte, lookupEnv func(string) (string, bool)) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if lookupEnv != nil {
		if v, ok := lookupEnv(EnvEmail); ok {
			cfg.EMT.Email = v
		}
		if v, ok := lookupEnv(EnvPassword); ok {
			cfg.EMT.Password = v
		}
		if v, ok := lookupEnv(EnvToken); ok {
			cfg.EMT.Token = v
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg)

	if err := checkSource(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Source == "" {
		cfg.Source = SourceEMT
	}
	if cfg.EMT.BaseURL == "" {
		cfg.EMT.BaseURL = DefaultBaseURL
	}
	if cfg.EMT.Timeout == 0 {
		cfg.EMT.Timeout = DefaultTimeout
	}
	if cfg.GTFSRT.Timeout == 0 {
		cfg.GTFSRT.Timeout = DefaultTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Panel.Driver == "" {
		cfg.Panel.Driver = PanelPreview
	}
	if cfg.Panel.Width == 0 {
		cfg.Panel.Width = DefaultWidth
	}
	if cfg.Panel.Height == 0 {
		cfg.Panel.Height = DefaultHeight
	}
	if cfg.Panel.ListenAddr == "" {
		cfg.Panel.ListenAddr = DefaultListenAddr
	}
	if cfg.Panel.PNGPath == "" {
		cfg.Panel.PNGPath = DefaultPNGPath
	}
}

func checkSource(cfg Config) error {
	switch cfg.Source {
	case SourceEMT:
		if cfg.EMT.Token == "" && (cfg.EMT.Email == "" || cfg.EMT.Password == "") {
			return errors.New("validating config: emt source needs a token or email and password")
		}
	case SourceGTFSRT:
		if cfg.GTFSRT.TripUpdatesURL == "" {
			return errors.New("validating config: gtfsrt source needs tripUpdatesURL")
		}
	}
	return nil
}
