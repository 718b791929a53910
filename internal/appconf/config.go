package appconf

import (
	"time"

	"busmonitor.dev/internal/models"
)

// Config is the root configuration of the appliance, loaded from YAML.
type Config struct {
	Env          string        `yaml:"env" validate:"omitempty,oneof=development test production prod"`
	Source       string        `yaml:"source" validate:"omitempty,oneof=emt gtfsrt"`
	EMT          EMTConfig     `yaml:"emt"`
	GTFSRT       GTFSRTConfig  `yaml:"gtfsrt"`
	Stops        []string      `yaml:"stops" validate:"required,min=1,dive,required,max=100"`
	PollInterval time.Duration `yaml:"pollInterval" validate:"gte=0"`
	MaxCycles    int           `yaml:"maxCycles" validate:"gte=0"`
	Window       time.Duration `yaml:"window" validate:"gte=0"`
	Lines        []LineConfig  `yaml:"lines" validate:"dive"`
	Panel        PanelConfig   `yaml:"panel"`
}

// EMTConfig holds the credentials and endpoint of the EMT Madrid API.
// Either Token or Email+Password must be set.
type EMTConfig struct {
	BaseURL  string        `yaml:"baseURL" validate:"omitempty,url"`
	Email    string        `yaml:"email" validate:"omitempty,email"`
	Password string        `yaml:"password"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`
}

// GTFSRTConfig configures the GTFS-Realtime trip updates source.
type GTFSRTConfig struct {
	TripUpdatesURL  string            `yaml:"tripUpdatesURL" validate:"omitempty,url"`
	AuthHeaderKey   string            `yaml:"authHeaderKey"`
	AuthHeaderValue string            `yaml:"authHeaderValue"`
	Headsigns       map[string]string `yaml:"headsigns"`
	Timeout         time.Duration     `yaml:"timeout" validate:"gte=0"`
}

// LineConfig is one row of the connection schedule table.
type LineConfig struct {
	Name           string        `yaml:"name" validate:"required"`
	FromStopToHome time.Duration `yaml:"fromStopToHome" validate:"gte=0"`
	ToSchool       time.Duration `yaml:"toSchool" validate:"gte=0"`
	ToWork         time.Duration `yaml:"toWork" validate:"gte=0"`
}

// PanelConfig selects the output panel.
type PanelConfig struct {
	Driver     string `yaml:"driver" validate:"omitempty,oneof=waveshare preview png"`
	Width      int    `yaml:"width" validate:"gte=0"`
	Height     int    `yaml:"height" validate:"gte=0"`
	ListenAddr string `yaml:"listenAddr"`
	// APIKeys, when set, are required as ?key= on every preview request.
	APIKeys []string `yaml:"apiKeys" validate:"dive,required"`
	PNGPath string   `yaml:"pngPath"`
	SPIPort string   `yaml:"spiPort"`
}

const (
	SourceEMT    = "emt"
	SourceGTFSRT = "gtfsrt"

	PanelWaveshare = "waveshare"
	PanelPreview   = "preview"
	PanelPNG       = "png"

	DefaultBaseURL      = "https://openapi.emtmadrid.es"
	DefaultTimeout      = 15 * time.Second
	DefaultPollInterval = 30 * time.Second
	DefaultWindow       = 12 * time.Minute
	DefaultWidth        = 480
	DefaultHeight       = 280
	DefaultListenAddr   = ":8080"
	DefaultPNGPath      = "busmonitor.png"
)

// Environment returns the parsed Env value.
func (c Config) Environment() Environment {
	return EnvFlagToEnvironment(c.Env)
}

// LineSchedules converts the configured lines to schedule records.
// A nil result means no table was configured.
func (c Config) LineSchedules() []models.LineScheduleInfo {
	if len(c.Lines) == 0 {
		return nil
	}
	lines := make([]models.LineScheduleInfo, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, models.LineScheduleInfo{
			Name:                  l.Name,
			SecondsFromStopToHome: uint64(l.FromStopToHome / time.Second),
			SecondsToSchool:       uint64(l.ToSchool / time.Second),
			SecondsToWork:         uint64(l.ToWork / time.Second),
		})
	}
	return lines
}

const redacted = "[redacted]"

// Redacted returns a copy of c with secrets masked, for debug output.
func (c Config) Redacted() Config {
	out := c
	if out.EMT.Password != "" {
		out.EMT.Password = redacted
	}
	if out.EMT.Token != "" {
		out.EMT.Token = redacted
	}
	if out.GTFSRT.AuthHeaderValue != "" {
		out.GTFSRT.AuthHeaderValue = redacted
	}
	if len(out.Panel.APIKeys) > 0 {
		keys := make([]string, len(out.Panel.APIKeys))
		for i := range keys {
			keys[i] = redacted
		}
		out.Panel.APIKeys = keys
	}
	return out
}
