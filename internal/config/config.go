package config

import (
	"errors"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultPreviewMaxSize        = 100 * 1024
	defaultPreviewWidthPercent   = 50
	defaultStatusTimeoutSecs     = 5
	defaultSequenceTimeoutMillis = 750
	defaultMaxListPages          = 20

	minPreviewWidthPercent = 20
	maxPreviewWidthPercent = 80
)

type Config struct {
	PreviewMaxSize           int64                 `toml:"preview_max_size"`
	PreviewWidthPercent      int                   `toml:"preview_width_percent"`
	StatusMessageTimeoutSecs int                   `toml:"status_message_timeout_secs"`
	SequenceTimeoutMillis    int                   `toml:"sequence_timeout_ms"`
	Remote                   RemoteConfig          `toml:"remote"`
	Logging                  LoggingConfig         `toml:"logging"`
	DownloadDestinations     []DownloadDestination `toml:"download_destinations"`
	KeyBindings              map[string][]string   `toml:"key_bindings"`
}

type RemoteConfig struct {
	MaxListPages int `toml:"max_list_pages"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type DownloadDestination struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

func Default() Config {
	return Config{
		PreviewMaxSize:           defaultPreviewMaxSize,
		PreviewWidthPercent:      defaultPreviewWidthPercent,
		StatusMessageTimeoutSecs: defaultStatusTimeoutSecs,
		SequenceTimeoutMillis:    defaultSequenceTimeoutMillis,
		Remote:                   RemoteConfig{MaxListPages: defaultMaxListPages},
		Logging:                  LoggingConfig{Level: "info"},
		DownloadDestinations: []DownloadDestination{
			{Name: "Downloads", Path: "~/Downloads"},
			{Name: "Temp", Path: "/tmp"},
		},
	}
}

// Load reads the config file at the default location. A missing file
// yields the defaults with no error. A malformed file also yields the
// defaults; the parse error comes back so the caller can warn without
// aborting startup.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), err
	}
	return loadFromPath(path)
}

func loadFromPath(path string) (Config, error) {
	cfg := Default()
	if err := readTOML(path, &cfg); err != nil {
		return Default(), err
	}
	return cfg, nil
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

// PreviewMaxBytes returns the preview size ceiling in bytes.
func (c Config) PreviewMaxBytes() int64 {
	if c.PreviewMaxSize <= 0 {
		return defaultPreviewMaxSize
	}
	return c.PreviewMaxSize
}

// WidthPercent clamps the configured preview pane width to the usable
// range.
func (c Config) WidthPercent() int {
	return ClampWidthPercent(c.PreviewWidthPercent)
}

func ClampWidthPercent(percent int) int {
	if percent < minPreviewWidthPercent {
		return minPreviewWidthPercent
	}
	if percent > maxPreviewWidthPercent {
		return maxPreviewWidthPercent
	}
	return percent
}

func (c Config) StatusTimeoutSecs() int {
	if c.StatusMessageTimeoutSecs <= 0 {
		return defaultStatusTimeoutSecs
	}
	return c.StatusMessageTimeoutSecs
}

func (c Config) SequenceTimeoutMs() int {
	if c.SequenceTimeoutMillis <= 0 {
		return defaultSequenceTimeoutMillis
	}
	return c.SequenceTimeoutMillis
}

func (c Config) MaxListPages() int {
	if c.Remote.MaxListPages <= 0 {
		return defaultMaxListPages
	}
	return c.Remote.MaxListPages
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

// Destinations returns the configured download targets, falling back to
// the defaults when the list is empty or only blank entries.
func (c Config) Destinations() []DownloadDestination {
	out := make([]DownloadDestination, 0, len(c.DownloadDestinations))
	for _, d := range c.DownloadDestinations {
		if strings.TrimSpace(d.Path) == "" {
			continue
		}
		if strings.TrimSpace(d.Name) == "" {
			d.Name = d.Path
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return Default().DownloadDestinations
	}
	return out
}
