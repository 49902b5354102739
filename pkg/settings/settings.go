// Package settings loads runtime settings from an optional YAML file with
// HELIX_* environment overrides.
package settings

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"

	"github.com/chazu/helix/pkg/building"
)

// Settings holds the process-wide options of the editor and server.
type Settings struct {
	Kernel    string `koanf:"kernel"`     // facet or sdfx
	MeshCells int    `koanf:"mesh_cells"` // sdfx only

	CaptureWidth   int           `koanf:"capture_width"`
	CaptureHeight  int           `koanf:"capture_height"`
	CaptureDelay   time.Duration `koanf:"-"`
	CaptureTimeout time.Duration `koanf:"-"`

	// GalleryPath is the SQLite file saved images go to. Empty keeps the
	// gallery in memory.
	GalleryPath string `koanf:"gallery_path"`

	ProcessDelay time.Duration `koanf:"-"`

	ListenAddr string       `koanf:"listen_addr"`
	LogLevel   logrus.Level `koanf:"-"`

	// Building is the config the editor opens with.
	Building building.Config `koanf:"building"`
}

var (
	ErrInvalidKernel   = errors.New("kernel must be facet or sdfx")
	ErrInvalidNumber   = errors.New("must be a valid integer")
	ErrInvalidLogLevel = errors.New("log_level must be one of panic, fatal, error, warn, info, debug, trace")
	ErrInvalidSize     = errors.New("capture size must be positive")
	ErrInvalidDuration = errors.New("durations must not be negative")
)

const (
	DefaultKernel           = "facet"
	DefaultMeshCells        = 200
	DefaultCaptureWidth     = 1280
	DefaultCaptureHeight    = 720
	DefaultCaptureDelayMs   = 100
	DefaultCaptureTimeoutMs = 5000
	DefaultProcessDelayMs   = 2000
	DefaultListenAddr       = ":8420"
	DefaultLogLevel         = "info"

	envPrefix = "HELIX_"
)

// Default returns the settings used when nothing is configured.
func Default() *Settings {
	return &Settings{
		Kernel:         DefaultKernel,
		MeshCells:      DefaultMeshCells,
		CaptureWidth:   DefaultCaptureWidth,
		CaptureHeight:  DefaultCaptureHeight,
		CaptureDelay:   DefaultCaptureDelayMs * time.Millisecond,
		CaptureTimeout: DefaultCaptureTimeoutMs * time.Millisecond,
		ProcessDelay:   DefaultProcessDelayMs * time.Millisecond,
		ListenAddr:     DefaultListenAddr,
		LogLevel:       logrus.InfoLevel,
		Building:       building.Default(),
	}
}

// Load reads the YAML file at path (skipped when empty) and applies
// HELIX_<KEY> environment overrides. All problems are collected and
// returned together; the returned Settings is usable for the fields that
// did load.
func Load(path string) (*Settings, []error) {
	k := koanf.New(".")
	var errs []error

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load settings file %s: %w", path, err)}
		}
	}

	intSetting := func(key string, def int) int {
		v, err := getEnvIntOrKoanf(key, k, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	s := &Settings{
		Kernel:         getEnvOrKoanf("kernel", k, DefaultKernel),
		MeshCells:      intSetting("mesh_cells", DefaultMeshCells),
		CaptureWidth:   intSetting("capture_width", DefaultCaptureWidth),
		CaptureHeight:  intSetting("capture_height", DefaultCaptureHeight),
		CaptureDelay:   time.Duration(intSetting("capture_delay_ms", DefaultCaptureDelayMs)) * time.Millisecond,
		CaptureTimeout: time.Duration(intSetting("capture_timeout_ms", DefaultCaptureTimeoutMs)) * time.Millisecond,
		GalleryPath:    getEnvOrKoanf("gallery_path", k, ""),
		ProcessDelay:   time.Duration(intSetting("process_delay_ms", DefaultProcessDelayMs)) * time.Millisecond,
		ListenAddr:     getEnvOrKoanf("listen_addr", k, DefaultListenAddr),
		LogLevel:       logrus.InfoLevel,
		Building:       building.Default(),
	}

	level := strings.ToLower(getEnvOrKoanf("log_level", k, DefaultLogLevel))
	if lvl, err := logrus.ParseLevel(level); err != nil {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidLogLevel, level))
	} else {
		s.LogLevel = lvl
	}

	if k.Exists("building") {
		if err := k.Unmarshal("building", &s.Building); err != nil {
			errs = append(errs, fmt.Errorf("building: %w", err))
		}
	}

	errs = append(errs, s.Validate()...)
	return s, errs
}

// Validate reports every invalid field.
func (s *Settings) Validate() []error {
	var errs []error
	if s.Kernel != "facet" && s.Kernel != "sdfx" {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidKernel, s.Kernel))
	}
	if s.CaptureWidth <= 0 || s.CaptureHeight <= 0 {
		errs = append(errs, fmt.Errorf("%w: %dx%d", ErrInvalidSize, s.CaptureWidth, s.CaptureHeight))
	}
	if s.CaptureDelay < 0 || s.CaptureTimeout < 0 || s.ProcessDelay < 0 {
		errs = append(errs, ErrInvalidDuration)
	}
	for _, err := range building.Validate(s.Building) {
		if building.IsPrecondition(err) {
			errs = append(errs, fmt.Errorf("building: %w", err))
		}
	}
	return errs
}

// LogSummary returns the settings as strings for a startup log line.
func (s *Settings) LogSummary() map[string]string {
	gallery := s.GalleryPath
	if gallery == "" {
		gallery = "<memory>"
	}
	return map[string]string{
		"kernel":          s.Kernel,
		"mesh_cells":      strconv.Itoa(s.MeshCells),
		"capture_size":    fmt.Sprintf("%dx%d", s.CaptureWidth, s.CaptureHeight),
		"capture_delay":   s.CaptureDelay.String(),
		"capture_timeout": s.CaptureTimeout.String(),
		"gallery_path":    gallery,
		"process_delay":   s.ProcessDelay.String(),
		"listen_addr":     s.ListenAddr,
		"log_level":       s.LogLevel.String(),
	}
}

func envKey(key string) string {
	return envPrefix + strings.ToUpper(key)
}

func getEnvOrKoanf(key string, k *koanf.Koanf, def string) string {
	if val := os.Getenv(envKey(key)); val != "" {
		return val
	}
	if val := k.String(key); val != "" {
		return val
	}
	return def
}

func getEnvIntOrKoanf(key string, k *koanf.Koanf, def int) (int, error) {
	if val := os.Getenv(envKey(key)); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return def, fmt.Errorf("%s %w: %q", envKey(key), ErrInvalidNumber, val)
		}
		return i, nil
	}
	if k.Exists(key) {
		return k.Int(key), nil
	}
	return def, nil
}
