package config

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/adrg/xdg"
	"github.com/goccy/go-yaml"
	"github.com/ttcn3tools/ttcnsem/internal/diag"
)

const (
	APP_NAME         = "ttcnsem"
	CONFIG_FILE_NAME = "config.yaml"
	CONFIG_RELPATH   = APP_NAME + "/" + CONFIG_FILE_NAME
)

var (
	ErrNoConfigFile = errors.New("no configuration file found")

	defaultConfig atomic.Pointer[Config]
)

func init() {
	defaultConfig.Store(New())
}

// Config contains the severities of the diagnostics whose severity is configurable.
type Config struct {
	// severity of a type match that requires a conversion.
	TypeCompatibility diag.Severity
	// severity of operations having no effect, such as rotating a string by a multiple of its length.
	NoEffect diag.Severity
	// severity of override attributes shadowed by an earlier override on the same path.
	IneffectiveOverride diag.Severity
}

func New() *Config {
	return &Config{
		TypeCompatibility:   diag.Warning,
		NoEffect:            diag.Warning,
		IneffectiveOverride: diag.Warning,
	}
}

// Default returns the process-wide configuration, the result should not be modified.
func Default() *Config {
	return defaultConfig.Load()
}

func SetDefault(cfg *Config) {
	if cfg == nil {
		cfg = New()
	}
	defaultConfig.Store(cfg)
}

type fileContent struct {
	Severities struct {
		TypeCompatibility   string `yaml:"type_compatibility"`
		NoEffect            string `yaml:"no_effect"`
		IneffectiveOverride string `yaml:"ineffective_override"`
	} `yaml:"severities"`
}

// Parse parses a YAML configuration, missing entries keep their default value.
func Parse(data []byte) (*Config, error) {
	var content fileContent
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := New()

	entries := []struct {
		name string
		text string
		dest *diag.Severity
	}{
		{"type_compatibility", content.Severities.TypeCompatibility, &cfg.TypeCompatibility},
		{"no_effect", content.Severities.NoEffect, &cfg.NoEffect},
		{"ineffective_override", content.Severities.IneffectiveOverride, &cfg.IneffectiveOverride},
	}

	for _, entry := range entries {
		if entry.text == "" {
			continue
		}
		severity, err := diag.ParseSeverity(entry.text)
		if err != nil {
			return nil, fmt.Errorf("invalid value for severities.%s: %w", entry.name, err)
		}
		*entry.dest = severity
	}

	return cfg, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Find searches the configuration file in the XDG config directories.
func Find() (string, error) {
	path, err := xdg.SearchConfigFile(CONFIG_RELPATH)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoConfigFile, err)
	}
	return path, nil
}

// LoadDefaultFile loads the file found by Find, New() is returned if there is no such file.
func LoadDefaultFile() (*Config, error) {
	path, err := Find()
	if err != nil {
		if errors.Is(err, ErrNoConfigFile) {
			return New(), nil
		}
		return nil, err
	}
	return Load(path)
}
