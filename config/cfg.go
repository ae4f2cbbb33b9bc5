package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	ProcessingConfig struct {
		Extensions []string `yaml:"extensions" validate:"required,dive,required,startswith=."`
		Workers    int      `yaml:"workers" validate:"gte=0"`
	}

	Config struct {
		Version    int              `yaml:"version" validate:"eq=1"`
		Transform  TransformConfig  `yaml:"transform"`
		Processing ProcessingConfig `yaml:"processing"`
		Logging    LoggingConfig    `yaml:"logging"`
		Reporting  ReporterConfig   `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, JavaScript source may contain
	// anything which looks like template action
	FallbackScriptFieldName TemplateFieldName = "css_variable_fallback"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(FallbackScriptFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// readConfigFile returns content of configuration file as YAML. TOML files
// (recognized by extension) are converted so both formats go through the
// same strict decoding.
func readConfigFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if !strings.EqualFold(filepath.Ext(path), ".toml") {
		return data, nil
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode TOML config file: %w", err)
	}
	if data, err = yaml.Marshal(doc); err != nil {
		return nil, fmt.Errorf("failed to convert TOML config file: %w", err)
	}
	return data, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	if data, err = readConfigFile(path); err != nil {
		return nil, err
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}

// Accepts reports whether file name has one of configured extensions.
func (conf *ProcessingConfig) Accepts(name string) bool {
	ext := filepath.Ext(name)
	return slices.ContainsFunc(conf.Extensions, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}

// Concurrency returns number of stylesheets to process at the same time.
func (conf *ProcessingConfig) Concurrency() int {
	if conf.Workers > 0 {
		return conf.Workers
	}
	return runtime.NumCPU()
}
