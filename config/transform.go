package config

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"px2var/transform"
)

type TransformConfig struct {
	Include                   string   `yaml:"include"`
	CSSVariable               string   `yaml:"css_variable"`
	CSSVariableFallback       string   `yaml:"css_variable_fallback"`
	CSSVariableFallbackOrigin bool     `yaml:"css_variable_fallback_origin"`
	SelectorBlackList         []string `yaml:"selector_black_list" validate:"dive,required"`
	PropBlackList             []string `yaml:"prop_black_list" validate:"dive,required"`
	IgnoreIdentifier          string   `yaml:"ignore_identifier"`
	Replace                   bool     `yaml:"replace"`
}

// Prepare compiles patterns and fallback script and returns transformer
// ready for use. All problems found are reported together.
func (conf *TransformConfig) Prepare(log *zap.Logger) (*transform.Transformer, error) {
	var (
		errs    error
		options = []transform.Option{
			transform.WithCSSVariable(conf.CSSVariable),
			transform.WithFallbackOrigin(conf.CSSVariableFallbackOrigin),
			transform.WithIgnoreIdentifier(conf.IgnoreIdentifier),
			transform.WithReplace(conf.Replace),
		}
	)

	if len(conf.Include) > 0 {
		if m, err := transform.ParsePattern(conf.Include); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("include: %w", err))
		} else {
			options = append(options, transform.WithInclude(m))
		}
	}

	entries := func(name string, list []string) []transform.Matcher {
		res := make([]transform.Matcher, 0, len(list))
		for i, s := range list {
			m, err := transform.ParseEntry(s)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s[%d]: %w", name, i, err))
				continue
			}
			res = append(res, m)
		}
		return res
	}
	options = append(options,
		transform.WithSelectorBlackList(entries("selector_black_list", conf.SelectorBlackList)...),
		transform.WithPropBlackList(entries("prop_black_list", conf.PropBlackList)...),
	)

	if len(conf.CSSVariableFallback) > 0 {
		if fn, err := transform.ScriptFallback(conf.CSSVariableFallback); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("css_variable_fallback: %w", err))
		} else {
			options = append(options, transform.WithFallback(fn))
		}
	}

	if errs != nil {
		return nil, fmt.Errorf("bad transform configuration: %w", errs)
	}
	return transform.New(log, options...)
}
