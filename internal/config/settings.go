package config

import (
	"context"
	"strconv"
	"strings"

	"stockflow/internal/core/numerator"
	sr "stockflow/internal/domain/documents/supplier_return"
	"stockflow/pkg/logger"
)

// Settings keys read from the settings table.
const (
	KeyCurrencySymbol           = "currency_symbol"
	KeyReturnAllowNegativeStock = "return_allow_negative_stock"
	KeyReturnAutoApprove        = "return_auto_approve"
	KeyReturnDefaultStatus      = "return_default_status"
)

// DefaultCurrencySymbol is used when currency_symbol is unset.
const DefaultCurrencySymbol = "$"

// Settings are the business settings the services are built with.
type Settings struct {
	Numbering      numerator.NumberingConfig
	ReturnPolicy   sr.ReturnPolicyConfig
	CurrencySymbol string
}

// DefaultSettings returns the settings used for an empty settings table.
func DefaultSettings() Settings {
	return Settings{
		Numbering:      numerator.DefaultNumberingConfig(),
		ReturnPolicy:   sr.DefaultReturnPolicy(),
		CurrencySymbol: DefaultCurrencySymbol,
	}
}

// FromSettings parses the key/value settings map. Unknown keys are ignored;
// malformed values keep their default and are logged.
func FromSettings(ctx context.Context, values map[string]string) Settings {
	p := parser{ctx: ctx, values: values}
	s := DefaultSettings()

	s.Numbering.Order = p.numbering(string(numerator.KindOrder), s.Numbering.Order)
	s.Numbering.Return = p.numbering(string(numerator.KindReturn), s.Numbering.Return)
	s.Numbering.Invoice = p.numbering(string(numerator.KindInvoice), s.Numbering.Invoice)

	s.ReturnPolicy.AutoApprove = p.bool(KeyReturnAutoApprove, s.ReturnPolicy.AutoApprove)
	s.ReturnPolicy.AllowNegativeStock = p.bool(KeyReturnAllowNegativeStock, s.ReturnPolicy.AllowNegativeStock)
	if v, ok := p.lookup(KeyReturnDefaultStatus); ok {
		status := sr.Status(strings.ToLower(v))
		if status == sr.StatusPending || status == sr.StatusApproved {
			s.ReturnPolicy.DefaultStatus = status
		} else {
			p.malformed(KeyReturnDefaultStatus, v)
		}
	}

	if v, ok := p.lookup(KeyCurrencySymbol); ok {
		s.CurrencySymbol = v
	}
	return s
}

type parser struct {
	ctx    context.Context
	values map[string]string
}

func (p parser) lookup(key string) (string, bool) {
	v, ok := p.values[key]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p parser) malformed(key, value string) {
	logger.Warn(p.ctx, "ignoring malformed setting", "key", key, "value", value)
}

func (p parser) bool(key string, def bool) bool {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	p.malformed(key, v)
	return def
}

// numbering reads <kind>_number_prefix, _separator, _length, _format and
// <kind>_auto_generate over def. The result is validated as a whole; an
// unusable combination falls back to def.
func (p parser) numbering(kind string, def numerator.Config) numerator.Config {
	cfg := def
	if v, ok := p.values[kind+"_number_prefix"]; ok {
		cfg.Prefix = strings.TrimSpace(v)
	}
	if v, ok := p.values[kind+"_number_separator"]; ok {
		// an empty separator is meaningful: numbers are concatenated
		cfg.Separator = v
	}
	if v, ok := p.lookup(kind + "_number_length"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PadWidth = n
		} else {
			p.malformed(kind+"_number_length", v)
		}
	}
	if v, ok := p.lookup(kind + "_number_format"); ok {
		f := numerator.Format(strings.ToLower(v))
		if f.IsValid() {
			cfg.Format = f
		} else {
			p.malformed(kind+"_number_format", v)
		}
	}
	cfg.AutoGenerate = p.bool(kind+"_auto_generate", cfg.AutoGenerate)

	if err := cfg.Validate(); err != nil {
		logger.Warn(p.ctx, "invalid numbering settings, using defaults", "kind", kind, "error", err)
		return def
	}
	return cfg
}
