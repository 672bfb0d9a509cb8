package book

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// Config carries the ledger-wide settings of a book. All fields have
// working defaults; a config file only needs to name what it changes.
type Config struct {
	// BaseCurrency is the mnemonic of the ledger's reference currency.
	BaseCurrency string `yaml:"base_currency"`
	// PaymentTolerance is the residue below which an invoice counts as
	// fully paid.
	PaymentTolerance string `yaml:"payment_tolerance"`
	// TaxFallbackPercent is applied when a taxable line's tax table
	// cannot be resolved.
	TaxFallbackPercent string `yaml:"tax_fallback_percent"`
	// MaxConversionDepth bounds the recursion when resolving a quote
	// through intermediate currencies.
	MaxConversionDepth int `yaml:"max_conversion_depth"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		BaseCurrency:       "EUR",
		PaymentTolerance:   "0.01",
		TaxFallbackPercent: "19",
		MaxConversionDepth: 5,
	}
}

// ReadConfig reads a YAML config file. Absent keys keep their
// defaults.
func ReadConfig(path string) (Config, error) {
	res := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return res, err
	}
	if err := yaml.UnmarshalStrict(data, &res); err != nil {
		return res, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := res.validate(); err != nil {
		return res, fmt.Errorf("reading config %s: %w", path, err)
	}
	return res, nil
}

func (c Config) validate() error {
	if _, err := c.tolerance(); err != nil {
		return err
	}
	if _, err := c.fallbackPercent(); err != nil {
		return err
	}
	if c.MaxConversionDepth < 1 {
		return fmt.Errorf("max_conversion_depth must be positive, got %d", c.MaxConversionDepth)
	}
	return nil
}

func (c Config) tolerance() (decimal.Decimal, error) {
	res, err := decimal.NewFromString(c.PaymentTolerance)
	if err != nil {
		return res, fmt.Errorf("invalid payment_tolerance %q: %w", c.PaymentTolerance, err)
	}
	return res, nil
}

func (c Config) fallbackPercent() (decimal.Decimal, error) {
	res, err := decimal.NewFromString(c.TaxFallbackPercent)
	if err != nil {
		return res, fmt.Errorf("invalid tax_fallback_percent %q: %w", c.TaxFallbackPercent, err)
	}
	return res, nil
}
