// Package numerator provides domain contracts for document numbering.
package numerator

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies a numbered document family. Each kind is unique within its own column.
type Kind string

const (
	KindOrder   Kind = "order"
	KindReturn  Kind = "return"
	KindInvoice Kind = "invoice"
)

// Format selects the layout of a document number.
type Format string

const (
	// FormatPrefixDateNumber renders PREFIX-20250101-001.
	FormatPrefixDateNumber Format = "prefix-date-number"
	// FormatPrefixNumber renders PREFIX-001.
	FormatPrefixNumber Format = "prefix-number"
	// FormatDatePrefixNumber renders 20250101-PREFIX-001.
	FormatDatePrefixNumber Format = "date-prefix-number"
	// FormatNumber renders 001.
	FormatNumber Format = "number"
)

// IsValid reports whether f is a known layout.
func (f Format) IsValid() bool {
	switch f {
	case FormatPrefixDateNumber, FormatPrefixNumber, FormatDatePrefixNumber, FormatNumber:
		return true
	}
	return false
}

// IncludesDate reports whether the sequence restarts every day.
func (f Format) IncludesDate() bool {
	return f == FormatPrefixDateNumber || f == FormatDatePrefixNumber
}

// DefaultDateLayout is the Go layout of the date component (YYYYMMDD).
const DefaultDateLayout = "20060102"

// RandomDigits is the width of the randomized fallback component.
const RandomDigits = 6

// Config holds numbering configuration for one kind.
type Config struct {
	Prefix     string
	Separator  string
	Format     Format
	PadWidth   int
	DateLayout string

	// AutoGenerate disables the sequential counter when false; numbers are
	// then drawn from the randomized form only.
	AutoGenerate bool
}

// DefaultConfig returns the defaults for prefix.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:       prefix,
		Separator:    "-",
		Format:       FormatPrefixDateNumber,
		PadWidth:     4,
		DateLayout:   DefaultDateLayout,
		AutoGenerate: true,
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("unknown number format %q", c.Format)
	}
	if c.PadWidth < 1 || c.PadWidth > 18 {
		return fmt.Errorf("pad width %d out of range 1..18", c.PadWidth)
	}
	if (c.Format == FormatPrefixNumber || c.Format == FormatDatePrefixNumber) && c.Prefix == "" {
		return fmt.Errorf("format %q requires a prefix", c.Format)
	}
	return nil
}

func (c Config) dateLayout() string {
	if c.DateLayout == "" {
		return DefaultDateLayout
	}
	return c.DateLayout
}

// join concatenates the non-empty parts with the separator.
func (c Config) join(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, c.Separator)
}

// Scope returns the fixed part of a sequential number issued on date: everything
// that precedes the counter, separator included.
func (c Config) Scope(date time.Time) string {
	var head string
	switch c.Format {
	case FormatPrefixDateNumber:
		head = c.join(c.Prefix, date.Format(c.dateLayout()))
	case FormatPrefixNumber:
		head = c.Prefix
	case FormatDatePrefixNumber:
		head = c.join(date.Format(c.dateLayout()), c.Prefix)
	case FormatNumber:
		return ""
	}
	if head == "" {
		return ""
	}
	return head + c.Separator
}

// Sequential renders the seq-th number of date.
func (c Config) Sequential(date time.Time, seq int64) Number {
	s := seq
	scope := c.Scope(date)
	return Number{
		Value: scope + pad(seq, c.PadWidth),
		Scope: scope,
		Seq:   &s,
	}
}

// Randomized renders the collision fallback prefix-sep-date-sep-NNNNNN.
func (c Config) Randomized(date time.Time, r int) Number {
	value := c.join(c.Prefix, date.Format(c.dateLayout()), pad(int64(r), RandomDigits))
	return Number{Value: value}
}

func pad(n int64, width int) string {
	s := strconv.FormatInt(n, 10)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// NumberingConfig is the numbering configuration of every kind.
type NumberingConfig struct {
	Order   Config
	Return  Config
	Invoice Config
}

// DefaultNumberingConfig returns the defaults (ORD, RET, INV).
func DefaultNumberingConfig() NumberingConfig {
	return NumberingConfig{
		Order:   DefaultConfig("ORD"),
		Return:  DefaultConfig("RET"),
		Invoice: DefaultConfig("INV"),
	}
}

// For returns the configuration of kind.
func (n NumberingConfig) For(kind Kind) Config {
	switch kind {
	case KindReturn:
		return n.Return
	case KindInvoice:
		return n.Invoice
	default:
		return n.Order
	}
}

// Validate checks every kind.
func (n NumberingConfig) Validate() error {
	for _, k := range []Kind{KindOrder, KindReturn, KindInvoice} {
		if err := n.For(k).Validate(); err != nil {
			return fmt.Errorf("%s numbering: %w", k, err)
		}
	}
	return nil
}
