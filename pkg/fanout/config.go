package fanout

import (
	"errors"
	"fmt"
)

// Config controls the resizing pass.
type Config struct {
	// Suffix convention
	Separator string // text before the drive-strength suffix; empty means trailing digits

	// Buffer insertion
	Buffer    string // reference cell of the buffer family
	BufferIn  string // buffer input pin name
	BufferOut string // buffer output pin name

	// Load model (fF)
	MaxOutputCap float64 // external load every module output must drive
	WireCap      float64 // wire capacitance estimate added to every required load

	// Nets to exclude from resizing, one per line (optional)
	IgnoreFile string
}

// DefaultConfig returns the load model defaults with no buffer configured.
func DefaultConfig() *Config {
	return &Config{
		Separator:    "",
		MaxOutputCap: 18.0,
		WireCap:      10.0,
	}
}

// Validate checks that the configuration can drive a rewrite pass.
func (c *Config) Validate() error {
	if c.Buffer == "" || c.BufferIn == "" || c.BufferOut == "" {
		return errors.New("fanout: need name of buffer cell, and input/output pins")
	}
	if c.MaxOutputCap < 0 {
		return fmt.Errorf("fanout: negative max output capacitance %g", c.MaxOutputCap)
	}
	if c.WireCap < 0 {
		return fmt.Errorf("fanout: negative wire capacitance %g", c.WireCap)
	}
	return nil
}
