// Package config assembles the run options of blifanout from defaults, an
// optional YAML file and BLIFANOUT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ChunHungLiu/qflow/pkg/fanout"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "BLIFANOUT_"

var validate = validator.New()

// Options holds every run parameter.
type Options struct {
	GateFile   string `yaml:"gate_file" validate:"required"`
	IgnoreFile string `yaml:"ignore_file"`

	Buffer    string `yaml:"buffer" validate:"required"`
	BufferIn  string `yaml:"buffer_in" validate:"required"`
	BufferOut string `yaml:"buffer_out" validate:"required"`
	Separator string `yaml:"separator"`

	MaxLatency   float64 `yaml:"max_latency" validate:"gt=0"`    // ps
	MaxOutputCap float64 `yaml:"max_output_cap" validate:"gte=0"` // fF
	WireCap      float64 `yaml:"wire_cap" validate:"gte=0"`       // fF

	MetricsFile string `yaml:"metrics_file"`
	DumpFormat  string `yaml:"dump_format" validate:"oneof=table sexp"`
}

// Default returns the options of a run with no file, environment or flags.
func Default() *Options {
	return &Options{
		GateFile:     "gate.cfg",
		MaxLatency:   100.0,
		MaxOutputCap: 18.0,
		WireCap:      10.0,
		DumpFormat:   fanout.DumpTable,
	}
}

// LoadFile overlays the keys present in a YAML file.
func (o *Options) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, o); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays BLIFANOUT_* variables. Variables from dotenv are used
// when the process environment does not set them; a missing dotenv file
// is not an error.
func (o *Options) ApplyEnv(dotenv string) error {
	fileEnv := map[string]string{}
	if dotenv != "" {
		env, err := godotenv.Read(dotenv)
		switch {
		case err == nil:
			fileEnv = env
		case !errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("config: read %s: %w", dotenv, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			return v, true
		}
		v, ok := fileEnv[EnvPrefix+key]
		return v, ok
	}

	text := []struct {
		key string
		dst *string
	}{
		{"GATE_FILE", &o.GateFile},
		{"IGNORE_FILE", &o.IgnoreFile},
		{"BUFFER", &o.Buffer},
		{"BUFFER_IN", &o.BufferIn},
		{"BUFFER_OUT", &o.BufferOut},
		{"SEPARATOR", &o.Separator},
		{"METRICS_FILE", &o.MetricsFile},
		{"DUMP_FORMAT", &o.DumpFormat},
	}
	for _, s := range text {
		if v, ok := lookup(s.key); ok {
			*s.dst = v
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"MAX_LATENCY", &o.MaxLatency},
		{"MAX_OUTPUT_CAP", &o.MaxOutputCap},
		{"WIRE_CAP", &o.WireCap},
	}
	for _, f := range floats {
		v, ok := lookup(f.key)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, f.key, err)
		}
		*f.dst = parsed
	}
	return nil
}

// ValidateLibrary checks only what loading the gate library needs.
func (o *Options) ValidateLibrary() error {
	return formatValidationError(validate.StructPartial(o, "GateFile", "MaxLatency", "DumpFormat"))
}

// Validate checks every option needed for a rewrite run.
func (o *Options) Validate() error {
	return formatValidationError(validate.Struct(o))
}

// Fanout returns the engine configuration.
func (o *Options) Fanout() *fanout.Config {
	return &fanout.Config{
		Separator:    o.Separator,
		Buffer:       o.Buffer,
		BufferIn:     o.BufferIn,
		BufferOut:    o.BufferOut,
		MaxOutputCap: o.MaxOutputCap,
		WireCap:      o.WireCap,
		IgnoreFile:   o.IgnoreFile,
	}
}

func formatValidationError(err error) error {
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	e := validationErrs[0]
	switch e.Tag() {
	case "required":
		return fmt.Errorf("config: %s is required", e.Field())
	case "gt":
		return fmt.Errorf("config: %s must be greater than %s", e.Field(), e.Param())
	case "gte":
		return fmt.Errorf("config: %s must be at least %s", e.Field(), e.Param())
	case "oneof":
		return fmt.Errorf("config: %s must be one of %s", e.Field(), e.Param())
	default:
		return fmt.Errorf("config: %s: validation failed (%s)", e.Field(), e.Tag())
	}
}
