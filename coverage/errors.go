/*
errors.go - Validation errors for staffing configurations

PURPOSE:
  The engine itself is total over in-range input. Outer surfaces (HTTP,
  CLI, dashboard form) call Validate first and reject anything outside the
  documented bounds with a single error kind, before any derived quantity
  is computed.

USAGE:
  if err := coverage.Validate(cfg); err != nil {
      var invalid *coverage.InvalidConfigurationError
      if errors.As(err, &invalid) {
          // invalid.Fields lists each offending field
      }
  }

SEE ALSO:
  - engine.go: Calculate wraps Validate + GenerateProposals
*/
package coverage

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidConfiguration is the sentinel behind every validation failure.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// FieldViolation describes one out-of-range field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InvalidConfigurationError lists every violated field of a configuration.
type InvalidConfigurationError struct {
	Fields []FieldViolation
}

func (e *InvalidConfigurationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("invalid configuration: %s", strings.Join(parts, "; "))
}

func (e *InvalidConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// Messages returns violations keyed by JSON field name.
func (e *InvalidConfigurationError) Messages() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Field] = f.Message
	}
	return out
}

// Validate checks every field against its bounds and reports all
// violations at once.
func Validate(cfg Configuration) error {
	var fields []FieldViolation

	if cfg.NumberOfWorkers < MinWorkers || cfg.NumberOfWorkers > MaxWorkers {
		fields = append(fields, FieldViolation{
			Field:   "numberOfWorkers",
			Message: fmt.Sprintf("must be between %d and %d", MinWorkers, MaxWorkers),
		})
	}
	fields = checkRange(fields, "currentWeekHoursPerWorker", cfg.CurrentWeekHoursPerWorker, MinWeekHours, MaxWeekHours)
	fields = checkRange(fields, "targetWeekHoursPerWorker", cfg.TargetWeekHoursPerWorker, MinWeekHours, MaxWeekHours)
	fields = checkRange(fields, "maxExtraHoursPerWorker", cfg.MaxExtraHoursPerWorker, MinExtraHours, MaxExtraHours)
	fields = checkRange(fields, "hourlyRate", cfg.HourlyRate, MinHourlyRate, MaxHourlyRate)

	if len(fields) > 0 {
		return &InvalidConfigurationError{Fields: fields}
	}
	return nil
}

func checkRange(fields []FieldViolation, name string, v, lo, hi float64) []FieldViolation {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(fields, FieldViolation{Field: name, Message: "must be a finite number"})
	}
	if v < lo || v > hi {
		return append(fields, FieldViolation{
			Field:   name,
			Message: fmt.Sprintf("must be between %g and %g", lo, hi),
		})
	}
	return fields
}
