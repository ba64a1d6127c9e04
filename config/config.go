// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// Package config loads and validates the JSON-shaped receiver configuration described in
// spec.md §6: the GPIO pin to sample, its polarity, the nominal sample frequency, and (BSD
// only) the gpioc controller index.
package config

import (
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// ErrDataError is returned (possibly wrapped) by Load and Validate when the configuration is
// missing a required key (pin, activehigh or freq) or a key is out of range. cmd/nplpi-live
// exits with the EX_DATAERR status when Load fails.
var ErrDataError = errors.New("config: invalid configuration")

// Config is the receiver's JSON-shaped configuration.
type Config struct {
	Pin        uint `json:"pin"`
	ActiveHigh bool `json:"activehigh"`
	Freq       uint `json:"freq"`
	IODev      uint `json:"iodev"` // BSD only: /dev/gpioc<N> controller index
}

const (
	minFreq = 10
	maxFreq = 120_000
)

// Load reads and parses the configuration at path, rejects it if pin, activehigh or freq is
// absent (iodev is optional), then validates it.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: cannot read %s: %w", path, err)
	}
	var c Config
	if err := json.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("%w: cannot parse %s: %s", ErrDataError, path, err)
	}
	var keys map[string]interface{}
	if err := json.Unmarshal(raw, &keys); err != nil {
		return Config{}, fmt.Errorf("%w: cannot parse %s: %s", ErrDataError, path, err)
	}
	for _, k := range []string{"pin", "activehigh", "freq"} {
		if _, ok := keys[k]; !ok {
			return Config{}, fmt.Errorf("%w: %s: missing key %q", ErrDataError, path, k)
		}
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks that freq lies within [10, 120000] and is even; the other fields have no
// range to check.
func (c Config) Validate() error {
	if c.Freq < minFreq || c.Freq > maxFreq {
		return fmt.Errorf("%w: freq %d out of range [%d,%d]", ErrDataError, c.Freq, minFreq, maxFreq)
	}
	if c.Freq%2 != 0 {
		return fmt.Errorf("%w: freq %d must be even", ErrDataError, c.Freq)
	}
	return nil
}
