// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "npltime.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_valid(t *testing.T) {
	path := writeFile(t, `{"pin":17,"activehigh":true,"freq":1000,"iodev":0}`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Pin != 17 || !c.ActiveHigh || c.Freq != 1000 {
		t.Fatalf("Load = %+v, want pin=17 activehigh=true freq=1000", c)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("want error for missing file")
	}
}

func TestLoad_malformedJSON(t *testing.T) {
	path := writeFile(t, `{"pin":`)
	_, err := Load(path)
	if !errors.Is(err, ErrDataError) {
		t.Fatalf("err = %v, want wrapping ErrDataError", err)
	}
}

func TestValidate_freqOutOfRange(t *testing.T) {
	cases := []Config{
		{Pin: 1, Freq: 8},
		{Pin: 1, Freq: 120_002},
	}
	for _, c := range cases {
		if err := c.Validate(); !errors.Is(err, ErrDataError) {
			t.Errorf("Validate(%+v) = %v, want ErrDataError", c, err)
		}
	}
}

func TestValidate_freqMustBeEven(t *testing.T) {
	c := Config{Pin: 1, Freq: 1001}
	if err := c.Validate(); !errors.Is(err, ErrDataError) {
		t.Fatalf("Validate = %v, want ErrDataError for odd freq", err)
	}
}

func TestValidate_ok(t *testing.T) {
	c := Config{Pin: 1, Freq: 1000}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate = %v, want nil", err)
	}
}
