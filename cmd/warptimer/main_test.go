package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/warptimer/internal/config"
	"github.com/verte-zerg/warptimer/internal/model"
)

func validConfig() model.Config {
	return model.Config{
		Stars:       100,
		FocalLength: 500,
		BaseRadius:  0.25,
		Trail:       0.1,
		FPS:         60,
		Sync:        true,
		SyncTimeout: 10 * time.Second,
		Volume:      1,
		Repeat:      4,
	}
}

func TestValidateConfig(t *testing.T) {
	if err := validateConfig(validConfig()); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	cases := map[string]func(*model.Config){
		"target": func(c *model.Config) { c.Target = "25:00" },
		"stars":  func(c *model.Config) { c.Stars = 0 },
		"focal":  func(c *model.Config) { c.FocalLength = -1 },
		"radius": func(c *model.Config) { c.BaseRadius = 0 },
		"trail":  func(c *model.Config) { c.Trail = 1.5 },
		"fps":    func(c *model.Config) { c.FPS = 0 },
		"sync":   func(c *model.Config) { c.SyncTimeout = 0 },
		"volume": func(c *model.Config) { c.Volume = 5 },
		"repeat": func(c *model.Config) { c.Repeat = 0 },
	}
	for name, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestApplyConfigRespectsFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	var stars int
	var sound string
	cmd.Flags().IntVar(&stars, "stars", 100, "")
	cmd.Flags().StringVar(&sound, "sound", "", "")
	if err := cmd.Flags().Parse([]string{"--stars", "42"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	fromFile := 300
	applyIntConfig(cmd, "stars", &stars, &fromFile)
	if stars != 42 {
		t.Fatalf("flag should win over config, got %d", stars)
	}
	path := "/tmp/alarm.mp3"
	applyStringConfig(cmd, "sound", &sound, &path)
	if sound != path {
		t.Fatalf("config should fill unset flag, got %q", sound)
	}
	applyStringConfig(cmd, "sound", &sound, nil)
	if sound != path {
		t.Fatalf("nil config value should be ignored")
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template should decode: %v", err)
	}
	if cfg.Timer.Target != nil || cfg.Audio.Volume != nil {
		t.Fatalf("commented template should leave every value unset")
	}
}

func TestPrintNext(t *testing.T) {
	cmd := &cobra.Command{Use: "next"}
	var out bytes.Buffer
	cmd.SetOut(&out)
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	if err := printNext(cmd, "09:00", now); err != nil {
		t.Fatalf("printNext: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "2026-10-15 09:00:00 (in 23:00:00)" {
		t.Fatalf("unexpected output %q", got)
	}
	if err := printNext(cmd, "9am", now); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewSyncFuncDisabled(t *testing.T) {
	if newSyncFunc(model.Config{}) != nil {
		t.Fatalf("expected nil sync func when disabled")
	}
	if newSyncFunc(model.Config{Sync: true}) == nil {
		t.Fatalf("expected sync func when enabled")
	}
}
