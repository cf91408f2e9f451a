package main

import (
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg = Config{ProjectID: "demo-project"}
	applyDefaults()

	if cfg.Region != "us-central1" {
		t.Errorf("Region = %q, want us-central1", cfg.Region)
	}
	if cfg.Location != cfg.Region {
		t.Errorf("Location = %q, want same as region", cfg.Location)
	}
	if cfg.GenmediaBucket != "demo-project-genmedia" {
		t.Errorf("GenmediaBucket = %q, want demo-project-genmedia", cfg.GenmediaBucket)
	}
	if cfg.LibraryBucket != "demo-project-library" {
		t.Errorf("LibraryBucket = %q, want demo-project-library", cfg.LibraryBucket)
	}
	if cfg.BudgetDBID != "creative-studio-budget-allocation" {
		t.Errorf("BudgetDBID = %q", cfg.BudgetDBID)
	}
	want := "us-central1-docker.pkg.dev/demo-project/creative-studio/creative-studio:latest"
	if cfg.Image != want {
		t.Errorf("Image = %q, want %q", cfg.Image, want)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg = Config{
		ProjectID:      "demo-project",
		Region:         "europe-west4",
		GenmediaBucket: "custom-assets",
	}
	applyDefaults()

	if cfg.Region != "europe-west4" {
		t.Errorf("Region = %q, explicit value overwritten", cfg.Region)
	}
	if cfg.GenmediaBucket != "custom-assets" {
		t.Errorf("GenmediaBucket = %q, explicit value overwritten", cfg.GenmediaBucket)
	}
	if cfg.LibraryBucket != "demo-project-library" {
		t.Errorf("LibraryBucket = %q, default not applied", cfg.LibraryBucket)
	}
}

func TestApplyDefaultsWithoutProject(t *testing.T) {
	cfg = Config{}
	applyDefaults()

	// Project-derived fields must stay empty until the project is known.
	if cfg.GenmediaBucket != "" || cfg.LibraryBucket != "" || cfg.Image != "" {
		t.Errorf("project-derived defaults set without project: bucket=%q library=%q image=%q",
			cfg.GenmediaBucket, cfg.LibraryBucket, cfg.Image)
	}
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg = Config{
		ProjectID:  "demo-project",
		Region:     "us-east4",
		AdminEmail: "admin@example.com",
	}
	applyDefaults()
	saved := cfg

	if err := saveConfig(path); err != nil {
		t.Fatalf("saveConfig() error = %v", err)
	}

	cfg = Config{}
	if err := loadConfig(path); err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg != saved {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", cfg, saved)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.json")
	if err := loadConfig(path); err == nil {
		t.Fatal("loadConfig() = nil, want error for missing file")
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"admin@example.com", true},
		{"a@b.co", true},
		{"", false},
		{"no-at-sign", false},
		{"@example.com", false},
		{"user@nodot", false},
	}
	for _, tt := range tests {
		if got := validEmail(tt.in); got != tt.want {
			t.Errorf("validEmail(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
