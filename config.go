package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2/google"

	"github.com/shubhamkhetanbtc/vertex-ai-creative-studio/infra"
)

// Config holds deployment configuration loaded from config.json.
type Config struct {
	ProjectID      string `json:"project_id"`
	Region         string `json:"region"`
	Location       string `json:"location"`
	ServiceName    string `json:"service_name"`
	RepoName       string `json:"repo_name"`
	Image          string `json:"image"`
	AppSAName      string `json:"app_sa_name"`
	GenmediaSAName string `json:"genmedia_sa_name"`
	GenmediaBucket string `json:"genmedia_bucket"`
	LibraryBucket  string `json:"library_bucket"`
	BudgetDBID     string `json:"budget_db_id"`
	AdminEmail     string `json:"admin_email"`
	SessionSecret  string `json:"session_secret"`
	TerraformDir   string `json:"terraform_dir"`
}

var cfg Config

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "studioctl", "config.json")
}

func configPathOrDefault(path string) string {
	if path != "" {
		return path
	}
	return defaultConfigPath()
}

// loadConfig loads and validates config from file. Fails if file is missing.
func loadConfig(path string) error {
	path = configPathOrDefault(path)

	data, err := os.ReadFile(path) //nolint:gosec // path from known config dir
	if err != nil {
		return fmt.Errorf("config not found: %s\nRun 'studioctl configure' first", path)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults()

	if cfg.ProjectID == "" {
		return fmt.Errorf("config must include project_id")
	}

	return nil
}

// loadConfigFile loads config from file if it exists. Returns true if loaded.
func loadConfigFile(path string) bool {
	path = configPathOrDefault(path)
	data, err := os.ReadFile(path) //nolint:gosec // path from known config dir
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return false
	}
	return true
}

// applyDefaults fills in default values for empty config fields. Bucket
// names and the image path derive from the project, so they are filled
// only once ProjectID is known.
func applyDefaults() {
	if cfg.Region == "" {
		cfg.Region = "us-central1"
	}
	if cfg.Location == "" {
		cfg.Location = cfg.Region
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "creative-studio"
	}
	if cfg.RepoName == "" {
		cfg.RepoName = "creative-studio"
	}
	if cfg.AppSAName == "" {
		cfg.AppSAName = "creative-studio-app"
	}
	if cfg.GenmediaSAName == "" {
		cfg.GenmediaSAName = "genmedia-runtime"
	}
	if cfg.BudgetDBID == "" {
		cfg.BudgetDBID = "creative-studio-budget-allocation"
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "creative-studio-session-key"
	}
	if cfg.TerraformDir == "" {
		cfg.TerraformDir = "terraform"
	}
	if cfg.ProjectID != "" {
		if cfg.GenmediaBucket == "" {
			cfg.GenmediaBucket = cfg.ProjectID + "-genmedia"
		}
		if cfg.LibraryBucket == "" {
			cfg.LibraryBucket = cfg.ProjectID + "-library"
		}
		if cfg.Image == "" {
			cfg.Image = fmt.Sprintf("%s-docker.pkg.dev/%s/%s/%s:latest",
				cfg.Region, cfg.ProjectID, cfg.RepoName, cfg.ServiceName)
		}
	}
}

// inferProjectID gets the GCP project ID from Application Default Credentials.
// For authorized_user credentials, ProjectID is empty so we fall back to
// quota_project_id from the raw credential JSON.
func inferProjectID() string {
	creds, err := google.FindDefaultCredentials(context.Background())
	if err != nil {
		return ""
	}
	if creds.ProjectID != "" {
		return creds.ProjectID
	}
	if creds.JSON != nil {
		var f struct {
			QuotaProjectID string `json:"quota_project_id"`
		}
		if json.Unmarshal(creds.JSON, &f) == nil && f.QuotaProjectID != "" {
			return f.QuotaProjectID
		}
	}
	return ""
}

// saveConfig writes the current config to the config file.
func saveConfig(path string) error {
	path = configPathOrDefault(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}

// newInfraConfig builds the value object the infra package consumes. The
// config is passed explicitly; nothing is exported into the environment.
func newInfraConfig() infra.InfraConfig {
	return infra.InfraConfig{
		ProjectID:      cfg.ProjectID,
		Region:         cfg.Region,
		Location:       cfg.Location,
		ServiceName:    cfg.ServiceName,
		RepoName:       cfg.RepoName,
		Image:          cfg.Image,
		AppSAName:      cfg.AppSAName,
		GenmediaSAName: cfg.GenmediaSAName,
		GenmediaBucket: cfg.GenmediaBucket,
		LibraryBucket:  cfg.LibraryBucket,
		StudioDBID:     "(default)",
		BudgetDBID:     cfg.BudgetDBID,
		AdminEmail:     cfg.AdminEmail,
		SessionSecret:  cfg.SessionSecret,
	}
}

// validEmail is a basic shape check, not RFC validation.
func validEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}

// promptString prompts the user for a string value with a default.
func promptString(label, defaultVal string) string {
	reader := bufio.NewReader(os.Stdin)
	if defaultVal != "" {
		fmt.Printf("  %s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("  %s: ", label)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}
