package infra

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/template"
)

const tfvarsTemplate = `# Generated by studioctl; do not edit by hand.
project_id       = "{{.ProjectID}}"
region           = "{{.Region}}"
location         = "{{.Location}}"
service_name     = "{{.ServiceName}}"
repo_name        = "{{.RepoName}}"
image            = "{{.Image}}"
app_sa_name      = "{{.AppSAName}}"
genmedia_sa_name = "{{.GenmediaSAName}}"
genmedia_bucket  = "{{.GenmediaBucket}}"
library_bucket   = "{{.LibraryBucket}}"
budget_db_id     = "{{.BudgetDBID}}"
admin_email      = "{{.AdminEmail}}"
`

const envTemplate = `# Generated by studioctl; do not edit by hand.
PROJECT_ID={{.ProjectID}}
LOCATION={{.Location}}
GENMEDIA_BUCKET={{.GenmediaBucket}}
BUDGET_DB_ID={{.BudgetDBID}}
BUDGET_COLLECTION=budgets
USERS_COLLECTION=users
SESSION_SECRET_NAME={{.SessionSecret}}
`

// RenderTfvars produces the terraform.tfvars content for cfg.
func RenderTfvars(cfg InfraConfig) (string, error) {
	return renderTemplate("tfvars", tfvarsTemplate, cfg)
}

// RenderEnv produces the application env file consumed by the Cloud Run
// service at startup.
func RenderEnv(cfg InfraConfig) (string, error) {
	return renderTemplate("env", envTemplate, cfg)
}

func renderTemplate(name, text string, cfg InfraConfig) (string, error) {
	t, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	buf := &bytes.Buffer{}
	if err := t.Execute(buf, cfg); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// WriteGeneratedConfig renders terraform.tfvars into the terraform
// directory and the app env file next to it. Both are regenerated on every
// deploy so the files always match the active config.
func WriteGeneratedConfig(cfg InfraConfig, terraformDir string) error {
	tfvars, err := RenderTfvars(cfg)
	if err != nil {
		return err
	}
	envFile, err := RenderEnv(cfg)
	if err != nil {
		return err
	}

	tfvarsPath := filepath.Join(terraformDir, "terraform.tfvars")
	if err := os.WriteFile(tfvarsPath, []byte(tfvars), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tfvarsPath, err)
	}
	envPath := filepath.Join(terraformDir, "app.env")
	if err := os.WriteFile(envPath, []byte(envFile), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", envPath, err)
	}
	log.Printf("[config] wrote %s and %s", tfvarsPath, envPath)
	return nil
}
