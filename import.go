package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/shubhamkhetanbtc/vertex-ai-creative-studio/infra"
)

// runImport reconciles state imports on their own, without planning or
// applying. Useful when terraform state got out of sync with the project.
func runImport(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("studioctl import", flag.ExitOnError)
	pConfigPath := fs.String("config", "", "Path to config.json")
	pSkipInit := fs.Bool("skip-init", false, "Assume terraform init has already run")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: studioctl import [flags]\n\nBring pre-existing cloud resources under terraform state control.\nNever fails the run: each resource is reported individually.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if err := loadConfig(*pConfigPath); err != nil {
		log.Fatalf("config error: %v", err)
	}

	c := newInfraConfig()
	tf := infra.NewTerraform(cfg.TerraformDir, os.Stderr)

	if _, err := tf.Version(ctx); err != nil {
		log.Fatalf("%v", err)
	}
	if !*pSkipInit {
		if err := tf.Init(ctx); err != nil {
			log.Fatalf("%v", err)
		}
	}

	resources, err := infra.DefaultResources(c)
	if err != nil {
		log.Fatalf("resource descriptors: %v", err)
	}

	probes := infra.NewProbes()
	defer probes.Close()

	importer := infra.NewImporter(tf, probes)
	outcomes := importer.EnsureAll(ctx, resources)

	// Report: outcome per resource, plus a cloud-existence diagnostic so
	// "import-failed" can be told apart from "was never there".
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RESOURCE\tADDRESS\tOUTCOME\tIN CLOUD")
	for i, r := range resources {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Address, outcomes[i], cloudState(ctx, probes, c, r))
	}
	w.Flush()
}

// cloudState probes whether the resource exists in the project. Probe
// errors show as "?" — the outcome column is authoritative, this one is
// informational.
func cloudState(ctx context.Context, probes *infra.Probes, c infra.InfraConfig, r infra.Resource) string {
	var exists bool
	var err error

	switch r.Address {
	case "google_storage_bucket.genmedia", "google_storage_bucket.library":
		exists, err = probes.BucketExists(ctx, r.ID)
	case "google_service_account.app":
		exists, err = probes.ServiceAccountExists(ctx, c.ProjectID, fmt.Sprintf("%s@%s.iam.gserviceaccount.com", c.AppSAName, c.ProjectID))
	case "google_service_account.genmedia":
		exists, err = probes.ServiceAccountExists(ctx, c.ProjectID, fmt.Sprintf("%s@%s.iam.gserviceaccount.com", c.GenmediaSAName, c.ProjectID))
	case "google_firestore_database.studio":
		exists, err = probes.DatabaseExists(ctx, c.ProjectID, "(default)")
	case "google_firestore_database.budget":
		exists, err = probes.DatabaseExists(ctx, c.ProjectID, c.BudgetDBID)
	case "google_artifact_registry_repository.app":
		exists, err = probes.RepositoryExists(ctx, c.ProjectID, c.Region, c.RepoName)
	case "google_cloud_run_v2_service.app":
		exists, err = probes.ServiceExists(ctx, c.ProjectID, c.Region, c.ServiceName)
	default:
		return "-"
	}

	if err != nil {
		if infra.IsAuthError(err) {
			log.Printf("[import] GCP credentials expired — run 'gcloud auth application-default login'")
		}
		return "?"
	}
	if exists {
		return "yes"
	}
	return "no"
}
