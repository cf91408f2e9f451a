package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/shubhamkhetanbtc/vertex-ai-creative-studio/infra"
	"github.com/shubhamkhetanbtc/vertex-ai-creative-studio/tui"
)

// errCancelled marks a user-declined confirm gate. Not a failure.
var errCancelled = errors.New("cancelled")

// opUI is the slice of the operation TUI the pipeline drives. A plain
// stderr implementation backs --no-tui and non-TTY runs.
type opUI interface {
	SetPhase(phase tui.OpPhase)
	SetStep(label string)
	SetPlanSummary(add, change, destroy int)
	WaitConfirm(ctx context.Context) bool
}

// ── deploy ───────────────────────────────────────────────────────

func runDeploy(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("studioctl deploy", flag.ExitOnError)
	pConfigPath := fs.String("config", "", "Path to config.json")
	pProjectID := fs.String("project-id", "", "GCP project ID (default: from Application Default Credentials)")
	pRegion := fs.String("region", "", "GCP region (default: us-central1)")
	pAdminEmail := fs.String("admin-email", "", "Admin user email for IAP access")
	pTerraformDir := fs.String("terraform-dir", "", "Directory with the terraform configuration (default: terraform)")
	pYes := fs.Bool("yes", false, "Apply without asking for confirmation")
	pNoTUI := fs.Bool("no-tui", false, "Plain log output instead of the fullscreen TUI")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: studioctl deploy [flags]\n\nProvision or reconcile the Creative Studio infrastructure.\nOn first run, prompts for required values interactively.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	// ── Phase 1: Config + interactive prompts (normal terminal) ──

	existed := loadConfigFile(*pConfigPath)

	if *pProjectID != "" {
		cfg.ProjectID = *pProjectID
	}
	if *pRegion != "" {
		cfg.Region = *pRegion
	}
	if *pAdminEmail != "" {
		cfg.AdminEmail = *pAdminEmail
	}
	if *pTerraformDir != "" {
		cfg.TerraformDir = *pTerraformDir
	}

	if cfg.ProjectID == "" {
		if p := inferProjectID(); p != "" {
			cfg.ProjectID = p
		}
	}

	if !existed {
		runInteractiveSetup(true)
	}

	applyDefaults()

	if cfg.ProjectID == "" {
		log.Fatalf("project_id is required.\nUse --project-id or set up Application Default Credentials")
	}
	if cfg.AdminEmail != "" && !validEmail(cfg.AdminEmail) {
		log.Fatalf("admin_email %q does not look like an email address", cfg.AdminEmail)
	}

	if err := saveConfig(*pConfigPath); err != nil {
		log.Fatalf("failed to save config: %v", err)
	}

	runOperation(ctx, tui.OpKindDeploy, *pNoTUI, func(ctx context.Context, ui opUI, logW io.Writer) error {
		return deployPipeline(ctx, ui, logW, *pYes)
	})
}

// ── destroy ──────────────────────────────────────────────────────

func runDestroy(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("studioctl destroy", flag.ExitOnError)
	pConfigPath := fs.String("config", "", "Path to config.json")
	pNoTUI := fs.Bool("no-tui", false, "Plain log output instead of the fullscreen TUI")
	_ = fs.Parse(args)

	if err := loadConfig(*pConfigPath); err != nil {
		log.Fatalf("config error: %v", err)
	}

	runOperation(ctx, tui.OpKindDestroy, *pNoTUI, destroyPipeline)
}

// runOperation wires a pipeline to either the fullscreen TUI or plain
// stderr logging, depending on the flag and whether stdout is a terminal.
func runOperation(ctx context.Context, kind tui.OpKind, noTUI bool, pipeline func(context.Context, opUI, io.Writer) error) {
	if noTUI || !term.IsTerminal(int(os.Stdout.Fd())) {
		ui := &plainUI{out: os.Stderr, in: bufio.NewReader(os.Stdin)}
		err := pipeline(ctx, ui, os.Stderr)
		gcp.Close()
		if errors.Is(err, errCancelled) {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	opProg := tui.NewOperationProgram(kind, version)

	tuiDone := make(chan error, 1)
	go func() { tuiDone <- opProg.Start() }()
	opProg.WaitReady()

	logWriter := opProg.LogWriter()
	log.SetOutput(logWriter)
	log.SetFlags(log.Ltime)
	defer func() {
		logWriter.Close()
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
	}()

	go func() {
		err := pipeline(ctx, opProg, logWriter)
		gcp.Close()
		if errors.Is(err, errCancelled) {
			return // user cancelled — model handles done/quit
		}
		opProg.Done(err)
	}()

	if err := <-tuiDone; err != nil {
		fmt.Fprintf(os.Stderr, "[tui] error: %v\n", err)
	}
	if exitErr := opProg.ExitError(); exitErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr)
		os.Exit(1)
	}
}

// deployPipeline runs the full deploy: preflight → enable APIs → generated
// config → init → import reconciliation → plan → confirm → apply →
// secrets + IAM + seed. Import reconciliation is best-effort; everything
// else is fatal.
func deployPipeline(ctx context.Context, ui opUI, logW io.Writer, autoApprove bool) error {
	c := newInfraConfig()
	tf := infra.NewTerraform(cfg.TerraformDir, logW)

	// Preflight
	ui.SetPhase(tui.OpPhasePreflight)
	ui.SetStep("Checking terraform...")
	tfVersion, err := tf.Version(ctx)
	if err != nil {
		return err
	}
	log.Printf("[deploy] terraform %s, project %s, region %s", tfVersion, c.ProjectID, c.Region)

	ui.SetStep("Enabling service APIs...")
	if err := enableServices(ctx, c.ProjectID); err != nil {
		return err
	}

	ui.SetStep("Writing generated configuration...")
	if err := infra.WriteGeneratedConfig(c, cfg.TerraformDir); err != nil {
		return err
	}

	ui.SetStep("Initializing terraform...")
	if err := tf.Init(ctx); err != nil {
		return err
	}

	// Import reconciliation — non-fatal by contract. Failed imports are
	// reported and the run continues into plan/apply.
	ui.SetPhase(tui.OpPhaseImports)
	ui.SetStep("Reconciling pre-existing resources...")
	resources, err := infra.DefaultResources(c)
	if err != nil {
		return fmt.Errorf("resource descriptors: %w", err)
	}
	probes := infra.NewProbes()
	defer probes.Close()
	importer := infra.NewImporter(tf, probes)
	importer.EnsureAll(ctx, resources)

	// Plan
	ui.SetPhase(tui.OpPhasePlan)
	ui.SetStep("Planning infrastructure changes...")
	summary, err := tf.Plan(ctx)
	if err != nil {
		return err
	}

	if summary.HasChanges() && !autoApprove {
		ui.SetPlanSummary(summary.Add, summary.Change, summary.Destroy)
		ui.SetPhase(tui.OpPhaseConfirm)
		if !ui.WaitConfirm(ctx) {
			return errCancelled
		}
	}

	// Apply — a failure here is fatal.
	if summary.HasChanges() {
		ui.SetPhase(tui.OpPhaseApply)
		ui.SetStep("Applying infrastructure changes...")
		if err := tf.Apply(ctx); err != nil {
			return err
		}
	} else {
		log.Printf("[deploy] no infrastructure changes")
	}

	// Finalize
	ui.SetPhase(tui.OpPhaseFinalize)
	ui.SetStep("Wiring session secret...")
	if err := ensureSessionSecret(ctx, c.ProjectID, c.SessionSecret); err != nil {
		return err
	}

	ui.SetStep("Binding IAM roles...")
	if err := bindServiceAccounts(ctx, c); err != nil {
		return err
	}

	ui.SetStep("Seeding budget database...")
	if err := seedBudgetDatabase(ctx, c); err != nil {
		return err
	}

	log.Printf("[deploy] Creative Studio deployed to project %s", c.ProjectID)
	return nil
}

// destroyPipeline confirms and tears everything down.
func destroyPipeline(ctx context.Context, ui opUI, logW io.Writer) error {
	tf := infra.NewTerraform(cfg.TerraformDir, logW)

	ui.SetPhase(tui.OpPhaseConfirm)
	if !ui.WaitConfirm(ctx) {
		return errCancelled
	}

	ui.SetPhase(tui.OpPhaseApply)
	ui.SetStep("Destroying infrastructure...")
	if err := tf.Destroy(ctx); err != nil {
		return err
	}

	log.Printf("[destroy] infrastructure destroyed")
	return nil
}

// ── plain (no-TUI) UI ────────────────────────────────────────────

// plainUI satisfies opUI with line-oriented output for non-TTY runs.
type plainUI struct {
	out io.Writer
	in  *bufio.Reader

	add, change, destroy int
	summarySet           bool
}

func (u *plainUI) SetPhase(phase tui.OpPhase) {}

func (u *plainUI) SetStep(label string) {
	fmt.Fprintf(u.out, "==> %s\n", label)
}

func (u *plainUI) SetPlanSummary(add, change, destroy int) {
	u.add, u.change, u.destroy = add, change, destroy
	u.summarySet = true
}

func (u *plainUI) WaitConfirm(ctx context.Context) bool {
	if u.summarySet {
		fmt.Fprintf(u.out, "Plan: %d to add, %d to change, %d to destroy.\n", u.add, u.change, u.destroy)
	}
	fmt.Fprint(u.out, "Continue? [y/N]: ")
	line, err := u.in.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
