package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
)

// Terraform drives the terraform CLI in a working directory. Exit status
// is the only signal consumed from state/import commands; human output is
// streamed to Out for the operation log.
type Terraform struct {
	Dir    string
	Binary string
	Out    io.Writer
}

// NewTerraform creates a driver for the given config directory.
// Output (stdout+stderr of terraform) goes to out.
func NewTerraform(dir string, out io.Writer) *Terraform {
	return &Terraform{Dir: dir, Binary: "terraform", Out: out}
}

func (t *Terraform) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, t.Binary, args...)
	cmd.Dir = t.Dir
	cmd.Stdout = t.Out
	cmd.Stderr = t.Out
	return cmd
}

// Version returns the terraform CLI version, or an error if the binary is
// missing or broken. Used as a preflight check.
func (t *Terraform) Version(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, t.Binary, "version", "-json")
	stdout := &bytes.Buffer{}
	cmd.Stdout = stdout
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("terraform not available: %w", err)
	}
	out := struct {
		TerraformVersion string `json:"terraform_version"`
	}{}
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return "", fmt.Errorf("parse terraform version: %w", err)
	}
	return out.TerraformVersion, nil
}

// Init runs terraform init.
func (t *Terraform) Init(ctx context.Context) error {
	if err := t.command(ctx, "init", "-input=false", "-no-color").Run(); err != nil {
		return fmt.Errorf("terraform init failed: %w", err)
	}
	return nil
}

// Plan runs terraform plan and parses the change summary from its output.
func (t *Terraform) Plan(ctx context.Context) (PlanSummary, error) {
	buf := &bytes.Buffer{}
	cmd := exec.CommandContext(ctx, t.Binary, "plan", "-input=false", "-no-color")
	cmd.Dir = t.Dir
	cmd.Stdout = io.MultiWriter(buf, t.Out)
	cmd.Stderr = t.Out
	if err := cmd.Run(); err != nil {
		return PlanSummary{}, fmt.Errorf("terraform plan failed: %w", err)
	}
	return parsePlanSummary(buf.String()), nil
}

// Apply runs terraform apply. A failure here is fatal to the deploy.
func (t *Terraform) Apply(ctx context.Context) error {
	if err := t.command(ctx, "apply", "-auto-approve", "-input=false", "-no-color").Run(); err != nil {
		return fmt.Errorf("terraform apply failed: %w", err)
	}
	return nil
}

// Destroy runs terraform destroy.
func (t *Terraform) Destroy(ctx context.Context) error {
	if err := t.command(ctx, "destroy", "-auto-approve", "-input=false", "-no-color").Run(); err != nil {
		return fmt.Errorf("terraform destroy failed: %w", err)
	}
	return nil
}

// Has reports whether address is present in tracked state. terraform
// state show exits non-zero for a missing entry (and for any other
// problem) — per the CLI contract, a non-zero exit simply means "not
// tracked" here.
func (t *Terraform) Has(ctx context.Context, address string) (bool, error) {
	cmd := exec.CommandContext(ctx, t.Binary, "state", "show", "-no-color", address)
	cmd.Dir = t.Dir
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Import binds the cloud resource id into state under address.
func (t *Terraform) Import(ctx context.Context, address, id string) error {
	return t.command(ctx, "import", "-input=false", "-no-color", address, id).Run()
}

// Remove drops address from tracked state.
func (t *Terraform) Remove(ctx context.Context, address string) error {
	return t.command(ctx, "state", "rm", address).Run()
}

// Refresh resyncs tracked state with the cloud, optionally scoped to a
// -target address or module.
func (t *Terraform) Refresh(ctx context.Context, target string) error {
	args := []string{"refresh", "-input=false", "-no-color"}
	if target != "" {
		args = append(args, "-target="+target)
	}
	return t.command(ctx, args...).Run()
}

// PlanSummary is the resource-change count reported by terraform plan.
type PlanSummary struct {
	Add     int
	Change  int
	Destroy int
}

// HasChanges reports whether the plan would modify anything.
func (s PlanSummary) HasChanges() bool {
	return s.Add > 0 || s.Change > 0 || s.Destroy > 0
}

var planRe = regexp.MustCompile(`Plan: (\d+) to add, (\d+) to change, (\d+) to destroy`)

// parsePlanSummary extracts the change counts from plan output. "No
// changes." plans (and anything unparseable) yield a zero summary.
func parsePlanSummary(out string) PlanSummary {
	m := planRe.FindStringSubmatch(out)
	if m == nil {
		return PlanSummary{}
	}
	add, _ := strconv.Atoi(m[1])
	change, _ := strconv.Atoi(m[2])
	destroy, _ := strconv.Atoi(m[3])
	return PlanSummary{Add: add, Change: change, Destroy: destroy}
}

// sanity check that Terraform satisfies the importer's interface
var _ StateStore = (*Terraform)(nil)
