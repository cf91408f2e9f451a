package infra

import (
	"context"
	"log"
	"time"
)

// Outcome is the result of reconciling one resource against tracked state.
type Outcome int

const (
	// AlreadyTracked: the address was already in terraform state; nothing done.
	AlreadyTracked Outcome = iota
	// Imported: the resource was bound into terraform state.
	Imported
	// NotFound: the resource does not exist in the cloud; import skipped.
	// The subsequent apply is expected to create it.
	NotFound
	// Failed: every import attempt within the retry budget failed.
	// Non-fatal — the subsequent apply may still converge.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case AlreadyTracked:
		return "already-tracked"
	case Imported:
		return "imported"
	case NotFound:
		return "not-found"
	case Failed:
		return "import-failed-after-retries"
	}
	return "unknown"
}

// StateStore is the slice of the terraform CLI the importer needs.
// All methods signal success or failure only; output is diagnostic.
type StateStore interface {
	// Has reports whether the address is present in tracked state.
	Has(ctx context.Context, address string) (bool, error)
	// Import binds the cloud resource id into state under address.
	Import(ctx context.Context, address, id string) error
	// Remove drops the address from state.
	Remove(ctx context.Context, address string) error
	// Refresh resyncs state for the given -target scope ("" = everything).
	Refresh(ctx context.Context, target string) error
}

// BucketProber checks whether a storage bucket exists in the cloud.
type BucketProber interface {
	BucketExists(ctx context.Context, name string) (bool, error)
}

const (
	importAttempts = 3
	importDelay    = 2 * time.Second
)

// Importer brings pre-existing cloud resources under terraform state
// control without recreating them. It is best-effort by design: a fresh
// project has none of these resources yet, so "not found" and failed
// imports are reported and skipped, never escalated — the apply step that
// follows either creates the resource or picks up the imported entry.
type Importer struct {
	State  StateStore
	Probes BucketProber

	Attempts int
	Delay    time.Duration

	// sleep is swapped out by tests to avoid real delays.
	sleep func(time.Duration)
}

// NewImporter creates an Importer with the default retry budget.
func NewImporter(state StateStore, probes BucketProber) *Importer {
	return &Importer{
		State:    state,
		Probes:   probes,
		Attempts: importAttempts,
		Delay:    importDelay,
	}
}

// EnsureAll reconciles each resource in order, one at a time. The returned
// slice is index-aligned with rs. It never aborts: every descriptor is
// processed regardless of earlier outcomes.
func (im *Importer) EnsureAll(ctx context.Context, rs []Resource) []Outcome {
	outcomes := make([]Outcome, len(rs))
	for i, r := range rs {
		outcomes[i] = im.Ensure(ctx, r)
	}

	var imported, failed int
	for _, o := range outcomes {
		switch o {
		case Imported:
			imported++
		case Failed:
			failed++
		}
	}
	log.Printf("[import] reconciled %d resources: %d imported, %d failed", len(rs), imported, failed)
	return outcomes
}

// Ensure reconciles a single resource descriptor against tracked state.
// It never returns an error and never terminates the run; the outcome
// tells the caller what happened.
func (im *Importer) Ensure(ctx context.Context, r Resource) Outcome {
	if err := r.Validate(); err != nil {
		log.Printf("[import] %s: invalid descriptor: %v", r.Name, err)
		return Failed
	}

	// Idempotence guard. Force-reimport resources skip it: they are
	// cleared and re-imported even when an entry is present, to recover
	// from stale or partial prior state.
	if !r.ForceReimport {
		tracked, err := im.State.Has(ctx, r.Address)
		if err != nil {
			log.Printf("[import] %s: state check failed: %v", r.Name, err)
		}
		if tracked {
			log.Printf("[import] %s: already tracked as %s", r.Name, r.Address)
			return AlreadyTracked
		}
	}

	// Importing a bucket that does not exist is a guaranteed failure,
	// so probe first and let apply create it instead.
	if r.Bucket {
		exists, err := im.Probes.BucketExists(ctx, r.ID)
		if err != nil {
			log.Printf("[import] %s: bucket probe failed: %v", r.Name, err)
			return NotFound
		}
		if !exists {
			log.Printf("[import] %s: bucket %s not found, will be created by apply", r.Name, r.ID)
			return NotFound
		}
	}

	if r.ForceReimport {
		if err := im.State.Remove(ctx, r.Address); err != nil {
			// Nothing to remove on a clean state; keep going.
			log.Printf("[import] %s: state rm: %v", r.Name, err)
		} else {
			log.Printf("[import] %s: cleared stale state entry %s", r.Name, r.Address)
		}
	}

	log.Printf("[import] %s: importing %s as %s", r.Name, r.ID, r.Address)
	err := withRetry(ctx, im.Attempts, im.Delay, im.sleep, func() error {
		return im.State.Import(ctx, r.Address, r.ID)
	})

	outcome := Imported
	if err != nil {
		log.Printf("[import] %s: import failed after %d attempts: %v", r.Name, im.Attempts, err)
		outcome = Failed
	} else if r.RefreshTarget != "" {
		if err := im.State.Refresh(ctx, r.RefreshTarget); err != nil {
			log.Printf("[import] %s: refresh %s: %v", r.Name, r.RefreshTarget, err)
		}
	}

	// Verification is diagnostics only; it never changes the outcome.
	tracked, verr := im.State.Has(ctx, r.Address)
	switch {
	case verr != nil:
		log.Printf("[import] %s: verify failed: %v", r.Name, verr)
	case tracked:
		log.Printf("[import] %s: verified in state", r.Name)
	default:
		log.Printf("[import] %s: not in state after import", r.Name)
	}

	return outcome
}
