package infra

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	m.Run()
}

// fakeState records every call so tests can assert both outcomes and the
// exact command sequence the importer issued.
type fakeState struct {
	tracked     map[string]bool
	hasErr      error
	importErr   error
	importFails int // fail this many import calls, then succeed
	removeErr   error
	refreshErr  error

	calls []string // "has ADDR", "import ADDR ID", "remove ADDR", "refresh TARGET"
}

func newFakeState(tracked ...string) *fakeState {
	m := make(map[string]bool, len(tracked))
	for _, a := range tracked {
		m[a] = true
	}
	return &fakeState{tracked: m}
}

func (f *fakeState) Has(_ context.Context, address string) (bool, error) {
	f.calls = append(f.calls, "has "+address)
	return f.tracked[address], f.hasErr
}

func (f *fakeState) Import(_ context.Context, address, id string) error {
	f.calls = append(f.calls, "import "+address+" "+id)
	if f.importFails > 0 {
		f.importFails--
		return errors.New("import: resource busy")
	}
	if f.importErr != nil {
		return f.importErr
	}
	f.tracked[address] = true
	return nil
}

func (f *fakeState) Remove(_ context.Context, address string) error {
	f.calls = append(f.calls, "remove "+address)
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.tracked, address)
	return nil
}

func (f *fakeState) Refresh(_ context.Context, target string) error {
	f.calls = append(f.calls, "refresh "+target)
	return f.refreshErr
}

type fakeProber struct {
	exists map[string]bool
	err    error
	calls  int
}

func (f *fakeProber) BucketExists(_ context.Context, name string) (bool, error) {
	f.calls++
	return f.exists[name], f.err
}

func testImporter(state *fakeState, prober *fakeProber) (*Importer, *[]time.Duration) {
	slept := &[]time.Duration{}
	im := NewImporter(state, prober)
	im.sleep = func(d time.Duration) { *slept = append(*slept, d) }
	return im, slept
}

func mustResource(t *testing.T, name, address, id string) Resource {
	t.Helper()
	r, err := NewResource(name, address, id)
	if err != nil {
		t.Fatalf("NewResource(%s): %v", name, err)
	}
	return r
}

func TestEnsureAlreadyTracked(t *testing.T) {
	state := newFakeState("google_service_account.app")
	im, _ := testImporter(state, &fakeProber{})

	r := mustResource(t, "app service account", "google_service_account.app",
		"projects/p/serviceAccounts/app@p.iam.gserviceaccount.com")

	got := im.Ensure(context.Background(), r)
	if got != AlreadyTracked {
		t.Fatalf("outcome = %v, want AlreadyTracked", got)
	}
	// Nothing beyond the single membership check: no import, remove, or
	// refresh command may be issued.
	want := []string{"has google_service_account.app"}
	assertCalls(t, state.calls, want)
}

func TestEnsureBucketNotFoundSkipsImport(t *testing.T) {
	state := newFakeState()
	prober := &fakeProber{exists: map[string]bool{}}
	im, _ := testImporter(state, prober)

	r := mustResource(t, "library bucket", "google_storage_bucket.library", "p-library")
	r.Bucket = true

	got := im.Ensure(context.Background(), r)
	if got != NotFound {
		t.Fatalf("outcome = %v, want NotFound", got)
	}
	for _, c := range state.calls {
		if c == "import google_storage_bucket.library p-library" {
			t.Fatalf("import attempted for a missing bucket; calls: %v", state.calls)
		}
	}
	if prober.calls != 1 {
		t.Fatalf("bucket probed %d times, want 1", prober.calls)
	}
}

func TestEnsureBucketProbeErrorIsNotFound(t *testing.T) {
	state := newFakeState()
	prober := &fakeProber{err: errors.New("storage: permission denied")}
	im, _ := testImporter(state, prober)

	r := mustResource(t, "library bucket", "google_storage_bucket.library", "p-library")
	r.Bucket = true

	if got := im.Ensure(context.Background(), r); got != NotFound {
		t.Fatalf("outcome = %v, want NotFound on probe error", got)
	}
}

func TestEnsureRetriesExactlyThreeTimes(t *testing.T) {
	state := newFakeState()
	state.importErr = errors.New("import: Error acquiring the state lock")
	im, slept := testImporter(state, &fakeProber{})

	r := mustResource(t, "app service account", "google_service_account.app",
		"projects/p/serviceAccounts/app@p.iam.gserviceaccount.com")

	got := im.Ensure(context.Background(), r)
	if got != Failed {
		t.Fatalf("outcome = %v, want Failed", got)
	}

	imports := 0
	for _, c := range state.calls {
		if c == "import google_service_account.app projects/p/serviceAccounts/app@p.iam.gserviceaccount.com" {
			imports++
		}
	}
	if imports != 3 {
		t.Fatalf("import attempted %d times, want exactly 3", imports)
	}
	// Fixed delay between consecutive attempts only: two sleeps of 2s.
	if len(*slept) != 2 {
		t.Fatalf("slept %d times, want 2", len(*slept))
	}
	for _, d := range *slept {
		if d != 2*time.Second {
			t.Fatalf("slept %v, want 2s", d)
		}
	}
}

func TestEnsureSucceedsOnSecondAttempt(t *testing.T) {
	state := newFakeState()
	state.importFails = 1
	im, slept := testImporter(state, &fakeProber{})

	r := mustResource(t, "budget database", "google_firestore_database.budget",
		"projects/p/databases/creative-studio-budget-allocation")

	if got := im.Ensure(context.Background(), r); got != Imported {
		t.Fatalf("outcome = %v, want Imported", got)
	}
	if len(*slept) != 1 {
		t.Fatalf("slept %d times, want 1 (one retry)", len(*slept))
	}
}

func TestEnsureForceReimportClearsStateFirst(t *testing.T) {
	state := newFakeState("google_storage_bucket.genmedia")
	prober := &fakeProber{exists: map[string]bool{"p-genmedia": true}}
	im, _ := testImporter(state, prober)

	r := mustResource(t, "genmedia bucket", "google_storage_bucket.genmedia", "p-genmedia")
	r.Bucket = true
	r.ForceReimport = true
	r.RefreshTarget = "module.storage"

	got := im.Ensure(context.Background(), r)
	if got != Imported {
		t.Fatalf("outcome = %v, want Imported", got)
	}

	// Even though the address is tracked, force-reimport must skip the
	// already-tracked early return, issue state rm before import, and run
	// the scoped refresh after.
	removeIdx, importIdx, refreshIdx := -1, -1, -1
	for i, c := range state.calls {
		switch c {
		case "remove google_storage_bucket.genmedia":
			removeIdx = i
		case "import google_storage_bucket.genmedia p-genmedia":
			if importIdx < 0 {
				importIdx = i
			}
		case "refresh module.storage":
			refreshIdx = i
		}
	}
	if removeIdx < 0 || importIdx < 0 || refreshIdx < 0 {
		t.Fatalf("missing command, calls: %v", state.calls)
	}
	if !(removeIdx < importIdx && importIdx < refreshIdx) {
		t.Fatalf("command order wrong: remove=%d import=%d refresh=%d", removeIdx, importIdx, refreshIdx)
	}
}

func TestEnsureForceReimportRemoveFailureIsIgnored(t *testing.T) {
	state := newFakeState()
	state.removeErr = errors.New(`state rm: No matching objects found`)
	prober := &fakeProber{exists: map[string]bool{"p-genmedia": true}}
	im, _ := testImporter(state, prober)

	r := mustResource(t, "genmedia bucket", "google_storage_bucket.genmedia", "p-genmedia")
	r.Bucket = true
	r.ForceReimport = true
	r.RefreshTarget = "module.storage"

	if got := im.Ensure(context.Background(), r); got != Imported {
		t.Fatalf("outcome = %v, want Imported when state rm has nothing to remove", got)
	}
}

func TestEnsureRefreshFailureDoesNotChangeOutcome(t *testing.T) {
	state := newFakeState()
	state.refreshErr = errors.New("refresh: timeout")
	prober := &fakeProber{exists: map[string]bool{"p-genmedia": true}}
	im, _ := testImporter(state, prober)

	r := mustResource(t, "genmedia bucket", "google_storage_bucket.genmedia", "p-genmedia")
	r.Bucket = true
	r.ForceReimport = true
	r.RefreshTarget = "module.storage"

	if got := im.Ensure(context.Background(), r); got != Imported {
		t.Fatalf("outcome = %v, want Imported despite refresh failure", got)
	}
}

func TestEnsureInvalidDescriptorFails(t *testing.T) {
	state := newFakeState()
	im, _ := testImporter(state, &fakeProber{})

	r := Resource{Name: "broken", Address: "not-an-address", ID: "x"}
	if got := im.Ensure(context.Background(), r); got != Failed {
		t.Fatalf("outcome = %v, want Failed for malformed address", got)
	}
	if len(state.calls) != 0 {
		t.Fatalf("terraform commands issued for invalid descriptor: %v", state.calls)
	}
}

func TestEnsureAllContinuesPastFailures(t *testing.T) {
	state := newFakeState("google_firestore_database.studio")
	state.importErr = errors.New("import: boom")
	prober := &fakeProber{exists: map[string]bool{}}
	im, _ := testImporter(state, prober)

	rs := []Resource{
		mustResource(t, "studio database", "google_firestore_database.studio",
			"projects/p/databases/(default)"),
		mustResource(t, "app service account", "google_service_account.app",
			"projects/p/serviceAccounts/app@p.iam.gserviceaccount.com"),
	}
	bucket := mustResource(t, "library bucket", "google_storage_bucket.library", "p-library")
	bucket.Bucket = true
	rs = append(rs, bucket)

	got := im.EnsureAll(context.Background(), rs)
	want := []Outcome{AlreadyTracked, Failed, NotFound}
	if len(got) != len(want) {
		t.Fatalf("got %d outcomes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("outcome[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{AlreadyTracked, "already-tracked"},
		{Imported, "imported"},
		{NotFound, "not-found"},
		{Failed, "import-failed-after-retries"},
		{Outcome(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.o, got, tt.want)
		}
	}
}

func assertCalls(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls[%d] = %q, want %q (all: %v)", i, got[i], want[i], got)
		}
	}
}
