package infra

import (
	"strings"
	"testing"
)

func TestNewResourceValidation(t *testing.T) {
	tests := []struct {
		name    string
		resName string
		address string
		id      string
		wantErr string
	}{
		{
			name:    "valid",
			resName: "app service account",
			address: "google_service_account.app",
			id:      "projects/p/serviceAccounts/app@p.iam.gserviceaccount.com",
		},
		{
			name:    "valid with module prefix",
			resName: "genmedia bucket",
			address: "module.storage.google_storage_bucket.genmedia",
			id:      "p-genmedia",
		},
		{
			name:    "missing name",
			address: "google_storage_bucket.x",
			id:      "x",
			wantErr: "no name",
		},
		{
			name:    "malformed address",
			resName: "bad",
			address: "not an address",
			id:      "x",
			wantErr: "malformed terraform address",
		},
		{
			name:    "bare type without name",
			resName: "bad",
			address: "google_storage_bucket",
			id:      "x",
			wantErr: "malformed terraform address",
		},
		{
			name:    "empty identifier",
			resName: "bad",
			address: "google_storage_bucket.x",
			id:      "",
			wantErr: "empty cloud identifier",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResource(tt.resName, tt.address, tt.id)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("NewResource() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("NewResource() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultResources(t *testing.T) {
	cfg := InfraConfig{
		ProjectID:      "demo-project",
		Region:         "us-central1",
		Location:       "us-central1",
		ServiceName:    "creative-studio",
		RepoName:       "creative-studio",
		AppSAName:      "creative-studio-app",
		GenmediaSAName: "genmedia-runtime",
		GenmediaBucket: "demo-project-genmedia",
		LibraryBucket:  "demo-project-library",
		BudgetDBID:     "creative-studio-budget-allocation",
	}
	rs, err := DefaultResources(cfg)
	if err != nil {
		t.Fatalf("DefaultResources() error = %v", err)
	}
	if len(rs) != 9 {
		t.Fatalf("got %d descriptors, want 9", len(rs))
	}

	byAddress := make(map[string]Resource, len(rs))
	for _, r := range rs {
		if err := r.Validate(); err != nil {
			t.Errorf("descriptor %s invalid: %v", r.Name, err)
		}
		byAddress[r.Address] = r
	}

	genmedia, ok := byAddress["google_storage_bucket.genmedia"]
	if !ok {
		t.Fatal("genmedia bucket descriptor missing")
	}
	if !genmedia.Bucket || !genmedia.ForceReimport {
		t.Errorf("genmedia bucket flags = bucket:%v force:%v, want both true", genmedia.Bucket, genmedia.ForceReimport)
	}
	if genmedia.RefreshTarget != "module.storage" {
		t.Errorf("genmedia refresh target = %q, want module.storage", genmedia.RefreshTarget)
	}

	library, ok := byAddress["google_storage_bucket.library"]
	if !ok {
		t.Fatal("library bucket descriptor missing")
	}
	if !library.Bucket || library.ForceReimport {
		t.Errorf("library bucket flags = bucket:%v force:%v, want bucket only", library.Bucket, library.ForceReimport)
	}

	sa, ok := byAddress["google_service_account.app"]
	if !ok {
		t.Fatal("app service account descriptor missing")
	}
	want := "projects/demo-project/serviceAccounts/creative-studio-app@demo-project.iam.gserviceaccount.com"
	if sa.ID != want {
		t.Errorf("app SA id = %q, want %q", sa.ID, want)
	}

	db, ok := byAddress["google_firestore_database.budget"]
	if !ok {
		t.Fatal("budget database descriptor missing")
	}
	if db.ID != "projects/demo-project/databases/creative-studio-budget-allocation" {
		t.Errorf("budget database id = %q", db.ID)
	}
}
