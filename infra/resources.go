package infra

import "fmt"

// DefaultResources returns the descriptors for every pre-existing resource
// the reconciler brings under terraform state before apply. Order matters
// only for log readability; each entry is reconciled independently.
func DefaultResources(cfg InfraConfig) ([]Resource, error) {
	p := cfg.ProjectID
	specs := []struct {
		name, address, id string
		bucket            bool
		forceReimport     bool
		refreshTarget     string
	}{
		{
			name:    "studio database",
			address: "google_firestore_database.studio",
			id:      fmt.Sprintf("projects/%s/databases/(default)", p),
		},
		{
			name:    "budget database",
			address: "google_firestore_database.budget",
			id:      fmt.Sprintf("projects/%s/databases/%s", p, cfg.BudgetDBID),
		},
		{
			name:    "app service account",
			address: "google_service_account.app",
			id:      fmt.Sprintf("projects/%s/serviceAccounts/%s@%s.iam.gserviceaccount.com", p, cfg.AppSAName, p),
		},
		{
			name:    "genmedia service account",
			address: "google_service_account.genmedia",
			id:      fmt.Sprintf("projects/%s/serviceAccounts/%s@%s.iam.gserviceaccount.com", p, cfg.GenmediaSAName, p),
		},
		{
			name:          "genmedia bucket",
			address:       "google_storage_bucket.genmedia",
			id:            cfg.GenmediaBucket,
			bucket:        true,
			forceReimport: true,
			refreshTarget: "module.storage",
		},
		{
			name:    "library bucket",
			address: "google_storage_bucket.library",
			id:      cfg.LibraryBucket,
			bucket:  true,
		},
		{
			name:    "container repository",
			address: "google_artifact_registry_repository.app",
			id:      fmt.Sprintf("projects/%s/locations/%s/repositories/%s", p, cfg.Region, cfg.RepoName),
		},
		{
			name:    "cloud run service",
			address: "google_cloud_run_v2_service.app",
			id:      fmt.Sprintf("projects/%s/locations/%s/services/%s", p, cfg.Region, cfg.ServiceName),
		},
		{
			name:    "library media index",
			address: "google_firestore_index.library",
			id:      fmt.Sprintf("projects/%s/databases/(default)/collectionGroups/genmedia/indexes/library-media-desc", p),
		},
	}

	rs := make([]Resource, 0, len(specs))
	for _, s := range specs {
		r, err := NewResource(s.name, s.address, s.id)
		if err != nil {
			return nil, err
		}
		r.Bucket = s.bucket
		r.ForceReimport = s.forceReimport
		r.RefreshTarget = s.refreshTarget
		rs = append(rs, r)
	}
	return rs, nil
}
