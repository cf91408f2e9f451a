package infra

import (
	"fmt"
	"regexp"
)

// InfraConfig holds all parameters needed to provision Creative Studio.
type InfraConfig struct {
	ProjectID      string
	Region         string
	Location       string
	ServiceName    string
	RepoName       string
	Image          string
	AppSAName      string
	GenmediaSAName string
	GenmediaBucket string
	LibraryBucket  string
	StudioDBID     string
	BudgetDBID     string
	AdminEmail     string
	SessionSecret  string
}

// addressRe matches a terraform resource address: type.name, optionally
// prefixed with module path segments (module.storage.google_storage_bucket.x).
var addressRe = regexp.MustCompile(`^(module\.[a-zA-Z0-9_-]+\.)*[a-z0-9_]+\.[a-zA-Z0-9_-]+$`)

// Resource describes one cloud resource the import reconciler manages:
// a human-readable name, the terraform address it should be tracked under,
// and the cloud provider's own identifier for it.
type Resource struct {
	Name    string
	Address string
	ID      string

	// Bucket marks storage buckets, whose existence is probed directly
	// before any import attempt (importing a missing bucket always fails).
	Bucket bool

	// ForceReimport clears the tracked-state entry before importing,
	// regardless of prior state content. RefreshTarget, when set, scopes
	// a state refresh run after a successful forced import.
	ForceReimport bool
	RefreshTarget string
}

// NewResource builds a Resource and validates its shape up front, so a
// malformed address fails here instead of inside a terraform invocation.
func NewResource(name, address, id string) (Resource, error) {
	r := Resource{Name: name, Address: address, ID: id}
	if err := r.Validate(); err != nil {
		return Resource{}, err
	}
	return r, nil
}

// Validate checks the descriptor's shape.
func (r Resource) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("resource has no name")
	}
	if !addressRe.MatchString(r.Address) {
		return fmt.Errorf("resource %s: malformed terraform address %q", r.Name, r.Address)
	}
	if r.ID == "" {
		return fmt.Errorf("resource %s: empty cloud identifier", r.Name)
	}
	return nil
}
