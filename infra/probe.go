package infra

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	artifactregistry "cloud.google.com/go/artifactregistry/apiv1"
	"cloud.google.com/go/artifactregistry/apiv1/artifactregistrypb"
	firestoreadmin "cloud.google.com/go/firestore/apiv1/admin"
	"cloud.google.com/go/firestore/apiv1/admin/adminpb"
	run "cloud.google.com/go/run/apiv2"
	"cloud.google.com/go/run/apiv2/runpb"
	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	iamv1 "google.golang.org/api/iam/v1"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Probes lazily creates and caches the GCP clients used for existence
// checks, so repeated probes don't hit OAuth2 token endpoints every time.
type Probes struct {
	mu        sync.Mutex
	storage   *storage.Client
	iam       *iamv1.Service
	firestore *firestoreadmin.FirestoreAdminClient
	registry  *artifactregistry.Client
	runsvc    *run.ServicesClient
}

// NewProbes returns an empty probe pool; clients are created on first use.
func NewProbes() *Probes {
	return &Probes{}
}

// Close closes all cached clients. Safe to call multiple times.
func (p *Probes) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.storage != nil {
		_ = p.storage.Close()
		p.storage = nil
	}
	if p.firestore != nil {
		_ = p.firestore.Close()
		p.firestore = nil
	}
	if p.registry != nil {
		_ = p.registry.Close()
		p.registry = nil
	}
	if p.runsvc != nil {
		_ = p.runsvc.Close()
		p.runsvc = nil
	}
	p.iam = nil
}

func (p *Probes) storageClient(ctx context.Context) (*storage.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.storage != nil {
		return p.storage, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("[probe] created storage client")
	p.storage = client
	return client, nil
}

func (p *Probes) iamService(ctx context.Context) (*iamv1.Service, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.iam != nil {
		return p.iam, nil
	}
	svc, err := iamv1.NewService(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("[probe] created iam client")
	p.iam = svc
	return svc, nil
}

func (p *Probes) firestoreAdmin(ctx context.Context) (*firestoreadmin.FirestoreAdminClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.firestore != nil {
		return p.firestore, nil
	}
	client, err := firestoreadmin.NewFirestoreAdminClient(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("[probe] created firestore admin client")
	p.firestore = client
	return client, nil
}

func (p *Probes) registryClient(ctx context.Context) (*artifactregistry.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.registry != nil {
		return p.registry, nil
	}
	client, err := artifactregistry.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("[probe] created artifact registry client")
	p.registry = client
	return client, nil
}

func (p *Probes) runClient(ctx context.Context) (*run.ServicesClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.runsvc != nil {
		return p.runsvc, nil
	}
	client, err := run.NewServicesClient(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("[probe] created cloud run client")
	p.runsvc = client
	return client, nil
}

// BucketExists reports whether the named storage bucket exists.
func (p *Probes) BucketExists(ctx context.Context, name string) (bool, error) {
	client, err := p.storageClient(ctx)
	if err != nil {
		return false, err
	}
	_, err = client.Bucket(name).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrBucketNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("bucket %s: %w", name, err)
	}
	return true, nil
}

// ServiceAccountExists reports whether the service account email exists
// in the project.
func (p *Probes) ServiceAccountExists(ctx context.Context, projectID, email string) (bool, error) {
	svc, err := p.iamService(ctx)
	if err != nil {
		return false, err
	}
	name := fmt.Sprintf("projects/%s/serviceAccounts/%s", projectID, email)
	_, err = svc.Projects.ServiceAccounts.Get(name).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 404 {
			return false, nil
		}
		return false, fmt.Errorf("service account %s: %w", email, err)
	}
	return true, nil
}

// DatabaseExists reports whether the Firestore database exists.
func (p *Probes) DatabaseExists(ctx context.Context, projectID, databaseID string) (bool, error) {
	client, err := p.firestoreAdmin(ctx)
	if err != nil {
		return false, err
	}
	name := fmt.Sprintf("projects/%s/databases/%s", projectID, databaseID)
	_, err = client.GetDatabase(ctx, &adminpb.GetDatabaseRequest{Name: name})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("database %s: %w", databaseID, err)
	}
	return true, nil
}

// RepositoryExists reports whether the Artifact Registry repository exists.
func (p *Probes) RepositoryExists(ctx context.Context, projectID, location, repo string) (bool, error) {
	client, err := p.registryClient(ctx)
	if err != nil {
		return false, err
	}
	name := fmt.Sprintf("projects/%s/locations/%s/repositories/%s", projectID, location, repo)
	_, err = client.GetRepository(ctx, &artifactregistrypb.GetRepositoryRequest{Name: name})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("repository %s: %w", repo, err)
	}
	return true, nil
}

// ServiceExists reports whether the Cloud Run service exists.
func (p *Probes) ServiceExists(ctx context.Context, projectID, location, service string) (bool, error) {
	client, err := p.runClient(ctx)
	if err != nil {
		return false, err
	}
	name := fmt.Sprintf("projects/%s/locations/%s/services/%s", projectID, location, service)
	_, err = client.GetService(ctx, &runpb.GetServiceRequest{Name: name})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("cloud run service %s: %w", service, err)
	}
	return true, nil
}

// IsAuthError returns true if the error indicates expired or invalid GCP
// credentials, so callers can point the user at gcloud auth instead of
// reporting a generic failure.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == 401 || gerr.Code == 403) {
		return true
	}
	if c := status.Code(err); c == codes.Unauthenticated {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "oauth2: cannot fetch token") ||
		strings.Contains(msg, "invalid_grant") ||
		strings.Contains(msg, "token expired") ||
		strings.Contains(msg, "credentials")
}
