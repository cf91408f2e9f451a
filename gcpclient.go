package main

import (
	"context"
	"log"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"google.golang.org/api/cloudresourcemanager/v1"
	"google.golang.org/api/serviceusage/v1"
)

// gcpClients lazily creates and caches the GCP clients used by the
// post-apply steps, so each deploy hits the OAuth2 token endpoint once
// per service instead of per call.
type gcpClients struct {
	mu        sync.Mutex
	secrets   *secretmanager.Client
	usage     *serviceusage.Service
	resources *cloudresourcemanager.Service
}

// gcp is the global cached client pool, used by secrets.go, apis.go and iam.go.
var gcp gcpClients

// Secrets returns a cached Secret Manager client, creating it on first call.
func (g *gcpClients) Secrets(ctx context.Context) (*secretmanager.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.secrets != nil {
		return g.secrets, nil
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("[gcpclient] created secret manager client")
	g.secrets = client
	return client, nil
}

// Usage returns a cached Service Usage client, creating it on first call.
func (g *gcpClients) Usage(ctx context.Context) (*serviceusage.Service, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.usage != nil {
		return g.usage, nil
	}

	svc, err := serviceusage.NewService(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("[gcpclient] created service usage client")
	g.usage = svc
	return svc, nil
}

// Resources returns a cached Resource Manager client, creating it on first call.
func (g *gcpClients) Resources(ctx context.Context) (*cloudresourcemanager.Service, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.resources != nil {
		return g.resources, nil
	}

	svc, err := cloudresourcemanager.NewService(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("[gcpclient] created resource manager client")
	g.resources = svc
	return svc, nil
}

// Close closes all cached clients. Safe to call multiple times.
func (g *gcpClients) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.secrets != nil {
		_ = g.secrets.Close()
		g.secrets = nil
	}
	g.usage = nil
	g.resources = nil
}
