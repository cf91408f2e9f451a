package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"google.golang.org/api/serviceusage/v1"
)

// requiredServices are the APIs the deployed application and this tool
// depend on. BatchEnable is idempotent for already-enabled services.
var requiredServices = []string{
	"run.googleapis.com",
	"firestore.googleapis.com",
	"storage.googleapis.com",
	"artifactregistry.googleapis.com",
	"secretmanager.googleapis.com",
	"aiplatform.googleapis.com",
	"iap.googleapis.com",
	"bigquery.googleapis.com",
}

// enableServices turns on all required APIs and waits for the enablement
// operation to finish. This is project initialization: a failure here is
// fatal to the deploy.
func enableServices(ctx context.Context, projectID string) error {
	svc, err := gcp.Usage(ctx)
	if err != nil {
		return fmt.Errorf("service usage client: %w", err)
	}

	parent := "projects/" + projectID
	log.Printf("[apis] enabling %d services on %s", len(requiredServices), parent)

	op, err := svc.Services.BatchEnable(parent, &serviceusage.BatchEnableServicesRequest{
		ServiceIds: requiredServices,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch enable: %w", err)
	}

	op, err = waitOperation(ctx, svc, op, 5*time.Minute)
	if err != nil {
		return err
	}
	if op.Error != nil {
		return fmt.Errorf("batch enable: %s (code %d)", op.Error.Message, op.Error.Code)
	}

	log.Printf("[apis] all services enabled")
	return nil
}

// waitOperation polls a service usage long-running operation until it
// completes or the deadline passes.
func waitOperation(ctx context.Context, svc *serviceusage.Service, op *serviceusage.Operation, timeout time.Duration) (*serviceusage.Operation, error) {
	deadline := time.Now().Add(timeout)
	for !op.Done {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("operation %s did not finish within %s", op.Name, timeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
		var err error
		op, err = svc.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("poll operation: %w", err)
		}
	}
	return op, nil
}
