package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ensureSessionSecret makes sure the session-key secret exists and carries
// at least one version. The key itself is generated once and never rotated
// here: rotating it would invalidate every active user session.
func ensureSessionSecret(ctx context.Context, projectID, secretID string) error {
	client, err := gcp.Secrets(ctx)
	if err != nil {
		return fmt.Errorf("secret manager client: %w", err)
	}

	_, err = client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   "projects/" + projectID,
		SecretId: secretID,
		Secret: &secretmanagerpb.Secret{
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{
					Automatic: &secretmanagerpb.Replication_Automatic{},
				},
			},
		},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("create secret %s: %w", secretID, err)
	}

	hasVersions, err := secretHasVersions(ctx, client, projectID, secretID)
	if err != nil {
		return fmt.Errorf("check secret versions: %w", err)
	}
	if hasVersions {
		log.Printf("[secrets] %s already has a version, leaving it alone", secretID)
		return nil
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("generate session key: %w", err)
	}
	if err := writeSecretVersion(ctx, client, projectID, secretID, key); err != nil {
		return err
	}
	log.Printf("[secrets] generated initial session key for %s", secretID)
	return nil
}

// secretHasVersions checks whether a Secret Manager secret already has at least one version.
func secretHasVersions(ctx context.Context, client *secretmanager.Client, projectID, secretID string) (bool, error) {
	it := client.ListSecretVersions(ctx, &secretmanagerpb.ListSecretVersionsRequest{
		Parent:   fmt.Sprintf("projects/%s/secrets/%s", projectID, secretID),
		PageSize: 1,
	})
	_, err := it.Next()
	if err != nil {
		if err == iterator.Done {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// writeSecretVersion adds a new version to an existing Secret Manager secret.
func writeSecretVersion(ctx context.Context, client *secretmanager.Client, projectID, secretID string, data []byte) error {
	_, err := client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent: fmt.Sprintf("projects/%s/secrets/%s", projectID, secretID),
		Payload: &secretmanagerpb.SecretPayload{
			Data: data,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to add secret version for %s: %w", secretID, err)
	}
	return nil
}
