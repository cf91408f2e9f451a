package main

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/api/cloudresourcemanager/v1"

	"github.com/shubhamkhetanbtc/vertex-ai-creative-studio/infra"
)

// appRoles are the runtime roles the app service account needs.
var appRoles = []string{
	"roles/datastore.user",
	"roles/storage.objectAdmin",
	"roles/secretmanager.secretAccessor",
	"roles/aiplatform.user",
	"roles/bigquery.jobUser",
	"roles/logging.logWriter",
}

// bindServiceAccounts grants the app service account its runtime roles and
// the admin user IAP access, via a read-modify-write of the project policy.
func bindServiceAccounts(ctx context.Context, c infra.InfraConfig) error {
	svc, err := gcp.Resources(ctx)
	if err != nil {
		return fmt.Errorf("resource manager client: %w", err)
	}

	policy, err := svc.Projects.GetIamPolicy(c.ProjectID, &cloudresourcemanager.GetIamPolicyRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get iam policy: %w", err)
	}

	appMember := fmt.Sprintf("serviceAccount:%s@%s.iam.gserviceaccount.com", c.AppSAName, c.ProjectID)
	changed := false
	for _, role := range appRoles {
		if addBinding(policy, role, appMember) {
			changed = true
		}
	}
	if c.AdminEmail != "" {
		if addBinding(policy, "roles/iap.httpsResourceAccessor", "user:"+c.AdminEmail) {
			changed = true
		}
	}

	if !changed {
		log.Printf("[iam] policy already up to date")
		return nil
	}

	_, err = svc.Projects.SetIamPolicy(c.ProjectID, &cloudresourcemanager.SetIamPolicyRequest{
		Policy: policy,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("set iam policy: %w", err)
	}
	log.Printf("[iam] bound %s to %d roles", appMember, len(appRoles))
	return nil
}

// addBinding adds member to the binding for role, creating the binding if
// needed. Returns true if the policy was modified.
func addBinding(policy *cloudresourcemanager.Policy, role, member string) bool {
	for _, b := range policy.Bindings {
		if b.Role != role {
			continue
		}
		for _, m := range b.Members {
			if m == member {
				return false
			}
		}
		b.Members = append(b.Members, member)
		return true
	}
	policy.Bindings = append(policy.Bindings, &cloudresourcemanager.Binding{
		Role:    role,
		Members: []string{member},
	})
	return true
}
