package main

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/shubhamkhetanbtc/vertex-ai-creative-studio/infra"
)

const (
	budgetsCollection = "budgets"
	usersCollection   = "users"

	defaultBudgetAmount = 1000.0
)

// defaultDepartments get a starter budget document each so the app's
// department selector is never empty on a fresh deployment.
var defaultDepartments = []string{
	"Creative",
	"Marketing",
	"Engineering",
}

// seedBudgetDatabase writes the initial documents to the budget database.
// Every write is create-if-missing: existing budgets and user profiles are
// never touched, so re-running a deploy cannot clobber live data.
func seedBudgetDatabase(ctx context.Context, c infra.InfraConfig) error {
	client, err := firestore.NewClientWithDatabase(ctx, c.ProjectID, c.BudgetDBID)
	if err != nil {
		return fmt.Errorf("firestore client for %s: %w", c.BudgetDBID, err)
	}
	defer client.Close()

	created := 0
	for _, dept := range defaultDepartments {
		_, err := client.Collection(budgetsCollection).Doc(dept).Create(ctx, map[string]any{
			"amount": defaultBudgetAmount,
		})
		if err != nil {
			if status.Code(err) == codes.AlreadyExists {
				continue
			}
			return fmt.Errorf("seed budget for %s: %w", dept, err)
		}
		created++
	}

	if c.AdminEmail != "" {
		_, err := client.Collection(usersCollection).Doc(c.AdminEmail).Create(ctx, map[string]any{
			"department": defaultDepartments[0],
		})
		if err != nil && status.Code(err) != codes.AlreadyExists {
			return fmt.Errorf("seed admin user: %w", err)
		}
		if err == nil {
			created++
		}
	}

	log.Printf("[seed] budget database ready (%d documents created)", created)
	return nil
}
