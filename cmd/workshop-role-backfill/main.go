// workshop-role-backfill sets the explicit role of workshops created before
// the role column existed, from the legacy name rule (extrusion / packaging
// stems, Russian and English). Workshops that already have a role are kept.
// Unclassified workshops are reported and must be fixed by hand; production
// reports from their employees are rejected until then.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/workshop-role-backfill [-dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/factory_backend/config"
	"bitbucket.org/mmdatafocus/factory_backend/models"
	"github.com/sirupsen/logrus"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report without writing")
	flag.Parse()

	ctx := context.Background()
	logger := config.GetLogger()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	result, err := models.BackfillWorkshopRoles(ctx, db, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backfill failed: %v\n", err)
		os.Exit(1)
	}

	for _, w := range result.Assigned {
		fmt.Printf("workshop %d %q -> %s\n", w.ID, w.Name, w.Role)
	}
	for _, w := range result.Unclassified {
		logger.WithFields(logrus.Fields{
			"field":       "WorkshopRoleBackfill",
			"workshop_id": w.ID,
			"name":        w.Name,
		}).Warn("workshop name matches no production role; set the role manually")
	}
	fmt.Printf("assigned=%d unclassified=%d already_set=%d dry_run=%v\n",
		len(result.Assigned), len(result.Unclassified), len(result.Skipped), *dryRun)
	if len(result.Unclassified) > 0 {
		os.Exit(3)
	}
}
