// seed-workshops creates the default extrusion and packaging workshops with
// their piece-rate services. Existing workshops (matched by name) are left unchanged.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-workshops
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/factory_backend/config"
	"bitbucket.org/mmdatafocus/factory_backend/models"
	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var defaultWorkshops = []struct {
	name  string
	price string
}{
	{"Экструзионный цех", "0.35"},
	{"Пакетоделательный цех", "0.50"},
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if err := models.AutoMigrate(db); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	for _, seed := range defaultWorkshops {
		var existing models.Workshop
		err := db.WithContext(ctx).Where("name = ?", seed.name).First(&existing).Error
		if err == nil {
			fmt.Printf("workshop %q exists (id=%d role=%q)\n", seed.name, existing.ID, existing.Role)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Fprintf(os.Stderr, "failed to lookup workshop: %v\n", err)
			os.Exit(1)
		}

		role, _ := models.ClassifyWorkshopName(seed.name)
		w, err := models.CreateWorkshop(ctx, db, &models.NewWorkshop{Name: seed.name, Role: role})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create workshop: %v\n", err)
			os.Exit(1)
		}
		price, _ := decimal.NewFromString(seed.price)
		if _, err := models.CreateService(ctx, db, &models.NewService{
			WorkshopId: w.ID,
			Name:       "piece rate",
			Price:      price,
			IsActive:   utils.NewTrue(),
		}); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create service: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created workshop %q (id=%d role=%q rate=%s)\n", w.Name, w.ID, w.Role, price)
	}
}
