// seed-admin creates or updates the admin employee (username: factoryAdmin)
// and prints a bearer token for the ops endpoints.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/factory_backend/config"
	"bitbucket.org/mmdatafocus/factory_backend/models"
	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"gorm.io/gorm"
)

const (
	adminUsername = "factoryAdmin"
	adminName     = "Factory Admin"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var existing models.Employee
	err := db.WithContext(ctx).Model(&models.Employee{}).Where("username = ?", adminUsername).First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Fprintf(os.Stderr, "failed to lookup employee: %v\n", err)
			os.Exit(1)
		}
		created, err := models.CreateEmployee(ctx, db, &models.NewEmployee{
			Name:     adminName,
			Username: adminUsername,
			Role:     models.EmployeeRoleAdmin,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin: %v\n", err)
			os.Exit(1)
		}
		existing = *created
		fmt.Printf("Created admin employee: username=%q\n", adminUsername)
	} else {
		updates := map[string]interface{}{
			"name":      adminName,
			"role":      models.EmployeeRoleAdmin,
			"is_active": true,
		}
		if err := db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to update admin: %v\n", err)
			os.Exit(1)
		}
		existing.Name = adminName
		existing.Role = models.EmployeeRoleAdmin
		fmt.Printf("Updated admin employee: username=%q\n", adminUsername)
	}

	token, err := utils.JwtGenerate(existing.ID, existing.Name, string(existing.Role))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
