// Command seed creates the default admin and manager accounts. Existing
// accounts are left untouched.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/pflag"

	"pharmacy_backend/internal/config"
	"pharmacy_backend/internal/database"
	"pharmacy_backend/internal/repositories"
	"pharmacy_backend/internal/services"
	"pharmacy_backend/pkg/utils"
)

func main() {
	configPath := pflag.String("config", "", "path to a YAML config file")
	applySchema := pflag.Bool("apply-schema", false, "apply the embedded schema before seeding")
	adminPassword := pflag.String("admin-password", "admin123", "password for admin@drugwell.com")
	managerPassword := pflag.String("manager-password", "manager123", "password for manager@drugwell.com")
	pflag.Parse()

	var args []string
	if *configPath != "" {
		args = []string{"--config", *configPath}
	}
	cfg, err := config.Load(args)
	if err != nil {
		utils.InitLogger(utils.LoggerOptions{})
		utils.LogError(err, "Failed to load configuration")
		os.Exit(2)
	}
	utils.InitLogger(cfg.Log)

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		utils.LogError(err, "Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if *applySchema || cfg.SchemaApply {
		if err := database.ApplySchema(ctx, db); err != nil {
			utils.LogError(err, "Failed to apply schema")
			os.Exit(1)
		}
	}

	auth := services.NewAuthService(repositories.NewAuthRepository(db), db, nil)
	users := []services.SignupRequest{
		{Name: "Admin", Email: "admin@drugwell.com", Password: *adminPassword, Role: "admin"},
		{Name: "Manager", Email: "manager@drugwell.com", Password: *managerPassword, Role: "manager"},
	}

	failed := false
	for _, req := range users {
		if _, err := auth.Signup(ctx, req); err != nil {
			if errors.Is(err, services.ErrEmailExists) {
				utils.LogInfo("User already exists", map[string]interface{}{"email": req.Email})
				continue
			}
			utils.LogError(err, "Failed to seed user "+req.Email)
			failed = true
			continue
		}
		utils.LogInfo("User created", map[string]interface{}{"email": req.Email})
	}

	if failed {
		os.Exit(1)
	}
	utils.LogInfo("Seeding completed")
}
