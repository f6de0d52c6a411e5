package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"ctam-data/common/logger"
	"ctam-data/internal/app"
	"ctam-data/internal/config"
	"ctam-data/internal/service"
)

// provision-offices creates login accounts for every health office of one
// region, acting as an existing central admin.
func main() {
	regionID := flag.String("region", "", "health region id (required)")
	callerEmail := flag.String("caller", "", "central admin email (defaults to ADMIN_EMAIL)")
	flag.Parse()

	if *regionID == "" {
		fmt.Fprintln(os.Stderr, "usage: provision-offices -region <id> [-caller <email>]")
		os.Exit(2)
	}

	cfg := config.Load()
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "provision-offices")
	if err != nil {
		log, _ = zap.NewProduction()
	}
	defer log.Sync()

	if *callerEmail == "" {
		*callerEmail = cfg.Bootstrap.AdminEmail
	}

	repos, err := app.OpenRepositories(cfg, log)
	if err != nil {
		log.Fatal("Failed to open repositories", zap.String("store_mode", cfg.StoreMode), zap.Error(err))
	}
	defer repos.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	caller, err := repos.Profiles.GetByEmail(ctx, *callerEmail)
	if err != nil {
		log.Fatal("Caller profile not found", zap.String("email", *callerEmail), zap.Error(err))
	}

	svc := service.NewProvisioningService(repos.Profiles, repos.Credentials, repos.Organizations, cfg.Provision.EmailDomain, log)
	result, err := svc.ProvisionHealthOffices(ctx, service.ProvisionRequest{
		CallerID: caller.ID,
		RegionID: *regionID,
	})
	if err != nil {
		log.Fatal("Provisioning failed", zap.String("region_id", *regionID), zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	if len(result.Failed) > 0 {
		os.Exit(1)
	}
}
