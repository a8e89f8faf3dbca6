// Package config handles loading and validating Tasklane Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Loading a .env file for local development
//   - Overriding with TASKLANE_* environment variables
//   - Validation of required fields
//
// Security Considerations:
//   - The JWT signing secret should be set via TASKLANE_JWT_SECRET, never committed
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
