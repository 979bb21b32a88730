// Package config handles loading and validating Kanban API configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with KANBAN_* environment variables
//   - Validation of required fields
//
// Security Considerations:
//   - The JWT signing secret has no default; startup fails without it
//   - Sensitive values (secrets, broker passwords, tokens) should come from the environment
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
