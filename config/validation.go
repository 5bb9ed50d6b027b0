package config

import (
	"fmt"
	"strings"
)

// ValidateConfig checks that the fields the process cannot run without
// are present. Outside production an empty JWT secret is replaced with a
// development default instead of failing startup.
func ValidateConfig(cfg *Config) error {
	var errs []string

	if cfg.JWTSecret == "" {
		if IsProduction() {
			errs = append(errs, "JWT_SECRET (or jwt_secret secret) is required")
		} else {
			cfg.JWTSecret = "dev-secret-do-not-use-in-prod"
		}
	}

	if IsProduction() {
		if cfg.DBPassword == "" {
			errs = append(errs, "DB_PASSWORD (or db_password secret) is required")
		}
		if cfg.DBSSLMode == "disable" {
			errs = append(errs, "DB_SSL_MODE must not be disable in production")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
