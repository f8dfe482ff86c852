package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/gatehouse.db"

	// Guard claims
	JWTSecret     string
	ClaimTTLHours int

	// Token policy: "single_use" (default) or "permanent"
	TokenMode string

	// Expired-token retention
	TokenRetentionDays int // 0 = keep forever
	SweepIntervalHours int // how often the sweeper runs (default 6)
}

func FromEnv() Config {
	addr := getenvDefault("GATEHOUSE_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("GATEHOUSE_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	dbPath := getenvDefault("GATEHOUSE_DB_PATH", "./data/gatehouse.db")

	jwtSecret := getenvDefault("GATEHOUSE_JWT_SECRET", "dev-only-secret")
	claimTTL := getenvInt("GATEHOUSE_CLAIM_TTL_HOURS", 8)

	mode := strings.ToLower(getenvDefault("GATEHOUSE_TOKEN_MODE", "single_use"))
	if mode != "single_use" && mode != "permanent" {
		mode = "single_use"
	}

	retentionDays := getenvInt("GATEHOUSE_TOKEN_RETENTION_DAYS", 30)
	sweepInterval := getenvInt("GATEHOUSE_SWEEP_INTERVAL_HOURS", 6)

	return Config{
		HTTPAddr: addr,
		Env:      env,
		DBPath:   dbPath,

		JWTSecret:     jwtSecret,
		ClaimTTLHours: claimTTL,

		TokenMode: mode,

		TokenRetentionDays: retentionDays,
		SweepIntervalHours: sweepInterval,
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
