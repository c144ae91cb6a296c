package config

import (
	"os"
	"testing"
)

func TestLoad_WithDefaults(t *testing.T) {
	clearConfigEnvVars()

	// Password has no default.
	os.Setenv("DB_PASSWORD", "testpass")
	defer os.Unsetenv("DB_PASSWORD")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Env != "development" {
		t.Errorf("Expected env development, got %s", cfg.Server.Env)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected host localhost, got %s", cfg.Database.Host)
	}
	if cfg.Database.Name != "cadastre" {
		t.Errorf("Expected db name cadastre, got %s", cfg.Database.Name)
	}
	if cfg.Database.PoolMin != 2 || cfg.Database.PoolMax != 10 {
		t.Errorf("Expected pool 2..10, got %d..%d", cfg.Database.PoolMin, cfg.Database.PoolMax)
	}
	if len(cfg.CORS.Origins) != 1 {
		t.Errorf("Expected 1 CORS origin, got %d", len(cfg.CORS.Origins))
	}
	if cfg.Valuation.MachineryResidualPct != 20.0 {
		t.Errorf("Expected machinery residual 20, got %f", cfg.Valuation.MachineryResidualPct)
	}
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("ENV", "production")
	os.Setenv("DB_HOST", "db.internal")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("DB_NAME", "assessments")
	os.Setenv("DB_USER", "assessor")
	os.Setenv("DB_PASSWORD", "secret")
	os.Setenv("DB_POOL_MIN", "5")
	os.Setenv("DB_POOL_MAX", "20")
	os.Setenv("CORS_ORIGINS", "http://example.com,https://app.example.com")
	os.Setenv("MACHINERY_RESIDUAL_PCT", "15")
	defer clearConfigEnvVars()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Database.Name != "assessments" {
		t.Errorf("Expected db name assessments, got %s", cfg.Database.Name)
	}
	if cfg.Database.PoolMin != 5 || cfg.Database.PoolMax != 20 {
		t.Errorf("Expected pool 5..20, got %d..%d", cfg.Database.PoolMin, cfg.Database.PoolMax)
	}
	if len(cfg.CORS.Origins) != 2 {
		t.Errorf("Expected 2 CORS origins, got %d", len(cfg.CORS.Origins))
	}
	if cfg.Valuation.MachineryResidualPct != 15.0 {
		t.Errorf("Expected machinery residual 15, got %f", cfg.Valuation.MachineryResidualPct)
	}
}

func TestLoad_MissingPassword(t *testing.T) {
	clearConfigEnvVars()

	if _, err := Load(); err == nil {
		t.Fatal("Expected Load() to fail without DB_PASSWORD")
	}
}

func TestValidate_PoolBounds(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080", Env: "test"},
			Database:  DatabaseConfig{Host: "h", Port: "5432", Name: "n", User: "u", Password: "p", PoolMin: 2, PoolMax: 10},
			CORS:      CORSConfig{Origins: []string{"http://localhost:3000"}},
			Valuation: ValuationConfig{MachineryResidualPct: 20},
		}
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	cfg = base()
	cfg.Database.PoolMin = 20
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error when pool min exceeds pool max")
	}

	cfg = base()
	cfg.Database.PoolMax = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error when pool max is zero")
	}
}

func TestValidate_ResidualPctBounds(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: "8080"},
		Database:  DatabaseConfig{Host: "h", Port: "5432", Name: "n", User: "u", Password: "p", PoolMin: 1, PoolMax: 2},
		CORS:      CORSConfig{Origins: []string{"http://localhost:3000"}},
		Valuation: ValuationConfig{MachineryResidualPct: 120},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for residual percentage above 100")
	}
}

func TestParseOrigins(t *testing.T) {
	got := parseOrigins(" http://a.test , http://b.test ,")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("parseOrigins returned %v", got)
	}

	if got := parseOrigins(""); len(got) != 0 {
		t.Errorf("Expected empty slice for empty input, got %v", got)
	}
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"PORT", "ENV",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_POOL_MIN", "DB_POOL_MAX",
		"CORS_ORIGINS", "MACHINERY_RESIDUAL_PCT",
	} {
		os.Unsetenv(key)
	}
}
