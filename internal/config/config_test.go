package config

import (
	"testing"
)

func validConfig() *Config {
	return &Config{
		BotToken:        "test-token",
		DBPassword:      "secret",
		JWTSecret:       "0123456789abcdef0123456789abcdef",
		AppEnv:          "development",
		MaxRealities:    2,
		NoRealityClaims: 2,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "Valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "Missing bot token",
			mutate:  func(c *Config) { c.BotToken = "" },
			wantErr: true,
		},
		{
			name:    "Missing db password",
			mutate:  func(c *Config) { c.DBPassword = "" },
			wantErr: true,
		},
		{
			name:    "Missing jwt secret",
			mutate:  func(c *Config) { c.JWTSecret = "" },
			wantErr: true,
		},
		{
			name:    "Short jwt secret",
			mutate:  func(c *Config) { c.JWTSecret = "too-short" },
			wantErr: true,
		},
		{
			name:    "Zero max realities",
			mutate:  func(c *Config) { c.MaxRealities = 0 },
			wantErr: true,
		},
		{
			name:    "Zero no-reality claims",
			mutate:  func(c *Config) { c.NoRealityClaims = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateProductionSecurity(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name: "Development skips checks",
			mutate: func(c *Config) {
				c.AppEnv = "development"
				c.DBSSLMode = "disable"
			},
			wantErr: false,
		},
		{
			name: "Production requires ssl",
			mutate: func(c *Config) {
				c.AppEnv = "production"
				c.DBSSLMode = "disable"
				c.AdminIDs = []int64{1}
			},
			wantErr: true,
		},
		{
			name: "Production requires admins",
			mutate: func(c *Config) {
				c.AppEnv = "production"
				c.DBSSLMode = "require"
				c.AdminIDs = nil
			},
			wantErr: true,
		},
		{
			name: "Production fully configured",
			mutate: func(c *Config) {
				c.AppEnv = "production"
				c.DBSSLMode = "require"
				c.AdminIDs = []int64{1}
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateProductionSecurity()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProductionSecurity() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "claimsbot",
		DBPassword: "secret",
		DBName:     "claimsbot_db",
		DBSSLMode:  "disable",
	}

	want := "host=localhost port=5432 user=claimsbot password=secret dbname=claimsbot_db sslmode=disable"
	if got := cfg.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}

func TestConfig_IsAdmin(t *testing.T) {
	cfg := validConfig()
	cfg.AdminIDs = []int64{100, 200}

	if !cfg.IsAdmin(100) {
		t.Error("IsAdmin(100) = false, want true")
	}
	if cfg.IsAdmin(300) {
		t.Error("IsAdmin(300) = true, want false")
	}
}
