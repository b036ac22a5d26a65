package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// configEnvKeys are the PAYTRACK_ variables the tests touch. clearConfigEnv
// stashes and unsets them all so each subtest starts from defaults; t.Cleanup
// puts the caller's environment back.
var configEnvKeys = []string{
	"PAYTRACK_APP_NAME",
	"PAYTRACK_APP_ENV",
	"PAYTRACK_APP_PORT",
	"PAYTRACK_DATABASE_HOST",
	"PAYTRACK_DATABASE_PORT",
	"PAYTRACK_DATABASE_USER",
	"PAYTRACK_DATABASE_PASSWORD",
	"PAYTRACK_DATABASE_DBNAME",
	"PAYTRACK_DATABASE_SSLMODE",
	"PAYTRACK_DATABASE_MAX_OPEN_CONNS",
	"PAYTRACK_DATABASE_MAX_IDLE_CONNS",
	"PAYTRACK_CACHE_BACKEND",
	"PAYTRACK_CACHE_DASHBOARD_TTL",
	"PAYTRACK_STORAGE_BUCKET",
	"PAYTRACK_STORAGE_IN_MEMORY",
	"PAYTRACK_JWT_SECRET",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		if v, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, v) })
			os.Unsetenv(k)
		}
	}
}

func setEnv(t *testing.T, pairs map[string]string) {
	t.Helper()
	for k, v := range pairs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "paytrack-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Empty(t, cfg.Database.Password)
	assert.Equal(t, "paytrack", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)

	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, time.Minute, cfg.Cache.DashboardTTL)
	assert.Equal(t, "paytrack-attachments", cfg.Storage.Bucket)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearConfigEnv(t)
	setEnv(t, map[string]string{
		"PAYTRACK_APP_NAME":                "test-app",
		"PAYTRACK_APP_ENV":                 "testing",
		"PAYTRACK_APP_PORT":                "9000",
		"PAYTRACK_DATABASE_HOST":           "testdb.local",
		"PAYTRACK_DATABASE_PORT":           "5433",
		"PAYTRACK_DATABASE_USER":           "testuser",
		"PAYTRACK_DATABASE_PASSWORD":       "testpass",
		"PAYTRACK_DATABASE_DBNAME":         "testdb",
		"PAYTRACK_DATABASE_SSLMODE":        "require",
		"PAYTRACK_DATABASE_MAX_OPEN_CONNS": "50",
		"PAYTRACK_DATABASE_MAX_IDLE_CONNS": "10",
		"PAYTRACK_CACHE_BACKEND":           "redis",
		"PAYTRACK_CACHE_DASHBOARD_TTL":     "90s",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-app", cfg.App.Name)
	assert.Equal(t, "testing", cfg.App.Env)
	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "testdb.local", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "testuser", cfg.Database.User)
	assert.Equal(t, "testpass", cfg.Database.Password)
	assert.Equal(t, "testdb", cfg.Database.DBName)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, 10, cfg.Database.MaxIdleConns)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 90*time.Second, cfg.Cache.DashboardTTL)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("idle connections cannot exceed open connections", func(t *testing.T) {
		clearConfigEnv(t)
		setEnv(t, map[string]string{
			"PAYTRACK_DATABASE_MAX_OPEN_CONNS": "10",
			"PAYTRACK_DATABASE_MAX_IDLE_CONNS": "20",
		})

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero pool size falls back to the default", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("PAYTRACK_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("unknown cache backend rejected", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("PAYTRACK_CACHE_BACKEND", "memcached")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cache.backend")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	// A minimal environment that passes every production check; each
	// subtest knocks one requirement out.
	productionEnv := func() map[string]string {
		return map[string]string{
			"PAYTRACK_APP_ENV":           "production",
			"PAYTRACK_JWT_SECRET":        "this-is-a-very-secure-jwt-secret-key-32chars",
			"PAYTRACK_DATABASE_PASSWORD": "secure-password",
			"PAYTRACK_DATABASE_SSLMODE":  "require",
		}
	}

	tests := []struct {
		name    string
		mutate  func(map[string]string)
		wantErr string
	}{
		{
			name:   "valid production config passes",
			mutate: func(env map[string]string) {},
		},
		{
			name:    "jwt secret required",
			mutate:  func(env map[string]string) { delete(env, "PAYTRACK_JWT_SECRET") },
			wantErr: "jwt.secret is required in production",
		},
		{
			name:    "jwt secret must be long enough",
			mutate:  func(env map[string]string) { env["PAYTRACK_JWT_SECRET"] = "short-secret" },
			wantErr: "jwt.secret must be at least 32 characters",
		},
		{
			name:    "database password required",
			mutate:  func(env map[string]string) { delete(env, "PAYTRACK_DATABASE_PASSWORD") },
			wantErr: "database.password is required in production",
		},
		{
			name:    "ssl cannot be disabled",
			mutate:  func(env map[string]string) { env["PAYTRACK_DATABASE_SSLMODE"] = "disable" },
			wantErr: "database.sslmode cannot be 'disable' in production",
		},
		{
			name:    "in-memory storage rejected",
			mutate:  func(env map[string]string) { env["PAYTRACK_STORAGE_IN_MEMORY"] = "true" },
			wantErr: "storage.in_memory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			env := productionEnv()
			tt.mutate(env)
			setEnv(t, env)

			cfg, err := Load()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "production", cfg.App.Env)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
		SSLMode:  "disable",
	}

	t.Run("carries every connection component", func(t *testing.T) {
		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("url-escapes the password", func(t *testing.T) {
		withSymbols := cfg
		withSymbols.Password = "pass@word#123"
		assert.Contains(t, withSymbols.DSN(), "pass%40word%23123")
	})

	t.Run("empty password still yields a DSN", func(t *testing.T) {
		noPassword := cfg
		noPassword.Password = ""
		assert.NotEmpty(t, noPassword.DSN())
	})
}
