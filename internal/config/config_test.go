package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("TOKEN_EXPIRY", "")
	t.Setenv("JWT_SECRET", "")

	cfg := Load()

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTokenDuration)
	assert.Equal(t, defaultJWTSecret, cfg.JWT.Secret)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowOrigins)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.AMQP.Enabled)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DB_PORT", "")
	t.Setenv("TOKEN_EXPIRY", "30m")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("AMQP_ENABLED", "1")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("MAX_FAILED_ATTEMPTS", "not-a-number")

	cfg := Load()

	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTokenDuration)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.True(t, cfg.Redis.Enabled)
	assert.True(t, cfg.AMQP.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowOrigins)
	assert.Equal(t, 5, cfg.Security.MaxFailedAttempts)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	pg := DatabaseConfig{Driver: DriverPostgres, Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", pg.DSN())

	my := DatabaseConfig{Driver: DriverMySQL, Host: "db", Port: "3306", User: "u", Password: "p", Name: "n"}
	assert.Equal(t, "u:p@tcp(db:3306)/n?charset=utf8mb4&parseTime=true&loc=UTC", my.DSN())

	lite := DatabaseConfig{Driver: DriverSQLite, Path: "/tmp/ledger.db"}
	assert.Equal(t, "/tmp/ledger.db", lite.DSN())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Environment: "development"},
			Database: DatabaseConfig{Driver: DriverPostgres},
			JWT:      JWTConfig{Secret: defaultJWTSecret, AccessTokenDuration: time.Hour},
		}
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Database.Driver = "oracle"
	assert.ErrorContains(t, cfg.Validate(), "unsupported DB_DRIVER")

	cfg = valid()
	cfg.JWT.Secret = ""
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET must not be empty")

	cfg = valid()
	cfg.Server.Environment = "production"
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET must be set in production")

	cfg = valid()
	cfg.JWT.AccessTokenDuration = 0
	assert.ErrorContains(t, cfg.Validate(), "TOKEN_EXPIRY")
}
