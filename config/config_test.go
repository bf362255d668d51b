package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "5000", c.AppPort)
	assert.Equal(t, "mongo", c.DBDriver)
	assert.Equal(t, "local", c.StorageDriver)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, 100, c.MaxPageSize)
	assert.Equal(t, 5, c.MaxMediaFiles)
	assert.Equal(t, 50, c.MaxUploadMB)
	assert.False(t, c.CascadeDeleteComments)
	assert.Equal(t, 72*time.Hour, c.TokenTTL())
	assert.Equal(t, 10*time.Second, c.StoreTimeout())
	assert.Equal(t, 30*time.Second, c.CacheTTL())
	assert.Empty(t, c.RedisHost)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.io, http://b.io ,")
	t.Setenv("MAX_PAGE_SIZE", "0")
	t.Setenv("CASCADE_DELETE_COMMENTS", "true")
	t.Setenv("TOKEN_TTL_HOURS", "1")

	var c AppConfig
	applyDefaults(&c)
	applyEnvOverrides(&c)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, []string{"http://a.io", "http://b.io"}, c.AllowedOrigins)
	assert.Equal(t, 0, c.MaxPageSize)
	assert.True(t, c.CascadeDeleteComments)
	assert.Equal(t, time.Hour, c.TokenTTL())
}

func TestAppPortWinsOverPort(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("APP_PORT", "9090")
	var c AppConfig
	applyEnvOverrides(&c)
	assert.Equal(t, "9090", c.AppPort)
}

func TestLoadJSONConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"app": {"AppPort": "7000", "AllowedOrigins": ["http://x.io"], "MaxPageSize": 20, "CascadeDeleteComments": true},
		"database": {"Driver": "mysql", "DBName": "hub", "TimeoutSeconds": 3},
		"mongo": {"URI": "mongodb://db:27017", "Database": "hub"},
		"redis": {"RedisHost": "cache", "RedisPort": 6380},
		"storage": {"Driver": "s3", "S3Bucket": "media", "MaxMediaFiles": 3}
	}`), 0o600))

	var c AppConfig
	require.NoError(t, loadJSONConfig(path, &c))
	assert.Equal(t, "7000", c.AppPort)
	assert.Equal(t, []string{"http://x.io"}, c.AllowedOrigins)
	assert.Equal(t, 20, c.MaxPageSize)
	assert.True(t, c.CascadeDeleteComments)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, 3*time.Second, c.StoreTimeout())
	assert.Equal(t, "mongodb://db:27017", c.MongoURI)
	assert.Equal(t, "cache", c.RedisHost)
	assert.Equal(t, 6380, c.RedisPort)
	assert.Equal(t, "s3", c.StorageDriver)
	assert.Equal(t, 3, c.MaxMediaFiles)

	assert.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "missing.json"), &c))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	assert.Error(t, loadJSONConfig(bad, &c))
}

func TestMySQLDSN(t *testing.T) {
	c := AppConfig{DBUser: "share", DBPassword: "pw", DBHost: "db", DBPort: "3306", DBName: "sharehub"}
	dsn := c.MySQLDSN()
	assert.Contains(t, dsn, "share:pw@tcp(db:3306)/sharehub?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")

	c.DatabaseURI = "root@tcp(localhost:3306)/x"
	assert.Equal(t, "root@tcp(localhost:3306)/x", c.MySQLDSN())
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, gormLogLevel("debug"))
	assert.Equal(t, logger.Warn, gormLogLevel("info"))
	assert.Equal(t, logger.Silent, gormLogLevel("silent"))
}
