package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 8080
database:
  driver: mysql
  host: db.internal
  port: 3306
  user: verify
  password: secret
  name: mediaverify
minio:
  endpoint: minio.internal:9000
  accessKey: ak
  secretKey: sk
  bucketName: evidence
  region: us-east-1
openai:
  apiKey: sk-test
providers:
  sightengine:
    apiUser: "123"
    apiSecret: se-secret
  huggingface:
    token: hf-token
  resemble:
    apiKey: rs-key
  sapling:
    apiKey: sp-key
limits:
  freeDailyChecks: 5
auth:
  keys:
    acme: key-acme
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "evidence", cfg.Minio.BucketName)
	assert.Equal(t, "123", cfg.Providers.Sightengine.APIUser)
	assert.Equal(t, "hf-token", cfg.Providers.HuggingFace.Token)
	assert.Equal(t, 5, cfg.Limits.FreeDailyChecks)
	assert.Equal(t, "key-acme", cfg.Auth.Keys["acme"])
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Limits.FreeDailyChecks)
	assert.Equal(t, 60.0, cfg.Limits.MaxVideoSeconds)
	assert.Equal(t, 1, cfg.Limits.FrameFPS)
	assert.Equal(t, 5, cfg.Limits.FrameConcurrency)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t,
		"verify:secret@tcp(db.internal:3306)/mediaverify?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.MySQLDSN(),
	)
}

func TestPostgresDSN(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t,
		"host=db.internal port=3306 user=verify password=secret dbname=mediaverify sslmode=disable",
		cfg.PostgresDSN(),
	)
}
