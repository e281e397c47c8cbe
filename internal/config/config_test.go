package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
database:
  driver: sqlite
  path: quiz.db
jwt:
  secret: short
quiz:
  exclude_text_from_score: true
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 72*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, "@every 1m", cfg.Quiz.SweepSchedule)
	assert.True(t, cfg.Quiz.ExcludeTextFromScore)
	assert.Equal(t, 30*time.Second, cfg.Quiz.LockTTL())
	assert.Equal(t, 5*time.Second, cfg.Quiz.LockWait())
	assert.Equal(t, 600, cfg.RateLimit.MaxRequests)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
jwt:
  secret: from-file
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_DRIVER", "postgres")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoadConfigReleaseRequiresStrongSecret(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: too-short
`)

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLockTTL(t *testing.T) {
	assert.Equal(t, 30*time.Second, QuizConfig{}.LockTTL())
	assert.Equal(t, 3*time.Second, QuizConfig{LockTTLSeconds: 3}.LockTTL())
}

func TestLockWaitStaysBelowTTL(t *testing.T) {
	tests := []struct {
		name string
		cfg  QuizConfig
		want time.Duration
	}{
		{"defaults", QuizConfig{}, 5 * time.Second},
		{"configured", QuizConfig{LockTTLSeconds: 20, LockWaitSeconds: 8}, 8 * time.Second},
		{"wait equals ttl", QuizConfig{LockTTLSeconds: 10, LockWaitSeconds: 10}, 5 * time.Second},
		{"wait above ttl", QuizConfig{LockTTLSeconds: 4, LockWaitSeconds: 9}, 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.LockWait()
			assert.Equal(t, tt.want, got)
			assert.Less(t, got, tt.cfg.LockTTL())
		})
	}
}
