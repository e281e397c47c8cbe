package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quiz_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseConfig = `server:
  port: "8080"
  mode: debug
jwt:
  secret: test
`

func TestWatchConfigReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(baseConfig), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 1)
	go WatchConfig(ctx, file, func(cfg *config.Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})

	// 给 watcher 启动的时间
	time.Sleep(100 * time.Millisecond)
	updated := baseConfig + "quiz:\n  exclude_text_from_score: true\n"
	require.NoError(t, os.WriteFile(file, []byte(updated), 0o644))

	select {
	case cfg := <-reloaded:
		assert.True(t, cfg.Quiz.ExcludeTextFromScore)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}
