package config_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-slark/pipeline/config"
	"github.com/go-slark/pipeline/config/source/env"
	"github.com/go-slark/pipeline/config/source/file"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const onboardYAML = `
redis:
  addr: 127.0.0.1:6379
  db: 2
pipelines:
  signup:
    middlewares:
      - logging
      - validate
      - save
    timeout: 3s
  bare:
    middlewares: logging, save
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestFileConfig(t *testing.T) {
	c := config.New(config.WithSource(file.NewFile(writeFile(t, "onboard.yaml", onboardYAML))))
	require.NoError(t, c.Load())
	defer c.Close()

	assert.Equal(t, "127.0.0.1:6379", c.GetString("redis.addr"))
	assert.Equal(t, 2, c.GetInt("redis.db"))
	assert.Equal(t, 2.0, c.GetFloat64("redis.db"))
	assert.Nil(t, c.Get("redis.password"))

	var r struct {
		Addr string `json:"addr"`
		DB   int    `json:"db"`
	}
	require.NoError(t, c.Scan("redis", &r))
	assert.Equal(t, 2, r.DB)
	assert.True(t, errors.Is(c.Scan("mongo", &r), config.ErrNotFound))
}

func TestPipeline(t *testing.T) {
	c := config.New(config.WithSource(file.NewFile(writeFile(t, "onboard.yml", onboardYAML))))
	require.NoError(t, c.Load())
	defer c.Close()

	p, err := c.Pipeline("signup")
	require.NoError(t, err)
	assert.Equal(t, config.Pipeline{Name: "signup", Middlewares: []string{"logging", "validate", "save"}, Timeout: 3 * time.Second}, p)

	p, err = c.Pipeline("bare")
	require.NoError(t, err)
	assert.Equal(t, []string{"logging", "save"}, p.Middlewares)
	assert.Zero(t, p.Timeout)

	_, err = c.Pipeline("missing")
	assert.True(t, errors.Is(err, config.ErrNotFound))
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("PIPELINE_PIPELINES__SIGNUP__TIMEOUT", "500ms")
	t.Setenv("PIPELINE_REDIS__ADDR", "redis:6379")
	c := config.New(config.WithSource(
		file.NewFile(writeFile(t, "onboard.json", `{"redis":{"addr":"localhost:6379","db":1}}`)),
		env.New(),
	))
	require.NoError(t, c.Load())
	defer c.Close()

	assert.Equal(t, "redis:6379", c.GetString("redis.addr"))
	assert.Equal(t, 1, c.GetInt("redis.db"))
	assert.Equal(t, 500*time.Millisecond, c.GetDuration("pipelines.signup.timeout"))
}

func TestTOML(t *testing.T) {
	c := config.New(config.WithSource(file.NewFile(writeFile(t, "onboard.toml", "[pipelines.signup]\nmiddlewares = [\"logging\"]\n"))))
	require.NoError(t, c.Load())
	defer c.Close()

	p, err := c.Pipeline("signup")
	require.NoError(t, err)
	assert.Equal(t, []string{"logging"}, p.Middlewares)
}

func TestReloadNotifiesWatchers(t *testing.T) {
	path := writeFile(t, "onboard.yaml", onboardYAML)
	var reloads, watched int32
	c := config.New(config.WithSource(file.NewFile(path)), config.WithChange(func(*config.Config) {
		atomic.AddInt32(&reloads, 1)
	}))
	c.Watch("pipelines.signup", func(*config.Config) {
		atomic.AddInt32(&watched, 1)
	})
	require.NoError(t, c.Load())
	defer c.Close()

	updated := onboardYAML + "\n  audit:\n    middlewares: [logging]\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))
	assert.Eventually(t, func() bool {
		return c.Has("pipelines.audit.middlewares")
	}, 5*time.Second, 20*time.Millisecond)
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&reloads) > 0
	}, 5*time.Second, 20*time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&watched))
}

func TestUnknownFormat(t *testing.T) {
	c := config.New(config.WithSource(file.NewFile(writeFile(t, "onboard.ini", "a=b"))))
	assert.Error(t, c.Load())
}
