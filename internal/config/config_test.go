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
	path := filepath.Join(t.TempDir(), "cachefrontd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	path := writeConfig(t, `
listen: /tmp/test.sock
store:
  backend: bolt
  path: /tmp/test.bbolt
defaults:
  ttl: 300
routes:
  - pattern: "user:{id}"
    ttl: 600
  - pattern: "session:{id}"
`)
	cfg, err := Load(path)
	require.NoError(err)

	assert.Equal("/tmp/test.sock", cfg.Listen)
	assert.Equal("bolt", cfg.Store.Backend)
	assert.Equal(300*time.Second, cfg.Defaults.TTL())
	require.Len(cfg.Routes, 2)
	assert.Equal("user:{id}", cfg.Routes[0].Pattern)
	assert.Equal(600*time.Second, cfg.Routes[0].TTL())
	assert.Equal(time.Duration(0), cfg.Routes[1].TTL())
}

func TestLoadEmptyPathDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Store.Backend)
	assert.Empty(t, cfg.Routes)
}

func TestLoadRejectsBadConfigs(t *testing.T) {
	cases := map[string]string{
		"unknown backend": `
store:
  backend: etcd
`,
		"bolt without path": `
store:
  backend: bolt
`,
		"redis without url": `
store:
  backend: redis
`,
		"invalid pattern": `
routes:
  - pattern: "test/{}"
`,
		"negative route ttl": `
routes:
  - pattern: "a:{id}"
    ttl: -1
`,
		"negative default ttl": `
defaults:
  ttl: -5
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
