package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustLoad(t *testing.T) {
	t.Run("Loads every field from the yaml file", func(t *testing.T) {
		// Given: a config file on disk
		path := filepath.Join(t.TempDir(), "config.yml")
		content := []byte("log-level: \"debug\"\nhttp-port: \"8081\"\nsocket-port: \"4001\"\nallowed-origins:\n  - \"http://localhost:3000\"\n")
		require.NoError(t, os.WriteFile(path, content, 0o600))

		// When: it is loaded
		conf := MustLoad(path)

		// Then: every field matches the file
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "8081", conf.HTTPPort)
		assert.Equal(t, "4001", conf.SocketPort)
		assert.Equal(t, []string{"http://localhost:3000"}, conf.AllowedOrigins)
	})

	t.Run("Defaults apply when the file leaves fields out", func(t *testing.T) {
		// Given: an empty config file
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))

		// When: it is loaded
		conf := MustLoad(path)

		// Then: the env-default values kick in
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "4000", conf.SocketPort)
		assert.Empty(t, conf.AllowedOrigins)
	})

	t.Run("A missing file panics", func(t *testing.T) {
		assert.Panics(t, func() {
			MustLoad(filepath.Join(t.TempDir(), "nope.yml"))
		})
	})
}
