package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"philcali.me/pubsubhubbub/internal/config"
	"philcali.me/pubsubhubbub/internal/exceptions"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("SECRET_KEY", "s3cret")
		c, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, "s3cret", c.SecretKey)
		assert.Equal(t, config.DEFAULT_LEASE_SECONDS, c.DefaultLeaseSeconds)
		assert.Equal(t, 3600, c.MinimumLeaseSeconds)
		assert.Equal(t, 30*time.Second, c.RequestTimeout)
		assert.Equal(t, 24*time.Hour, c.RenewWindow)
		assert.Equal(t, "SubscriptionData", c.TableName)
	})

	t.Run("Environment", func(t *testing.T) {
		t.Setenv("SECRET_KEY", "s3cret")
		t.Setenv("TABLE_NAME", "Other")
		t.Setenv("REQUEST_TIMEOUT", "5s")
		t.Setenv("DEFAULT_LEASE_SECONDS", "600")
		c, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, "Other", c.TableName)
		assert.Equal(t, 5*time.Second, c.RequestTimeout)
		assert.Equal(t, 600, c.DefaultLeaseSeconds)
	})

	t.Run("File", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(filename, []byte("secret_key: from-file\npublic_url: https://push.example\n"), 0o600))
		t.Setenv("CONFIG_FILE", filename)
		t.Setenv("SECRET_KEY", "")
		c, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, "from-file", c.SecretKey)
		assert.Equal(t, "https://push.example", c.PublicUrl)
	})

	t.Run("MissingSecret", func(t *testing.T) {
		t.Setenv("SECRET_KEY", "")
		_, err := config.Load()
		var ce *exceptions.ConfigurationError
		assert.ErrorAs(t, err, &ce)
	})
}
