package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/vaultcore/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		DBDriver:            "postgres",
		LogLevel:            "info",
		EncryptionAlgorithm: "aes-gcm",
		MetricsEnabled:      false,
		MetricsNamespace:    "vaultcore",
	}
}

func TestContainer_Config(t *testing.T) {
	cfg := testConfig()
	container := NewContainer(cfg)

	assert.Same(t, cfg, container.Config())
}

func TestContainer_Logger(t *testing.T) {
	container := NewContainer(testConfig())

	logger := container.Logger()
	require.NotNil(t, logger)

	// Lazy init caches the instance.
	assert.Same(t, logger, container.Logger())
}

func TestContainer_DB_UnsupportedDriver(t *testing.T) {
	cfg := testConfig()
	cfg.DBDriver = "oracle"
	container := NewContainer(cfg)

	db, err := container.DB()
	assert.Nil(t, db)
	assert.ErrorContains(t, err, "unsupported database driver")

	// The stored error is returned on subsequent calls.
	db, err = container.DB()
	assert.Nil(t, db)
	assert.Error(t, err)
}

func TestContainer_CryptoServices(t *testing.T) {
	container := NewContainer(testConfig())

	assert.NotNil(t, container.KMSService())
	assert.NotNil(t, container.AEADManager())
	assert.NotNil(t, container.KeyManager())
	assert.NotNil(t, container.AnchorService())

	assert.Same(t, container.AEADManager(), container.AEADManager())
}

func TestContainer_MetricsDisabled(t *testing.T) {
	container := NewContainer(testConfig())

	provider, err := container.MetricsProvider()
	require.NoError(t, err)
	assert.Nil(t, provider)

	businessMetrics, err := container.BusinessMetrics()
	require.NoError(t, err)
	assert.NotNil(t, businessMetrics)
}

func TestContainer_MetricsEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = true
	container := NewContainer(cfg)

	provider, err := container.MetricsProvider()
	require.NoError(t, err)
	require.NotNil(t, provider)

	businessMetrics, err := container.BusinessMetrics()
	require.NoError(t, err)
	assert.NotNil(t, businessMetrics)

	t.Cleanup(func() {
		_ = provider.Shutdown(t.Context())
	})
}

func TestContainer_APIKeyService(t *testing.T) {
	container := NewContainer(testConfig())

	service, err := container.APIKeyService()
	require.NoError(t, err)
	assert.NotNil(t, service)
}

func TestContainer_Shutdown_NothingInitialized(t *testing.T) {
	container := NewContainer(testConfig())

	assert.NoError(t, container.Shutdown(t.Context()))
}
