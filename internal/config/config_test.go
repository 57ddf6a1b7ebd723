package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/svm"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, ":8501", cfg.Server.Addr)
	assert.Equal(t, int64(50), cfg.Server.MaxUploadMB)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, svm.DefaultParams(), cfg.Model.Params)
	assert.Equal(t, 0.8, cfg.Model.TrainRatio)
	assert.Equal(t, "Adj Close", cfg.Data.DropColumn)
	assert.Equal(t, []string{"Open", "High", "Low", "Close", "Volume"}, cfg.Data.FillColumns)
	assert.Equal(t, 5, cfg.Data.PreviewRows)
	assert.Equal(t, 25, cfg.Data.BarPairs)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SVRDASH_SERVER_ADDR", ":9000")
	t.Setenv("SVRDASH_SERVER_SESSION_TTL", "5m")
	t.Setenv("SVRDASH_MODEL_KERNEL", "linear")
	t.Setenv("SVRDASH_MODEL_C", "100")
	t.Setenv("SVRDASH_DATA_CLEAN", "true")

	cfg, err := Load("", noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, svm.KernelLinear, cfg.Model.Kernel)
	assert.Equal(t, 100.0, cfg.Model.C)
	assert.True(t, cfg.Data.Clean)
}

func TestLoad_ConfigFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "svrdash.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
server:
  max_upload_mb: 10
model:
  epsilon: 0.2
  train_ratio: 0.75
log:
  level: debug
`), 0o600))

	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SVRDASH_DATA_PREVIEW_ROWS=12\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SVRDASH_DATA_PREVIEW_ROWS") })

	cfg, err := Load(file, envFile)
	require.NoError(t, err)

	assert.Equal(t, int64(10), cfg.Server.MaxUploadMB)
	assert.Equal(t, 0.2, cfg.Model.Epsilon)
	assert.Equal(t, 0.75, cfg.Model.TrainRatio)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 12, cfg.Data.PreviewRows)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"train ratio", "SVRDASH_MODEL_TRAIN_RATIO", "1.5"},
		{"gin mode", "SVRDASH_SERVER_GIN_MODE", "loud"},
		{"kernel", "SVRDASH_MODEL_KERNEL", "cosine"},
		{"upload size", "SVRDASH_SERVER_MAX_UPLOAD_MB", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("", noEnvFile(t))
			require.Error(t, err)
			assert.True(t, svrErrors.Is(err, svrErrors.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), noEnvFile(t))
	assert.Error(t, err)
}
