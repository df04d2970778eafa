package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "services_data_real.json", cfg.CorpusFile)
	assert.Equal(t, "knowledge-base", cfg.KBDir)
	assert.Equal(t, RendererChrome, cfg.Renderer)
	assert.Equal(t, 10*time.Second, cfg.ListingTimeout)
	assert.Equal(t, 15*time.Second, cfg.DetailTimeout)
	assert.Equal(t, 10, cfg.MaxCandidates)
	assert.Equal(t, 5, cfg.MaxDetails)
	assert.Equal(t, 5, cfg.MaxRequirements)
	assert.Equal(t, "0432 905511", cfg.Profile.Organization.Phone)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CIVICKB_CORPUS_FILE", "corpus.json")
	t.Setenv("CIVICKB_RENDERER", "HTTP")
	t.Setenv("CIVICKB_LISTING_TIMEOUT", "3s")
	t.Setenv("CIVICKB_MAX_CANDIDATES", "not-a-number")
	t.Setenv("CIVICKB_LISTING_URL", "https://example.org/services")
	t.Setenv("VAPI_BASE_URL", "https://api.example.org/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "corpus.json", cfg.CorpusFile)
	assert.Equal(t, RendererHTTP, cfg.Renderer)
	assert.Equal(t, 3*time.Second, cfg.ListingTimeout)
	assert.Equal(t, 10, cfg.MaxCandidates, "invalid values fall back to the default")
	assert.Equal(t, "https://example.org/services", cfg.Profile.ListingURL)
	assert.Equal(t, "https://api.example.org", cfg.VapiBaseURL)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("VAPI_API_KEY=secret-from-file\n"), 0o644))
	t.Chdir(dir)
	// godotenv does not override variables that are already set.
	t.Setenv("VAPI_API_KEY", "")
	require.NoError(t, os.Unsetenv("VAPI_API_KEY"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "secret-from-file", cfg.VapiAPIKey)
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	yml := `
organization:
  name: Comune di Esempio
  phone: "0000 111222"
listing_url: https://esempio.example/servizi
selectors:
  containers: [".tile"]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	p, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "Comune di Esempio", p.Organization.Name)
	assert.Equal(t, "0000 111222", p.Organization.Phone)
	assert.Equal(t, "protocollo@comune.codroipo.ud.it", p.Organization.Email, "unset fields keep defaults")
	assert.Equal(t, "https://esempio.example/servizi", p.ListingURL)
	assert.Equal(t, []string{".tile"}, p.Selectors.Containers)
	assert.Equal(t, []string{"h1, h2, h3", ".title, .titolo"}, p.Selectors.Titles)
}

func TestLoadProfileErrors(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("organization: [unterminated"), 0o644))
	_, err = LoadProfile(bad)
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("harvest complete", "accepted", 3)

	assert.Contains(t, stderr.String(), "harvest complete")
	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, file.String(), `"accepted":3`)
}

func TestSetupLoggerCreatesLogDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "civickb.log")
	logger, closeLog := SetupLogger(path, slog.LevelInfo)
	logger.Info("run started", "run", "1a2b3c4d")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run":"1a2b3c4d"`)
	assert.Contains(t, string(data), `"time":`)
}

func TestConsoleHandlerDropsTime(t *testing.T) {
	var buf bytes.Buffer
	slog.New(consoleHandler(&buf, slog.LevelInfo)).Info("hello")
	assert.NotContains(t, buf.String(), "time=")
	assert.Contains(t, buf.String(), "msg=hello")
}
