package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults_And_DotEnv(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	dotEnv := filepath.Join(dir, ".env")
	req.NoError(os.WriteFile(dotEnv, []byte("AUTH_SECRET=from-file\nRESUBSCRIBE=true\n"), 0o600))

	// Given the environment sets the paths and overrides nothing from the file
	t.Setenv("BADGER_FILEPATH", filepath.Join(dir, "badger"))
	t.Setenv("PHOTO_ROOT_DIR", filepath.Join(dir, "photos"))
	t.Setenv("AUTH_SECRET", "")
	require.NoError(t, os.Unsetenv("AUTH_SECRET"))
	t.Setenv("RESUBSCRIBE", "")
	require.NoError(t, os.Unsetenv("RESUBSCRIBE"))

	// When the configuration is loaded
	config, err := LoadConfig(dotEnv)

	// Then the file fills the gaps and defaults apply
	req.NoError(err)
	req.Equal("from-file", config.AuthSecret)
	req.True(config.Resubscribe)
	req.Equal("message", config.Channel)
	req.Equal(200*time.Millisecond, config.RestartInterval)
	req.Equal("*", config.CharReplacement)
}

func TestLoadConfig_Missing_Required(t *testing.T) {
	t.Setenv("BADGER_FILEPATH", "")
	require.NoError(t, os.Unsetenv("BADGER_FILEPATH"))

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))

	require.Error(t, err)
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)
	r, err := CharacterRune("#")
	req.NoError(err)
	req.Equal('#', r)

	_, err = CharacterRune("**")
	req.Error(err)
}
