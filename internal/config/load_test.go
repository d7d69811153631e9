// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFile_MissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.API.Listen)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFile_DecodesSwitchboard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controller.hcl")
	body := `
api {
  listen = ":9090"
}

switchboard {
  state_url = "https://switchboard.example.com/state"
  username  = "controller"
  password  = "s3cret"
}
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.API.Listen)
	require.True(t, cfg.Switchboard.Enabled())
	require.Equal(t, "controller", cfg.Switchboard.Username)
	require.Equal(t, SecureString("s3cret"), cfg.Switchboard.Password)
}

func TestSecureString_Masked(t *testing.T) {
	s := SecureString("topsecret")
	require.Equal(t, "(hidden)", s.String())
	b, err := s.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"(hidden)"`, string(b))
}
