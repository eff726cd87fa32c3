package mpv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "mpv", cfg.Binary)
	assert.Equal(t, "bestaudio/best", cfg.YtdlFormat)
	assert.Equal(t, 10, cfg.StartTimeoutSec)
	assert.Equal(t, os.TempDir(), cfg.SocketDir)
	assert.False(t, cfg.Video)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", cfg.URLFor("abc"))
}

func TestNewConfig_Settings(t *testing.T) {
	cfg, err := NewConfig(map[string]any{
		"binary":       "/opt/mpv",
		"socket_dir":   "/run/jinglebox",
		"extra_args":   []any{"--volume=50"},
		"url_template": "https://youtu.be/%s",
		"video":        true,
	})
	require.NoError(t, err)

	assert.Equal(t, "/opt/mpv", cfg.Binary)
	assert.Equal(t, "/run/jinglebox", cfg.SocketDir)
	assert.Equal(t, []string{"--volume=50"}, cfg.ExtraArgs)
	assert.Equal(t, "https://youtu.be/xyz", cfg.URLFor("xyz"))

	s := New(cfg)
	args := s.args("/run/jinglebox/x.sock")
	assert.Contains(t, args, "--input-ipc-server=/run/jinglebox/x.sock")
	assert.Contains(t, args, "--volume=50")
	assert.NotContains(t, args, "--no-video")
}

func TestNewConfig_Invalid(t *testing.T) {
	_, err := NewConfig(map[string]any{"url_template": "https://example.com/watch"})
	assert.Error(t, err)

	_, err = NewConfig(map[string]any{"start_timeout_sec": "soon"})
	assert.Error(t, err)
}

func TestService_AudioOnlyArgs(t *testing.T) {
	cfg, err := NewConfig(nil)
	require.NoError(t, err)

	args := New(cfg).args("/tmp/x.sock")
	assert.Contains(t, args, "--idle=yes")
	assert.Contains(t, args, "--no-video")
	assert.Contains(t, args, "--ytdl-format=bestaudio/best")
}

func TestService_LoadPreparesSocketDir(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "jinglebox-player-old.sock")
	other := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(stale, nil, 0o600))
	require.NoError(t, os.WriteFile(other, nil, 0o600))

	cfg, err := NewConfig(map[string]any{"socket_dir": dir})
	require.NoError(t, err)
	s := New(cfg)
	s.verify = func(context.Context) error { return nil }

	require.NoError(t, s.Load(context.Background()))
	assert.NoFileExists(t, stale)
	assert.FileExists(t, other)
}

func TestService_LoadCreatesSocketDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run", "jinglebox")
	cfg, err := NewConfig(map[string]any{"socket_dir": dir})
	require.NoError(t, err)

	s := New(cfg)
	s.verify = func(context.Context) error { return errors.New("mpv not found") }
	require.Error(t, s.Load(context.Background()))
	assert.NoDirExists(t, dir)

	s.verify = func(context.Context) error { return nil }
	require.NoError(t, s.Load(context.Background()))
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(dir, "jinglebox-c1.sock"), s.socketPath("c1"))
}
