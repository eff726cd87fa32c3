// Package mpv implements the external player service on top of mpv's JSON IPC.
//
// Every handle is its own mpv process started in idle mode with an IPC socket.
// Tracks are resolved through mpv's ytdl hook from a URL template.
package mpv

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/jinglebox/internal/app/bootstrap"
	"github.com/osa030/jinglebox/internal/app/playback"
)

// ErrNotLoaded is returned by NewHandle before Load succeeded.
var ErrNotLoaded = errors.New("mpv service is not loaded")

const (
	dialInterval = 100 * time.Millisecond
	socketPrefix = "jinglebox-"
)

// Config is the mpv player configuration.
type Config struct {
	Binary          string   `yaml:"binary" mapstructure:"binary" default:"mpv" validate:"required"`
	SocketDir       string   `yaml:"socket_dir" mapstructure:"socket_dir"`
	YtdlFormat      string   `yaml:"ytdl_format" mapstructure:"ytdl_format" default:"bestaudio/best"`
	Video           bool     `yaml:"video" mapstructure:"video"`
	ExtraArgs       []string `yaml:"extra_args" mapstructure:"extra_args"`
	StartTimeoutSec int      `yaml:"start_timeout_sec" mapstructure:"start_timeout_sec" default:"10" validate:"gte=1"`
	URLTemplate     string   `yaml:"url_template" mapstructure:"url_template" default:"https://www.youtube.com/watch?v=%s" validate:"required,contains=%s"`
}

// NewConfig decodes player settings into a Config.
func NewConfig(settings map[string]any) (Config, error) {
	var cfg Config
	if len(settings) > 0 {
		if err := mapstructure.Decode(settings, &cfg); err != nil {
			return Config{}, errors.Wrap(err, "failed to decode settings")
		}
	}
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, errors.Wrap(err, "validation failed")
	}
	if cfg.SocketDir == "" {
		cfg.SocketDir = os.TempDir()
	}
	return cfg, nil
}

// URLFor returns the media URL of an external id.
func (c Config) URLFor(videoID string) string {
	return fmt.Sprintf(c.URLTemplate, videoID)
}

// launchFunc starts an mpv instance and returns its IPC connection and a
// function that terminates it.
type launchFunc func(ctx context.Context, containerID string) (io.ReadWriteCloser, func(), error)

// Service starts mpv instances.
type Service struct {
	cfg    Config
	loader *bootstrap.Loader
	verify bootstrap.LoadFunc
	launch launchFunc
}

// New creates an mpv service.
func New(cfg Config) *Service {
	s := &Service{cfg: cfg}
	s.verify = s.probeBinary
	s.launch = s.launchProcess
	s.loader = bootstrap.New("mpv", func(ctx context.Context) error {
		return s.verify(ctx)
	})
	s.loader.OnLoaded(s.prepareSocketDir)
	return s
}

// NewFromSettings creates an mpv service from raw player settings.
func NewFromSettings(settings map[string]any) (*Service, error) {
	cfg, err := NewConfig(settings)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

// Config returns the service configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Load verifies that mpv can be run. It succeeds at most once per service;
// a failed check is retried by the next call.
func (s *Service) Load(ctx context.Context) error {
	return s.loader.Ensure(ctx)
}

// NewHandle starts an mpv instance and loads opts.VideoID into it.
func (s *Service) NewHandle(ctx context.Context, opts playback.HandleOptions, l playback.Listener) (playback.Handle, error) {
	if !s.loader.Loaded() {
		return nil, ErrNotLoaded
	}
	if opts.VideoID == "" {
		return nil, errors.New("video id is required")
	}

	rwc, stop, err := s.launch(ctx, opts.ContainerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start mpv")
	}

	h := newHandle(rwc, stop, s.cfg.URLFor)
	if err := h.start(ctx, opts, l); err != nil {
		h.Destroy()
		return nil, errors.Wrap(err, "failed to initialise mpv")
	}

	zlog.Info().Msgf("mpv: handle started: container=%s video=%s autoplay=%v muted=%v",
		opts.ContainerID, opts.VideoID, opts.Autoplay, opts.Muted)
	return h, nil
}

func (s *Service) probeBinary(ctx context.Context) error {
	path, err := exec.LookPath(s.cfg.Binary)
	if err != nil {
		return errors.Wrapf(err, "mpv binary %q not found", s.cfg.Binary)
	}
	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return errors.Wrapf(err, "failed to run %s --version", path)
	}
	line, _, _ := bufio.NewReader(bytes.NewReader(out)).ReadLine()
	zlog.Info().Msgf("mpv: using %s (%s)", path, line)
	return nil
}

// prepareSocketDir creates the socket directory and removes sockets left
// behind by a previous run.
func (s *Service) prepareSocketDir() {
	if err := os.MkdirAll(s.cfg.SocketDir, 0o755); err != nil {
		zlog.Warn().Msgf("mpv: failed to create socket dir: dir=%s err=%v", s.cfg.SocketDir, err)
		return
	}
	stale, err := filepath.Glob(filepath.Join(s.cfg.SocketDir, socketPrefix+"*.sock"))
	if err != nil {
		return
	}
	for _, path := range stale {
		if err := os.Remove(path); err == nil {
			zlog.Debug().Msgf("mpv: removed stale socket: %s", path)
		}
	}
}

func (s *Service) socketPath(containerID string) string {
	return filepath.Join(s.cfg.SocketDir, socketPrefix+containerID+".sock")
}

func (s *Service) args(socket string) []string {
	args := []string{
		"--idle=yes",
		"--no-terminal",
		"--input-ipc-server=" + socket,
		"--ytdl-format=" + s.cfg.YtdlFormat,
	}
	if !s.cfg.Video {
		args = append(args, "--no-video", "--force-window=no")
	}
	return append(args, s.cfg.ExtraArgs...)
}

func (s *Service) launchProcess(ctx context.Context, containerID string) (io.ReadWriteCloser, func(), error) {
	socket := s.socketPath(containerID)
	_ = os.Remove(socket)

	// The process outlives the request that created it.
	cmd := exec.Command(s.cfg.Binary, s.args(socket)...)
	if err := cmd.Start(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to start process")
	}

	stop := func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		_ = os.Remove(socket)
	}

	deadline := time.Now().Add(time.Duration(s.cfg.StartTimeoutSec) * time.Second)
	for {
		c, err := net.DialTimeout("unix", socket, dialInterval)
		if err == nil {
			return c, stop, nil
		}
		if time.Now().After(deadline) {
			stop()
			return nil, nil, errors.Wrapf(err, "mpv ipc socket %s not ready", socket)
		}
		select {
		case <-ctx.Done():
			stop()
			return nil, nil, ctx.Err()
		case <-time.After(dialInterval):
		}
	}
}

var _ playback.Service = (*Service)(nil)
