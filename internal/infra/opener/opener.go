// Package opener opens URLs in the desktop's default browser.
package opener

import (
	"context"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// ErrUnsupportedPlatform is returned when no browser launcher is known.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Opener launches the system browser.
type Opener struct {
	goos  string
	start func(cmd *exec.Cmd) error
}

// New creates an opener for the running platform.
func New() *Opener {
	return &Opener{
		goos:  runtime.GOOS,
		start: func(cmd *exec.Cmd) error { return cmd.Start() },
	}
}

// Open opens rawURL. It returns once the launcher has started.
func (o *Opener) Open(ctx context.Context, rawURL string) error {
	if _, err := url.Parse(rawURL); err != nil {
		return errors.Wrap(err, "invalid url")
	}

	name, args, err := o.command(rawURL)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// The launcher must outlive the request that asked for it.
	zlog.Info().Msgf("opener: opening %s", rawURL)
	if err := o.start(exec.Command(name, args...)); err != nil {
		return errors.Wrapf(err, "failed to run %s", name)
	}
	return nil
}

func (o *Opener) command(rawURL string) (string, []string, error) {
	switch o.goos {
	case "darwin":
		return "open", []string{rawURL}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{rawURL}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", rawURL}, nil
	default:
		return "", nil, errors.Wrapf(ErrUnsupportedPlatform, "%s", o.goos)
	}
}
