// Package player selects the external player service from configuration.
package player

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/jinglebox/internal/app/playback"
	"github.com/osa030/jinglebox/internal/infra/config"
	"github.com/osa030/jinglebox/internal/infra/mpv"
)

// NewServiceFromConfig creates the player service named by cfg.Type.
func NewServiceFromConfig(cfg config.PlayerConfig) (playback.Service, error) {
	zlog.Debug().Msgf("creating player service: type=%s settings=%+v", cfg.Type, cfg.Settings)

	switch cfg.Type {
	case "mpv", "":
		svc, err := mpv.NewFromSettings(cfg.Settings)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create player (type %s)", cfg.Type)
		}
		zlog.Info().Msgf("registered player service: type=mpv binary=%s", svc.Config().Binary)
		return svc, nil

	default:
		return nil, errors.Newf("unsupported player type: %s", cfg.Type)
	}
}

// URLFor returns the media URL function of the configured player, used when
// probing tracks outside of playback.
func URLFor(cfg config.PlayerConfig) (func(string) string, error) {
	switch cfg.Type {
	case "mpv", "":
		mcfg, err := mpv.NewConfig(cfg.Settings)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode player settings")
		}
		return mcfg.URLFor, nil
	default:
		return nil, errors.Newf("unsupported player type: %s", cfg.Type)
	}
}
