// Package ytdlp checks that playlist tracks resolve to playable media.
package ytdlp

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	ytdlp "github.com/lrstanley/go-ytdlp"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/jinglebox/internal/app/bootstrap"
	"github.com/osa030/jinglebox/internal/domain/playlist"
	"github.com/osa030/jinglebox/internal/domain/track"
)

// Info is the metadata extracted for one media URL.
type Info struct {
	ID       string
	Title    string
	Uploader string
	Duration float64
	IsLive   bool
}

// Extractor extracts media metadata.
type Extractor interface {
	Extract(ctx context.Context, url string) (*Info, error)
}

// Config represents prober configuration.
type Config struct {
	URLFor     func(externalID string) string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Result is the outcome of probing one track.
type Result struct {
	Index    int
	Track    track.Track
	Info     *Info
	Playable bool
	Err      error
}

// Prober probes tracks through an Extractor.
type Prober struct {
	extractor  Extractor
	urlFor     func(string) string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

// New creates a prober backed by yt-dlp.
func New(cfg Config) *Prober {
	return NewWithExtractor(NewExtractor(), cfg)
}

// NewWithExtractor creates a prober using e.
func NewWithExtractor(e Extractor, cfg Config) *Prober {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.URLFor == nil {
		cfg.URLFor = func(id string) string { return "https://www.youtube.com/watch?v=" + id }
	}
	return &Prober{
		extractor:  e,
		urlFor:     cfg.URLFor,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// Probe checks a single track.
func (p *Prober) Probe(ctx context.Context, t track.Track) Result {
	res := Result{Track: t}
	url := p.urlFor(t.ExternalID)

	err := p.retry(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		info, err := p.extractor.Extract(callCtx, url)
		if err != nil {
			return err
		}
		res.Info = info
		return nil
	})
	if err != nil {
		res.Err = errors.Wrapf(err, "failed to probe %s", t.Label())
		return res
	}
	if res.Info.IsLive {
		res.Err = errors.Newf("%s is a live stream", t.Label())
		return res
	}
	res.Playable = true
	return res
}

// ProbePlaylist checks every track of pl in order.
func (p *Prober) ProbePlaylist(ctx context.Context, pl *playlist.Playlist) []Result {
	results := make([]Result, 0, pl.Len())
	for i, t := range pl.Tracks() {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Index: i, Track: t, Err: err})
			continue
		}
		res := p.Probe(ctx, t)
		res.Index = i
		if res.Playable {
			zlog.Info().Msgf("ytdlp: track ok: index=%d track=%s duration=%.0fs", i, t.Label(), res.Info.Duration)
		} else {
			zlog.Warn().Msgf("ytdlp: track not playable: index=%d track=%s err=%v", i, t.Label(), res.Err)
		}
		results = append(results, res)
	}
	return results
}

// retry retries an operation with linear backoff.
func (p *Prober) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i < p.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < p.maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.retryDelay * time.Duration(i+1)):
			}
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "connection reset")
}

// extractor runs yt-dlp, installing it on first use.
type extractor struct {
	install *bootstrap.Loader
}

// NewExtractor creates the yt-dlp backed extractor.
func NewExtractor() Extractor {
	return &extractor{
		install: bootstrap.New("yt-dlp", func(ctx context.Context) error {
			_, err := ytdlp.Install(ctx, nil)
			return err
		}),
	}
}

func (e *extractor) Extract(ctx context.Context, url string) (*Info, error) {
	if err := e.install.Ensure(ctx); err != nil {
		return nil, err
	}

	res, err := ytdlp.New().
		NoPlaylist().
		NoCheckCertificates().
		DumpJSON().
		Run(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "yt-dlp run")
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, errors.Wrap(err, "parse yt-dlp json")
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, errors.New("yt-dlp returned no info")
	}

	ext := infos[0]
	info := &Info{ID: ext.ID}
	if ext.Title != nil {
		info.Title = *ext.Title
	}
	if ext.Uploader != nil {
		info.Uploader = *ext.Uploader
	}
	if ext.Duration != nil {
		info.Duration = *ext.Duration
	}
	if ext.IsLive != nil {
		info.IsLive = *ext.IsLive
	}
	return info, nil
}
