// Package environment classifies the page environment from its User-Agent.
//
// Restrictive in-app browsers (social and messaging apps) block autoplay and
// often refuse to construct embedded players. Playback in such an environment
// waits for an explicit user start, and the page offers to reopen itself in the
// system browser.
package environment

import (
	"net/url"
	"strings"

	"github.com/mssola/useragent"
	zlog "github.com/rs/zerolog/log"
)

// DefaultSignatures are lowercase User-Agent fragments of restrictive in-app
// browsers.
var DefaultSignatures = []string{
	"fban",
	"fbav",
	"fb_iab",
	"fbios",
	"instagram",
	"line/",
	"zalo",
	"micromessenger",
	"tiktok",
	"bytedancewebview",
	"musical_ly",
	"twitter",
	"snapchat",
	"kakaotalk",
	"; wv)",
}

// Platform is the operating system family relevant to external opening.
type Platform int

const (
	PlatformOther Platform = iota
	PlatformAndroid
	PlatformIOS
)

// String returns the string representation of the platform.
func (p Platform) String() string {
	switch p {
	case PlatformAndroid:
		return "android"
	case PlatformIOS:
		return "ios"
	default:
		return "other"
	}
}

// Environment is the classification of one User-Agent string.
type Environment struct {
	UserAgent  string
	Restricted bool
	Signature  string // Matched signature when Restricted
	Platform   Platform
	Mobile     bool
	Browser    string
}

// Detector classifies environments against a signature list.
type Detector struct {
	signatures []string
}

// NewDetector creates a detector. An empty list selects DefaultSignatures.
func NewDetector(signatures []string) *Detector {
	if len(signatures) == 0 {
		signatures = DefaultSignatures
	}
	normalized := make([]string, 0, len(signatures))
	for _, s := range signatures {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			normalized = append(normalized, s)
		}
	}
	return &Detector{signatures: normalized}
}

// Signatures returns the signatures in match order.
func (d *Detector) Signatures() []string {
	out := make([]string, len(d.signatures))
	copy(out, d.signatures)
	return out
}

// IsRestricted reports whether ua belongs to a restrictive in-app browser.
// Matching is case-insensitive. Unknown or empty strings are not restricted.
func (d *Detector) IsRestricted(ua string) bool {
	_, ok := d.match(ua)
	return ok
}

// Detect classifies ua.
func (d *Detector) Detect(ua string) Environment {
	env := Environment{UserAgent: ua}
	if strings.TrimSpace(ua) == "" {
		return env
	}

	env.Signature, env.Restricted = d.match(ua)

	parsed := useragent.New(ua)
	env.Mobile = parsed.Mobile()
	env.Browser, _ = parsed.Browser()
	env.Platform = platformOf(ua, parsed.OSInfo().Name)

	zlog.Debug().Msgf("environment: detected: restricted=%v signature=%q platform=%s browser=%q",
		env.Restricted, env.Signature, env.Platform, env.Browser)
	return env
}

func (d *Detector) match(ua string) (string, bool) {
	lower := strings.ToLower(ua)
	for _, s := range d.signatures {
		if strings.Contains(lower, s) {
			return s, true
		}
	}
	return "", false
}

func platformOf(ua, osName string) Platform {
	name := strings.ToLower(osName)
	lower := strings.ToLower(ua)
	switch {
	case strings.Contains(name, "android") || strings.Contains(lower, "android"):
		return PlatformAndroid
	case strings.Contains(name, "iphone") || strings.Contains(name, "ios"),
		strings.Contains(lower, "iphone"), strings.Contains(lower, "ipad"), strings.Contains(lower, "ipod"):
		return PlatformIOS
	default:
		return PlatformOther
	}
}

// ExternalURL returns a URL that reopens pageURL outside the in-app browser.
// Android gets a Chrome intent URL, iOS gets the Safari scheme. Other
// platforms, and URLs that cannot be parsed, are returned unchanged.
func ExternalURL(pageURL string, platform Platform) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return pageURL
	}

	switch platform {
	case PlatformAndroid:
		rest := strings.TrimPrefix(pageURL, u.Scheme+"://")
		return "intent://" + rest + "#Intent;scheme=" + u.Scheme + ";end"
	case PlatformIOS:
		return "x-safari-" + pageURL
	default:
		return pageURL
	}
}
