package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	uaDesktopChrome  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaIOSSafari      = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	uaInstagramIOS   = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148 Instagram 300.0.0.0"
	uaFacebookIOS    = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148 [FBAN/FBIOS;FBAV/430.0.0.0]"
	uaLineAndroid    = "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0 Mobile Safari/537.36 Line/13.20.0"
	uaAndroidWebView = "Mozilla/5.0 (Linux; Android 12; SM-G991B; wv) AppleWebKit/537.36 (KHTML, like Gecko) Version/4.0 Chrome/118.0 Mobile Safari/537.36"
	uaAndroidChrome  = "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0 Mobile Safari/537.36"
)

func TestDetector_IsRestricted(t *testing.T) {
	d := NewDetector(nil)

	tests := []struct {
		name string
		ua   string
		want bool
	}{
		{"desktop chrome", uaDesktopChrome, false},
		{"ios safari", uaIOSSafari, false},
		{"android chrome", uaAndroidChrome, false},
		{"instagram", uaInstagramIOS, true},
		{"facebook", uaFacebookIOS, true},
		{"line", uaLineAndroid, true},
		{"android webview", uaAndroidWebView, true},
		{"tiktok lowercase", "mozilla/5.0 tiktok 30.0", true},
		{"wechat", "Mozilla/5.0 MicroMessenger/8.0.40", true},
		{"empty", "", false},
		{"unknown", "curl/8.4.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.IsRestricted(tt.ua))
		})
	}
}

func TestDetector_CaseInsensitive(t *testing.T) {
	d := NewDetector([]string{"MyApp/"})
	assert.True(t, d.IsRestricted("Mozilla/5.0 myapp/1.2"))
	assert.True(t, d.IsRestricted("Mozilla/5.0 MYAPP/1.2"))
	assert.False(t, d.IsRestricted(uaInstagramIOS))
	assert.Equal(t, []string{"myapp/"}, d.Signatures())
}

func TestDetector_Detect(t *testing.T) {
	d := NewDetector(nil)

	env := d.Detect(uaInstagramIOS)
	assert.True(t, env.Restricted)
	assert.Equal(t, "instagram", env.Signature)
	assert.Equal(t, PlatformIOS, env.Platform)

	env = d.Detect(uaLineAndroid)
	assert.True(t, env.Restricted)
	assert.Equal(t, PlatformAndroid, env.Platform)
	assert.True(t, env.Mobile)

	env = d.Detect(uaDesktopChrome)
	assert.False(t, env.Restricted)
	assert.Equal(t, PlatformOther, env.Platform)

	env = d.Detect("")
	assert.False(t, env.Restricted)
	assert.Equal(t, PlatformOther, env.Platform)
}

func TestExternalURL(t *testing.T) {
	tests := []struct {
		name     string
		pageURL  string
		platform Platform
		want     string
	}{
		{"android https", "https://xmas.example.com/card?to=ann", PlatformAndroid, "intent://xmas.example.com/card?to=ann#Intent;scheme=https;end"},
		{"android http", "http://localhost:8080/", PlatformAndroid, "intent://localhost:8080/#Intent;scheme=http;end"},
		{"ios", "https://xmas.example.com/", PlatformIOS, "x-safari-https://xmas.example.com/"},
		{"other", "https://xmas.example.com/", PlatformOther, "https://xmas.example.com/"},
		{"unparseable", "not a url", PlatformAndroid, "not a url"},
		{"non http scheme", "ftp://example.com/", PlatformIOS, "ftp://example.com/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExternalURL(tt.pageURL, tt.platform))
		})
	}
}
