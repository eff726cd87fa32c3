package connect

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_Healthz(t *testing.T) {
	s := newTestServer(t)

	resp, err := http.Get(s.client.baseURL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestRouter_Index(t *testing.T) {
	s := newTestServer(t)

	resp, err := http.Get(s.client.baseURL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	var info struct {
		Playlist string   `json:"playlist"`
		Tracks   int      `json:"tracks"`
		Services []string `json:"services"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "xmas", info.Playlist)
	assert.Equal(t, 3, info.Tracks)
	assert.Contains(t, info.Services, PlaybackServiceName)
}

func TestRouter_UnknownProcedure(t *testing.T) {
	s := newTestServer(t)

	resp, err := http.Post(s.client.baseURL+"/jinglebox.v1.PlaybackService/Rewind", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
