package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrack_Label(t *testing.T) {
	tests := []struct {
		name     string
		track    Track
		expected string
	}{
		{
			name:     "title and artist",
			track:    Track{Title: "Last Christmas", Artist: "Wham!", ExternalID: "KhqNTjbQ71A"},
			expected: "Last Christmas - Wham!",
		},
		{
			name:     "title only",
			track:    Track{Title: "Silent Night", ExternalID: "nEH7_2c644Q"},
			expected: "Silent Night",
		},
		{
			name:     "artist only",
			track:    Track{Artist: "Traditional", ExternalID: "nEH7_2c644Q"},
			expected: "Traditional",
		},
		{
			name:     "falls back to external id",
			track:    Track{ExternalID: "3CWJNqyub3o"},
			expected: "3CWJNqyub3o",
		},
		{
			name:     "trailing whitespace is trimmed",
			track:    Track{Title: "Jingle Bell ", Artist: "Bobby Helms"},
			expected: "Jingle Bell - Bobby Helms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.track.Label())
		})
	}
}

func TestTrack_IsPlayable(t *testing.T) {
	assert.True(t, Track{ExternalID: "ELJf83TelA0"}.IsPlayable())
	assert.False(t, Track{ExternalID: ""}.IsPlayable())
	assert.False(t, Track{ExternalID: "   "}.IsPlayable())
}
