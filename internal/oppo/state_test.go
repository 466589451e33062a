package oppo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePowerReply(t *testing.T) {
	t.Run("parses on and off", func(t *testing.T) {
		power, err := parsePowerReply("@OK ON")
		require.NoError(t, err)
		assert.Equal(t, PowerOnState, power)

		power, err = parsePowerReply("@OK OFF")
		require.NoError(t, err)
		assert.Equal(t, PowerOffState, power)
	})

	t.Run("accepts numeric firmware variants", func(t *testing.T) {
		power, err := parsePowerReply("@OK 1")
		require.NoError(t, err)
		assert.Equal(t, PowerOnState, power)
	})

	t.Run("rejects malformed replies", func(t *testing.T) {
		for _, reply := range []string{"", "@OK", "@ER INVALID", "garbage", "@OK MAYBE"} {
			_, err := parsePowerReply(reply)
			assert.ErrorIs(t, err, ErrParse, reply)
		}
	})
}

func TestParseVolumeReply(t *testing.T) {
	t.Run("parses numeric volume", func(t *testing.T) {
		volume, muted, err := parseVolumeReply("@OK 63")
		require.NoError(t, err)
		assert.Equal(t, 63, volume)
		assert.False(t, muted)
	})

	t.Run("reports mute token", func(t *testing.T) {
		_, muted, err := parseVolumeReply("@OK MUT")
		require.NoError(t, err)
		assert.True(t, muted)

		_, muted, err = parseVolumeReply("@OK MUTE")
		require.NoError(t, err)
		assert.True(t, muted)
	})

	t.Run("rejects non-numeric volume", func(t *testing.T) {
		_, _, err := parseVolumeReply("@OK loud")
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("rejects out of range volume", func(t *testing.T) {
		_, _, err := parseVolumeReply("@OK 250")
		assert.ErrorIs(t, err, ErrParse)

		_, _, err = parseVolumeReply("@OK -3")
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("rejects device error replies", func(t *testing.T) {
		_, _, err := parseVolumeReply("@ER INVALID")
		assert.ErrorIs(t, err, ErrParse)
	})
}

func TestParsePlaybackReply(t *testing.T) {
	t.Run("maps transport states", func(t *testing.T) {
		cases := map[string]PlaybackState{
			"@OK PLAY":      PlaybackPlaying,
			"@OK PAUSE":     PlaybackPaused,
			"@OK STOP":      PlaybackStopped,
			"@OK NO DISC":   PlaybackStopped,
			"@OK OPEN":      PlaybackStopped,
			"@OK HOME MENU": PlaybackStopped,
		}

		for reply, expected := range cases {
			playback, err := parsePlaybackReply(reply)
			require.NoError(t, err, reply)
			assert.Equal(t, expected, playback, reply)
		}
	})

	t.Run("rejects unknown transport states", func(t *testing.T) {
		_, err := parsePlaybackReply("@OK WOBBLING")
		assert.ErrorIs(t, err, ErrParse)
	})
}

func TestNewPlayerState(t *testing.T) {
	state := NewPlayerState()

	assert.False(t, state.Available)
	assert.Equal(t, PowerOffState, state.Power)
	assert.Equal(t, PlaybackStopped, state.Playback)
	assert.Equal(t, SourceDisc, state.Source)
	assert.Zero(t, state.VolumeLevel)
}
