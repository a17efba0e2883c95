package media

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adarsh-codesOP/one2one/internal/config"
	"github.com/Adarsh-codesOP/one2one/internal/session"
)

func testLogger() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return log.NewEntry(logger)
}

// testClientConfig uses ephemeral ports so tests never collide with each
// other or with a running client.
func testClientConfig() *config.Client {
	return &config.Client{
		VideoRTPAddr:  "127.0.0.1:0",
		AudioRTPAddr:  "127.0.0.1:0",
		VideoOutAddr:  "127.0.0.1:0",
		AudioOutAddr:  "127.0.0.1:0",
		VideoMimeType: config.DefaultVideoMimeType,
		AudioMimeType: config.DefaultAudioMimeType,
	}
}

func TestAcquireMediaClaimsBothSockets(t *testing.T) {
	c := NewCapability(testClientConfig(), testLogger())

	media, err := c.AcquireMedia(context.Background())
	require.NoError(t, err)
	defer media.Close()

	tracks := media.Tracks()
	require.Len(t, tracks, 2)
	assert.Equal(t, "video", tracks[0].ID())
	assert.Equal(t, "audio", tracks[1].ID())
}

func TestAcquireMediaDeniedWhenPortTaken(t *testing.T) {
	addr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err)
	taken, err := net.ListenUDP("udp", addr)
	require.NoError(t, err)
	defer taken.Close()

	cfg := testClientConfig()
	cfg.VideoRTPAddr = taken.LocalAddr().String()

	_, err = NewCapability(cfg, testLogger()).AcquireMedia(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrMediaAccessDenied)
}

func TestAcquireMediaHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCapability(testClientConfig(), testLogger()).AcquireMedia(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDisabledTrackDropsPackets(t *testing.T) {
	track, err := newRTPTrack("127.0.0.1:0", webrtc.MimeTypeVP8, "video", testLogger())
	require.NoError(t, err)
	defer track.close()

	assert.True(t, track.enabled.Load())
	track.enabled.Store(false)

	// A minimal RTP packet: the disabled loop must consume it without
	// writing to the webrtc track.
	sender, err := net.DialUDP("udp", nil, track.conn.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer sender.Close()

	pkt := make([]byte, 12)
	pkt[0] = 0x80
	_, err = sender.Write(pkt)
	require.NoError(t, err)

	// The loop stays alive; re-enabling works without reacquisition.
	track.enabled.Store(true)
	time.Sleep(50 * time.Millisecond)
}

func TestSetEnabledRoutesByKind(t *testing.T) {
	c := NewCapability(testClientConfig(), testLogger())
	media, err := c.AcquireMedia(context.Background())
	require.NoError(t, err)
	defer media.Close()

	stream := media.(*localStream)

	media.SetEnabled(session.TrackKindVideo, false)
	assert.False(t, stream.video.enabled.Load())
	assert.True(t, stream.audio.enabled.Load())

	media.SetEnabled(session.TrackKindAudio, false)
	media.SetEnabled(session.TrackKindVideo, true)
	assert.True(t, stream.video.enabled.Load())
	assert.False(t, stream.audio.enabled.Load())
}

func TestForwarderClearRemoteIsIdempotent(t *testing.T) {
	f := NewForwarder(testClientConfig(), testLogger())
	f.ClearRemote()
	f.ClearRemote()
}
