package media

import (
	"errors"
	"net"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
	log "github.com/sirupsen/logrus"
)

const readBufferSize = 1500

// rtpTrack ingests RTP packets from a local UDP socket into a webrtc track.
// The packets come from an external encoder process (ffmpeg, gstreamer, a
// capture daemon) so the core never touches capture hardware or codecs
// itself.
type rtpTrack struct {
	track   *webrtc.TrackLocalStaticRTP
	conn    *net.UDPConn
	enabled atomic.Bool
	log     *log.Entry
}

func newRTPTrack(addr, mimeType, trackID string, logger *log.Entry) (*rtpTrack, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}

	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: mimeType},
		trackID,
		"one2one",
	)
	if err != nil {
		conn.Close()
		return nil, err
	}

	t := &rtpTrack{
		track: track,
		conn:  conn,
		log:   logger.WithField("rtp_src", addr),
	}
	t.enabled.Store(true)

	go t.readLoop()
	return t, nil
}

// readLoop pumps RTP packets into the track until the socket closes. A
// disabled track keeps reading and drops packets, which mutes the track
// without renegotiation.
func (t *rtpTrack) readLoop() {
	buf := make([]byte, readBufferSize)
	for {
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				t.log.WithError(err).Warn("rtp read failed")
			}
			return
		}

		if !t.enabled.Load() {
			continue
		}

		if _, err := t.track.Write(buf[:n]); err != nil {
			// No bound peer connection yet, or it went away. Keep pumping.
			t.log.WithError(err).Debug("rtp write skipped")
		}
	}
}

func (t *rtpTrack) close() {
	t.conn.Close()
}
