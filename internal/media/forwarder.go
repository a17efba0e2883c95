package media

import (
	"net"
	"sync"

	"github.com/pion/webrtc/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Adarsh-codesOP/one2one/internal/config"
	"github.com/Adarsh-codesOP/one2one/internal/session"
)

// Forwarder implements session.RemoteSink by relaying remote RTP packets to
// local UDP addresses, where an external player (ffplay, gstreamer) renders
// them. The counterpart of the ingest capability: rendering stays outside the
// core.
type Forwarder struct {
	videoAddr string
	audioAddr string
	log       *log.Entry

	mu    sync.Mutex
	conns []*net.UDPConn
}

func NewForwarder(cfg *config.Client, logger *log.Entry) *Forwarder {
	return &Forwarder{
		videoAddr: cfg.VideoOutAddr,
		audioAddr: cfg.AudioOutAddr,
		log:       logger,
	}
}

var _ session.RemoteSink = (*Forwarder)(nil)

// AttachRemoteTrack starts pumping the inbound track to its forward address.
func (f *Forwarder) AttachRemoteTrack(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	addr := f.videoAddr
	if track.Kind() == webrtc.RTPCodecTypeAudio {
		addr = f.audioAddr
	}

	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		f.log.WithError(err).Warn("bad forward address")
		return
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		f.log.WithError(err).Warn("cannot open forward socket")
		return
	}

	f.mu.Lock()
	f.conns = append(f.conns, conn)
	f.mu.Unlock()

	f.log.WithFields(log.Fields{"kind": track.Kind().String(), "to": addr}).Info("forwarding remote track")

	go func() {
		buf := make([]byte, readBufferSize)
		for {
			n, _, err := track.Read(buf)
			if err != nil {
				return
			}
			if _, err := conn.Write(buf[:n]); err != nil {
				return
			}
		}
	}()
}

// ClearRemote closes all forward sockets; track readers exit when the peer
// connection stops delivering.
func (f *Forwarder) ClearRemote() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, conn := range f.conns {
		conn.Close()
	}
	f.conns = nil
}
