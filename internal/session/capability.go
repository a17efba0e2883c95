package session

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// TrackKind selects the audio or video half of the local media.
type TrackKind string

const (
	TrackKindAudio TrackKind = "audio"
	TrackKindVideo TrackKind = "video"
)

// LocalMedia is a handle to acquired local capture. The session attaches its
// tracks to the peer connection and releases it on every exit path.
type LocalMedia interface {
	// Tracks returns the local tracks to send to the peer.
	Tracks() []webrtc.TrackLocal

	// SetEnabled mutes or unmutes tracks of the given kind. Purely local, no
	// renegotiation.
	SetEnabled(kind TrackKind, enabled bool)

	Close() error
}

// MediaCapability is the boundary to the media-capture layer. The session
// only ever talks to capture hardware through it. Implementations report
// ErrMediaAccessDenied when no device is available.
type MediaCapability interface {
	AcquireMedia(ctx context.Context) (LocalMedia, error)
}

// RemoteSink receives the remote peer's media. The rendering side of the sink
// is outside this package's concern.
type RemoteSink interface {
	// AttachRemoteTrack is called once per inbound track.
	AttachRemoteTrack(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)

	// ClearRemote is called when the peer goes away.
	ClearRemote()
}
