package media

import (
	"context"
	"fmt"

	"github.com/pion/webrtc/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Adarsh-codesOP/one2one/internal/config"
	"github.com/Adarsh-codesOP/one2one/internal/session"
)

// Capability implements session.MediaCapability on top of local RTP ingest
// sockets. "Acquiring media" here means claiming the configured UDP ports; a
// port that cannot be claimed is the moral equivalent of a denied camera
// prompt and is reported as such.
type Capability struct {
	videoAddr string
	audioAddr string
	videoMime string
	audioMime string
	log       *log.Entry
}

func NewCapability(cfg *config.Client, logger *log.Entry) *Capability {
	return &Capability{
		videoAddr: cfg.VideoRTPAddr,
		audioAddr: cfg.AudioRTPAddr,
		videoMime: cfg.VideoMimeType,
		audioMime: cfg.AudioMimeType,
		log:       logger,
	}
}

// AcquireMedia claims both ingest sockets and returns the local media handle.
func (c *Capability) AcquireMedia(ctx context.Context) (session.LocalMedia, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	video, err := newRTPTrack(c.videoAddr, c.videoMime, "video", c.log)
	if err != nil {
		return nil, fmt.Errorf("%w: video ingest %s: %v", session.ErrMediaAccessDenied, c.videoAddr, err)
	}

	audio, err := newRTPTrack(c.audioAddr, c.audioMime, "audio", c.log)
	if err != nil {
		video.close()
		return nil, fmt.Errorf("%w: audio ingest %s: %v", session.ErrMediaAccessDenied, c.audioAddr, err)
	}

	c.log.WithFields(log.Fields{"video": c.videoAddr, "audio": c.audioAddr}).Info("local media acquired")
	return &localStream{video: video, audio: audio}, nil
}

// localStream is the acquired media handle handed to the session.
type localStream struct {
	video *rtpTrack
	audio *rtpTrack
}

func (s *localStream) Tracks() []webrtc.TrackLocal {
	return []webrtc.TrackLocal{s.video.track, s.audio.track}
}

func (s *localStream) SetEnabled(kind session.TrackKind, enabled bool) {
	switch kind {
	case session.TrackKindVideo:
		s.video.enabled.Store(enabled)
	case session.TrackKindAudio:
		s.audio.enabled.Store(enabled)
	}
}

func (s *localStream) Close() error {
	s.video.close()
	s.audio.close()
	return nil
}
