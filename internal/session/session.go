package session

import (
	"context"
	"sync"

	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Adarsh-codesOP/one2one/internal/signaling"
)

// State is the session's negotiation state.
type State string

const (
	StateIdle           State = "idle"
	StateAcquiringMedia State = "acquiring media"
	StateWaitingForPeer State = "waiting for peer"
	StateNegotiating    State = "connecting"
	StateConnected      State = "connected"
	StateFailed         State = "failed"
	StateClosed         State = "closed"
)

// Signaler is the session's outbound path through the signaling relay.
type Signaler interface {
	JoinRoom(roomID, memberID string) error
	LeaveRoom(roomID string) error
	SendOffer(roomID string, desc signaling.SessionDescription) error
	SendAnswer(roomID string, desc signaling.SessionDescription) error
	SendCandidate(roomID string, cand signaling.Candidate) error
}

// Config assembles a Session.
type Config struct {
	RoomID   string
	MemberID string

	Signaler   Signaler
	Capability MediaCapability
	Sink       RemoteSink

	ICEServers    []webrtc.ICEServer
	LoggerFactory logging.LoggerFactory
	Log           *log.Entry

	// OnStateChange, when set, is invoked on every state transition.
	OnStateChange func(State)
}

// Session drives offer/answer/candidate exchange for one room against a
// single peer connection. Roles are fixed by join order: the member already
// in the room offers when a peer joins, the joiner answers. There is no
// renegotiation path, so simultaneous re-joins can still produce conflicting
// offers; that glare case is a known limitation of this design.
//
// All negotiation steps are serialized by the session mutex, so a second
// incoming offer cannot interleave with an offer creation already in flight.
type Session struct {
	mu sync.Mutex

	roomID   string
	memberID string

	signaler   Signaler
	capability MediaCapability
	sink       RemoteSink

	iceServers []webrtc.ICEServer
	api        *webrtc.API
	log        *log.Entry

	// pc is the one peer connection of this session, nil until the first
	// negotiation event and again after teardown.
	pc    *webrtc.PeerConnection
	media LocalMedia

	// pending holds remote candidates that arrived before the remote
	// description; they are flushed the moment it is set.
	pending   []webrtc.ICECandidateInit
	remoteSet bool

	state         State
	onStateChange func(State)
	closed        bool
}

// New creates an idle session for a room.
func New(cfg Config) *Session {
	logger := cfg.Log
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Session{
		roomID:        cfg.RoomID,
		memberID:      cfg.MemberID,
		signaler:      cfg.Signaler,
		capability:    cfg.Capability,
		sink:          cfg.Sink,
		iceServers:    cfg.ICEServers,
		api:           newAPI(cfg.LoggerFactory),
		log:           logger.WithField("room", cfg.RoomID),
		state:         StateIdle,
		onStateChange: cfg.OnStateChange,
	}
}

// State returns the current negotiation state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start acquires local media and joins the room. A media failure is terminal
// for the attempt and reported to the caller; nothing is retried.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	s.setState(StateAcquiringMedia)
	media, err := s.capability.AcquireMedia(ctx)
	if err != nil {
		s.setState(StateIdle)
		return NewError("acquire media", err)
	}
	s.media = media

	if err := s.signaler.JoinRoom(s.roomID, s.memberID); err != nil {
		s.media.Close()
		s.media = nil
		s.setState(StateIdle)
		return NewError("join room", err)
	}

	s.setState(StateWaitingForPeer)
	return nil
}

// OnPeerConnected handles a user-connected notification: this side was
// already in the room, so it takes the offering role.
func (s *Session) OnPeerConnected(peerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	s.log.WithField("peer", peerID).Info("peer joined, creating offer")

	if err := s.ensurePeerConnection(); err != nil {
		return err
	}
	s.setState(StateNegotiating)

	offer, err := createOffer(s.pc)
	if err != nil {
		return err
	}

	if err := s.signaler.SendOffer(s.roomID, signaling.DescriptionFromPion(*offer)); err != nil {
		return NewError("send offer", err)
	}
	return nil
}

// OnOfferReceived handles the remote offer: this side just joined, so it
// takes the answering role.
func (s *Session) OnOfferReceived(desc signaling.SessionDescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	s.log.Info("received offer, creating answer")

	offer, err := desc.ToPion()
	if err != nil {
		return NewError("parse offer", err)
	}

	if err := s.ensurePeerConnection(); err != nil {
		return err
	}
	s.setState(StateNegotiating)

	answer, err := createAnswer(s.pc, offer)
	if err != nil {
		return err
	}
	s.remoteDescriptionSet()

	if err := s.signaler.SendAnswer(s.roomID, signaling.DescriptionFromPion(*answer)); err != nil {
		return NewError("send answer", err)
	}
	return nil
}

// OnAnswerReceived installs the remote answer on the existing peer
// connection. An answer with no peer connection is a protocol violation and
// is reported, not retried.
func (s *Session) OnAnswerReceived(desc signaling.SessionDescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.pc == nil {
		return WrapError("handle answer", ErrNoPeerConnection, "answer without offer")
	}

	answer, err := desc.ToPion()
	if err != nil {
		return NewError("parse answer", err)
	}

	if err := s.pc.SetRemoteDescription(answer); err != nil {
		return NewError("set remote description", err)
	}
	s.remoteDescriptionSet()
	return nil
}

// OnIceCandidateReceived applies a remote candidate, queueing it if the
// remote description is not set yet. Early candidates are never dropped.
func (s *Session) OnIceCandidateReceived(cand signaling.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	init := cand.ToPion()
	if s.pc == nil || !s.remoteSet {
		s.pending = append(s.pending, init)
		s.log.WithField("queued", len(s.pending)).Debug("queued early ICE candidate")
		return nil
	}

	if err := s.pc.AddICECandidate(init); err != nil {
		return NewError("add ICE candidate", err)
	}
	return nil
}

// OnPeerDisconnected tears the peer connection down and returns to waiting.
func (s *Session) OnPeerDisconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.log.Info("peer disconnected")
	s.closePeerLocked()
	s.setState(StateWaitingForPeer)
}

// ToggleLocalTrack enables or disables local audio or video. Purely a media
// capability call; no signaling happens.
func (s *Session) ToggleLocalTrack(kind TrackKind, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.media != nil {
		s.media.SetEnabled(kind, enabled)
	}
}

// Close leaves the room and releases the peer connection and local media. It
// is safe on every exit path, including mid-negotiation.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.signaler.LeaveRoom(s.roomID)
	s.closePeerLocked()

	if s.media != nil {
		s.media.Close()
		s.media = nil
	}

	s.setState(StateClosed)
	return nil
}

// ensurePeerConnection is the single creation path for the session's peer
// connection. A live one is reused, never duplicated.
func (s *Session) ensurePeerConnection() error {
	if s.pc != nil {
		s.log.Debug("reusing existing peer connection")
		return nil
	}
	if s.media == nil {
		return NewError("create peer connection", ErrNoLocalMedia)
	}

	pc, err := newPeerConnection(s.api, s.iceServers)
	if err != nil {
		return err
	}

	for _, track := range s.media.Tracks() {
		if _, err := pc.AddTrack(track); err != nil {
			pc.Close()
			return NewError("add local track", err)
		}
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		s.log.WithField("kind", track.Kind().String()).Info("remote track received")
		if s.sink != nil {
			s.sink.AttachRemoteTrack(track, receiver)
		}
	})

	// Locally gathered candidates go out immediately, regardless of how far
	// negotiation has progressed.
	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		if err := s.signaler.SendCandidate(s.roomID, signaling.CandidateFromPion(c.ToJSON())); err != nil {
			s.log.WithError(err).Warn("failed to send ICE candidate")
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		// Runs on pion's goroutine; hop off it before taking the session
		// mutex.
		go s.handleConnectionState(pc, state)
	})

	s.pc = pc
	return nil
}

func (s *Session) handleConnectionState(pc *webrtc.PeerConnection, state webrtc.PeerConnectionState) {
	s.mu.Lock()
	if s.closed || s.pc != pc {
		s.mu.Unlock()
		return
	}
	s.log.WithField("state", state.String()).Debug("connection state changed")

	switch state {
	case webrtc.PeerConnectionStateConnected:
		s.setState(StateConnected)
		s.mu.Unlock()

	case webrtc.PeerConnectionStateFailed:
		s.setState(StateFailed)
		s.mu.Unlock()
		s.OnPeerDisconnected()

	case webrtc.PeerConnectionStateClosed, webrtc.PeerConnectionStateDisconnected:
		s.mu.Unlock()
		s.OnPeerDisconnected()

	default:
		s.mu.Unlock()
	}
}

// remoteDescriptionSet flushes candidates that arrived before the remote
// description existed.
func (s *Session) remoteDescriptionSet() {
	s.remoteSet = true
	for _, init := range s.pending {
		if err := s.pc.AddICECandidate(init); err != nil {
			s.log.WithError(err).Warn("failed to apply queued ICE candidate")
		}
	}
	s.pending = nil
}

func (s *Session) closePeerLocked() {
	if s.pc != nil {
		pc := s.pc
		s.pc = nil
		pc.Close()
	}
	s.pending = nil
	s.remoteSet = false
	if s.sink != nil {
		s.sink.ClearRemote()
	}
}

func (s *Session) setState(state State) {
	if s.state == state {
		return
	}
	s.state = state
	s.log.WithField("state", state).Debug("session state")
	if s.onStateChange != nil {
		s.onStateChange(state)
	}
}
