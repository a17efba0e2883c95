package signaling

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// Message is the JSON envelope for every websocket message exchanged with the
// signaling server. The payload is opaque to the server: offers, answers and
// ICE candidates are relayed verbatim and only ever decoded by the peers.
type Message struct {
	Type     string          `json:"type"`
	RoomID   string          `json:"room_id,omitempty"`
	MemberID string          `json:"member_id,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`

	// client is the connection that sent the message. Set by the read pump,
	// used internally by the Hub and never serialized.
	client *Client `json:"-"`
}

// Message type constants.
const (
	MessageTypeJoinRoom  = "join-room"
	MessageTypeLeaveRoom = "leave-room"
	MessageTypeCheckRoom = "check-room"

	MessageTypeRoomStatus       = "room-status"
	MessageTypeUserConnected    = "user-connected"
	MessageTypeUserDisconnected = "user-disconnected"

	MessageTypeOffer        = "offer"
	MessageTypeAnswer       = "answer"
	MessageTypeICECandidate = "ice-candidate"
)

// RoomStatus is the payload of a room-status reply to check-room.
type RoomStatus struct {
	Exists bool `json:"exists"`
}

// SessionDescription is the wire shape of an offer or answer payload. It
// matches what a browser produces from RTCSessionDescription so CLI and web
// peers interoperate.
type SessionDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

func DescriptionFromPion(desc webrtc.SessionDescription) SessionDescription {
	return SessionDescription{Type: desc.Type.String(), SDP: desc.SDP}
}

func (s SessionDescription) ToPion() (webrtc.SessionDescription, error) {
	var t webrtc.SDPType
	switch s.Type {
	case "offer":
		t = webrtc.SDPTypeOffer
	case "answer":
		t = webrtc.SDPTypeAnswer
	default:
		return webrtc.SessionDescription{}, fmt.Errorf("unsupported sdp type %q", s.Type)
	}
	return webrtc.SessionDescription{Type: t, SDP: s.SDP}, nil
}

// Candidate is the wire shape of an ICE candidate payload.
type Candidate struct {
	Candidate        string  `json:"candidate"`
	SDPMid           *string `json:"sdpMid,omitempty"`
	SDPMLineIndex    *uint16 `json:"sdpMLineIndex,omitempty"`
	UsernameFragment *string `json:"usernameFragment,omitempty"`
}

func CandidateFromPion(init webrtc.ICECandidateInit) Candidate {
	return Candidate{
		Candidate:        init.Candidate,
		SDPMid:           init.SDPMid,
		SDPMLineIndex:    init.SDPMLineIndex,
		UsernameFragment: init.UsernameFragment,
	}
}

func (c Candidate) ToPion() webrtc.ICECandidateInit {
	return webrtc.ICECandidateInit{
		Candidate:        c.Candidate,
		SDPMid:           c.SDPMid,
		SDPMLineIndex:    c.SDPMLineIndex,
		UsernameFragment: c.UsernameFragment,
	}
}
