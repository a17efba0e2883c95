package sigclient

import (
	"encoding/json"

	"github.com/Adarsh-codesOP/one2one/internal/signaling"
)

// Handler routes incoming signaling messages to typed channels.
type Handler struct {
	client *Client

	UserConnected    chan string
	UserDisconnected chan string
	Offer            chan signaling.SessionDescription
	Answer           chan signaling.SessionDescription
	Candidate        chan signaling.Candidate
	Disconnected     chan struct{}
}

// NewHandler creates a message handler over an established client.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:           client,
		UserConnected:    make(chan string, 1),
		UserDisconnected: make(chan string, 1),
		Offer:            make(chan signaling.SessionDescription, 1),
		Answer:           make(chan signaling.SessionDescription, 1),
		Candidate:        make(chan signaling.Candidate, 32),
		Disconnected:     make(chan struct{}, 1),
	}
}

// Start consumes incoming messages and routes them until the connection
// closes, then signals Disconnected.
func (h *Handler) Start() {
	for msg := range h.client.Incoming() {

		switch msg.Type {

		case signaling.MessageTypeUserConnected:
			h.UserConnected <- msg.MemberID

		case signaling.MessageTypeUserDisconnected:
			h.UserDisconnected <- msg.MemberID

		case signaling.MessageTypeOffer:
			var desc signaling.SessionDescription
			if h.decode(msg, &desc) {
				h.Offer <- desc
			}

		case signaling.MessageTypeAnswer:
			var desc signaling.SessionDescription
			if h.decode(msg, &desc) {
				h.Answer <- desc
			}

		case signaling.MessageTypeICECandidate:
			var cand signaling.Candidate
			if h.decode(msg, &cand) {
				h.Candidate <- cand
			}

		case signaling.MessageTypeRoomStatus:
			// Late check-room reply after the optimistic fallback: advisory
			// only, nothing left to do with it.

		default:
			h.client.log.WithField("type", msg.Type).Debug("ignoring message")
		}
	}

	h.Disconnected <- struct{}{}
}

func (h *Handler) decode(msg *signaling.Message, v any) bool {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		h.client.log.WithError(err).WithField("type", msg.Type).Warn("bad signal payload")
		return false
	}
	return true
}
