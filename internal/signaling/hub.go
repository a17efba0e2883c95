package signaling

import (
	"context"
	"encoding/json"

	log "github.com/sirupsen/logrus"
)

// Hub is the signaling relay. A single goroutine (Run) owns every state
// transition: clients register and unregister through channels, and all
// inbound websocket messages funnel through Broadcast. Room membership itself
// lives in the Registry; the hub only keeps the member id -> connection
// mapping it needs for fanout.
type Hub struct {
	// Register is the channel for newly upgraded connections.
	Register chan *Client

	// Unregister is the channel for connections whose read pump ended.
	Unregister chan *Client

	// Broadcast carries every message read from a client connection.
	Broadcast chan *Message

	registry *Registry
	clients  map[string]*Client
	log      *log.Entry
}

// NewHub creates a Hub around the given registry.
func NewHub(registry *Registry, logger *log.Entry) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan *Message),
		registry:   registry,
		clients:    make(map[string]*Client),
		log:        logger,
	}
}

// Run processes hub events until ctx is cancelled. It is the only goroutine
// that touches hub state, so no locking is needed here.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case client := <-h.Register:
			h.log.WithField("remote", client.Conn.RemoteAddr().String()).Debug("client connected")

		case client := <-h.Unregister:
			h.log.WithField("remote", client.Conn.RemoteAddr().String()).Debug("client disconnected")
			if client.RoomID != "" {
				h.leaveRoom(client)
			}
			close(client.Send)

		case message := <-h.Broadcast:
			h.handleMessage(message)
		}
	}
}

func (h *Hub) handleMessage(msg *Message) {
	client := msg.client

	switch msg.Type {

	case MessageTypeJoinRoom:
		if msg.RoomID == "" || msg.MemberID == "" {
			h.log.Warn("join-room without room or member id, ignoring")
			return
		}

		// A connection belongs to at most one room. A repeated join for the
		// same room is idempotent; a join for another room leaves the old one
		// first.
		if client.RoomID != "" && client.RoomID != msg.RoomID {
			h.leaveRoom(client)
		}

		before := h.registry.Join(msg.RoomID, msg.MemberID)
		client.RoomID = msg.RoomID
		client.MemberID = msg.MemberID
		h.clients[msg.MemberID] = client

		h.log.WithFields(log.Fields{
			"room":      msg.RoomID,
			"member":    msg.MemberID,
			"occupancy": before,
		}).Info("member joined room")

		// Only the existing members learn about the joiner. The joiner finds
		// out about its peer by receiving the offer.
		h.broadcastToOthers(client, &Message{
			Type:     MessageTypeUserConnected,
			RoomID:   msg.RoomID,
			MemberID: msg.MemberID,
		})

	case MessageTypeLeaveRoom:
		if client.RoomID != "" {
			h.leaveRoom(client)
		}

	case MessageTypeCheckRoom:
		exists := h.registry.Exists(msg.RoomID)
		h.log.WithFields(log.Fields{"room": msg.RoomID, "exists": exists}).Debug("check-room")

		payload, _ := json.Marshal(RoomStatus{Exists: exists})
		h.send(client, &Message{
			Type:    MessageTypeRoomStatus,
			RoomID:  msg.RoomID,
			Payload: payload,
		})

	case MessageTypeOffer, MessageTypeAnswer, MessageTypeICECandidate:
		// The payload is opaque; it is relayed untouched to every other
		// member of the room. An empty or unknown room means zero recipients,
		// which is not an error.
		roomID := msg.RoomID
		if roomID == "" {
			roomID = client.RoomID
		}
		h.log.WithFields(log.Fields{"type": msg.Type, "room": roomID}).Debug("relaying signal")
		h.broadcastToOthers(client, &Message{
			Type:     msg.Type,
			RoomID:   roomID,
			MemberID: client.MemberID,
			Payload:  msg.Payload,
		})

	default:
		h.log.WithField("type", msg.Type).Warn("unknown message type")
	}
}

// leaveRoom removes the client from its room and tells the remaining members.
func (h *Hub) leaveRoom(client *Client) {
	roomID, memberID := client.RoomID, client.MemberID
	client.RoomID = ""
	client.MemberID = ""

	h.registry.Leave(roomID, memberID)
	delete(h.clients, memberID)

	h.log.WithFields(log.Fields{"room": roomID, "member": memberID}).Info("member left room")

	h.broadcastToRoom(roomID, &Message{
		Type:     MessageTypeUserDisconnected,
		RoomID:   roomID,
		MemberID: memberID,
	})
}

// broadcastToOthers sends msg to every member of the sender's room except the
// sender itself.
func (h *Hub) broadcastToOthers(sender *Client, msg *Message) {
	for _, memberID := range h.registry.Members(msg.RoomID) {
		if memberID == sender.MemberID {
			continue
		}
		if peer, ok := h.clients[memberID]; ok {
			h.send(peer, msg)
		}
	}
}

// broadcastToRoom sends msg to every current member of the room.
func (h *Hub) broadcastToRoom(roomID string, msg *Message) {
	for _, memberID := range h.registry.Members(roomID) {
		if peer, ok := h.clients[memberID]; ok {
			h.send(peer, msg)
		}
	}
}

// send queues msg for a client without ever blocking the hub loop. A client
// whose write pump cannot keep up loses the message; signaling state is
// ephemeral and the peer will fall off via ping timeout anyway.
func (h *Hub) send(client *Client, msg *Message) {
	select {
	case client.Send <- msg:
	default:
		h.log.WithField("member", client.MemberID).Warn("send buffer full, dropping message")
	}
}
