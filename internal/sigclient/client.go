package sigclient

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/Adarsh-codesOP/one2one/internal/signaling"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client manages the websocket connection to the signaling server.
type Client struct {
	conn      *websocket.Conn
	serverURL string
	log       *log.Entry
	incoming  chan *signaling.Message
	outgoing  chan *signaling.Message
	done      chan struct{}
	closed    bool
}

// NewClient creates a signaling client for the given websocket URL.
func NewClient(serverURL string, logger *log.Entry) *Client {
	return &Client{
		serverURL: serverURL,
		log:       logger,
		incoming:  make(chan *signaling.Message, 32),
		outgoing:  make(chan *signaling.Message, 32),
		done:      make(chan struct{}, 1),
	}
}

// Connect establishes the websocket connection and starts the pumps.
func (c *Client) Connect() error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.conn = conn
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump()
	go c.writePump()

	return nil
}

// readPump reads messages from the websocket connection.
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		close(c.incoming)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		var msg signaling.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		c.incoming <- &msg
	}
}

// writePump writes messages to the websocket connection and sends periodic
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// Send queues a message for the server without ever blocking the caller. A
// full buffer means the write pump has stalled or exited; the message is
// dropped, since signaling state is ephemeral and a dead connection surfaces
// through the closed incoming channel anyway.
func (c *Client) Send(msg *signaling.Message) {
	select {
	case c.outgoing <- msg:
	case <-c.done:
	default:
		c.log.WithField("type", msg.Type).Warn("send buffer full, dropping message")
	}
}

// Incoming returns the channel of messages from the server. It is closed when
// the connection drops.
func (c *Client) Incoming() <-chan *signaling.Message {
	return c.incoming
}

// Close shuts the websocket connection down.
func (c *Client) Close() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// CheckRoom asks the server whether the room has an occupant and waits up to
// timeout for the reply. The second return value reports whether a reply
// arrived; on timeout the caller is expected to proceed optimistically, since
// the check is advisory and must never block a join for good.
//
// CheckRoom reads from the incoming channel directly, so it has to be called
// before a Handler takes over dispatch.
func (c *Client) CheckRoom(roomID string, timeout time.Duration) (exists bool, replied bool) {
	c.Send(&signaling.Message{Type: signaling.MessageTypeCheckRoom, RoomID: roomID})

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case msg, ok := <-c.incoming:
			if !ok {
				return false, false
			}
			if msg.Type != signaling.MessageTypeRoomStatus || msg.RoomID != roomID {
				continue
			}
			var status signaling.RoomStatus
			if err := json.Unmarshal(msg.Payload, &status); err != nil {
				c.log.WithError(err).Warn("bad room-status payload")
				return false, false
			}
			return status.Exists, true

		case <-deadline.C:
			c.log.WithField("room", roomID).Warn("check-room timed out, joining optimistically")
			return false, false
		}
	}
}

// JoinRoom announces this member to the room.
func (c *Client) JoinRoom(roomID, memberID string) error {
	c.Send(&signaling.Message{
		Type:     signaling.MessageTypeJoinRoom,
		RoomID:   roomID,
		MemberID: memberID,
	})
	return nil
}

// LeaveRoom leaves the room explicitly.
func (c *Client) LeaveRoom(roomID string) error {
	c.Send(&signaling.Message{Type: signaling.MessageTypeLeaveRoom, RoomID: roomID})
	return nil
}

// SendOffer relays a local offer to the other room member.
func (c *Client) SendOffer(roomID string, desc signaling.SessionDescription) error {
	return c.sendPayload(signaling.MessageTypeOffer, roomID, desc)
}

// SendAnswer relays a local answer to the other room member.
func (c *Client) SendAnswer(roomID string, desc signaling.SessionDescription) error {
	return c.sendPayload(signaling.MessageTypeAnswer, roomID, desc)
}

// SendCandidate relays a locally gathered ICE candidate.
func (c *Client) SendCandidate(roomID string, cand signaling.Candidate) error {
	return c.sendPayload(signaling.MessageTypeICECandidate, roomID, cand)
}

func (c *Client) sendPayload(msgType, roomID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	c.Send(&signaling.Message{Type: msgType, RoomID: roomID, Payload: raw})
	return nil
}
