package signaling

import (
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. 64 KB is generous for SDP.
	maxMessageSize = 64 * 1024
)

// Client wraps a single websocket connection to the signaling server.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	// RoomID and MemberID are set when the connection joins a room and
	// cleared when it leaves. Only the hub goroutine touches them.
	RoomID   string
	MemberID string

	// Send is the buffered channel of outbound messages, drained by
	// WritePump. Closed by the hub on unregister.
	Send chan *Message
}

// ReadPump pumps messages from the websocket connection to the hub.
//
// There is at most one reader per connection; all reads happen from this
// goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).Debug("websocket read")
			}
			break
		}

		msg.client = c
		c.Hub.Broadcast <- &msg
	}
}

// WritePump pumps messages from the hub to the websocket connection and sends
// periodic pings.
//
// There is at most one writer per connection; all writes happen from this
// goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(message); err != nil {
				log.WithError(err).Debug("websocket write")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
