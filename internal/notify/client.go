package notify

import (
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/rs/zerolog/log"
	"github.com/scholarsync/scholarsync_server/internal/user"
)

const (
	writeTimeout   = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4 * 1024
	sendBufferSize = 64
)

type Client struct {
	hub           *Hub
	conn          *websocket.Conn
	user          *user.User
	send          chan interface{}
	subscriptions map[string]bool // subject -> subscribed
	mu            sync.RWMutex
}

func NewClient(hub *Hub, conn *websocket.Conn, user *user.User) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		user:          user,
		send:          make(chan interface{}, sendBufferSize),
		subscriptions: make(map[string]bool),
	}
}

func (c *Client) Subscribe(subject string) {
	c.mu.Lock()
	c.subscriptions[subject] = true
	c.mu.Unlock()

	c.hub.Subscribe(c, subject)

	log.Debug().
		Str("userId", c.user.ID).
		Str("subject", subject).
		Msg("[WS] Client subscribed to subject")
}

func (c *Client) Unsubscribe(subject string) {
	c.mu.Lock()
	delete(c.subscriptions, subject)
	c.mu.Unlock()

	c.hub.Unsubscribe(c, subject)

	log.Debug().
		Str("userId", c.user.ID).
		Str("subject", subject).
		Msg("[WS] Client unsubscribed from subject")
}

func (c *Client) IsSubscribed(subject string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subscriptions[subject]
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg IncomingMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Debug().
					Str("userId", c.user.ID).
					Err(err).
					Msg("[WS] Read error")
			} else {
				log.Debug().
					Str("userId", c.user.ID).
					Msg("[WS] Client disconnected")
			}
			return
		}

		c.handleMessage(&msg)
	}
}

func (c *Client) handleMessage(msg *IncomingMessage) {
	switch msg.Type {
	case MessageTypeSubscribe:
		if msg.Subject != "" {
			c.Subscribe(msg.Subject)
		}

	case MessageTypeUnsubscribe:
		if msg.Subject != "" {
			c.Unsubscribe(msg.Subject)
		}

	case MessageTypePing:
		c.send <- &OutgoingMessage{Type: MessageTypePong}

	default:
		log.Debug().
			Str("type", string(msg.Type)).
			Msg("[WS] Unknown message type")
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			err := c.conn.WriteJSON(message)
			if err != nil {
				log.Debug().
					Str("userId", c.user.ID).
					Err(err).
					Msg("[WS] Write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().
					Str("userId", c.user.ID).
					Err(err).
					Msg("[WS] Ping error")
				return
			}
		}
	}
}
