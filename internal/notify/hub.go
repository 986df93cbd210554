package notify

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/scholarsync/scholarsync_server/internal/note"
)

// Hub fans freshly uploaded notes out to connected clients. Clients
// subscribe per subject; the hub satisfies the note service's Notifier.
type Hub struct {
	clients    map[*Client]bool
	bySubject  map[string][]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		bySubject:  make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToSubject(message)
		}
	}
}

// NoteCreated pushes a new note to everyone watching its subject.
// Non-blocking so a slow hub never stalls an upload response.
func (h *Hub) NoteCreated(n *note.Note) {
	select {
	case h.broadcast <- &broadcastMessage{subject: n.Subject, note: n}:
	default:
		log.Warn().Str("noteId", n.ID).Msg("[WS] Broadcast queue full, dropping note event")
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	log.Info().
		Str("userId", client.user.ID).
		Int("totalClients", len(h.clients)).
		Msg("[WS] Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	close(client.send)

	for subject := range client.subscriptions {
		h.removeFromSubjectSubscribers(client, subject)
	}

	log.Info().
		Str("userId", client.user.ID).
		Int("totalClients", len(h.clients)).
		Msg("[WS] Client unregistered")
}

func (h *Hub) removeFromSubjectSubscribers(client *Client, subject string) {
	subscribers := h.bySubject[subject]
	for i, c := range subscribers {
		if c == client {
			h.bySubject[subject] = append(subscribers[:i], subscribers[i+1:]...)
			break
		}
	}
	if len(h.bySubject[subject]) == 0 {
		delete(h.bySubject, subject)
	}
}

func (h *Hub) Subscribe(client *Client, subject string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.bySubject[subject] {
		if c == client {
			return
		}
	}

	h.bySubject[subject] = append(h.bySubject[subject], client)

	log.Debug().
		Str("subject", subject).
		Int("subscribers", len(h.bySubject[subject])).
		Msg("[WS] Subject subscription added")
}

func (h *Hub) Unsubscribe(client *Client, subject string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromSubjectSubscribers(client, subject)
}

func (h *Hub) broadcastToSubject(msg *broadcastMessage) {
	h.mu.RLock()
	clients := make([]*Client, len(h.bySubject[msg.subject]))
	copy(clients, h.bySubject[msg.subject])
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	noteMsg := &NoteMessage{
		Type: MessageTypeNoteCreated,
		Note: msg.note,
	}

	for _, client := range clients {
		// The uploader already has the note on screen.
		if client.user.ID == msg.note.UploaderID {
			continue
		}

		select {
		case client.send <- noteMsg:
		default:
			log.Warn().
				Str("userId", client.user.ID).
				Str("subject", msg.subject).
				Msg("[WS] Client send buffer full, dropping message")
		}
	}

	log.Debug().
		Str("subject", msg.subject).
		Str("noteId", msg.note.ID).
		Int("subscribers", len(clients)).
		Msg("[WS] Note broadcast complete")
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) GetStats() (totalClients, totalSubscriptions int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	totalClients = len(h.clients)
	for _, clients := range h.bySubject {
		totalSubscriptions += len(clients)
	}
	return
}
