package notify

import "github.com/scholarsync/scholarsync_server/internal/note"

type MessageType string

const (
	MessageTypeNoteCreated MessageType = "noteCreated"
	MessageTypeConnected   MessageType = "connected"
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypePing        MessageType = "ping"
	MessageTypePong        MessageType = "pong"
	MessageTypeError       MessageType = "error"
)

type IncomingMessage struct {
	Type    MessageType `json:"type"`
	Subject string      `json:"subject,omitempty"`
}

type OutgoingMessage struct {
	Type   MessageType `json:"type"`
	UserID string      `json:"userId,omitempty"`
	Error  string      `json:"error,omitempty"`
}

type NoteMessage struct {
	Type MessageType `json:"type"`
	Note *note.Note  `json:"note"`
}

type broadcastMessage struct {
	subject string
	note    *note.Note
}
