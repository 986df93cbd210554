package notify

import (
	"testing"
	"time"

	"github.com/scholarsync/scholarsync_server/internal/note"
	"github.com/scholarsync/scholarsync_server/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConnectedClient(t *testing.T, hub *Hub, userID string) *Client {
	t.Helper()
	client := NewClient(hub, nil, &user.User{ID: userID, Name: userID})
	hub.Register(client)
	return client
}

func receiveNote(t *testing.T, client *Client) *NoteMessage {
	t.Helper()
	select {
	case raw := <-client.send:
		msg, ok := raw.(*NoteMessage)
		require.True(t, ok, "expected a note message, got %T", raw)
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a note message")
		return nil
	}
}

func TestHub_BroadcastsToSubjectSubscribers(t *testing.T) {
	// given: two watchers on different subjects
	hub := NewHub()
	go hub.Run()

	algebra := newConnectedClient(t, hub, "algebra-fan")
	algebra.Subscribe("Linear Algebra")
	databases := newConnectedClient(t, hub, "db-fan")
	databases.Subscribe("Databases")

	// when
	hub.NoteCreated(&note.Note{ID: "n1", Subject: "Linear Algebra", UploaderID: "someone-else"})

	// then: only the matching subscriber hears about it
	msg := receiveNote(t, algebra)
	assert.Equal(t, "n1", msg.Note.ID)
	assert.Empty(t, databases.send)
}

func TestHub_SkipsTheUploader(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	uploader := newConnectedClient(t, hub, "uploader")
	uploader.Subscribe("Calculus")
	watcher := newConnectedClient(t, hub, "watcher")
	watcher.Subscribe("Calculus")

	hub.NoteCreated(&note.Note{ID: "n2", Subject: "Calculus", UploaderID: "uploader"})

	msg := receiveNote(t, watcher)
	assert.Equal(t, "n2", msg.Note.ID)
	assert.Empty(t, uploader.send)
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newConnectedClient(t, hub, "fickle")
	client.Subscribe("Physics")
	client.Unsubscribe("Physics")

	hub.NoteCreated(&note.Note{ID: "n3", Subject: "Physics", UploaderID: "someone"})

	// give the hub a moment to (not) deliver
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, client.send)
}

func TestHub_StatsTrackSubscriptions(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := newConnectedClient(t, hub, "a")
	a.Subscribe("Physics")
	a.Subscribe("Chemistry")
	b := newConnectedClient(t, hub, "b")
	b.Subscribe("Physics")

	// registration goes through the hub goroutine
	assert.Eventually(t, func() bool {
		clients, subs := hub.GetStats()
		return clients == 2 && subs == 3
	}, time.Second, 10*time.Millisecond)
}
