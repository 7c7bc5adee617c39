package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/vault"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "vault.reloaded", Data: map[string]string{"root": "notes"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: vault.reloaded") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"root":"notes"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishChange_GraphThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First link-affecting change should trigger graph.updated.
	b.PublishChange(vault.Event{Kind: vault.EventNoteCreated, Note: models.NoteID{Slot: 1}, Links: true})
	// Second one immediately should NOT trigger another graph.updated.
	b.PublishChange(vault.Event{Kind: vault.EventNoteSaved, Note: models.NoteID{Slot: 2}, Links: true})
	// Tag-only changes never do.
	b.PublishChange(vault.Event{Kind: vault.EventNoteUpdated, Note: models.NoteID{Slot: 2}})

	// Drain and count events.
	time.Sleep(50 * time.Millisecond)
	graphCount := 0
	noteCount := 0
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "graph.updated") {
				graphCount++
			} else {
				noteCount++
			}
		default:
			break loop
		}
	}

	if noteCount != 3 {
		t.Errorf("note events = %d, want 3", noteCount)
	}
	if graphCount != 1 {
		t.Errorf("graph events = %d, want 1 (throttled)", graphCount)
	}

	// The throttled change is delivered once the window closes.
	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), "event: graph.updated") {
			t.Errorf("trailing message = %q, want graph.updated", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("trailing graph.updated not delivered")
	}
	select {
	case msg := <-ch:
		t.Errorf("unexpected extra message %q", msg)
	case <-time.After(700 * time.Millisecond):
	}
}

func TestMessagesCarrySequenceIDs(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "a", Data: 1})
	b.Publish(Event{Type: "b", Data: 2})

	for _, want := range []string{"id: 1\nevent: a\n", "id: 2\nevent: b\n"} {
		select {
		case msg := <-ch:
			if !strings.HasPrefix(string(msg), want) {
				t.Errorf("message = %q, want prefix %q", msg, want)
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for message")
		}
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishChange(vault.Event{Kind: vault.EventNoteSaved, Note: models.NoteID{Folder: 3, Slot: 4}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: note.saved") {
		t.Errorf("handler output missing event: %q", body)
	}
	if !strings.Contains(body, `"note":"3:4"`) {
		t.Errorf("handler output missing note id: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "vault.reloaded", Data: map[string]string{}})
	b.PublishChange(vault.Event{Kind: vault.EventFolderDeleted, Folder: 1})
}

func TestChangeEventPayload(t *testing.T) {
	ev := changeEvent(vault.Event{Kind: vault.EventTagChanged, Tag: 7})
	if ev.Type != "tag.changed" {
		t.Fatalf("type = %q", ev.Type)
	}
	data := ev.Data.(changeData)
	if data.Note != "" || data.Tag != 7 {
		t.Errorf("unexpected payload %+v", data)
	}

	ev = changeEvent(vault.Event{Kind: vault.EventNoteRenamed, Note: models.NoteID{Folder: 1, Slot: 2}, Folder: 1})
	if got := ev.Data.(changeData).Note; got != "1:2" {
		t.Errorf("note = %q, want 1:2", got)
	}
}
