package liveserver

import (
	"context"
	"testing"
	"time"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := NewClient("c1")
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Broadcast(Message{Type: TypePosition, Data: map[string]int{"position": 10}})

	select {
	case msg := <-client.Outbox():
		if msg.Type != TypePosition {
			t.Errorf("message type = %q, want %q", msg.Type, TypePosition)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast never reached the client")
	}
}

func TestHubUnregisterClosesClient(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := NewClient("c1")
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Unregister(client)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	select {
	case _, open := <-client.Outbox():
		if open {
			t.Error("outbox should be closed after unregister")
		}
	case <-time.After(time.Second):
		t.Fatal("outbox never closed")
	}

	if client.Send(Message{Type: TypeStatus}) {
		t.Error("send to a closed client must report failure")
	}
}

func TestHubShutdownClosesAllClients(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	for i := 0; i < 3; i++ {
		hub.Register(NewClient("c"))
	}
	waitFor(t, func() bool { return hub.ClientCount() == 3 })

	cancel()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestSlowClientDropped(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := NewClient("slow")
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	// Nobody drains the outbox; overflow it past capacity.
	for i := 0; i < 300; i++ {
		hub.Broadcast(Message{Type: TypeStatus})
	}

	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}
