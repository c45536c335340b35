package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func newTestServer(t *testing.T, snapshot SnapshotFunc) *Server {
	t.Helper()

	server := NewServer("localhost:0", snapshot, log.New(io.Discard, "", 0))
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })

	time.Sleep(50 * time.Millisecond)
	return server
}

func dial(t *testing.T, ctx context.Context, server *Server) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, "ws://"+server.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func TestServerStartStop(t *testing.T) {
	server := NewServer("localhost:0", nil, log.New(io.Discard, "", 0))

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	if server.Addr() == "" {
		t.Fatal("Server address is empty")
	}
	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}
}

func TestWelcomeMessageCarriesSnapshot(t *testing.T) {
	server := newTestServer(t, func() ProgressData {
		return ProgressData{XP: 350, Level: 2, Title: "Apprentice", Streak: 3}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, server)

	if count := server.ClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeProgress {
		t.Errorf("Expected welcome message type %s, got %s", MessageTypeProgress, msg.Type)
	}

	var snap ProgressData
	if err := json.Unmarshal(msg.Data, &snap); err != nil {
		t.Fatalf("Failed to unmarshal progress data: %v", err)
	}
	if snap.XP != 350 || snap.Level != 2 {
		t.Errorf("Snapshot mismatch: %+v", snap)
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	server := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	numClients := 3
	conns := make([]*websocket.Conn, numClients)
	for i := 0; i < numClients; i++ {
		conns[i] = dial(t, ctx, server)
		// Drain the welcome message.
		if _, _, err := conns[i].Read(ctx); err != nil {
			t.Fatalf("Failed to read welcome for client %d: %v", i, err)
		}
	}
	if count := server.ClientCount(); count != numClients {
		t.Fatalf("Expected %d clients, got %d", numClients, count)
	}

	server.BroadcastAchievement(AchievementData{
		ID:     "streak-7",
		Title:  "Week Streak",
		Detail: "7 days in a row",
	})

	for i, conn := range conns {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("Client %d failed to read broadcast: %v", i, err)
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if msg.Type != MessageTypeAchievement {
			t.Errorf("Expected message type %s, got %s", MessageTypeAchievement, msg.Type)
		}

		var unlock AchievementData
		if err := json.Unmarshal(msg.Data, &unlock); err != nil {
			t.Fatalf("Failed to unmarshal achievement data: %v", err)
		}
		if unlock.ID != "streak-7" {
			t.Errorf("Expected achievement streak-7, got %s", unlock.ID)
		}
	}
}

func TestSyncStatusBroadcast(t *testing.T) {
	server := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, server)
	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}

	server.BroadcastSyncStatus("pushing", 7)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read broadcast: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeSyncStatus {
		t.Errorf("Expected message type %s, got %s", MessageTypeSyncStatus, msg.Type)
	}

	var status SyncStatusData
	if err := json.Unmarshal(msg.Data, &status); err != nil {
		t.Fatalf("Failed to unmarshal status data: %v", err)
	}
	if status.Status != "pushing" || status.Version != 7 {
		t.Errorf("Status mismatch: %+v", status)
	}
}

func TestBroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	server := newTestServer(t, nil)

	for i := 0; i < 150; i++ {
		server.BroadcastProgress(ProgressData{XP: i})
	}
}
