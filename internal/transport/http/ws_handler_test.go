package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/whisperbox/internal/config"
	"github.com/vovakirdan/whisperbox/internal/core"
	"github.com/vovakirdan/whisperbox/internal/proto"
)

func startTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()

	hub := core.NewHub(core.HubOptions{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	logger := zerolog.Nop()
	server := NewServer(hub, &cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", msgType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) frame {
	t.Helper()
	var f frame
	if err := wsjson.Read(ctx, conn, &f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

// readEvent skips frames until the named event arrives and match accepts it.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, match func(frame) bool) frame {
	t.Helper()
	for {
		f := readFrame(t, ctx, conn)
		if f.Type == proto.OutboundTypeEvent && f.Event == event && (match == nil || match(f)) {
			return f
		}
	}
}

func roomSize(n int) func(frame) bool {
	return func(f frame) bool {
		var data proto.UpdateRoomData
		return json.Unmarshal(f.Data, &data) == nil && len(data.Users) == n
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t, nil)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketFullRound(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	alice := dial(t, ctx, ts)
	bob := dial(t, ctx, ts)

	send(t, ctx, alice, proto.InboundTypeJoinRoom, proto.JoinRoomData{Username: "Alice", RoomCode: "abcd"})
	var joined proto.JoinedRoom
	if err := json.Unmarshal(readEvent(t, ctx, alice, proto.EventJoinedRoom, nil).Data, &joined); err != nil {
		t.Fatalf("decode joinedRoom: %v", err)
	}
	if joined.RoomCode != "ABCD" || joined.Name != "Alice" || joined.ID == "" {
		t.Fatalf("unexpected joinedRoom: %+v", joined)
	}

	send(t, ctx, bob, proto.InboundTypeJoinRoom, proto.JoinRoomData{Username: "Bob", RoomCode: "ABCD"})
	var update proto.UpdateRoomData
	if err := json.Unmarshal(readEvent(t, ctx, alice, proto.EventUpdateRoomData, roomSize(2)).Data, &update); err != nil {
		t.Fatalf("decode updateRoomData: %v", err)
	}
	if update.HostID != joined.ID {
		t.Fatalf("expected Alice to host, got %+v", update)
	}

	// Bare string payload.
	send(t, ctx, alice, proto.InboundTypeStartGame, "ABCD")

	var started proto.GameStarted
	if err := json.Unmarshal(readEvent(t, ctx, alice, proto.EventGameStarted, nil).Data, &started); err != nil {
		t.Fatalf("decode gameStarted: %v", err)
	}
	if len(started.Targets) != 1 || started.Targets[0].Name != "Bob" {
		t.Fatalf("unexpected targets for Alice: %+v", started.Targets)
	}
	readEvent(t, ctx, bob, proto.EventGameStarted, nil)

	send(t, ctx, alice, proto.InboundTypeSubmitMessages, proto.SubmitMessagesData{
		RoomCode: "ABCD",
		Messages: []proto.TargetedMessage{{TargetName: "bob", Content: "hi"}},
	})
	send(t, ctx, bob, proto.InboundTypeSubmitMessages, proto.SubmitMessagesData{
		RoomCode: "ABCD",
		Messages: []proto.TargetedMessage{{TargetName: "Alice", Content: "yo"}},
	})

	status := readEvent(t, ctx, alice, proto.EventUpdateStatus, nil)
	var line string
	if err := json.Unmarshal(status.Data, &line); err != nil || !strings.Contains(line, "/2)") {
		t.Fatalf("unexpected status %s (%v)", status.Data, err)
	}

	readEvent(t, ctx, alice, proto.EventAllSubmitted, nil)
	readEvent(t, ctx, bob, proto.EventAllSubmitted, nil)
	submittedAt := time.Now()

	bobReveal := readEvent(t, ctx, bob, proto.EventRevealMessages, nil)
	if elapsed := time.Since(submittedAt); elapsed < 3*time.Second {
		t.Fatalf("messages revealed after %s, before the countdown", elapsed)
	}
	var got []proto.RevealedMessage
	if err := json.Unmarshal(bobReveal.Data, &got); err != nil {
		t.Fatalf("decode revealMessages: %v", err)
	}
	if len(got) != 1 || got[0].Content != "hi" {
		t.Fatalf("Bob received %+v", got)
	}
	if strings.Contains(string(bobReveal.Data), "Alice") || strings.Contains(string(bobReveal.Data), joined.ID) {
		t.Fatalf("reveal payload leaks the sender: %s", bobReveal.Data)
	}

	aliceReveal := readEvent(t, ctx, alice, proto.EventRevealMessages, nil)
	if err := json.Unmarshal(aliceReveal.Data, &got); err != nil || len(got) != 1 || got[0].Content != "yo" {
		t.Fatalf("Alice received %s (%v)", aliceReveal.Data, err)
	}

	send(t, ctx, bob, proto.InboundTypeRequestRestart, proto.RoomRef{RoomCode: "ABCD"})
	readEvent(t, ctx, alice, proto.EventRoomDeleted, nil)
	readEvent(t, ctx, bob, proto.EventRoomDeleted, nil)
}

func TestWebSocketProtocolErrors(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dial(t, ctx, ts)

	send(t, ctx, conn, "dance", map[string]string{})
	f := readFrame(t, ctx, conn)
	if f.Type != proto.OutboundTypeError || f.Error == nil || f.Error.Code != errCodeInvalidMessage {
		t.Fatalf("expected invalid_message error, got %+v", f)
	}

	send(t, ctx, conn, proto.InboundTypeJoinRoom, proto.JoinRoomData{RoomCode: "ABCD"})
	f = readFrame(t, ctx, conn)
	if f.Error == nil || f.Error.Code != core.ErrCodeBadRequest {
		t.Fatalf("expected bad_request for missing username, got %+v", f)
	}

	send(t, ctx, conn, proto.InboundTypeStartGame, 42)
	f = readFrame(t, ctx, conn)
	if f.Error == nil || f.Error.Code != core.ErrCodeBadRequest {
		t.Fatalf("expected bad_request for numeric room, got %+v", f)
	}

	// The connection survives protocol errors.
	send(t, ctx, conn, proto.InboundTypeJoinRoom, proto.JoinRoomData{Username: "Alice", RoomCode: "ABCD"})
	readEvent(t, ctx, conn, proto.EventJoinedRoom, nil)
}

func TestWebSocketRateLimit(t *testing.T) {
	ts := startTestServer(t, func(cfg *config.Config) { cfg.RateLimitPerMinute = 2 })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dial(t, ctx, ts)

	// Updates for an unknown room are ignored silently, so the only reply is
	// the rate limit error.
	for i := 0; i < 3; i++ {
		send(t, ctx, conn, proto.InboundTypeRequestRoomUpdate, "NOPE")
	}
	f := readFrame(t, ctx, conn)
	if f.Type != proto.OutboundTypeError || f.Error == nil || f.Error.Code != errCodeRateLimited {
		t.Fatalf("expected rate_limited error, got %+v", f)
	}
}

func TestWebSocketReconnectResumesRound(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dial(t, ctx, ts)
	bob := dial(t, ctx, ts)
	send(t, ctx, alice, proto.InboundTypeJoinRoom, proto.JoinRoomData{Username: "Alice", RoomCode: "ABCD"})
	send(t, ctx, bob, proto.InboundTypeJoinRoom, proto.JoinRoomData{Username: "Bob", RoomCode: "ABCD"})
	readEvent(t, ctx, alice, proto.EventUpdateRoomData, roomSize(2))
	send(t, ctx, alice, proto.InboundTypeStartGame, proto.RoomRef{RoomCode: "ABCD"})
	readEvent(t, ctx, alice, proto.EventGameStarted, nil)
	readEvent(t, ctx, bob, proto.EventGameStarted, nil)

	bob.Close(websocket.StatusNormalClosure, "refresh")
	// The membership broadcast tells Alice the server saw Bob go away.
	readEvent(t, ctx, alice, proto.EventUpdateRoomData, nil)

	again := dial(t, ctx, ts)
	send(t, ctx, again, proto.InboundTypeJoinRoom, proto.JoinRoomData{Username: "Bob", RoomCode: "ABCD"})
	var rejoined proto.JoinedRoom
	if err := json.Unmarshal(readEvent(t, ctx, again, proto.EventJoinedRoom, nil).Data, &rejoined); err != nil {
		t.Fatalf("decode joinedRoom: %v", err)
	}
	if rejoined.Name != "Bob" {
		t.Fatalf("reconnect should keep the name, got %+v", rejoined)
	}

	var started proto.GameStarted
	if err := json.Unmarshal(readEvent(t, ctx, again, proto.EventGameStarted, nil).Data, &started); err != nil {
		t.Fatalf("decode gameStarted: %v", err)
	}
	if len(started.Targets) != 1 || started.Targets[0].Name != "Alice" {
		t.Fatalf("targets not re-sent on reconnect: %+v", started.Targets)
	}
}
