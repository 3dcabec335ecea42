package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/pflag"

	"github.com/vovakirdan/whisperbox/internal/proto"
)

// ws_smoke plays one full two-player round against a running server.
func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

type player struct {
	name string
	conn *websocket.Conn
}

func run() error {
	addr := pflag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	room := pflag.String("room", "SMOK", "room code")
	timeout := pflag.Duration("timeout", 15*time.Second, "total timeout for the run")
	pflag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	players := make([]*player, 0, 2)
	for _, name := range []string{"Alice", "Bob"} {
		conn, _, err := websocket.Dial(ctx, *addr, nil)
		if err != nil {
			return fmt.Errorf("dial %s: %w", name, err)
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		players = append(players, &player{name: name, conn: conn})
	}
	alice, bob := players[0], players[1]

	for _, p := range players {
		if err := send(ctx, p, proto.InboundTypeJoinRoom, proto.JoinRoomData{Username: p.name, RoomCode: *room}); err != nil {
			return err
		}
		if _, err := await(ctx, p, proto.EventJoinedRoom); err != nil {
			return err
		}
	}

	if err := send(ctx, alice, proto.InboundTypeStartGame, *room); err != nil {
		return err
	}
	for _, p := range players {
		f, err := await(ctx, p, proto.EventGameStarted)
		if err != nil {
			return err
		}
		fmt.Printf("%s targets: %s\n", p.name, f.Data)
	}

	if err := send(ctx, alice, proto.InboundTypeSubmitMessages, proto.SubmitMessagesData{
		RoomCode: *room,
		Messages: []proto.TargetedMessage{{TargetName: bob.name, Content: "hello from smoke test"}},
	}); err != nil {
		return err
	}
	if err := send(ctx, bob, proto.InboundTypeSubmitMessages, proto.SubmitMessagesData{
		RoomCode: *room,
		Messages: []proto.TargetedMessage{{TargetName: alice.name, Content: "and hello back"}},
	}); err != nil {
		return err
	}

	for _, p := range players {
		if _, err := await(ctx, p, proto.EventAllSubmitted); err != nil {
			return err
		}
	}
	fmt.Println("all submitted, waiting for reveal")

	for _, p := range players {
		f, err := await(ctx, p, proto.EventRevealMessages)
		if err != nil {
			return err
		}
		var messages []proto.RevealedMessage
		if err := json.Unmarshal(f.Data, &messages); err != nil {
			return fmt.Errorf("unmarshal reveal: %w", err)
		}
		for _, m := range messages {
			fmt.Printf("%s received: %q\n", p.name, m.Content)
		}
	}

	return send(ctx, alice, proto.InboundTypeRequestRestart, *room)
}

func send(ctx context.Context, p *player, msgType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msgType, err)
	}
	if err := wsjson.Write(ctx, p.conn, proto.Inbound{Type: msgType, Data: payload}); err != nil {
		return fmt.Errorf("send %s for %s: %w", msgType, p.name, err)
	}
	return nil
}

func await(ctx context.Context, p *player, event string) (frame, error) {
	for {
		var f frame
		if err := wsjson.Read(ctx, p.conn, &f); err != nil {
			return f, fmt.Errorf("read for %s: %w", p.name, err)
		}
		if f.Type == proto.OutboundTypeError && f.Error != nil {
			return f, fmt.Errorf("server error for %s: %s: %s", p.name, f.Error.Code, f.Error.Msg)
		}
		if f.Event == event {
			return f, nil
		}
	}
}
