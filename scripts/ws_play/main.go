package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/pflag"

	"github.com/vovakirdan/whisperbox/internal/proto"
)

const help = `commands:
  /start               start a round
  /to <name> <text>    queue an anonymous message
  /send                submit queued messages
  /who                 refresh the player list
  /restart             tear the room down`

// ws_play is an interactive terminal player.
func main() {
	if err := run(); err != nil {
		log.Printf("ws_play: %v", err)
		os.Exit(1)
	}
}

type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func run() error {
	addr := pflag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	user := pflag.StringP("user", "u", "cli-player", "display name")
	room := pflag.StringP("room", "r", "ABCD", "room code")
	pflag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := send(ctx, conn, proto.InboundTypeJoinRoom, proto.JoinRoomData{Username: *user, RoomCode: *room}); err != nil {
		return err
	}

	fmt.Printf("Connected to %s as %s in room %s\n", *addr, *user, *room)
	fmt.Println(help)

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *room)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func send(ctx context.Context, conn *websocket.Conn, msgType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msgType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", msgType, err)
	}
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}
		if f.Type == proto.OutboundTypeError && f.Error != nil {
			fmt.Printf("! %s: %s\n", f.Error.Code, f.Error.Msg)
			continue
		}
		printEvent(f)
	}
}

func printEvent(f frame) {
	switch f.Event {
	case proto.EventJoinedRoom:
		var evt proto.JoinedRoom
		if err := json.Unmarshal(f.Data, &evt); err == nil {
			fmt.Printf("[room %s] you are %s\n", evt.RoomCode, evt.Name)
		}
	case proto.EventUpdateRoomData:
		var evt proto.UpdateRoomData
		if err := json.Unmarshal(f.Data, &evt); err != nil {
			log.Printf("unmarshal updateRoomData: %v", err)
			return
		}
		names := make([]string, 0, len(evt.Users))
		for _, u := range evt.Users {
			if u.ID == evt.HostID {
				names = append(names, u.Name+" (host)")
				continue
			}
			names = append(names, u.Name)
		}
		fmt.Printf("players: %s\n", strings.Join(names, ", "))
	case proto.EventGameStarted:
		var evt proto.GameStarted
		if err := json.Unmarshal(f.Data, &evt); err != nil {
			log.Printf("unmarshal gameStarted: %v", err)
			return
		}
		names := make([]string, 0, len(evt.Targets))
		for _, u := range evt.Targets {
			names = append(names, u.Name)
		}
		fmt.Printf("round started, write to: %s\n", strings.Join(names, ", "))
	case proto.EventUpdateStatus:
		var status string
		if err := json.Unmarshal(f.Data, &status); err == nil {
			fmt.Println(status)
		}
	case proto.EventAllSubmitted:
		fmt.Println("everyone submitted, revealing soon...")
	case proto.EventRevealMessages:
		var messages []proto.RevealedMessage
		if err := json.Unmarshal(f.Data, &messages); err != nil {
			log.Printf("unmarshal revealMessages: %v", err)
			return
		}
		if len(messages) == 0 {
			fmt.Println("nobody wrote to you this round")
		}
		for _, m := range messages {
			fmt.Printf("  > %s\n", m.Content)
		}
	case proto.EventRoomDeleted:
		fmt.Println("room was closed, rejoin to play again")
	default:
		fmt.Printf("event=%s data=%s\n", f.Event, f.Data)
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, room string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	var queued []proto.TargetedMessage
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			var err error
			switch cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " "); cmd {
			case "":
				continue
			case "/start":
				err = send(ctx, conn, proto.InboundTypeStartGame, room)
			case "/to":
				name, text, found := strings.Cut(strings.TrimSpace(rest), " ")
				if !found || strings.TrimSpace(text) == "" {
					fmt.Println("usage: /to <name> <text>")
					continue
				}
				queued = append(queued, proto.TargetedMessage{TargetName: name, Content: strings.TrimSpace(text)})
				fmt.Printf("queued %d message(s)\n", len(queued))
			case "/send":
				err = send(ctx, conn, proto.InboundTypeSubmitMessages, proto.SubmitMessagesData{RoomCode: room, Messages: queued})
				queued = nil
			case "/who":
				err = send(ctx, conn, proto.InboundTypeRequestRoomUpdate, room)
			case "/restart":
				err = send(ctx, conn, proto.InboundTypeRequestRestart, room)
			default:
				fmt.Println(help)
			}
			if err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
