package http

import (
	"encoding/json"
	"strings"

	"github.com/vovakirdan/whisperbox/internal/core"
	"github.com/vovakirdan/whisperbox/internal/proto"
)

const (
	errCodeInvalidMessage = "invalid_message"
	errCodeRateLimited    = "rate_limited"
)

var roomRefCommands = map[string]core.CommandKind{
	proto.InboundTypeStartGame:         core.CommandStartGame,
	proto.InboundTypeRequestRestart:    core.CommandRequestRestart,
	proto.InboundTypeRequestRoomUpdate: core.CommandRequestRoomUpdate,
}

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoinRoom:
		var join proto.JoinRoomData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, badPayload(inbound.Type)
		}
		if strings.TrimSpace(join.RoomCode) == "" || strings.TrimSpace(join.Username) == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "roomCode and username are required"}
		}
		return &core.Command{
			Kind:     core.CommandJoinRoom,
			Room:     join.RoomCode,
			Username: join.Username,
		}, nil
	case proto.InboundTypeSubmitMessages:
		var submit proto.SubmitMessagesData
		if err := json.Unmarshal(inbound.Data, &submit); err != nil {
			return nil, badPayload(inbound.Type)
		}
		if strings.TrimSpace(submit.RoomCode) == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "roomCode is required"}
		}
		messages := make([]core.OutgoingMessage, 0, len(submit.Messages))
		for _, m := range submit.Messages {
			messages = append(messages, core.OutgoingMessage{TargetName: m.TargetName, Content: m.Content})
		}
		return &core.Command{
			Kind:     core.CommandSubmitMessages,
			Room:     submit.RoomCode,
			Messages: messages,
		}, nil
	case proto.InboundTypeStartGame, proto.InboundTypeRequestRestart, proto.InboundTypeRequestRoomUpdate:
		var ref proto.RoomRef
		if err := json.Unmarshal(inbound.Data, &ref); err != nil {
			return nil, badPayload(inbound.Type)
		}
		if strings.TrimSpace(ref.RoomCode) == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "roomCode is required"}
		}
		return &core.Command{Kind: roomRefCommands[inbound.Type], Room: ref.RoomCode}, nil
	default:
		return nil, &proto.Error{Code: errCodeInvalidMessage, Msg: "unknown message type"}
	}
}

func badPayload(msgType string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "invalid " + msgType + " payload"}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventJoinedRoom:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventJoinedRoom,
			Data: proto.JoinedRoom{
				RoomCode: event.Room,
				ID:       event.Player.ID,
				Name:     event.Player.Name,
			},
		}
	case core.EventRoomData:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUpdateRoomData,
			Data: proto.UpdateRoomData{
				Users:  usersFromViews(event.Users),
				HostID: event.HostID,
			},
		}
	case core.EventGameStarted:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventGameStarted,
			Data:  proto.GameStarted{Targets: usersFromViews(event.Targets)},
		}
	case core.EventStatus:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUpdateStatus,
			Data:  event.Status,
		}
	case core.EventAllSubmitted:
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventAllSubmitted}
	case core.EventRevealMessages:
		messages := make([]proto.RevealedMessage, 0, len(event.Messages))
		for _, m := range event.Messages {
			messages = append(messages, proto.RevealedMessage{Content: m.Content})
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventRevealMessages,
			Data:  messages,
		}
	case core.EventRoomDeleted:
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventRoomDeleted}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func usersFromViews(views []core.PlayerView) []proto.User {
	users := make([]proto.User, 0, len(views))
	for _, v := range views {
		users = append(users, proto.User{ID: v.ID, Name: v.Name})
	}
	return users
}
