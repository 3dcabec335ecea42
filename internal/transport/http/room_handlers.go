package http

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"github.com/vovakirdan/whisperbox/internal/core"
)

const qrSize = 320

// RoomHandlers provides read-only HTTP handlers for live rooms.
type RoomHandlers struct {
	hub Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PlayerResponse represents a player in API responses.
type PlayerResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// RoomResponse represents a room in API responses. Messages are never exposed.
type RoomResponse struct {
	Code       string           `json:"code"`
	Phase      string           `json:"phase"`
	HostID     string           `json:"hostId"`
	Players    []PlayerResponse `json:"players"`
	Submitted  int              `json:"submitted"`
	Round      int              `json:"round"`
	CreatedAt  string           `json:"createdAt"`
	LastActive string           `json:"lastActive"`
}

// ListRooms handles listing live rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.hub.Rooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "service unavailable"})
		return
	}

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, roomResponse(room))
	}

	h.log.Debug().Int("room_count", len(rooms)).Msg("rooms listed")
	c.JSON(http.StatusOK, response)
}

// GetRoom handles fetching one room.
// GET /api/rooms/:code
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	code := core.NormalizeCode(c.Param("code"))
	room, ok, err := h.hub.Room(c.Request.Context(), code)
	if err != nil {
		h.log.Error().Err(err).Str("room", code).Msg("failed to get room")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "service unavailable"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	c.JSON(http.StatusOK, roomResponse(room))
}

// QRCode renders a PNG QR code of the join link for a room code. The room
// does not need to exist yet: it is created by the first join.
// GET /api/rooms/:code/qr
func (h *RoomHandlers) QRCode(c *gin.Context) {
	code := core.NormalizeCode(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing room code"})
		return
	}

	png, err := qrcode.Encode(joinURL(c.Request, code), qrcode.Medium, qrSize)
	if err != nil {
		h.log.Error().Err(err).Str("room", code).Msg("qr generation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "qr generation failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// joinURL derives the public join link, respecting TLS and X-Forwarded-Proto.
func joinURL(r *http.Request, code string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + "/?room=" + url.QueryEscape(code)
}

func roomResponse(room core.RoomSnapshot) RoomResponse {
	players := make([]PlayerResponse, 0, len(room.Players))
	for _, p := range room.Players {
		players = append(players, PlayerResponse{ID: p.ID, Name: p.Name, Connected: p.Connected})
	}
	return RoomResponse{
		Code:       room.Code,
		Phase:      room.Phase.String(),
		HostID:     room.HostID,
		Players:    players,
		Submitted:  room.Submitted,
		Round:      room.Round,
		CreatedAt:  room.CreatedAt.Format(time.RFC3339),
		LastActive: room.LastActive.Format(time.RFC3339),
	}
}
