package server

import (
	"encoding/json"
	"log/slog"

	"socialnet/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// EventConnected is the first frame written to a new notification stream.
const EventConnected = "connected"

// WebsocketHandler streams the caller's notifications. WebSocketAuthRequired
// must run first so userID is set.
// @Summary Notification stream
// @Description Upgrades to a websocket that receives {"type":"notification","payload":...} frames.
// @Tags notifications
// @Param token query string false "Access token when headers cannot be set"
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Failure 426 {object} models.ErrorResponse
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 {
			if cerr := conn.Close(); cerr != nil {
				slog.Warn("websocket close error", "error", cerr)
			}
			return
		}

		if s.hub == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"realtime delivery unavailable"}`))
			_ = conn.Close()
			return
		}

		// Register connection with scaling guardrails
		client, err := s.hub.Register(uid, conn)
		if err != nil {
			slog.Warn("websocket register failed", "user_id", uid, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		defer s.hub.UnregisterClient(client)

		if hello, err := json.Marshal(notifications.Event{
			Type:    EventConnected,
			Payload: fiber.Map{"user_id": uid},
		}); err == nil {
			client.TrySend(hello)
		}

		go client.WritePump()
		client.ReadPump()
	})
}
