package server

import (
	"log/slog"

	"thoughtwave/internal/featureflags"
	"thoughtwave/internal/middleware"
	"thoughtwave/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// EventStreamUpgrade rejects requests that cannot become an event stream:
// non-upgrade requests, a disabled hub, an unknown user, or a user outside
// the event_stream rollout.
func (s *Server) EventStreamUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return models.RespondWithError(c, fiber.StatusUpgradeRequired,
			models.NewValidationError("WebSocket upgrade required"))
	}
	if s.hub == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			&models.AppError{Message: "Event streaming is disabled"})
	}

	user, err := s.userService.GetUser(c.UserContext(), param(c, "userId"))
	if err != nil {
		return respondServiceError(c, err)
	}
	if !s.featureFlags.Enabled(featureflags.EventStream, user.ID) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			&models.AppError{Code: "FEATURE_DISABLED", Message: "Event streaming is not enabled for this user"})
	}
	c.Locals("userID", user.ID)
	return c.Next()
}

// EventStreamHandler streams the user's domain events until the peer disconnects.
// @Summary Stream user events
// @Description Upgrades to a WebSocket that receives the user's domain events as JSON
// @Tags events
// @Param userId path string true "User ID"
// @Success 101
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 426 {object} models.ErrorResponse
// @Router /ws/users/{userId} [get]
func (s *Server) EventStreamHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(string)
		if !ok || userID == "" {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("event stream rejected",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			_ = conn.WriteJSON(fiber.Map{"error": err.Error()})
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
