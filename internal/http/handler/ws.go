package handler

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docvault/internal/auth"
	"docvault/internal/http/middleware"
	"docvault/internal/notify"
)

// UpgradeRequired rejects plain HTTP requests on the socket route so that
// authentication only runs for real handshakes.
func UpgradeRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}
}

// Notifications joins the authenticated caller to their room and streams
// hub events as text frames until either side closes.
// @Summary Event stream
// @Tags notifications
// @Param token query string false "Bearer token when headers cannot be set"
// @Success 101
// @Failure 401 {object} errorPayload
// @Failure 426 {object} errorPayload
// @Router /ws [get]
func Notifications(hub *notify.Hub, log *zap.Logger) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		id, found := conn.Locals(middleware.IdentityLocalKey).(auth.Identity)
		if !found {
			_ = conn.Close()
			return
		}
		sess := hub.Join(id.UserID)
		if sess == nil {
			_ = conn.Close()
			return
		}
		defer hub.Leave(sess)

		done := make(chan struct{})
		go func() {
			defer close(done)
			// The queue closes on Leave or hub shutdown; closing the socket
			// then unblocks the read loop below.
			defer conn.Close()
			for frame := range sess.Outbound() {
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					log.Debug("ws_write_failed", zap.Int64("user_id", id.UserID), zap.Error(err))
					return
				}
			}
		}()

		// Clients never send anything meaningful; reading detects disconnects.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		hub.Leave(sess)
		<-done
	})
}
