package handlers

import (
	"github.com/gin-gonic/gin"

	"crowdfund/internal/events"
)

// StreamEvents upgrades to a websocket carrying fundraiser events. ?campaign= filters to
// one campaign address.
func StreamEvents(hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request)
	}
}
