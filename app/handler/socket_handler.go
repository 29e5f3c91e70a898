package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type socketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// SocketHandler upgrades clients onto the broadcast hub
type SocketHandler struct {
	hub socketServer
}

// NewSocketHandler creates socket handler
func NewSocketHandler(hub socketServer) *SocketHandler {
	return &SocketHandler{hub: hub}
}

// Connect upgrades the request to a WebSocket
func (h *SocketHandler) Connect(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}
