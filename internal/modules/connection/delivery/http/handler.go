package handler

import (
	"context"
	"net/http"

	"linkupserver/internal/format"
	connection "linkupserver/internal/modules/connection/service"
	"linkupserver/pkg/response"
	"github.com/gin-gonic/gin"
)

type ConnectionHandler struct {
	connectionService connection.ConnectionService
}

func NewConnectionHandler(connectionService connection.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

func (h *ConnectionHandler) Overview(c *gin.Context) {
	uid, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.connectionService.Overview(c.Request.Context(), uid)
	if err != nil {
		response.Error(c, err)
		return
	}

	respondView(c, "get success", view)
}

func (h *ConnectionHandler) Request(c *gin.Context) {
	h.mutate(c, h.connectionService.Request, "connect request sent")
}

func (h *ConnectionHandler) Accept(c *gin.Context) {
	h.mutate(c, h.connectionService.Accept, "connect accepted")
}

func (h *ConnectionHandler) Refuse(c *gin.Context) {
	h.mutate(c, h.connectionService.Refuse, "connect refused")
}

func (h *ConnectionHandler) Withdraw(c *gin.Context) {
	h.mutate(c, h.connectionService.Withdraw, "connect request withdrawn")
}

func (h *ConnectionHandler) Remove(c *gin.Context) {
	h.mutate(c, h.connectionService.Remove, "connection removed")
}

func (h *ConnectionHandler) mutate(c *gin.Context, op func(ctx context.Context, actorUID, otherUID string) (*format.ConnectionsView, error), message string) {
	actorUID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	otherUID := c.Param("uid")
	if otherUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "uid required"})
		return
	}

	view, err := op(c.Request.Context(), actorUID, otherUID)
	if err != nil {
		response.Error(c, err)
		return
	}

	respondView(c, message, view)
}

func respondView(c *gin.Context, message string, view *format.ConnectionsView) {
	response.OK(c, message, gin.H{
		"connections":     view,
		"connections_qty": view.Qty(),
	})
}
