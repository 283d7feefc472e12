package handler

import (
	"github.com/gin-gonic/gin"

	"vidhub/internal/app"
	"vidhub/internal/transport/http/middleware"
	"vidhub/internal/transport/http/response"
)

type SubscriptionHandler struct {
	subscriptions *app.SubscriptionService
}

func NewSubscriptionHandler(subscriptions *app.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := h.subscriptions.Subscribe(c.Request.Context(), user.ID, c.Param("username")); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"channel": c.Param("username"), "subscribed": true}, "subscribed successfully")
}

func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := h.subscriptions.Unsubscribe(c.Request.Context(), user.ID, c.Param("username")); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"channel": c.Param("username"), "subscribed": false}, "unsubscribed successfully")
}
