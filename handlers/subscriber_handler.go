package handlers

import (
	"net/http"

	"quizblog/services"

	"github.com/gin-gonic/gin"
)

type SubscriberHandler struct {
	subscriberService *services.SubscriberService
}

func NewSubscriberHandler(subscriberService *services.SubscriberService) *SubscriberHandler {
	return &SubscriberHandler{subscriberService: subscriberService}
}

func (h *SubscriberHandler) GetSubscribers(c *gin.Context) {
	subs, err := h.subscriberService.GetSubscribers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (h *SubscriberHandler) GetSubscriber(c *gin.Context) {
	sub, err := h.subscriberService.GetSubscriber(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriberHandler) Subscribe(c *gin.Context) {
	var req services.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	sub, err := h.subscriberService.Subscribe(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// Unsubscribe removes the subscription registered under the :uemail path parameter.
func (h *SubscriberHandler) Unsubscribe(c *gin.Context) {
	if err := h.subscriberService.Unsubscribe(c.Request.Context(), c.Param("uemail")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "You have been unsubscribed"})
}
