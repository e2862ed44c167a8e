package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"launchpad/internal/models"
	"launchpad/internal/response"
	"launchpad/internal/service"
)

// Privileged surfaces. Routes are gated by RequireCapability and the
// services check the same capability again.

type moderateRequest struct {
	Status   string `json:"status" binding:"required,oneof=pending approved rejected"`
	Featured *bool  `json:"featured"`
}

func (h HandlerSet) ModerateProduct(c *gin.Context) {
	var req moderateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	product, err := h.products.Moderate(c.Request.Context(), actor(c), c.Param("productId"), models.ProductStatus(req.Status), req.Featured)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, product, "Product status updated successfully")
}

type sendNotificationRequest struct {
	RecipientID string `json:"recipientId" binding:"required"`
	Type        string `json:"type" binding:"required"`
	Content     string `json:"content" binding:"required,max=500"`
	RelatedID   string `json:"relatedId"`
	RelatedKind string `json:"onModel"`
}

func (h HandlerSet) SendNotification(c *gin.Context) {
	var req sendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	notification, err := h.notifications.Send(c.Request.Context(), actor(c), service.NotifyInput{
		RecipientID: req.RecipientID,
		Type:        models.NotificationType(req.Type),
		Content:     req.Content,
		RelatedID:   req.RelatedID,
		RelatedKind: models.RelatedKind(req.RelatedKind),
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, notification, "Notification sent successfully")
}
