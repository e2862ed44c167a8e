package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"launchpad/internal/models"
	"launchpad/internal/response"
)

const defaultNotificationLimit = 20

type notificationList struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unreadCount"`
	Pagination    response.Pagination   `json:"pagination"`
}

func (h HandlerSet) ListNotifications(c *gin.Context) {
	page := response.ParsePage(c)
	if _, set := c.GetQuery("limit"); !set {
		page.Limit = defaultNotificationLimit
	}

	result, err := h.notifications.List(c.Request.Context(), actor(c).ID, models.NotificationType(c.Query("type")), page.Limit, page.Offset())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, notificationList{
		Notifications: result.Notifications,
		UnreadCount:   result.Unread,
		Pagination:    page.Paginate(result.Total),
	}, "Notifications fetched successfully")
}

type notificationIDsRequest struct {
	NotificationIDs []string `json:"notificationIds" binding:"required,min=1,dive,required"`
}

type unreadCount struct {
	UnreadCount int64 `json:"unreadCount"`
}

func (h HandlerSet) MarkNotificationsRead(c *gin.Context) {
	var req notificationIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	unread, err := h.notifications.MarkRead(c.Request.Context(), actor(c).ID, req.NotificationIDs)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, unreadCount{UnreadCount: unread}, "Notifications marked as read")
}

func (h HandlerSet) DeleteNotifications(c *gin.Context) {
	var req notificationIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	unread, err := h.notifications.Delete(c.Request.Context(), actor(c).ID, req.NotificationIDs)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, unreadCount{UnreadCount: unread}, "Notifications deleted successfully")
}

func (h HandlerSet) NotificationPreferences(c *gin.Context) {
	prefs, err := h.notifications.Preferences(c.Request.Context(), actor(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, prefs, "Notification preferences fetched successfully")
}

// UpdateNotificationPreferences decodes the body over the stored
// preferences, so omitted keys keep their value.
func (h HandlerSet) UpdateNotificationPreferences(c *gin.Context) {
	userID := actor(c).ID
	prefs, err := h.notifications.Preferences(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	if err := c.ShouldBindJSON(&prefs); err != nil {
		fail(c, err)
		return
	}
	prefs, err = h.notifications.UpdatePreferences(c.Request.Context(), userID, prefs)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, prefs, "Notification preferences updated successfully")
}
