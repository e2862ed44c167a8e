package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"launchpad/internal/response"
)

func (h HandlerSet) ProductAnalytics(c *gin.Context) {
	result, err := h.analytics.Product(c.Request.Context(), c.Param("productId"), c.Query("timeRange"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, result, "Product analytics fetched successfully")
}

func (h HandlerSet) UserAnalytics(c *gin.Context) {
	result, err := h.analytics.User(c.Request.Context(), c.Param("userId"), c.Query("timeRange"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, result, "User analytics fetched successfully")
}

func (h HandlerSet) PlatformAnalytics(c *gin.Context) {
	result, err := h.analytics.Platform(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, result, "Platform analytics fetched successfully")
}
