package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"launchpad/internal/middleware"
	"launchpad/internal/models"
	"launchpad/internal/response"
)

type commentList struct {
	Comments   []models.Comment    `json:"comments"`
	Pagination response.Pagination `json:"pagination"`
}

func (h HandlerSet) ListComments(c *gin.Context) {
	page := response.ParsePage(c)
	comments, total, err := h.comments.List(c.Request.Context(), middleware.Viewer(c), c.Param("productId"), page.Limit, page.Offset())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, commentList{Comments: comments, Pagination: page.Paginate(total)}, "Comments fetched successfully")
}

type commentRequest struct {
	Content         string `json:"content" binding:"required"`
	ParentCommentID string `json:"parentCommentId"`
}

func (h HandlerSet) CreateComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	comment, err := h.comments.Create(c.Request.Context(), actor(c), c.Param("productId"), req.Content, req.ParentCommentID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, comment, "Comment added successfully")
}

type editCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h HandlerSet) EditComment(c *gin.Context) {
	var req editCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	comment, err := h.comments.Edit(c.Request.Context(), actor(c), c.Param("commentId"), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, comment, "Comment updated successfully")
}

func (h HandlerSet) DeleteComment(c *gin.Context) {
	if err := h.comments.Delete(c.Request.Context(), actor(c), c.Param("commentId")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{}, "Comment deleted successfully")
}

func (h HandlerSet) HideComment(c *gin.Context) {
	comment, err := h.comments.Hide(c.Request.Context(), actor(c), c.Param("commentId"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, comment, "Comment hidden successfully")
}

func (h HandlerSet) LikeComment(c *gin.Context) {
	result, err := h.comments.Like(c.Request.Context(), actor(c), c.Param("commentId"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, result, "Comment liked successfully")
}

func (h HandlerSet) UnlikeComment(c *gin.Context) {
	result, err := h.comments.Unlike(c.Request.Context(), actor(c), c.Param("commentId"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, result, "Comment unliked successfully")
}
