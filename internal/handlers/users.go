package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"launchpad/internal/models"
	"launchpad/internal/response"
	"launchpad/internal/service"
)

type profileRequest struct {
	DisplayName *string             `form:"displayName" json:"displayName" binding:"omitempty,max=50"`
	Headline    *string             `form:"headline" json:"headline" binding:"omitempty,max=100"`
	Website     *string             `form:"website" json:"website" binding:"omitempty,max=200"`
	Location    *string             `form:"location" json:"location" binding:"omitempty,max=100"`
	Bio         *string             `form:"bio" json:"bio" binding:"omitempty,max=500"`
	SocialLinks *models.SocialLinks `form:"-" json:"socialLinks"`
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, err)
		return
	}

	var files uploads
	defer files.Close()
	avatar, err := files.one(c, "avatar")
	if err != nil {
		fail(c, err)
		return
	}

	user, err := h.profiles.UpdateProfile(c.Request.Context(), actor(c), service.ProfileUpdate{
		DisplayName: req.DisplayName,
		Headline:    req.Headline,
		Website:     req.Website,
		Location:    req.Location,
		Bio:         req.Bio,
		SocialLinks: req.SocialLinks,
		Avatar:      avatar,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, user, "Profile updated successfully")
}

func (h HandlerSet) DeleteAccount(c *gin.Context) {
	if err := h.profiles.DeleteAccount(c.Request.Context(), actor(c)); err != nil {
		fail(c, err)
		return
	}
	h.clearSessionCookies(c)
	response.Success(c, http.StatusOK, gin.H{}, "Account deleted successfully")
}

func (h HandlerSet) GetProfile(c *gin.Context) {
	profile, err := h.profiles.Profile(c.Request.Context(), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile, "User profile fetched successfully")
}

func (h HandlerSet) Follow(c *gin.Context) {
	if err := h.profiles.Follow(c.Request.Context(), actor(c), c.Param("userId")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{}, "User followed successfully")
}

func (h HandlerSet) Unfollow(c *gin.Context) {
	if err := h.profiles.Unfollow(c.Request.Context(), actor(c), c.Param("userId")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{}, "User unfollowed successfully")
}

type followList struct {
	Users      []models.UserSummary `json:"users"`
	Pagination response.Pagination  `json:"pagination"`
}

func (h HandlerSet) Followers(c *gin.Context) {
	page := response.ParsePage(c)
	result, err := h.profiles.Followers(c.Request.Context(), c.Param("userId"), page.Limit, page.Offset())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, followList{Users: result.Users, Pagination: page.Paginate(result.Total)}, "Followers fetched successfully")
}

func (h HandlerSet) Following(c *gin.Context) {
	page := response.ParsePage(c)
	result, err := h.profiles.Following(c.Request.Context(), c.Param("userId"), page.Limit, page.Offset())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, followList{Users: result.Users, Pagination: page.Paginate(result.Total)}, "Following fetched successfully")
}
