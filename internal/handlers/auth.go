package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"launchpad/internal/apperr"
	"launchpad/internal/middleware"
	"launchpad/internal/response"
	"launchpad/internal/service"
)

const refreshTokenCookie = "refreshToken"

type registerRequest struct {
	Username string `form:"username" json:"username" binding:"required,min=3,max=30,excludes=@"`
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required,min=6"`
}

type authResponse struct {
	User        any    `json:"user"`
	AccessToken string `json:"accessToken"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
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

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   avatar,
	})
	if err != nil {
		fail(c, err)
		return
	}

	h.setSessionCookies(c, result)
	response.Success(c, http.StatusCreated, authResponse{User: result.User, AccessToken: result.AccessToken}, "User registered successfully")
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	identifier := req.Email
	if strings.TrimSpace(identifier) == "" {
		identifier = req.Username
	}
	if strings.TrimSpace(identifier) == "" {
		fail(c, apperr.BadRequest("Email or username is required"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Identifier: identifier,
		Password:   req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}

	h.setSessionCookies(c, result)
	response.Success(c, http.StatusOK, authResponse{User: result.User, AccessToken: result.AccessToken}, "User logged in successfully")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh reads the refresh token from its cookie first, then the body.
// It does not require an access token.
func (h HandlerSet) Refresh(c *gin.Context) {
	token, err := c.Cookie(refreshTokenCookie)
	if err != nil || token == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			fail(c, err)
			return
		}
		token = req.RefreshToken
	}

	result, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		fail(c, err)
		return
	}

	h.setSessionCookies(c, result)
	response.Success(c, http.StatusOK, gin.H{"accessToken": result.AccessToken}, "Access token refreshed successfully")
}

func (h HandlerSet) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), actor(c).ID); err != nil {
		fail(c, err)
		return
	}

	h.clearSessionCookies(c)
	response.Success(c, http.StatusOK, gin.H{}, "User logged out successfully")
}

func (h HandlerSet) Me(c *gin.Context) {
	response.Success(c, http.StatusOK, actor(c), "Current user fetched successfully")
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h HandlerSet) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{}, "Password reset email sent successfully")
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{}, "Password reset successfully")
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h HandlerSet) VerifyEmail(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.auth.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{}, "Email verified successfully")
}

func (h HandlerSet) ResendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{}, "Verification email sent successfully")
}

func (h HandlerSet) setSessionCookies(c *gin.Context, result service.AuthResult) {
	secure := h.cfg.IsProduction()
	domain := h.cfg.Security.CookieDomain

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshTokenCookie, result.RefreshToken, int(h.tokens.RefreshTTL().Seconds()), "/", domain, secure, true)
	c.SetCookie(middleware.AccessTokenCookie, result.AccessToken, int(h.tokens.AccessTTL().Seconds()), "/", domain, secure, true)
}

func (h HandlerSet) clearSessionCookies(c *gin.Context) {
	secure := h.cfg.IsProduction()
	domain := h.cfg.Security.CookieDomain

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshTokenCookie, "", -1, "/", domain, secure, true)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", domain, secure, true)
}
