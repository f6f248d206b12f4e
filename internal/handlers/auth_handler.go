package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ManShanJu-JiShan/manshanspace/internal/middleware"
	"github.com/ManShanJu-JiShan/manshanspace/internal/models"
	"github.com/ManShanJu-JiShan/manshanspace/internal/services"
)

type AuthHandler struct {
	users  services.UserService
	tokens services.TokenService
}

func NewAuthHandler(users services.UserService, tokens services.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// @Summary      Log in
// @Description  Authenticates by email and password, returns a bearer token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /api/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.users.Login(req.Email, req.Password)
	if err != nil {
		if err == services.ErrBadCredentials {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		log.Printf("[auth][login] email=%q: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user, // PasswordHash is json:"-", never leaves the server
	})
}

// @Summary      Refresh the access token
// @Description  Re-issues a token with a fresh expiry from the current valid one
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/refresh-token [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	// AuthMiddleware already validated this header; re-read it for re-issue.
	tokenStr := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))

	token, err := h.tokens.Refresh(tokenStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	userID, _ := getIntFromCtx(c, middleware.CtxUserID)
	user, err := h.users.GetUserByID(userID)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Token refreshed",
		"token":   token,
		"user":    user,
	})
}
