package handlers

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/ManShanJu-JiShan/manshanspace/internal/middleware"
	"github.com/ManShanJu-JiShan/manshanspace/internal/models"
	"github.com/ManShanJu-JiShan/manshanspace/internal/services"
	"github.com/ManShanJu-JiShan/manshanspace/internal/utils"
)

const maxAvatarSize = 2 << 20 // 2MB

var allowedAvatarExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

type UserHandler struct {
	users     services.UserService
	filesRoot string
}

func NewUserHandler(users services.UserService, filesRoot string) *UserHandler {
	return &UserHandler{users: users, filesRoot: filesRoot}
}

// @Summary      Register an account
// @Description  Creates a user after the emailed registration code checks out
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        request  body      models.RegisterRequest  true  "Email, password and code"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Router       /api/user/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err := h.users.Register(req.Email, req.Password, req.Code, c.ClientIP())
	if err != nil {
		switch err {
		case services.ErrCodeNotFound, services.ErrCodeMismatch, services.ErrCodeExhausted:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired verification code"})
		case services.ErrEmailTaken:
			c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
		default:
			log.Printf("[user][register] email=%q: %v", req.Email, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Registration successful"})
}

// @Summary      Get user info
// @Description  Returns the profile of the authenticated user; owner-only
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/users/{id} [get]
func (h *UserHandler) GetInfo(c *gin.Context) {
	id, ok := requireOwner(c)
	if !ok {
		return
	}

	user, err := h.users.GetUserByID(id)
	if err != nil {
		log.Printf("[user][info] id=%d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// @Summary      Update profile
// @Description  Updates nickname and/or bio; owner-only
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                         true  "User ID"
// @Param        request  body      models.UpdateProfileRequest true  "Fields to update"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]string
// @Failure      403      {object}  map[string]string
// @Router       /api/users/{id}/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := requireOwner(c)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Nickname == nil && req.Bio == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	if req.Nickname != nil {
		n := utf8.RuneCountInString(*req.Nickname)
		if n < 2 || n > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "nickname must be 2-50 characters"})
			return
		}
	}
	if req.Bio != nil && utf8.RuneCountInString(*req.Bio) > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bio must not exceed 500 characters"})
		return
	}

	user, err := h.users.UpdateProfile(id, req.Nickname, req.Bio)
	if err != nil {
		if err == services.ErrUserNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Printf("[user][profile] id=%d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile update failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}

// @Summary      Upload avatar
// @Description  Accepts a jpeg/png/gif up to 2MB; owner-only
// @Tags         Users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      int   true  "User ID"
// @Param        avatar  formData  file  true  "Avatar image"
// @Success      200     {object}  map[string]interface{}
// @Failure      400     {object}  map[string]string
// @Failure      403     {object}  map[string]string
// @Router       /api/users/{id}/avatar [post]
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	id, ok := requireOwner(c)
	if !ok {
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	if file.Size > maxAvatarSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must not exceed 2MB"})
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedAvatarExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only JPG, PNG or GIF images are allowed"})
		return
	}

	name, err := utils.RandomHex(16)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}
	filename := name + ext
	target := filepath.Join(h.filesRoot, "uploads", filename)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}
	if err := c.SaveUploadedFile(file, target); err != nil {
		log.Printf("[user][avatar] save failed id=%d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}

	user, err := h.users.UpdateAvatar(id, "/uploads/"+filename)
	if err != nil {
		// roll back the orphaned file
		_ = os.Remove(target)
		log.Printf("[user][avatar] db update failed id=%d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update avatar"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Avatar uploaded", "user": user})
}

// @Summary      Change password
// @Description  Verifies the old password and sets a new one
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      models.ChangePasswordRequest  true  "Old and new password"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Router       /api/user/change-password [put]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := getIntFromCtx(c, middleware.CtxUserID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.ChangePassword(userID, req.OldPassword, req.NewPassword); err != nil {
		switch err {
		case services.ErrWrongPassword:
			c.JSON(http.StatusBadRequest, gin.H{"error": "old password is incorrect"})
		case services.ErrSamePassword:
			c.JSON(http.StatusBadRequest, gin.H{"error": "new password must differ from the old one"})
		case services.ErrUserNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			log.Printf("[user][password] id=%d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "password update failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// @Summary      Reset password
// @Description  Sets a new password after the emailed reset code checks out
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        request  body      models.ResetPasswordRequest  true  "Email, code and new password"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Router       /api/user/reset-password [post]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.ResetPassword(req.Email, req.Code, req.NewPassword, c.ClientIP()); err != nil {
		switch err {
		case services.ErrCodeNotFound, services.ErrCodeMismatch, services.ErrCodeExhausted:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired verification code"})
		case services.ErrUserNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			log.Printf("[user][reset] email=%q: %v", req.Email, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "password reset failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}
