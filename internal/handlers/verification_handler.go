package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ManShanJu-JiShan/manshanspace/internal/models"
	"github.com/ManShanJu-JiShan/manshanspace/internal/services"
)

type VerificationHandler struct {
	registerCodes services.VerificationService
	resetCodes    services.VerificationService
	emails        services.EmailService
}

func NewVerificationHandler(registerCodes, resetCodes services.VerificationService, emails services.EmailService) *VerificationHandler {
	return &VerificationHandler{
		registerCodes: registerCodes,
		resetCodes:    resetCodes,
		emails:        emails,
	}
}

func (h *VerificationHandler) byPurpose(purpose models.CodePurpose) services.VerificationService {
	switch purpose {
	case models.PurposeRegister:
		return h.registerCodes
	case models.PurposeResetPassword:
		return h.resetCodes
	}
	return nil
}

type sendCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Type  string `json:"type" binding:"required"`
}

// @Summary      Send a verification code
// @Description  Creates a one-time code for registration or password reset and emails it
// @Tags         Verification
// @Accept       json
// @Produce      json
// @Param        request  body      sendCodeRequest  true  "Email and code type"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /api/verify/send-code [post]
func (h *VerificationHandler) SendCode(c *gin.Context) {
	var req sendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	purpose := models.CodePurpose(req.Type)
	codes := h.byPurpose(purpose)
	if codes == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported code type"})
		return
	}

	rec, err := codes.CreateCode(req.Email, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		if err == services.ErrCodeActive {
			c.JSON(http.StatusBadRequest, gin.H{"error": "a valid code already exists, please try again later"})
			return
		}
		log.Printf("[verify][send] create failed email=%s type=%s: %v", req.Email, req.Type, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create verification code"})
		return
	}

	var sendErr error
	switch purpose {
	case models.PurposeRegister:
		sendErr = h.emails.SendRegisterCode(req.Email, rec.Code)
	case models.PurposeResetPassword:
		sendErr = h.emails.SendPasswordResetCode(req.Email, rec.Code)
	}
	if sendErr != nil {
		log.Printf("[verify][send] email dispatch failed email=%s type=%s: %v", req.Email, req.Type, sendErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send verification code, please try again later"})
		return
	}
	if err := codes.MarkSent(rec.ID); err != nil {
		log.Printf("[verify][send] mark sent failed id=%d: %v", rec.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent to your email"})
}

type checkCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
	Type  string `json:"type" binding:"required"`
}

// @Summary      Check a verification code
// @Description  Verifies a one-time code; a successful check consumes the code
// @Tags         Verification
// @Accept       json
// @Produce      json
// @Param        request  body      checkCodeRequest  true  "Email, code and type"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Router       /api/verify/check-code [post]
func (h *VerificationHandler) CheckCode(c *gin.Context) {
	var req checkCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	codes := h.byPurpose(models.CodePurpose(req.Type))
	if codes == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported code type"})
		return
	}

	if err := codes.Verify(req.Email, req.Code, c.ClientIP()); err != nil {
		switch err {
		case services.ErrCodeNotFound:
			c.JSON(http.StatusBadRequest, gin.H{"error": "code not found or no longer valid"})
		case services.ErrCodeExhausted:
			c.JSON(http.StatusBadRequest, gin.H{"error": "too many attempts, please request a new code"})
		case services.ErrCodeMismatch:
			c.JSON(http.StatusBadRequest, gin.H{"error": "incorrect code"})
		default:
			log.Printf("[verify][check] email=%s type=%s: %v", req.Email, req.Type, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "code verification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification successful"})
}
