package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ManShanJu-JiShan/manshanspace/internal/services"
)

type EmailHandler struct {
	emails services.EmailService
}

func NewEmailHandler(emails services.EmailService) *EmailHandler {
	return &EmailHandler{emails: emails}
}

type sendEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// @Summary      Send a test email
// @Tags         Email
// @Accept       json
// @Produce      json
// @Param        request  body      sendEmailRequest  true  "Recipient"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Router       /api/send-email [post]
func (h *EmailHandler) Send(c *gin.Context) {
	var req sendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email address is required"})
		return
	}

	if err := h.emails.SendTestEmail(req.Email); err != nil {
		log.Printf("[email][test] to=%s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "email delivery failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email sent"})
}
