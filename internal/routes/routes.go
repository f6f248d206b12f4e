package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ManShanJu-JiShan/manshanspace/internal/handlers"
	"github.com/ManShanJu-JiShan/manshanspace/internal/middleware"
	"github.com/ManShanJu-JiShan/manshanspace/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	tokens services.TokenService,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	verificationHandler *handlers.VerificationHandler,
	emailHandler *handlers.EmailHandler,
) *gin.Engine {
	api := r.Group("/api")

	// ---- public
	api.POST("/login", authHandler.Login)
	api.POST("/user/register", userHandler.Register)
	api.POST("/user/reset-password", userHandler.ResetPassword)
	api.POST("/verify/send-code", verificationHandler.SendCode)
	api.POST("/verify/check-code", verificationHandler.CheckCode)
	api.POST("/send-email", emailHandler.Send)

	// ---- protected
	auth := api.Group("")
	auth.Use(middleware.AuthMiddleware(tokens))
	{
		auth.POST("/refresh-token", authHandler.RefreshToken)
		auth.GET("/users/:id", userHandler.GetInfo)
		auth.PUT("/users/:id/profile", userHandler.UpdateProfile)
		auth.POST("/users/:id/avatar", userHandler.UploadAvatar)
		auth.PUT("/user/change-password", userHandler.ChangePassword)
	}

	return r
}
