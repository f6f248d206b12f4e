package app

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/ManShanJu-JiShan/manshanspace/internal/config"
	"github.com/ManShanJu-JiShan/manshanspace/internal/handlers"
	"github.com/ManShanJu-JiShan/manshanspace/internal/models"
	"github.com/ManShanJu-JiShan/manshanspace/internal/repositories"
	"github.com/ManShanJu-JiShan/manshanspace/internal/routes"
	"github.com/ManShanJu-JiShan/manshanspace/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ManShanJu-JiShan/manshanspace/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to the database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close the database: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	registerCodeRepo := repositories.NewVerificationCodeRepository(db, models.PurposeRegister)
	resetCodeRepo := repositories.NewVerificationCodeRepository(db, models.PurposeResetPassword)

	// === Services ===
	authService := services.NewAuthService()
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.FromName,
	)
	tokenService := services.NewTokenService(
		cfg.JWT.SecretKey,
		time.Duration(cfg.JWT.ExpireSeconds)*time.Second,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
	)

	codeTTL := time.Duration(cfg.Verification.ExpireMinutes) * time.Minute
	registerCodes := services.NewVerificationService(registerCodeRepo, models.PurposeRegister, cfg.Verification.CodeLength, codeTTL, cfg.Verification.MaxAttempts)
	resetCodes := services.NewVerificationService(resetCodeRepo, models.PurposeResetPassword, cfg.Verification.CodeLength, codeTTL, cfg.Verification.MaxAttempts)

	userService := services.NewUserService(userRepo, registerCodes, resetCodes, authService, tokenService)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, tokenService)
	userHandler := handlers.NewUserHandler(userService, cfg.Files.RootDir)
	verificationHandler := handlers.NewVerificationHandler(registerCodes, resetCodes, emailService)
	emailHandler := handlers.NewEmailHandler(emailService)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// uploaded avatars
	router.Static("/uploads", cfg.Files.RootDir+"/uploads")

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		tokenService,
		authHandler,
		userHandler,
		verificationHandler,
		emailHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Failed to start the server: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
