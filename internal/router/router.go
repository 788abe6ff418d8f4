package router

import (
	"github.com/gin-gonic/gin"

	"github.com/contaleve/onboarding-backend/config"
	"github.com/contaleve/onboarding-backend/internal/app/controller"
	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/contaleve/onboarding-backend/internal/middleware"
	"github.com/contaleve/onboarding-backend/internal/websocket"
)

type Router struct {
	authController       *controller.AuthController
	onboardingController *controller.OnboardingController
	businessController   *controller.BusinessController
	authMiddleware       *middleware.AuthMiddleware
	hub                  *websocket.Hub
	config               *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	onboardingController *controller.OnboardingController,
	businessController *controller.BusinessController,
	authMiddleware *middleware.AuthMiddleware,
	hub *websocket.Hub,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:       authController,
		onboardingController: onboardingController,
		businessController:   businessController,
		authMiddleware:       authMiddleware,
		hub:                  hub,
		config:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Onboarding API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.Refresh)
			auth.GET("/token", r.authController.WarmToken)
		}

		onboarding := v1.Group("/onboarding")
		{
			onboarding.POST("/start", r.onboardingController.Start)
			onboarding.GET("/situation/:document", r.onboardingController.Situation)

			onboarding.POST("/:id/personal-info", r.onboardingController.SubmitPersonalInfo)
			onboarding.POST("/:id/phone", r.onboardingController.SubmitPhone)
			onboarding.PUT("/:id/phone", r.onboardingController.ConfirmPhone)
			onboarding.POST("/:id/phone/resend", r.onboardingController.ResendCode)
			onboarding.POST("/:id/documents", r.onboardingController.SubmitDocumentImage)
			onboarding.POST("/:id/personal-detail", r.onboardingController.SubmitPersonalDetail)
			onboarding.POST("/:id/selfie", r.onboardingController.SubmitSelfie)
			onboarding.POST("/:id/address", r.onboardingController.SubmitAddress)
			onboarding.POST("/:id/finalize", r.onboardingController.Finalize)

			onboarding.GET("/:id/progress", r.onboardingController.Progress)
			onboarding.GET("/:id/history", r.onboardingController.History)
		}

		business := v1.Group("/business")
		{
			business.PUT("/:id/company", r.businessController.UpsertCompany)
			business.PUT("/:id/address", r.businessController.UpdateAddress)

			business.GET("/:id/partners", r.businessController.ListPartners)
			business.POST("/:id/partners", r.businessController.UpsertPartner)
			business.DELETE("/:id/partners/:partnerId", r.businessController.DeletePartner)

			business.POST("/:id/documents", r.businessController.AddCompanyDocument)
			business.POST("/:id/partners/:partnerId/documents", r.businessController.AddPartnerDocument)

			business.GET("/:id/validation", r.businessController.Validation)
			business.POST("/:id/sync", r.businessController.Sync)
		}

		v1.GET("/cep/:cep", r.onboardingController.LookupCEP)

		// Status push channel; the token travels as a query parameter
		// because browsers cannot set WebSocket headers
		v1.GET("/ws",
			r.authMiddleware.Authenticate(),
			websocket.ServeWS(r.hub),
		)

		// Post-onboarding area, restricted per flow
		me := v1.Group("/me")
		me.Use(r.authMiddleware.Authenticate())
		{
			me.GET("/situation", func(c *gin.Context) {
				document, _ := middleware.GetDocument(c)
				c.Params = append(c.Params, gin.Param{Key: "document", Value: document})
				r.onboardingController.Situation(c)
			})
			me.GET("/business/validation",
				r.authMiddleware.RequireAccountType(model.AccountTypeCNPJ),
				func(c *gin.Context) {
					customerID, _ := middleware.GetCustomerID(c)
					c.Params = append(c.Params, gin.Param{Key: "id", Value: customerID})
					r.businessController.Validation(c)
				})
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
