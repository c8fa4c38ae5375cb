package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"genesis/cmd/middleware"
	"genesis/internal/ratelimit"
	"genesis/internal/service"
)

type Limits struct {
	RegisterPerMinute int
	ContactPerMinute  int
}

type Routers struct {
	Service    service.Service
	Limiter    *ratelimit.Limiter
	AdminToken string
	Limits     Limits
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())

	apiGroup := app.Group("/api")

	payment := apiGroup.Group("/payment")
	payment.POST("/create",
		middleware.RateLimit(r.Limiter, "register", r.Limits.RegisterPerMinute, time.Minute),
		r.Service.CreateOrder,
	)
	payment.POST("/verify", r.Service.VerifyPayment)
	payment.POST("/webhook", r.Service.PaymentWebhook)

	apiGroup.POST("/contact",
		middleware.RateLimit(r.Limiter, "contact", r.Limits.ContactPerMinute, time.Minute),
		r.Service.SubmitContact,
	)

	admin := apiGroup.Group("/admin")
	admin.POST("/login", r.Service.AdminLogin)

	authed := admin.Group("", middleware.AdminAuth(r.AdminToken))
	authed.GET("/participants", r.Service.ListParticipants)
	authed.POST("/update-status", r.Service.UpdateCandidateStatus)
	authed.POST("/send-assessment", r.Service.SendAssessment)

	app.GET("/health", func(c *ginext.Context) {
		c.String(200, "ok")
	})

	return app
}
