package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/vocollect/vocollect/internal/api/handlers"
	"github.com/vocollect/vocollect/internal/api/middleware"
)

type Deps struct {
	Call     *handlers.CallHandler
	Borrower *handlers.BorrowerHandler
	Session  *handlers.SessionHandler
	Webhook  *handlers.WebhookHandler
	Stream   *handlers.StreamHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Voice provider callbacks; reached unauthenticated from the provider.
	r.GET("/webhooks/answer", d.Webhook.Answer)
	r.POST("/webhooks/answer", d.Webhook.Answer)
	r.GET("/webhooks/event", d.Webhook.Event)
	r.POST("/webhooks/event", d.Webhook.Event)

	// Call audio bridge; the provider dials in per active call uuid.
	r.GET("/socket/:call_uuid", d.Stream.CallAudio)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/calls", d.Call.Place)
	auth.POST("/calls/bulk", d.Call.PlaceBulk)

	auth.POST("/borrowers", d.Borrower.Create)
	auth.GET("/borrowers", d.Borrower.List)
	auth.GET("/borrowers/:loan_no", d.Borrower.Get)
	// Wiping call state across the book is admin-only.
	auth.POST("/borrowers/reset", middleware.RequireAdmin(), d.Borrower.ResetCalls)
	auth.GET("/borrowers/:loan_no/sessions", d.Session.ListByLoan)

	auth.GET("/sessions", d.Session.List)
	auth.GET("/sessions/:call_uuid", d.Session.Get)
	auth.GET("/sessions/:call_uuid/analysis", d.Session.GetAnalysis)
	auth.GET("/sessions/:call_uuid/transcript", d.Session.TranscriptURL)

	// WebSocket: per-call status events for dashboards
	auth.GET("/ws/calls/:call_uuid/events", d.Stream.CallEvents)
}
