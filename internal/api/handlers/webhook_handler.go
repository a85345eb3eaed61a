package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vocollect/vocollect/internal/services"
)

// WebhookHandler terminates the voice provider's answer and event webhooks.
// These arrive unauthenticated from the provider as either query parameters
// (GET) or a JSON body (POST).
type WebhookHandler struct {
	calls services.CallService
	log   *logrus.Logger
}

func NewWebhookHandler(calls services.CallService, log *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{calls: calls, log: log}
}

type webhookPayload struct {
	UUID              string `json:"uuid" form:"uuid"`
	ConversationUUID  string `json:"conversation_uuid" form:"conversation_uuid"`
	Status            string `json:"status" form:"status"`
	PreferredLanguage string `json:"preferred_language" form:"preferred_language"`
	TenantID          string `json:"tenant_id" form:"tenant_id"`
	LoanNo            string `json:"loan_no" form:"loan_no"`
}

func (p *webhookPayload) callUUID() string {
	if p.UUID != "" {
		return p.UUID
	}
	return p.ConversationUUID
}

func bindWebhook(c *gin.Context) (*webhookPayload, bool) {
	var p webhookPayload
	var err error
	if c.Request.Method == http.MethodGet {
		err = c.ShouldBindQuery(&p)
	} else {
		err = c.ShouldBindJSON(&p)
	}
	if err != nil {
		return nil, false
	}
	return &p, true
}

// Answer runs when the callee picks up. It returns the call control object
// that bridges audio onto our websocket endpoint.
func (h *WebhookHandler) Answer(c *gin.Context) {
	p, ok := bindWebhook(c)
	if !ok || p.callUUID() == "" {
		c.JSON(http.StatusOK, []any{})
		return
	}

	ncco, err := h.calls.Answer(c.Request.Context(), services.AnswerParams{
		CallUUID:          p.callUUID(),
		TenantID:          p.TenantID,
		LoanNo:            p.LoanNo,
		PreferredLanguage: p.PreferredLanguage,
	})
	if err != nil {
		h.log.WithError(err).WithField("call_uuid", p.callUUID()).Error("answer webhook failed")
		c.JSON(http.StatusOK, []any{})
		return
	}
	c.JSON(http.StatusOK, ncco)
}

// Event receives call lifecycle updates. A completed status finalizes the
// call if the in-call farewell has not already done so.
func (h *WebhookHandler) Event(c *gin.Context) {
	p, ok := bindWebhook(c)
	if !ok || p.callUUID() == "" {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	if err := h.calls.HandleEvent(c.Request.Context(), p.callUUID(), p.Status); err != nil {
		h.log.WithError(err).WithField("call_uuid", p.callUUID()).Warn("event webhook failed")
	}
	c.JSON(http.StatusOK, gin.H{})
}
