package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vocollect/vocollect/internal/services"
	"github.com/vocollect/vocollect/internal/storage"
	"github.com/vocollect/vocollect/internal/utils"
)

type SessionHandler struct {
	svc services.SessionService
	// archive signs short-lived links to archived transcripts. Nil when no
	// archive bucket is configured.
	archive storage.Signer
}

func NewSessionHandler(svc services.SessionService, archive storage.Signer) *SessionHandler {
	return &SessionHandler{svc: svc, archive: archive}
}

func (h *SessionHandler) List(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	out, err := h.svc.List(c.Request.Context(), tenantID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out, "count": len(out)})
}

func (h *SessionHandler) Get(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	sess, err := h.svc.Get(c.Request.Context(), c.Param("call_uuid"))
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.TenantID != tenantID {
		writeError(c, utils.E(utils.CodeForbidden, "SessionHandler.Get", "forbidden", nil))
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *SessionHandler) ListByLoan(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	out, err := h.svc.ListByLoan(c.Request.Context(), tenantID, c.Param("loan_no"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out, "count": len(out)})
}

func (h *SessionHandler) GetAnalysis(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	sess, err := h.svc.Get(c.Request.Context(), c.Param("call_uuid"))
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.TenantID != tenantID {
		writeError(c, utils.E(utils.CodeForbidden, "SessionHandler.GetAnalysis", "forbidden", nil))
		return
	}
	if sess.Analysis == nil {
		writeError(c, utils.E(utils.CodeNotFound, "SessionHandler.GetAnalysis", "analysis not available yet", nil))
		return
	}
	c.JSON(http.StatusOK, sess.Analysis)
}

// TranscriptURL returns a short-lived signed link to the archived transcript
// JSON for a finished call.
func (h *SessionHandler) TranscriptURL(c *gin.Context) {
	const op = "SessionHandler.TranscriptURL"

	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}
	if h.archive == nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "transcript archive is not configured", nil))
		return
	}

	sess, err := h.svc.Get(c.Request.Context(), c.Param("call_uuid"))
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.TenantID != tenantID {
		writeError(c, utils.E(utils.CodeForbidden, op, "forbidden", nil))
		return
	}

	key := storage.TranscriptKey(sess.TenantID, sess.CallUUID)
	url, err := h.archive.SignedGetURL(c.Request.Context(), key, 15*time.Minute)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to sign transcript url", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expires_in_seconds": int((15 * time.Minute).Seconds())})
}
