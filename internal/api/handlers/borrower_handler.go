package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vocollect/vocollect/internal/models"
	"github.com/vocollect/vocollect/internal/services"
	"github.com/vocollect/vocollect/internal/utils"
)

type BorrowerHandler struct {
	svc services.BorrowerService
}

func NewBorrowerHandler(svc services.BorrowerService) *BorrowerHandler {
	return &BorrowerHandler{svc: svc}
}

type CreateBorrowerRequest struct {
	LoanNo            string   `json:"loan_no" binding:"required"`
	Name              string   `json:"name" binding:"required"`
	Phone             string   `json:"phone" binding:"required"`
	AlternatePhones   []string `json:"alternate_phones"`
	Amount            float64  `json:"amount"`
	EMI               float64  `json:"emi"`
	DueDate           string   `json:"due_date"`
	LastPaid          string   `json:"last_paid"`
	PaymentCategory   string   `json:"payment_category"`
	PreferredLanguage string   `json:"preferred_language"`
}

func (h *BorrowerHandler) Create(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	var req CreateBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "BorrowerHandler.Create", "invalid request body", err))
		return
	}

	b := &models.Borrower{
		TenantID:          tenantID,
		LoanNo:            req.LoanNo,
		Name:              req.Name,
		Phone:             req.Phone,
		AlternatePhones:   req.AlternatePhones,
		Amount:            req.Amount,
		EMI:               req.EMI,
		DueDate:           req.DueDate,
		LastPaid:          req.LastPaid,
		PaymentCategory:   req.PaymentCategory,
		PreferredLanguage: req.PreferredLanguage,
	}
	if err := h.svc.Create(c.Request.Context(), b); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BorrowerHandler) List(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	out, err := h.svc.List(c.Request.Context(), tenantID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"borrowers": out, "count": len(out)})
}

func (h *BorrowerHandler) Get(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	out, err := h.svc.Get(c.Request.Context(), tenantID, c.Param("loan_no"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ResetCalls clears call state across the tenant's book so a new campaign
// can run from scratch.
func (h *BorrowerHandler) ResetCalls(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	n, err := h.svc.ResetCalls(c.Request.Context(), tenantID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": n})
}
