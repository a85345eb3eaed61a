package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vocollect/vocollect/internal/services"
	"github.com/vocollect/vocollect/internal/utils"
)

type CallHandler struct {
	calls services.CallService
}

func NewCallHandler(calls services.CallService) *CallHandler {
	return &CallHandler{calls: calls}
}

type PlaceCallRequest struct {
	LoanNo string `json:"loan_no" binding:"required"`
}

func (h *CallHandler) Place(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	var req PlaceCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "CallHandler.Place", "invalid request body", err))
		return
	}

	res, err := h.calls.Place(c.Request.Context(), tenantID, req.LoanNo)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type BulkCallRequest struct {
	LoanNos []string `json:"loan_nos" binding:"required,min=1"`
}

func (h *CallHandler) PlaceBulk(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	var req BulkCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "CallHandler.PlaceBulk", "invalid request body", err))
		return
	}

	c.JSON(http.StatusOK, h.calls.PlaceBulk(c.Request.Context(), tenantID, req.LoanNos))
}
