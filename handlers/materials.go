package handlers

import (
	"strconv"

	"bitbucket.org/mmdatafocus/factory_backend/models"
	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"github.com/gin-gonic/gin"
)

func (h *Handler) issueMaterial(c *gin.Context) {
	var input models.NewMaterialIssue
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, utils.ErrCodeInvalidRequest, "invalid request body")
		return
	}
	balance, err := models.IssueMaterial(c.Request.Context(), h.DB, &input)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	success(c, gin.H{
		"employee_id": balance.EmployeeId,
		"material_id": balance.MaterialId,
		"quantity":    toFloat(balance.Quantity),
	})
}

func (h *Handler) receiveMaterial(c *gin.Context) {
	var input models.NewMaterialIncoming
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, utils.ErrCodeInvalidRequest, "invalid request body")
		return
	}
	incoming, err := models.ReceiveMaterial(c.Request.Context(), h.DB, &input)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	body := gin.H{
		"id":          incoming.ID,
		"material_id": incoming.MaterialId,
		"quantity":    toFloat(incoming.Quantity),
		"total_value": nil,
	}
	if incoming.TotalValue != nil {
		body["total_value"] = toFloat(*incoming.TotalValue)
	}
	success(c, body)
}

type materialBalanceResponse struct {
	MaterialId   int     `json:"material_id"`
	MaterialName string  `json:"material_name"`
	Unit         string  `json:"unit"`
	Quantity     float64 `json:"quantity"`
}

// listEmployeeBalances defaults to the acting employee; ?employee_id= selects another.
func (h *Handler) listEmployeeBalances(c *gin.Context) {
	employeeId := actingEmployee(c)
	if raw := c.Query("employee_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			badRequest(c, utils.ErrCodeEmployeeNotFound, "employee_id must be a positive integer")
			return
		}
		employeeId = id
	}

	balances, err := models.GetEmployeeBalances(c.Request.Context(), h.DB, employeeId)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	results := make([]materialBalanceResponse, 0, len(balances))
	total := models.SumBalances(balances)
	for _, b := range balances {
		row := materialBalanceResponse{MaterialId: b.MaterialId, Quantity: toFloat(b.Quantity)}
		if b.Material != nil {
			row.MaterialName = b.Material.Name
			row.Unit = b.Material.Unit
		}
		results = append(results, row)
	}
	success(c, gin.H{
		"employee_id": employeeId,
		"has_balance": total.IsPositive(),
		"total":       toFloat(total),
		"balances":    results,
	})
}
