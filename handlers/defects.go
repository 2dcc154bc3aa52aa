package handlers

import (
	"strconv"

	"bitbucket.org/mmdatafocus/factory_backend/models"
	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"github.com/gin-gonic/gin"
)

func (h *Handler) assignDefectPenalty(c *gin.Context) {
	defectId, err := strconv.Atoi(c.Param("id"))
	if err != nil || defectId <= 0 {
		badRequest(c, utils.ErrCodeDefectNotFound, "invalid defect id")
		return
	}
	var input models.NewDefectPenalty
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, utils.ErrCodeInvalidRequest, "invalid request body")
		return
	}

	defect, err := models.AssignDefectPenalty(c.Request.Context(), h.DB, defectId, &input, actingEmployee(c))
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	body := gin.H{
		"id":                  defect.ID,
		"penalty_amount":      nil,
		"admin_comment":       defect.AdminComment,
		"penalty_assigned_by": defect.PenaltyAssignedBy,
	}
	if defect.PenaltyAmount != nil {
		body["penalty_amount"] = toFloat(*defect.PenaltyAmount)
	}
	success(c, body)
}
