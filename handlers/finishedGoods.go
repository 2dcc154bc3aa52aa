package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/factory_backend/models"
	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"github.com/gin-gonic/gin"
)

func (h *Handler) issueFinishedGood(c *gin.Context) {
	var input models.NewFinishedGoodSale
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"code":    utils.ErrCodeInvalidRequest,
			"message": "invalid request body",
			"fields":  utils.ProcessValidationErrors(err),
		})
		return
	}
	sale, err := models.IssueFinishedGood(c.Request.Context(), h.DB, &input)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	success(c, gin.H{
		"id":               sale.ID,
		"finished_good_id": sale.FinishedGoodId,
		"client_id":        sale.ClientId,
		"order_id":         sale.OrderId,
		"price":            toFloat(sale.Price),
	})
}
