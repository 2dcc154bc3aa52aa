package handlers

import (
	"errors"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/factory_backend/middlewares"
	"bitbucket.org/mmdatafocus/factory_backend/models"
	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"bitbucket.org/mmdatafocus/factory_backend/workflow"
	"github.com/gin-gonic/gin"
)

type conversionReportRequest struct {
	ProducedQuantity interface{} `json:"produced_quantity"`
}

// Ids arrive as JSON numbers or numeric strings.
type finishingReportRequest struct {
	NeutralBatchId   interface{} `json:"neutral_batch_id"`
	ProducedQuantity interface{} `json:"produced_quantity"`
	Mode             string      `json:"mode"`
	OrderItemId      interface{} `json:"order_item_id"`
	ProductId        interface{} `json:"product_id"`
}

func (h *Handler) submitConversionReport(c *gin.Context) {
	var req conversionReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, utils.ErrCodeInvalidRequest, "invalid request body")
		return
	}

	out, err := h.Workflow.SubmitConversionReport(c.Request.Context(), actingEmployee(c), req.ProducedQuantity)
	if err != nil {
		var extra gin.H
		if utils.IsErrorCode(err, utils.ErrCodeNoMaterialBalance) {
			extra = gin.H{"has_balance": false}
		}
		h.respondError(c, err, extra)
		return
	}

	success(c, gin.H{
		"has_balance":       out.HasBalance,
		"produced_quantity": toFloat(out.ProducedQuantity),
		"total_material":    toFloat(out.TotalMaterial),
		"scrap_quantity":    toFloat(out.ScrapQuantity),
		"efficiency":        toFloat(out.Efficiency),
		"earnings":          toFloat(out.Earnings),
		"neutral_batch_id":  out.NeutralBatchId,
		"defect_id":         out.DefectId,
	})
}

func (h *Handler) submitFinishingReport(c *gin.Context) {
	var req finishingReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, utils.ErrCodeInvalidRequest, "invalid request body")
		return
	}
	batchId, ok := utils.ParseID(req.NeutralBatchId)
	if !ok {
		badRequest(c, utils.ErrCodeMissingBatchID, "neutral_batch_id must be a numeric id")
		return
	}
	orderItemId, ok := utils.ParseID(req.OrderItemId)
	if !ok {
		badRequest(c, utils.ErrCodeMissingOrderItemID, "order_item_id must be a numeric id")
		return
	}
	productId, ok := utils.ParseID(req.ProductId)
	if !ok {
		badRequest(c, utils.ErrCodeMissingProductID, "product_id must be a numeric id")
		return
	}

	out, err := h.Workflow.SubmitFinishingReport(c.Request.Context(), &workflow.FinishingReportInput{
		EmployeeId:       actingEmployee(c),
		NeutralBatchId:   batchId,
		ProducedQuantity: req.ProducedQuantity,
		Mode:             req.Mode,
		OrderItemId:      orderItemId,
		ProductId:        productId,
	})
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	success(c, gin.H{
		"mode":              out.Mode,
		"produced_quantity": toFloat(out.ProducedQuantity),
		"input_quantity":    toFloat(out.InputQuantity),
		"scrap_quantity":    toFloat(out.ScrapQuantity),
		"efficiency":        toFloat(out.Efficiency),
		"earnings":          toFloat(out.Earnings),
		"finished_good_id":  out.FinishedGoodId,
		"defect_id":         out.DefectId,
		"order_id":          out.OrderId,
		"order_item_id":     out.OrderItemId,
	})
}

type neutralBatchResponse struct {
	ID                int     `json:"id"`
	WorkshopId        int     `json:"workshop_id"`
	WorkshopName      string  `json:"workshop_name"`
	EmployeeId        int     `json:"employee_id"`
	EmployeeName      string  `json:"employee_name"`
	TotalQuantity     float64 `json:"total_quantity"`
	UsedQuantity      float64 `json:"used_quantity"`
	AvailableQuantity float64 `json:"available_quantity"`
	CreatedAt         string  `json:"created_at"`
}

func (h *Handler) listNeutralBatches(c *gin.Context) {
	ctx := c.Request.Context()
	limit, _ := strconv.Atoi(c.Query("limit"))
	batches, pageInfo, err := models.ListAvailableNeutralBatches(ctx, h.DB, c.Query("after"), limit)
	if errors.Is(err, models.ErrInvalidCursor) {
		badRequest(c, "InvalidCursor", "after is not a valid cursor")
		return
	}
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	if len(batches) == 0 {
		success(c, gin.H{"batches": []neutralBatchResponse{}, "page_info": pageInfo})
		return
	}

	workshopIds := make([]int, 0, len(batches))
	employeeIds := make([]int, 0, len(batches))
	for _, b := range batches {
		workshopIds = append(workshopIds, b.WorkshopId)
		employeeIds = append(employeeIds, b.EmployeeId)
	}
	workshops, errs := middlewares.GetWorkshops(ctx, workshopIds)
	for _, err := range errs {
		if err != nil {
			h.respondError(c, err, nil)
			return
		}
	}
	employees, errs := middlewares.GetEmployees(ctx, employeeIds)
	for _, err := range errs {
		if err != nil {
			h.respondError(c, err, nil)
			return
		}
	}

	results := make([]neutralBatchResponse, 0, len(batches))
	for i, b := range batches {
		results = append(results, neutralBatchResponse{
			ID:                b.ID,
			WorkshopId:        b.WorkshopId,
			WorkshopName:      workshops[i].Name,
			EmployeeId:        b.EmployeeId,
			EmployeeName:      employees[i].Name,
			TotalQuantity:     toFloat(b.TotalQuantity),
			UsedQuantity:      toFloat(b.UsedQuantity),
			AvailableQuantity: toFloat(b.AvailableQuantity()),
			CreatedAt:         b.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	success(c, gin.H{"batches": results, "page_info": pageInfo})
}
