package handlers

import (
	"errors"
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/factory_backend/config"
	"bitbucket.org/mmdatafocus/factory_backend/middlewares"
	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"bitbucket.org/mmdatafocus/factory_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Handler serves the production REST API.
type Handler struct {
	DB       *gorm.DB
	Workflow *workflow.ProductionWorkflow
	Logger   *logrus.Logger
}

func NewHandler(db *gorm.DB, wf *workflow.ProductionWorkflow, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = config.GetLogger()
	}
	return &Handler{DB: db, Workflow: wf, Logger: logger}
}

// Register mounts every route under /api. Auth and correlation middlewares
// are expected to run before these handlers.
func (h *Handler) Register(r gin.IRouter) {
	// keep produced_quantity as json.Number so decimals are not parsed through float64
	binding.EnableDecoderUseNumber = true

	api := r.Group("/api", middlewares.RequireEmployee(), middlewares.LoaderMiddleware(h.DB))

	production := api.Group("/production")
	production.POST("/extrusion/report", h.submitConversionReport)
	production.POST("/packaging/report", h.submitFinishingReport)
	production.GET("/neutral-batches", h.listNeutralBatches)

	materials := api.Group("/materials")
	materials.POST("/issue", h.issueMaterial)
	materials.POST("/incoming", h.receiveMaterial)
	materials.GET("/balances", h.listEmployeeBalances)

	api.POST("/defects/:id/penalty", middlewares.RequirePenaltyManager(), h.assignDefectPenalty)
	api.POST("/finished-goods/sales", h.issueFinishedGood)
}

func success(c *gin.Context, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["status"] = "success"
	c.JSON(http.StatusOK, body)
}

func badRequest(c *gin.Context, code utils.ErrorCode, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":  "error",
		"code":    code,
		"message": message,
	})
}

// respondError writes the error envelope; extra fields are merged into it.
func (h *Handler) respondError(c *gin.Context, err error, extra gin.H) {
	body := gin.H{"status": "error"}
	for k, v := range extra {
		body[k] = v
	}

	var appErr *utils.AppError
	if !errors.As(err, &appErr) && errors.Is(err, utils.ErrorRecordNotFound) {
		body["code"] = "NotFound"
		body["message"] = "record not found"
		c.JSON(http.StatusNotFound, body)
		return
	}

	appErr = utils.AsAppError(err)
	body["code"] = appErr.Code
	body["message"] = appErr.Message
	if appErr.Kind == utils.ErrorKindSystem {
		_ = c.Error(err)
	}
	c.JSON(statusFor(appErr), body)
}

func statusFor(appErr *utils.AppError) int {
	switch appErr.Kind {
	case utils.ErrorKindValidation, utils.ErrorKindPrecondition:
		if appErr.Code == utils.ErrCodeEmployeeNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadRequest
	case utils.ErrorKindState:
		if strings.HasSuffix(string(appErr.Code), "NotFound") {
			return http.StatusNotFound
		}
		return http.StatusBadRequest
	}
	if appErr.Code == utils.ErrCodeForbidden {
		return http.StatusForbidden
	}
	if appErr.Code == utils.ErrCodeTransientFailure {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func actingEmployee(c *gin.Context) int {
	id, _ := utils.GetEmployeeIdFromContext(c.Request.Context())
	return id
}
