package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"bitbucket.org/mmdatafocus/factory_backend/handlers"
	"bitbucket.org/mmdatafocus/factory_backend/middlewares"
	"bitbucket.org/mmdatafocus/factory_backend/models"
	"bitbucket.org/mmdatafocus/factory_backend/testutil"
	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"bitbucket.org/mmdatafocus/factory_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type apiFixture struct {
	db     *gorm.DB
	router *gin.Engine
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.OpenDB(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware(), middlewares.AuthMiddleware())
	h := handlers.NewHandler(db, workflow.NewProductionWorkflow(db, logger, nil), logger)
	h.Register(r)
	h.RegisterOps(r)
	return &apiFixture{db: db, router: r}
}

func tokenFor(t *testing.T, e *models.Employee) string {
	t.Helper()
	token, err := utils.JwtGenerate(e.ID, e.Name, string(e.Role))
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	return token
}

func (a *apiFixture) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return w.Code, out
}

func (a *apiFixture) employeeWithRole(t *testing.T, name string, role models.EmployeeRole) *models.Employee {
	t.Helper()
	e := testutil.SeedEmployee(t, a.db, name, 0, models.PaymentTypeFixed)
	if err := a.db.Model(&models.Employee{}).Where("id = ?", e.ID).Update("role", role).Error; err != nil {
		t.Fatalf("set role: %v", err)
	}
	e.Role = role
	return e
}
