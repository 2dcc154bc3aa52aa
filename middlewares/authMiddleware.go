package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/factory_backend/models"
	"bitbucket.org/mmdatafocus/factory_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware puts the acting employee from a bearer token into the
// request context. Requests without a token pass through unauthenticated.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" {
			c.Next()
			return
		}

		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			abortWithError(c, http.StatusUnauthorized, "Unauthorized", "unauthorized")
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			abortWithError(c, http.StatusUnauthorized, "Unauthorized", "unauthorized")
			return
		}

		customClaim, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok || customClaim.ID <= 0 {
			abortWithError(c, http.StatusUnauthorized, "Unauthorized", "unauthorized")
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), auth)
		ctx = utils.SetEmployeeIdInContext(ctx, customClaim.ID)
		ctx = utils.SetEmployeeNameInContext(ctx, customClaim.Name)
		ctx = utils.SetRoleInContext(ctx, customClaim.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireEmployee rejects requests without an authenticated employee.
func RequireEmployee() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetEmployeeIdFromContext(c.Request.Context()); !ok {
			abortWithError(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		c.Next()
	}
}

// RequirePenaltyManager allows admins and accountants only.
func RequirePenaltyManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := utils.GetRoleFromContext(c.Request.Context())
		if !models.EmployeeRole(role).CanManagePenalties() {
			abortWithError(c, http.StatusForbidden, string(utils.ErrCodeForbidden), "only admins and accountants can assign penalties")
			return
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"status":  "error",
		"code":    code,
		"message": message,
	})
}

// RequireAdmin guards ops endpoints.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := utils.GetRoleFromContext(c.Request.Context())
		if models.EmployeeRole(role) != models.EmployeeRoleAdmin {
			abortWithError(c, http.StatusForbidden, string(utils.ErrCodeForbidden), "admin only")
			return
		}
		c.Next()
	}
}
