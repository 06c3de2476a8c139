package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lcraddock/lexdraft/pkg/response"
)

// Health returns a status payload useful for readiness checks. The database
// is pinged on each call so a wedged connection pool surfaces here.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		dbStatus := "ok"

		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				status = "degraded"
				dbStatus = "unreachable"
			}
		}

		response.Success(c, http.StatusOK, gin.H{
			"status":    status,
			"database":  dbStatus,
			"timestamp": time.Now().UTC(),
		})
	}
}
