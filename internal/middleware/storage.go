package middleware

import (
	"net/http"

	"github.com/enriqueruelasgarcia/Users-mongo/internal/metrics"

	"github.com/gin-gonic/gin"
)

// ReadyChecker reports whether a dependency can serve requests.
type ReadyChecker interface {
	Ready() bool
}

// RequireStorage rejects requests with 500 until the storage connection
// has been established.
func RequireStorage(store ReadyChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !store.Ready() {
			metrics.StorageUnavailable.Inc()
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "database not connected"})
			return
		}
		c.Next()
	}
}
