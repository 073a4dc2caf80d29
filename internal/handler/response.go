package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/pkg/logger"
)

var verboseErrors bool

// SetVerboseErrors makes error responses carry the full error chain.
// Meant for development; production responses stay terse.
func SetVerboseErrors(v bool) { verboseErrors = v }

// renderData writes the success envelope around a single named document.
func renderData(c *gin.Context, status int, key string, value interface{}) {
	c.JSON(status, gin.H{
		"status": "success",
		"data":   gin.H{key: value},
	})
}

// renderList writes the success envelope around a collection, with the
// result count alongside.
func renderList(c *gin.Context, key string, items interface{}, results int) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": results,
		"data":    gin.H{key: items},
	})
}

// renderError maps an error to its HTTP status and envelope. Operational
// failures surface their message; anything else is logged and hidden
// behind a generic one.
func renderError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		logger.Log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	body := gin.H{
		"status":  kind.StatusWord(),
		"message": apperror.ClientMessage(err),
	}
	if verboseErrors {
		body["error"] = err.Error()
	}
	c.JSON(kind.Status(), body)
}
