package httperr

import (
	"github.com/gin-gonic/gin"
)

// Response is the flat error body every endpoint returns.
type Response struct {
	Status int    `json:"-"`
	Error  string `json:"error"`
}

// AbortWithError writes the flat error body and records the original error
// on the context so the logging middleware can report it.
func AbortWithError(c *gin.Context, status int, err error, msg string) {
	resp := Response{Status: status, Error: msg}
	if err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypePublic).SetMeta(resp)
	}
	c.AbortWithStatusJSON(status, resp)
}
