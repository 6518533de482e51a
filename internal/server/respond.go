package server

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/omkarspace/Doc-Check/internal/common"
)

// renderError maps the error taxonomy onto the wire format. Internal detail
// stays out of the body for plain (non-AppError) errors.
func renderError(c *gin.Context, err error) {
	status := common.HTTPStatus(err)
	code := "INTERNAL_ERROR"
	message := "internal error"
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{"code": code, "message": message},
	})
}
