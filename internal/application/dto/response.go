package dto

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/genguard/pkg/errors"
)

// SendError writes the {"error": ...} body for err and aborts the chain.
// Errors outside the AppError taxonomy become a generic 500.
func SendError(c *gin.Context, err error) {
	status, body := errors.ToErrorResponse(err)
	c.AbortWithStatusJSON(status, body)
}

// SendSuccess writes data as the JSON body.
func SendSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
