package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/genguard/pkg/constants"
	"github.com/turtacn/genguard/pkg/utils"
)

// Identifier resolves the caller identifier once per request and stores it on
// both the gin context and the request context.
func Identifier() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := utils.ResolveIdentifier(
			c.GetHeader(constants.HeaderFingerprint),
			c.GetHeader(constants.HeaderForwardedFor),
		)
		c.Set(constants.GinKeyIdentifier, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), constants.ContextKeyIdentifier, id))
		c.Next()
	}
}

// IdentifierFrom returns the identifier stored by Identifier, resolving it
// from the headers when the middleware did not run.
func IdentifierFrom(c *gin.Context) string {
	if id := c.GetString(constants.GinKeyIdentifier); id != "" {
		return id
	}
	return utils.ResolveIdentifier(
		c.GetHeader(constants.HeaderFingerprint),
		c.GetHeader(constants.HeaderForwardedFor),
	)
}
