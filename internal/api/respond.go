package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dchat/internal/apperr"
)

// writeError converts any handler failure into the uniform error envelope.
// Validation failures carry their own message; anything else is logged with
// its cause and surfaced as a generic message.
func writeError(c *gin.Context, logger *zap.Logger, status int, err error) {
	if !apperr.IsValidation(err) {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	msg := apperr.UserMessage(err)
	c.JSON(status, gin.H{"error": &msg})
}

// errInvalidBody is the uniform response to an undecodable request body.
var errInvalidBody = apperr.Validation("Invalid argument for request.")
