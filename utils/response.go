package utils

import "github.com/gin-gonic/gin"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Respond writes payload as JSON with the given status code.
func Respond(ctx *gin.Context, status int, payload interface{}) {
	ctx.JSON(status, payload)
}

// Success returns a 200 response with the payload as the body.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, 200, data)
}

// Created returns a 201 response with the payload as the body.
func Created(ctx *gin.Context, data interface{}) {
	Respond(ctx, 201, data)
}

// Error aborts the request with a {message, error?} body.
func Error(ctx *gin.Context, status int, message string, detail ...string) {
	body := ErrorResponse{Message: message}
	if len(detail) > 0 {
		body.Error = detail[0]
	}
	ctx.AbortWithStatusJSON(status, body)
}
