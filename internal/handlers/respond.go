package handlers

import "github.com/gin-gonic/gin"

// ErrorBody is the JSON shape every failed request returns.
type ErrorBody struct {
	Status    string `json:"status"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorBody{
		Status:    "ERROR",
		ErrorCode: code,
		Message:   message,
	})
}
