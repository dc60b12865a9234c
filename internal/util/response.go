package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response carries the data part of the uniform JSON envelope.
type Response map[string]interface{}

// Business codes used across the API.
const (
	CodeOK           = 0
	CodeInvalidParam = 40001
	CodeAuth         = 40101
	CodePermission   = 40301
	CodeNotFound     = 40401
	CodeConflict     = 40901
	CodeTooLarge     = 41301
	CodeServerErr    = 50001
)

// Success 统一成功返回
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Error 统一错误返回
func Error(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}
