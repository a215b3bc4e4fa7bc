package response

import "github.com/gin-gonic/gin"

// The error envelope has two distinct shapes: a single message
// (Error/ErrorWithCode) or a field→message map (ValidationError). A
// response never carries both.

func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     "success",
		StatusCode: code,
		Message:    message,
		Data:       data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, StandardApiResponse{
		Status:     "error",
		StatusCode: code,
		Message:    message,
	})
}

func ErrorWithCode(c *gin.Context, code int, message, errorCode string) {
	c.JSON(code, StandardApiResponse{
		Status:     "error",
		StatusCode: code,
		Message:    message,
		Code:       errorCode,
	})
}

func ErrorWithDetails(c *gin.Context, code int, message string, details interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     "error",
		StatusCode: code,
		Message:    message,
		Details:    details,
	})
}

func ValidationError(c *gin.Context, code int, message string, fieldErrors map[string]string) {
	c.JSON(code, StandardApiResponse{
		Status:     "error",
		StatusCode: code,
		Message:    message,
		Errors:     fieldErrors,
	})
}
