package utils

import "github.com/gin-gonic/gin"

// JSONError writes the API error envelope: {"error": {"code": ..., "message": ...}}.
func JSONError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// JSONErrorWithDetails merges extra fields into the error object.
func JSONErrorWithDetails(c *gin.Context, status int, code, message string, details gin.H) {
	body := gin.H{"code": code, "message": message}
	for k, v := range details {
		body[k] = v
	}
	c.JSON(status, gin.H{"error": body})
}
