package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetETag sets the ETag header for cache validation.
func SetETag(c *gin.Context, etag string) {
	c.Header("ETag", etag)
}

// CheckETag reports whether the client's If-None-Match matches etag.
func CheckETag(c *gin.Context, etag string) bool {
	clientETag := c.GetHeader("If-None-Match")
	return clientETag != "" && clientETag == etag
}

// GenerateETag returns a quoted strong ETag over the JSON encoding of data.
func GenerateETag(data any) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(jsonData)
	return `"` + hex.EncodeToString(hash[:16]) + `"`, nil
}

// SuccessResponseWithETag answers 304 when the client already holds data,
// otherwise a normal success envelope carrying the ETag.
func SuccessResponseWithETag(c *gin.Context, message string, data any) {
	etag, err := GenerateETag(data)
	if err != nil {
		SuccessResponse(c, http.StatusOK, message, data)
		return
	}

	SetETag(c, etag)
	if CheckETag(c, etag) {
		c.Status(http.StatusNotModified)
		return
	}
	SuccessResponse(c, http.StatusOK, message, data)
}
