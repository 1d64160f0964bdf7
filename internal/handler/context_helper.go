package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-record-api/internal/middleware"
	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
)

// studentID resolves the student the authenticated token acts for.
func studentID(c *gin.Context) (string, error) {
	claims := middleware.CurrentClaims(c)
	if claims == nil || claims.StudentID() == "" {
		return "", appErrors.ErrUnauthorized
	}
	return claims.StudentID(), nil
}

func cacheMeta(c *gin.Context, hit bool) map[string]interface{} {
	middleware.SetCacheHit(c, hit)
	return middleware.ExtractMeta(c)
}
