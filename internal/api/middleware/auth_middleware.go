package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"resumepager/internal/auth"
)

const (
	resumeIDKey = "resumeID"
	tokenIDKey  = "editTokenID"
)

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// EditTokenMiddleware 校验编辑令牌，并要求令牌所属简历与路由参数 :id 一致。
func EditTokenMiddleware(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c)
			return
		}

		claims, err := tokens.Validate(parts[1])
		if err != nil {
			abortUnauthorized(c)
			return
		}

		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || uint(id) != claims.ResumeID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token does not grant access to this resume"})
			return
		}

		c.Set(resumeIDKey, claims.ResumeID)
		c.Set(tokenIDKey, claims.ID)
		withResume(c, claims.ResumeID)
		c.Next()
	}
}

// EditGrant 返回中间件注入的简历 ID 与令牌 ID。
func EditGrant(c *gin.Context) (resumeID uint, tokenID string, ok bool) {
	rv, ok1 := c.Get(resumeIDKey)
	tv, ok2 := c.Get(tokenIDKey)
	if !ok1 || !ok2 {
		return 0, "", false
	}
	resumeID, ok1 = rv.(uint)
	tokenID, ok2 = tv.(string)
	return resumeID, tokenID, ok1 && ok2
}
