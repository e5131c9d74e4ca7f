// README: Principal extraction. The auth collaborator in front of this
// service verifies identity and forwards it in headers; the core trusts them.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chauffeur/internal/types"
)

const principalKey = "principal"

func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		role := types.Role(c.GetHeader("X-User-Role"))
		if userID == "" || (role != types.RoleClient && role != types.RoleDriver && role != types.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid identity"})
			return
		}
		c.Set(principalKey, types.Principal{UserID: types.ID(userID), Role: role})
		c.Next()
	}
}

func GetPrincipal(c *gin.Context) types.Principal {
	v, _ := c.Get(principalKey)
	p, _ := v.(types.Principal)
	return p
}
