package handler

import "github.com/gin-gonic/gin"

// currentActor pulls the authenticated user's id and role out of the gin
// context. Both are set by the auth middleware; empty values mean the route
// was wired without it.
func currentActor(c *gin.Context) (userID, role string) {
	if v, ok := c.Get("userID"); ok {
		userID, _ = v.(string)
	}
	if v, ok := c.Get("userRole"); ok {
		role, _ = v.(string)
	}
	return userID, role
}
