package controllers

import (
	"strconv"

	"canaccesible/middleware"
	"canaccesible/models"
	"canaccesible/pkg/store"

	"github.com/gin-gonic/gin"
)

// identityFrom rebuilds the store identity from what AuthMiddleware verified.
func identityFrom(c *gin.Context) store.Identity {
	uidRaw, _ := c.Get(middleware.ContextUserIDKey)
	uidStr, _ := uidRaw.(string)
	uid, _ := strconv.Atoi(uidStr)
	roleRaw, _ := c.Get(middleware.ContextRoleKey)
	role, _ := roleRaw.(string)
	return store.Identity{UserID: uint(uid), Admin: role == models.RoleAdmin}
}

func paramUint(c *gin.Context, name string) uint {
	v, _ := strconv.Atoi(c.Param(name))
	if v < 0 {
		return 0
	}
	return uint(v)
}
