// Package handlers implements the HTTP endpoints. Handlers are small structs
// holding their dependencies; request validation lives here, domain rules live
// in the service packages.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/cardverse/cardverse/internal/domainerr"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Context keys set by the auth middleware.
const (
	ctxUserID   = "userID"
	ctxUsername = "username"
	ctxRole     = "role"
)

// currentUserID returns the authenticated user ID, or 0 when unauthenticated.
func currentUserID(c *gin.Context) uint64 {
	id, _ := c.Get(ctxUserID)
	userID, _ := id.(uint64)
	return userID
}

// currentRole returns the authenticated user's role.
func currentRole(c *gin.Context) string {
	role, _ := c.Get(ctxRole)
	name, _ := role.(string)
	return name
}

// respondError writes a domain error with its mapped status and code, or a
// generic 500 for everything else.
func respondError(c *gin.Context, err error) {
	if domainErr, ok := domainerr.From(err); ok {
		c.JSON(domainErr.Status, gin.H{"error": domainErr.Message, "code": domainErr.Code})
		return
	}
	log.WithError(err).Errorf("%s %s failed", c.Request.Method, c.FullPath())
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// parseIDParam reads a positive integer path parameter. On failure it writes a
// 400 response and returns false.
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, errParse := strconv.ParseUint(c.Param(name), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// parsePagination reads page/take query parameters with defaults.
func parsePagination(c *gin.Context) (page, take int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	take, _ = strconv.Atoi(c.DefaultQuery("take", "10"))
	if page <= 0 {
		page = 1
	}
	if take <= 0 {
		take = 10
	}
	if take > 50 {
		take = 50
	}
	return page, take
}
