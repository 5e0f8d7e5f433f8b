// Package ginrole adapts role requirements to gin handlers.
package ginrole

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fernandezvara/roles"
	"github.com/gin-gonic/gin"
)

// ContextKey is the gin context key holding the loaded *roles.SubjectRoles.
const ContextKey = "roles.subject_roles"

// Resolver extracts the subject from a gin request. A nil holder with a nil
// error means no subject; the request is evaluated as holding no roles.
type Resolver func(*gin.Context) (roles.RoleHolder, error)

// Require returns a gin middleware enforcing the tokens. A leading "required"
// demands every listed role; otherwise any one is enough. It panics if the
// tokens name no roles.
//
// Example:
//
//	r.POST("/invoices", ginrole.Require(service, ginrole.FromHeader("X-Subject-ID"), "required", "admin", "billing"), createInvoice)
func Require(loader roles.RoleLoader, resolve Resolver, tokens ...string) gin.HandlerFunc {
	req, err := roles.ParseRequirement(tokens...)
	if err != nil {
		panic(err)
	}

	return func(c *gin.Context) {
		holder, err := resolve(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}

		sr := roles.NewSubjectRoles(0, nil)
		if holder != nil {
			sr, err = loader.LoadSubjectRoles(c.Request.Context(), holder)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "authorization error"})
				return
			}
		}

		if err := req.Evaluate(sr); err != nil {
			var denied *roles.UnauthorizedError
			if errors.As(err, &denied) {
				c.AbortWithStatusJSON(denied.Status, gin.H{
					"message":        denied.Message,
					"required_roles": denied.RequiredRoles,
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "authorization error"})
			return
		}

		c.Set(ContextKey, sr)
		c.Request = c.Request.WithContext(roles.WithRoles(c.Request.Context(), sr))
		c.Next()
	}
}

// FromHeader reads a numeric subject id from a request header.
func FromHeader(header string) Resolver {
	return func(c *gin.Context) (roles.RoleHolder, error) {
		raw := c.GetHeader(header)
		if raw == "" {
			return nil, nil
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, roles.NewError(roles.ErrInvalidReference, header+" must be a numeric subject id")
		}
		return roles.Subject(id), nil
	}
}

// FromContextKey reads the subject id an earlier gin middleware stored with c.Set.
func FromContextKey(key string) Resolver {
	return func(c *gin.Context) (roles.RoleHolder, error) {
		v, ok := c.Get(key)
		if !ok {
			return nil, nil
		}
		switch id := v.(type) {
		case int64:
			return roles.Subject(id), nil
		case int:
			return roles.Subject(int64(id)), nil
		case roles.RoleHolder:
			return id, nil
		}
		return nil, roles.NewError(roles.ErrInvalidReference, key+" does not hold a subject id")
	}
}

// Roles returns the snapshot stored by Require, or nil.
func Roles(c *gin.Context) *roles.SubjectRoles {
	if v, ok := c.Get(ContextKey); ok {
		if sr, ok := v.(*roles.SubjectRoles); ok {
			return sr
		}
	}
	return nil
}
