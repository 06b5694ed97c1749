// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Role names issued by the authentication service.
const (
	RoleConsumer = "consumer"
	RoleOwner    = "sme_owner"
	RoleOperator = "operator"
)

// Identity represents the authenticated user's identity.
// Handlers read the principal through this interface instead of gin keys.
type Identity interface {
	// UserID returns the authenticated user's ID.
	UserID() uuid.UUID
	// Roles returns the user's assigned roles.
	Roles() []string
	// HasRole checks if the user has a specific role.
	HasRole(role string) bool
	// OperatorOf returns the business an operator works for, if any.
	OperatorOf() *uuid.UUID
	// IsAuthenticated returns true if the user is authenticated.
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	roles         []string
	operatorOf    *uuid.UUID
	authenticated bool
}

func (i *identity) UserID() uuid.UUID {
	return i.userID
}

func (i *identity) Roles() []string {
	return i.roles
}

func (i *identity) HasRole(role string) bool {
	for _, r := range i.roles {
		if r == role {
			return true
		}
	}
	return false
}

func (i *identity) OperatorOf() *uuid.UUID {
	return i.operatorOf
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// SetIdentity stores a principal on the gin context. AuthRequired calls this after
// validating a token; tests use it to skip token minting.
func SetIdentity(c *gin.Context, userID uuid.UUID, roles []string, operatorOf *uuid.UUID) {
	c.Set(ContextUserIDKey, userID)
	c.Set(ContextRolesKey, roles)
	if operatorOf != nil {
		c.Set(ContextOperatorOfKey, *operatorOf)
	}
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	userID, userOK := c.Get(ContextUserIDKey)
	if !userOK {
		return &identity{authenticated: false}
	}

	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	var roleList []string
	if roles, ok := c.Get(ContextRolesKey); ok {
		roleList, _ = roles.([]string)
	}

	var operatorOf *uuid.UUID
	if raw, ok := c.Get(ContextOperatorOfKey); ok {
		if id, ok := raw.(uuid.UUID); ok {
			operatorOf = &id
		}
	}

	return &identity{
		userID:        uid,
		roles:         roleList,
		operatorOf:    operatorOf,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the user is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
