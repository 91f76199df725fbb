package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/physioflow/practice-api/internal/model"
)

// Context keys set by the auth middleware.
const (
	ContextTherapistID = "therapist_id"
	ContextRole        = "role"
)

// ActorID returns the authenticated therapist's ID, or uuid.Nil when the
// route is unauthenticated.
func ActorID(c *gin.Context) uuid.UUID {
	v, ok := c.Get(ContextTherapistID)
	if !ok {
		return uuid.Nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

func IsAdmin(c *gin.Context) bool {
	v, ok := c.Get(ContextRole)
	if !ok {
		return false
	}
	role, ok := v.(string)
	return ok && role == string(model.TherapistRoleAdmin)
}
