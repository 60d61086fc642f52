package handler

import (
	"errors"
	"net/http"

	"supplierportal/internal/service"
	"supplierportal/internal/sienge"
	"supplierportal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// actorFrom rebuilds the acting user from the claims the auth middleware
// stored on the context.
func actorFrom(c *gin.Context) service.Actor {
	actor := service.Actor{}
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			if id, err := uuid.Parse(s); err == nil {
				actor.ID = id
			}
		}
	}
	if v, ok := c.Get("userEmail"); ok {
		actor.Email, _ = v.(string)
	}
	if v, ok := c.Get("userName"); ok {
		actor.Name, _ = v.(string)
	}
	if v, ok := c.Get("userRole"); ok {
		actor.Role, _ = v.(string)
	}
	return actor
}

// writeServiceError maps the service error taxonomy to HTTP statuses.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrIntegration):
		c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway, err.Error()))
	case errors.Is(err, sienge.ErrMissingCredentials):
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}
