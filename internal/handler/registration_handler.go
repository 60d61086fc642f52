package handler

import (
	"net/http"

	"supplierportal/internal/middleware"
	"supplierportal/internal/service"
	"supplierportal/pkg/response"

	"github.com/gin-gonic/gin"
)

type RegistrationHandler struct {
	registrationService service.RegistrationService
}

func NewRegistrationHandler(registrationService service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

func (h *RegistrationHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Issuing requires a staff account; validation is public so the form
	// can check its link before rendering
	router.POST("/api/registration-tokens", middleware.RequireRole("admin", "user"), h.IssueToken)
	router.GET("/api/registration-tokens/:token/validate", h.ValidateToken)
}

// IssueToken creates a single-use registration link for a prospective supplier
// @Summary      Issue registration token
// @Description  Issues a single-use token valid for 24 hours, bound to the prospective supplier's CNPJ and email
// @Tags         registration
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.IssueTokenRequest  true  "Token request"
// @Success      201      {object}  response.Response{data=service.IssuedToken}
// @Failure      400      {object}  response.Response
// @Router       /api/registration-tokens [post]
func (h *RegistrationHandler) IssueToken(c *gin.Context) {
	var req service.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	issued, err := h.registrationService.Issue(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, issued))
}

// ValidateToken checks whether a registration token is still usable
// @Summary      Validate registration token
// @Description  Read-only check used by the registration form; does not consume the token
// @Tags         registration
// @Produce      json
// @Param        token  path      string  true  "Registration token"
// @Success      200    {object}  response.Response
// @Router       /api/registration-tokens/{token}/validate [get]
func (h *RegistrationHandler) ValidateToken(c *gin.Context) {
	valid, err := h.registrationService.Validate(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"valid": valid}))
}
