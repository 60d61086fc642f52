package handler

import (
	"errors"
	"net/http"

	"supplierportal/internal/cep"
	"supplierportal/internal/repository"
	"supplierportal/pkg/response"

	"github.com/gin-gonic/gin"
)

// LookupHandler serves the reference data the public registration form
// needs: the ERP city dataset and postal-code lookups.
type LookupHandler struct {
	cityRepo  repository.CityRepository
	cepClient *cep.Client
}

func NewLookupHandler(cityRepo repository.CityRepository, cepClient *cep.Client) *LookupHandler {
	return &LookupHandler{cityRepo: cityRepo, cepClient: cepClient}
}

func (h *LookupHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Public: the registration form is unauthenticated
	router.GET("/api/cities", h.SearchCities)
	router.GET("/api/cep/:cep", h.LookupCEP)
}

// SearchCities returns cities matching a name prefix
// @Summary      Search cities
// @Description  Prefix search over the Sienge city dataset, optionally narrowed by state
// @Tags         lookup
// @Produce      json
// @Param        search  query     string  false  "City name prefix"
// @Param        state   query     string  false  "Two-letter state code"
// @Success      200     {object}  response.Response
// @Router       /api/cities [get]
func (h *LookupHandler) SearchCities(c *gin.Context) {
	cities, err := h.cityRepo.Search(c.Request.Context(), c.Query("search"), c.Query("state"), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to search cities"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cities))
}

// LookupCEP resolves a Brazilian postal code to an address
// @Summary      Look up postal code
// @Description  Resolves a CEP through ViaCEP to prefill the registration form's address section
// @Tags         lookup
// @Produce      json
// @Param        cep  path      string  true  "Postal code (8 digits)"
// @Success      200  {object}  response.Response{data=cep.Address}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/cep/{cep} [get]
func (h *LookupHandler) LookupCEP(c *gin.Context) {
	address, err := h.cepClient.Lookup(c.Request.Context(), c.Param("cep"))
	if err != nil {
		switch {
		case errors.Is(err, cep.ErrInvalidCEP):
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid postal code"))
		case errors.Is(err, cep.ErrNotFound):
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Postal code not found"))
		default:
			c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway, "Postal code lookup failed"))
		}
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, address))
}
