package handler

import (
	"io"
	"net/http"

	"supplierportal/internal/middleware"
	"supplierportal/internal/service"
	"supplierportal/pkg/response"

	"github.com/gin-gonic/gin"
)

// maxUploadSize caps each uploaded file at 10 MiB
const maxUploadSize = 10 << 20

type DocumentHandler struct {
	documentService service.DocumentService
}

func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

func (h *DocumentHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/suppliers/:id/documents", middleware.RequireRole("admin", "user"), h.Upload)
}

// Upload stores one or more documents for a supplier
// @Summary      Upload supplier documents
// @Description  Accepts multipart form files under the "files" field. Files are processed independently: a failed file is reported without discarding the ones that succeeded.
// @Tags         documents
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      string  true  "Supplier ID"
// @Param        files  formData  file    true  "Documents to upload"
// @Success      200    {object}  response.Response
// @Failure      400    {object}  response.Response
// @Router       /api/suppliers/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid multipart form: "+err.Error()))
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "No files provided under the 'files' field"))
		return
	}

	var files []service.FileUpload
	for _, fh := range fileHeaders {
		if fh.Size > maxUploadSize {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "File too large: "+fh.Filename))
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to read file: "+fh.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to read file: "+fh.Filename))
			return
		}
		files = append(files, service.FileUpload{Name: fh.Filename, Data: data})
	}

	results, err := h.documentService.Upload(c.Request.Context(), c.Param("id"), files, actorFrom(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, results))
}
