package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lcraddock/lexdraft/internal/middleware"
	"github.com/lcraddock/lexdraft/internal/services"
	appErrors "github.com/lcraddock/lexdraft/pkg/errors"
	"github.com/lcraddock/lexdraft/pkg/response"
)

// PDFHandler manages source-document uploads and downloads.
type PDFHandler struct {
	pdfs *services.PDFService
}

func NewPDFHandler(pdfs *services.PDFService) *PDFHandler {
	return &PDFHandler{pdfs: pdfs}
}

// POST /api/documents/:id/pdfs
// The payload is multipart form data with the file under the "file" field.
func (h *PDFHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("a PDF file is required under the 'file' field"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("uploaded file could not be read"))
		return
	}
	defer file.Close()

	userID := c.GetString(middleware.CtxUserIDKey)
	record, err := h.pdfs.Upload(requestContext(c), c.Param("id"), userID, fileHeader.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"pdf": record})
}

// GET /api/documents/:id/pdfs
func (h *PDFHandler) List(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	records, err := h.pdfs.List(requestContext(c), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pdfs": records})
}

// GET /api/pdfs/:id
func (h *PDFHandler) Get(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	record, err := h.pdfs.Get(requestContext(c), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pdf": record})
}

// GET /api/pdfs/:id/download
func (h *PDFHandler) Download(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	record, body, err := h.pdfs.Download(requestContext(c), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", `attachment; filename="`+record.Filename+`"`)
	c.DataFromReader(http.StatusOK, record.SizeBytes, record.MimeType, body, nil)
}

// DELETE /api/pdfs/:id
func (h *PDFHandler) Delete(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)

	if err := h.pdfs.Delete(requestContext(c), c.Param("id"), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
