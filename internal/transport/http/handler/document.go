package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docuquery/internal/app"
	"docuquery/internal/transport/http/response"
)

type DocumentHandler struct {
	docService *app.DocumentService
}

type UploadURLRequest struct {
	URL string `json:"url" binding:"required,max=512"`
}

func NewDocumentHandler(docService *app.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// Upload accepts a multipart form with "file"; processing runs in the
// background and the response only acknowledges acceptance.
func (h *DocumentHandler) Upload(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "open file failed")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read file failed")
		return
	}

	doc, err := h.docService.Upload(c.Request.Context(), app.UploadInput{
		CompanyID:   companyID,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.writeServiceError(c, err, "upload failed")
		return
	}

	response.OK(c, gin.H{
		"message":     "file uploaded and processing has started",
		"document_id": doc.ID,
		"filename":    doc.Filename,
	})
}

// UploadURL fetches a document from a URL and ingests it in the background.
func (h *DocumentHandler) UploadURL(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	doc, err := h.docService.UploadURL(c.Request.Context(), companyID, req.URL)
	if err != nil {
		h.writeServiceError(c, err, "fetch url failed")
		return
	}

	response.OK(c, gin.H{
		"message":     "url content fetched and processing started",
		"document_id": doc.ID,
		"filename":    doc.Filename,
	})
}

func (h *DocumentHandler) List(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	docs, err := h.docService.List(companyID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Download(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	documentID, err := parseUintParam(c, "id")
	if err != nil || documentID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	doc, err := h.docService.Download(companyID, documentID)
	if err != nil {
		h.writeServiceError(c, err, "download failed")
		return
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, contentType, doc.FileData)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	documentID, err := parseUintParam(c, "id")
	if err != nil || documentID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	if err := h.docService.Delete(c.Request.Context(), companyID, documentID); err != nil {
		h.writeServiceError(c, err, "delete failed")
		return
	}

	response.OK(c, gin.H{
		"message": fmt.Sprintf("document %d and its embeddings are scheduled for deletion", documentID),
	})
}

func (h *DocumentHandler) Reingest(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	documentID, err := parseUintParam(c, "id")
	if err != nil || documentID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	doc, err := h.docService.Reingest(c.Request.Context(), companyID, documentID)
	if err != nil {
		h.writeServiceError(c, err, "reingest failed")
		return
	}

	response.OK(c, gin.H{
		"message":     "reprocessing has started",
		"document_id": doc.ID,
		"status":      doc.Status,
	})
}

func (h *DocumentHandler) writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, app.ErrEmptyFile),
		errors.Is(err, app.ErrFileTooLarge),
		errors.Is(err, app.ErrFetchURL):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
	case errors.Is(err, app.ErrIngestEnqueue):
		response.Error(c, http.StatusServiceUnavailable, response.CodeInternalServer, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	s := c.Param(key)
	u, err := strconv.ParseUint(s, 10, 64)
	return uint(u), err
}
