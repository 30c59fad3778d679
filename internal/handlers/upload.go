package handlers

import (
	"io"
	"net/http"

	"agora/internal/models"
	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uploads *services.Uploader
}

func NewUploadHandler(uploads *services.Uploader) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// storeUpload reads the "file" form field and saves it. It writes the error
// response itself and reports whether the caller may continue.
func storeUpload(c *gin.Context, uploads *services.Uploader) (models.Attachment, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, services.Invalid("missing file field"))
		return models.Attachment{}, false
	}
	defer file.Close()

	attachment, err := uploads.Store(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		RespondError(c, err)
		return models.Attachment{}, false
	}
	return attachment, true
}

func (h *UploadHandler) Upload(c *gin.Context) {
	attachment, ok := storeUpload(c, h.uploads)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, attachment)
}

func (h *UploadHandler) Serve(c *gin.Context) {
	rc, contentType, err := h.uploads.Open(c.Request.Context(), c.Param("name"))
	if err != nil {
		RespondError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}
