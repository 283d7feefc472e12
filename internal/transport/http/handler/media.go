package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vidhub/internal/app"
	"vidhub/internal/media"
	"vidhub/internal/transport/http/response"
)

type MediaReader interface {
	Open(ctx context.Context, objectName string) ([]byte, string, error)
}

type MediaHandler struct {
	reader MediaReader
}

func NewMediaHandler(reader MediaReader) *MediaHandler {
	return &MediaHandler{reader: reader}
}

// Serve streams GET /media/*object.
func (h *MediaHandler) Serve(c *gin.Context) {
	objectName := strings.TrimPrefix(c.Param("object"), "/")
	if objectName == "" || strings.Contains(objectName, "..") {
		response.Fail(c, app.NotFound("media does not exist"))
		return
	}

	data, contentType, err := h.reader.Open(c.Request.Context(), objectName)
	if err != nil {
		if errors.Is(err, media.ErrObjectNotFound) {
			response.Fail(c, app.NotFound("media does not exist"))
			return
		}
		response.Fail(c, err)
		return
	}

	contentType = media.SafeContentType(contentType)
	c.Header("X-Content-Type-Options", "nosniff")
	if !media.Inline(contentType) {
		c.Header("Content-Disposition", "attachment")
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, contentType, data)
}
