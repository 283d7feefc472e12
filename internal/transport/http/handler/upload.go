package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"vidhub/internal/app"
)

// formUpload reads a multipart file field; a missing field yields nil.
func formUpload(c *gin.Context, field string) (*app.Upload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return nil, nil
		case errors.As(err, &tooLarge):
			return nil, app.Validation("request body is too large")
		default:
			return nil, app.Validation("invalid multipart form")
		}
	}

	file, err := header.Open()
	if err != nil {
		return nil, app.Internal("open uploaded file failed", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, app.Internal("read uploaded file failed", err)
	}
	return &app.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// bind decodes JSON or form bodies by content type.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBind(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return app.Validation("request body is too large")
		}
		return app.Validation("invalid request payload")
	}
	return nil
}
