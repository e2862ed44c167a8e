package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"launchpad/internal/apperr"
	"launchpad/internal/service"
)

// uploads holds the files opened from one multipart request.
type uploads struct {
	files []multipart.File
}

func (u *uploads) Close() {
	for _, f := range u.files {
		_ = f.Close()
	}
}

// all opens every file sent under field. Non-multipart requests carry no
// files.
func (u *uploads) all(c *gin.Context, field string) ([]service.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apperr.BadRequest("Invalid multipart form")
	}

	headers := form.File[field]
	out := make([]service.Upload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, apperr.BadRequest("Could not read uploaded file " + header.Filename)
		}
		u.files = append(u.files, file)
		out = append(out, service.Upload{Filename: header.Filename, Reader: file})
	}
	return out, nil
}

// one returns the first file sent under field, or nil.
func (u *uploads) one(c *gin.Context, field string) (*service.Upload, error) {
	files, err := u.all(c, field)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	return &files[0], nil
}
