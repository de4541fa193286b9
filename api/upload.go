package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/garnizeh/staffdir/internal/record"
	"github.com/garnizeh/staffdir/pkg/apperror"
)

const photoField = "photo"

// photo uploads are limited to the types the directory displays
var photoTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// readPhoto returns the uploaded photo of a parsed multipart form, or nil when
// none was sent.
func readPhoto(r *http.Request, limit int64) (*record.Upload, error) {
	file, header, err := r.FormFile(photoField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperror.ValidationError{Field: photoField, Message: err.Error()}
	}
	defer file.Close()

	return checkPhoto(header, file, limit)
}

func checkPhoto(header *multipart.FileHeader, file io.Reader, limit int64) (*record.Upload, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	want, ok := photoTypes[ext]
	if !ok {
		return nil, &apperror.ValidationError{Field: photoField, Message: "photo must be a .png, .jpg or .jpeg file"}
	}

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, &apperror.ValidationError{Field: photoField, Message: err.Error()}
	}
	if int64(len(data)) > limit {
		return nil, &apperror.ValidationError{Field: photoField, Message: fmt.Sprintf("photo exceeds %d bytes", limit)}
	}
	if len(data) == 0 {
		return nil, &apperror.ValidationError{Field: photoField, Message: "photo is empty"}
	}

	mt := mimetype.Detect(data)
	if !mt.Is(want) {
		return nil, &apperror.ValidationError{Field: photoField, Message: fmt.Sprintf("photo content is %s, not %s", mt.String(), want)}
	}

	return &record.Upload{Filename: header.Filename, Data: data}, nil
}
