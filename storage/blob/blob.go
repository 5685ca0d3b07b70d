package blobstore

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/shiksha/lms/core"
)

const pdfContentType = "application/pdf"

var (
	errEmptyFile = errors.New("file cannot be empty")
	errPDFOnly   = errors.New("only PDF files are allowed")
)

// validateFile enforces the upload constraints shared by all stores:
// non-empty, within the configured size limit, PDF content and a .pdf name.
func validateFile(data []byte, filename string) error {
	fieldErr := func(err error) error {
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: err.Error()})
	}

	if len(data) == 0 {
		return fieldErr(errEmptyFile)
	}
	if maxSize := core.Conf.Storage.MaxUploadSize; int64(len(data)) > maxSize {
		return fieldErr(fmt.Errorf("file size cannot exceed %dMB", maxSize>>20))
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return fieldErr(errPDFOnly)
	}
	if http.DetectContentType(data) != pdfContentType {
		return fieldErr(errPDFOnly)
	}
	return nil
}

// newFileKey builds a collision-free storage key under a logical prefix,
// keeping the original extension.
func newFileKey(filename, prefix string) string {
	return prefix + "/" + uuid.New().String() + strings.ToLower(filepath.Ext(filename))
}
