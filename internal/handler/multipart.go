package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/sakif/projectdesk/internal/apperror"
)

// multipartMemory is how much of a multipart form is kept in memory before
// the rest spills to temp files.
const multipartMemory = 8 << 20

// formFile returns the "file" part of a multipart request. The caller must
// close the returned file.
//
// A missing part, or a body that is not multipart at all, is NoFileProvided.
// A body over maxBytes is a validation error.
func formFile(w http.ResponseWriter, r *http.Request, maxBytes int64) (multipart.File, *multipart.FileHeader, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, apperror.ValidationFailed("file",
				fmt.Sprintf("file exceeds the %d byte upload limit", tooLarge.Limit))
		}
		return nil, nil, apperror.NoFileProvided()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, apperror.NoFileProvided()
	}
	return file, header, nil
}
