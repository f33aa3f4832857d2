package images

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
)

// UpdateOp is the explicit fate of a record's hosted image on an admin
// create/update call, instead of branching on whether a file happened to
// be attached.
type UpdateOp int

const (
	OpNoChange UpdateOp = iota
	OpReplace
	OpRemove
)

// Update is the parsed image input of a multipart admin form.
type Update struct {
	Op   UpdateOp
	File multipart.File
}

func (u Update) Close() {
	if u.File != nil {
		u.File.Close()
	}
}

const maxImageBytes = 10 << 20

// ParseUpdate reads the image part of a multipart form. A file under
// fileField means Replace, a ticked removeField checkbox means Remove,
// anything else is NoChange.
func ParseUpdate(r *http.Request, fileField string, removeField string) (Update, error) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return Update{}, err
	}

	file, _, err := r.FormFile(fileField)
	switch {
	case err == nil:
		return Update{Op: OpReplace, File: file}, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return Update{}, err
	}

	switch strings.ToLower(strings.TrimSpace(r.FormValue(removeField))) {
	case "on", "true", "1":
		return Update{Op: OpRemove}, nil
	}

	return Update{Op: OpNoChange}, nil
}
