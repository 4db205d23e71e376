package handlers

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/tweettube/backend/internal/apperr"
	"github.com/tweettube/backend/internal/models"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100

	// maxUploadBytes bounds the memory buffer for multipart parsing; larger
	// file parts spill to disk.
	maxUploadBytes = 32 << 20
)

// parseRef validates an entity reference before any lookup so malformed ids
// surface as bad requests rather than as not-found.
func parseRef(value, label string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return "", apperr.New(apperr.BadRequest, fmt.Sprintf("invalid %s id", label))
	}
	return id.String(), nil
}

// parsePagination reads page and limit query parameters, applying defaults
// and clamping out-of-range values instead of rejecting them.
func parsePagination(r *http.Request) (page, limit int64) {
	page = 1
	limit = defaultPageLimit

	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
			page = v
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	return page, limit
}

// assertOwner rejects mutations by anyone other than the resource owner.
// Existence is checked before ownership, so callers learn a resource exists
// even when they may not touch it.
func assertOwner(user models.User, ownerID, label string) error {
	if user.ID != ownerID {
		return apperr.New(apperr.Forbidden, fmt.Sprintf("you do not own this %s", label))
	}
	return nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.BadRequest, "invalid request body", err)
	}
	return nil
}

// formFile pulls a named file part out of an already-parsed multipart form.
// The returned content type comes from the part header and is advisory only.
func formFile(r *http.Request, field string) (multipart.File, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", apperr.New(apperr.BadRequest, fmt.Sprintf("%s file is required", field))
	}
	return file, header.Header.Get("Content-Type"), nil
}
