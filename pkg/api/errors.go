package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marmos91/dittoexplorer/pkg/explorer"
	"github.com/marmos91/dittoexplorer/pkg/navigation"
	"github.com/marmos91/dittoexplorer/pkg/settings"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// errBadRequest marks request decoding failures.
type errBadRequest struct{ err error }

func (e errBadRequest) Error() string { return e.err.Error() }
func (e errBadRequest) Unwrap() error { return e.err }

func badRequest(err error) error {
	return errBadRequest{err: err}
}

// statusFor maps a session error to an HTTP status and an error code.
func statusFor(err error) (int, string) {
	var bad errBadRequest
	if errors.As(err, &bad) {
		return http.StatusBadRequest, "BadRequest"
	}

	var modelErr *vfs.ModelError
	if errors.As(err, &modelErr) {
		switch modelErr.Code {
		case vfs.ErrNotFound:
			return http.StatusNotFound, modelErr.Code.String()
		case vfs.ErrInvalidParent, vfs.ErrCycleDetected:
			return http.StatusConflict, modelErr.Code.String()
		case vfs.ErrInvalidName, vfs.ErrInvalidArgument:
			return http.StatusUnprocessableEntity, modelErr.Code.String()
		}
	}

	switch {
	case errors.Is(err, navigation.ErrTabNotFound):
		return http.StatusNotFound, "TabNotFound"
	case errors.Is(err, navigation.ErrLastTab):
		return http.StatusConflict, "LastTab"
	case errors.Is(err, explorer.ErrTrashView):
		return http.StatusConflict, "TrashView"
	case errors.Is(err, explorer.ErrNotTrashView):
		return http.StatusConflict, "NotTrashView"
	case errors.Is(err, explorer.ErrEmptySelection):
		return http.StatusConflict, "EmptySelection"
	case errors.Is(err, explorer.ErrNoPending):
		return http.StatusConflict, "NoPending"
	case errors.Is(err, settings.ErrInvalidUser), errors.Is(err, settings.ErrPinMismatch):
		return http.StatusUnprocessableEntity, "InvalidUser"
	case errors.Is(err, settings.ErrWrongPin):
		return http.StatusForbidden, "WrongPin"
	case errors.Is(err, settings.ErrNoUser):
		return http.StatusConflict, "NoUser"
	}

	return http.StatusInternalServerError, ""
}

// respondError writes err as a JSON error body.
func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error(), Code: code})
}
