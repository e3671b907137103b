package httpapi

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"gramly/internal/adapters/httpapi/middleware"
	"gramly/internal/core/apperror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
)

const maxImageBytes = 10 << 20

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindAuthorization:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError writes the failure envelope. Store causes go to the log, never to the client.
func respondError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	if kind == apperror.KindStore {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(statusFor(kind), gin.H{
		"success": false,
		"error":   string(kind),
		"message": apperror.Message(err),
	})
}

// bindError turns a gin binding failure into a validation error.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "email" {
				return apperror.Validation("invalid email address")
			}
		}
		return apperror.Validation("please provide all required fields")
	}
	return apperror.Validation("invalid request body")
}

func principal(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   string(apperror.KindAuthorization),
			"message": "user not authenticated",
		})
	}
	return id, ok
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil || id == uuid.Nil {
		respondError(c, apperror.Validation("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// readImage returns the bytes of an optional multipart file field; nil when the field is absent.
func readImage(c *gin.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Validation("invalid multipart form")
	}
	if fh.Size > maxImageBytes {
		return nil, apperror.Validation("image too large")
	}
	return readAll(fh)
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, apperror.Store("open upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return nil, apperror.Store("read upload", err)
	}
	if len(data) > maxImageBytes {
		return nil, apperror.Validation("image too large")
	}
	return data, nil
}
