package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	errs "github.com/phillip/chama-tracker-go/errs"
	"github.com/phillip/chama-tracker-go/logger"
)

// updateRequest is the body shared by every write endpoint.
type updateRequest struct {
	Action string          `json:"action"`
	Month  string          `json:"month"`
	Data   json.RawMessage `json:"data"`
}

func bindUpdate(c *gin.Context) (*updateRequest, error) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, decodeError(err, "Invalid request body")
	}
	return &req, nil
}

var errMissingData = &errs.ValidationError{
	ErrorMessage: errs.ErrorMessage{Message: "Valid data object is required"},
	Field:        "data",
}

// decodeData unmarshals the data object of a write request into out.
func decodeData(raw json.RawMessage, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errMissingData
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return decodeError(err, errMissingData.Message)
	}
	return nil
}

// decodeError names the offending field when the JSON decoder can tell us.
func decodeError(err error, fallback string) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field := typeErr.Field
		if i := strings.Index(field, "."); i >= 0 {
			field = field[:i]
		}
		if field == "amount" {
			return &errs.ValidationError{
				ErrorMessage: errs.ErrorMessage{Message: "Valid positive amount is required"},
				Field:        field,
			}
		}
		return errs.NewFieldError(field)
	}
	return errs.NewValidationError(fallback)
}

// handleError writes err as {error, details?} with the matching status.
func handleError(c *gin.Context, err error) {
	log := logger.FromContext(c.Request.Context())

	var (
		validation *errs.ValidationError
		conflict   *errs.ConflictError
		storage    *errs.StorageError
	)
	switch {
	case errors.As(err, &validation):
		log.Warn("validation failed", "error", validation.Message, "field", validation.Field)
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
	case errors.As(err, &conflict):
		log.Warn("write conflict", "error", conflict.Message)
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Message})
	case errors.As(err, &storage):
		log.Error("storage error", "operation", storage.Operation, "error", storage.Err)
		body := gin.H{"error": storage.Message}
		if storage.Err != nil {
			body["details"] = storage.Err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	default:
		log.Error("unexpected error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred", "details": err.Error()})
	}
}
