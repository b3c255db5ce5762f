package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docveil/services"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

func SuccessResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func CreatedResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string, err interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Message: message,
		Error:   err,
	})
}

func BadRequestResponse(c *gin.Context, message string, err interface{}) {
	ErrorResponse(c, http.StatusBadRequest, message, err)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, message, nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, message, nil)
}

func NotFoundResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, message, nil)
}

func ConflictResponse(c *gin.Context, message string, err interface{}) {
	ErrorResponse(c, http.StatusConflict, message, err)
}

func InternalServerErrorResponse(c *gin.Context, message string, err interface{}) {
	ErrorResponse(c, http.StatusInternalServerError, message, err)
}

// HandleServiceError maps the engine's typed errors onto HTTP status codes.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		NotFoundResponse(c, err.Error())
	case errors.Is(err, services.ErrPermissionDenied):
		ForbiddenResponse(c, err.Error())
	case errors.Is(err, services.ErrInvalidMove),
		errors.Is(err, services.ErrParentStillDeleted):
		ConflictResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrConfirmationRequired):
		BadRequestResponse(c, err.Error(), nil)
	default:
		InternalServerErrorResponse(c, "Internal server error", nil)
	}
}

// HandleReadError is HandleServiceError with denied reads reported as
// not-found, so a caller cannot probe for the existence of resources they
// cannot see.
func HandleReadError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrPermissionDenied) {
		NotFoundResponse(c, "Resource not found")
		return
	}
	HandleServiceError(c, err)
}
