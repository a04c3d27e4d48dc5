package httpapi

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smartattend/internal/apperr"
)

// Envelope is the uniform JSON response shape.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Envelope{Success: false, Message: msg})
}

// fail maps the error taxonomy to HTTP statuses. Unexpected errors are logged
// and returned as a bare 500 without internal detail.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindAuth:
		status = http.StatusUnauthorized
	case apperr.KindRole:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindExpired:
		status = http.StatusGone
	default:
		log.Printf("unexpected error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, Envelope{Success: false, Message: apperr.Message(err)})
}

// ID serializes an int64 identifier as a JSON number while it fits in the
// float64-safe integer range, and as a string beyond that.
type ID int64

const maxSafeJSONInt = 1<<53 - 1

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	v := int64(id)
	if v > maxSafeJSONInt || v < -maxSafeJSONInt {
		return []byte(strconv.Quote(strconv.FormatInt(v, 10))), nil
	}
	return []byte(strconv.FormatInt(v, 10)), nil
}
