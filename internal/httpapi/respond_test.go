package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"smartattend/internal/apperr"
)

func TestIDMarshalJSON(t *testing.T) {
	cases := []struct {
		id   int64
		want string
	}{
		{42, "42"},
		{0, "0"},
		{-7, "-7"},
		{1<<53 - 1, "9007199254740991"},
		{1 << 53, `"9007199254740992"`},
		{-(1 << 53), `"-9007199254740992"`},
	}
	for _, tc := range cases {
		got, err := json.Marshal(ID(tc.id))
		if err != nil {
			t.Fatalf("marshal %d: %v", tc.id, err)
		}
		if string(got) != tc.want {
			t.Errorf("ID(%d) = %s, want %s", tc.id, got, tc.want)
		}
	}
}

func TestFail_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
	}{
		{apperr.Validation("bad input"), http.StatusBadRequest},
		{apperr.Auth("no token"), http.StatusUnauthorized},
		{apperr.Role("not your class"), http.StatusForbidden},
		{apperr.NotFound("missing"), http.StatusNotFound},
		{apperr.Conflict("duplicate"), http.StatusConflict},
		{apperr.Expired("window passed"), http.StatusGone},
		{errors.New("db exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

		fail(c, tc.err)

		if rec.Code != tc.status {
			t.Errorf("%v: status %d, want %d", tc.err, rec.Code, tc.status)
		}
		var env Envelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("bad envelope: %v", err)
		}
		if env.Success {
			t.Errorf("%v: success should be false", tc.err)
		}
		if tc.status == http.StatusInternalServerError && env.Message != "internal error" {
			t.Errorf("internal detail leaked: %q", env.Message)
		}
	}
}

func TestEnvelope_OmitsEmptyFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	ok(c, map[string]string{"hello": "world"})

	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var env Envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	if !env.Success {
		t.Error("success should be true")
	}
	if env.Message != "" {
		t.Errorf("message should be omitted, got %q", env.Message)
	}
}
