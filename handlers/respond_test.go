package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quizblog/auth"
	"quizblog/middleware"
	"quizblog/services"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

func serve(method, path, body string, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, path, handler)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func body(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorBody {
	t.Helper()
	var b middleware.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return b
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody middleware.ErrorBody
	}{
		{
			name:     "not found",
			err:      &services.Error{Kind: services.ErrNotFound, Msg: "Quiz is not found!"},
			wantCode: http.StatusNotFound,
			wantBody: middleware.ErrorBody{Msg: "Quiz is not found!", Code: "NOT_FOUND"},
		},
		{
			name:     "wrapped conflict",
			err:      fmt.Errorf("create: %w", &services.Error{Kind: services.ErrConflict, Msg: "Category already exists!"}),
			wantCode: http.StatusBadRequest,
			wantBody: middleware.ErrorBody{Msg: "Category already exists!", Code: "CONFLICT"},
		},
		{
			name:     "validation",
			err:      &services.Error{Kind: services.ErrValidation, Msg: "marks exceed out_of"},
			wantCode: http.StatusBadRequest,
			wantBody: middleware.ErrorBody{Msg: "marks exceed out_of", Code: "VALIDATION_ERROR"},
		},
		{
			name:     "credentials",
			err:      &services.Error{Kind: services.ErrInvalidCredentials, Msg: "Incorrect E-mail or Password!"},
			wantCode: http.StatusBadRequest,
			wantBody: middleware.ErrorBody{Msg: "Incorrect E-mail or Password!", Code: "INVALID_CREDENTIALS"},
		},
		{
			name:     "reset token",
			err:      services.ErrInvalidResetToken,
			wantCode: http.StatusBadRequest,
			wantBody: middleware.ErrorBody{Msg: services.ErrInvalidResetToken.Error(), Code: "INVALID_RESET_TOKEN"},
		},
		{
			name:     "invalid token",
			err:      fmt.Errorf("%w: signature", auth.ErrInvalidToken),
			wantCode: http.StatusUnauthorized,
			wantBody: middleware.ErrorBody{Msg: "Token is not valid", Code: "INVALID_TOKEN"},
		},
		{
			name:     "upstream failure hides the cause",
			err:      errors.New("dial tcp 10.0.0.3:5432: connection refused"),
			wantCode: http.StatusInternalServerError,
			wantBody: middleware.ErrorBody{Msg: "Something went wrong, try again later", Code: "INTERNAL_ERROR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(http.MethodGet, "/x", "", func(c *gin.Context) { respondError(c, tt.err) })
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if got := body(t, rec); got != tt.wantBody {
				t.Errorf("body = %+v, want %+v", got, tt.wantBody)
			}
		})
	}
}

func TestBindErrorsUseJSONNames(t *testing.T) {
	handler := func(c *gin.Context) {
		var req services.UpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"bad role", `{"role":"Wizard"}`, "role must be one of Visitor, Creator, Admin"},
		{"bad email", `{"email":"nope"}`, "email must be a valid e-mail"},
		{"malformed", `{"email":`, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(http.MethodPut, "/u", tt.payload, handler)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := body(t, rec); got.Msg != tt.want || got.Code != "VALIDATION_ERROR" {
				t.Errorf("body = %+v, want msg %q", got, tt.want)
			}
		})
	}

	rec := serve(http.MethodPut, "/u", `{"role":"Creator"}`, handler)
	if rec.Code != http.StatusNoContent {
		t.Errorf("valid role status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		query  string
		want   int
		wantOK bool
	}{
		{"", 7, true},
		{"?n=3", 3, true},
		{"?n=-2", 0, false},
		{"?n=abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got int
			var ok bool
			r := gin.New()
			r.GET("/q", func(c *gin.Context) {
				got, ok = queryInt(c, "n", 7)
				if ok {
					c.Status(http.StatusOK)
				}
			})
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/q"+tt.query, nil))
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("queryInt = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
			if !tt.wantOK && rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}
