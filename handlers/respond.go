package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"quizblog/auth"
	"quizblog/logging"
	"quizblog/middleware"
	"quizblog/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondError maps an error onto its status code and writes the error body.
// Unexpected errors are logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	var msg *services.Error
	message := err.Error()
	if errors.As(err, &msg) {
		message = msg.Msg
	}

	switch {
	case errors.Is(err, services.ErrValidation):
		middleware.Abort(c, http.StatusBadRequest, "VALIDATION_ERROR", message)
	case errors.Is(err, services.ErrConflict):
		middleware.Abort(c, http.StatusBadRequest, "CONFLICT", message)
	case errors.Is(err, services.ErrNotFound):
		middleware.Abort(c, http.StatusNotFound, "NOT_FOUND", message)
	case errors.Is(err, services.ErrInvalidCredentials):
		middleware.Abort(c, http.StatusBadRequest, "INVALID_CREDENTIALS", message)
	case errors.Is(err, services.ErrInvalidResetToken):
		middleware.Abort(c, http.StatusBadRequest, "INVALID_RESET_TOKEN", message)
	case errors.Is(err, auth.ErrNoToken):
		middleware.Abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "No token, authorization denied")
	case errors.Is(err, auth.ErrInvalidToken):
		middleware.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Token is not valid")
	default:
		c.Error(err)
		logging.Ctx(c.Request.Context()).Error().Err(err).
			Str("path", c.FullPath()).
			Msg("Request failed")
		middleware.Abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong, try again later")
	}
}

// respondBindError reports a request that failed schema validation.
func respondBindError(c *gin.Context, err error) {
	middleware.Abort(c, http.StatusBadRequest, "VALIDATION_ERROR", describeBindError(err))
}

func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "email":
			parts = append(parts, field+" must be a valid e-mail")
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "role":
			parts = append(parts, field+" must be one of "+strings.Join(roleNames(), ", "))
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}

func roleNames() []string {
	names := make([]string, 0, len(auth.Roles))
	for _, r := range auth.Roles {
		names = append(names, string(r))
	}
	return names
}

// currentUserID returns the id resolved by the auth gates, or "" on public routes.
func currentUserID(c *gin.Context) string {
	id, _ := middleware.IdentityFrom(c)
	return id.UserID
}

// queryInt reads a non-negative integer query parameter, falling back to def.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		middleware.Abort(c, http.StatusBadRequest, "VALIDATION_ERROR", name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
