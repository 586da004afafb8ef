package middleware

import (
	"errors"
	"net/http"
	"slices"

	"quizblog/auth"
	"quizblog/logging"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// TokenHeader carries the session token on every authenticated request.
const TokenHeader = "x-auth-token"

const (
	identityKey    = "identity"
	identityErrKey = "identity_err"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Msg  string `json:"msg"`
	Code string `json:"code"`
}

func Abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorBody{Msg: msg, Code: code})
}

// Gates builds the authentication and role middleware. The token is parsed
// at most once per request and the outcome is cached on the gin context.
type Gates struct {
	codec          *auth.TokenCodec
	legacyRoleGate bool
}

// NewGates returns gates verifying tokens with codec. With legacyRoleGate set,
// RequireRole admits any authenticated caller regardless of role.
func NewGates(codec *auth.TokenCodec, legacyRoleGate bool) *Gates {
	return &Gates{codec: codec, legacyRoleGate: legacyRoleGate}
}

// Resolve parses the token eagerly so handlers on public routes can still see
// who is calling. It never aborts.
func (g *Gates) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		g.identity(c)
		c.Next()
	}
}

// RequireAuth rejects requests without a valid token.
func (g *Gates) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := g.identity(c); err != nil {
			abortAuth(c, err)
			return
		}
		c.Next()
	}
}

// RequireRole admits callers whose role is one of roles. In legacy mode any
// authenticated caller passes, provided roles is not empty.
func (g *Gates) RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := g.identity(c)
		if err != nil {
			abortAuth(c, err)
			return
		}
		legacy := g.legacyRoleGate && len(roles) > 0
		if !legacy && !slices.Contains(roles, id.Role) {
			logging.Ctx(c.Request.Context()).Warn().
				Str("role", string(id.Role)).
				Str("path", c.FullPath()).
				Msg("Role not permitted")
			Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the caller resolved by one of the gates.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

func (g *Gates) identity(c *gin.Context) (auth.Identity, error) {
	if v, ok := c.Get(identityErrKey); ok {
		err, _ := v.(error)
		if err != nil {
			return auth.Identity{}, err
		}
		id, _ := IdentityFrom(c)
		return id, nil
	}

	id, err := g.resolve(c.Request)
	c.Set(identityErrKey, err)
	if err != nil {
		return auth.Identity{}, err
	}
	c.Set(identityKey, id)
	c.Request = c.Request.WithContext(logging.ContextWithUserID(c.Request.Context(), id.UserID))
	return id, nil
}

func (g *Gates) resolve(r *http.Request) (auth.Identity, error) {
	token := r.Header.Get(TokenHeader)
	// Browsers cannot set headers on websocket handshakes.
	if token == "" && websocket.IsWebSocketUpgrade(r) {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return auth.Identity{}, auth.ErrNoToken
	}
	claims, err := g.codec.Verify(token)
	if err != nil {
		return auth.Identity{}, err
	}
	return claims.Identity(), nil
}

func abortAuth(c *gin.Context, err error) {
	if errors.Is(err, auth.ErrNoToken) {
		Abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "No token, authorization denied")
		return
	}
	Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Token is not valid")
}
