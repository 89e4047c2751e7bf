package routes

import (
	"encoding/gob"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/gitlab"

	"github.com/fr0stylo/issuedash/internal/app/domain"
	"github.com/fr0stylo/issuedash/internal/observability"
	"github.com/fr0stylo/issuedash/views/pages"
)

const (
	authSessionName = "issuedash-auth"
	authSessionUser = "user"
	gitlabProvider  = "gitlab"
	gothSessionName = "_gothic_session"
)

// AuthConfig configures session cookies and GitLab OAuth.
type AuthConfig struct {
	SessionKey        string
	GitLabBaseURL     string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthCallbackURL  string
	SecureCookies     bool
}

// AuthUser is the signed-in GitLab account stored in the session.
type AuthUser struct {
	ID        int64
	Username  string
	Name      string
	AvatarURL string
}

func init() {
	gob.Register(AuthUser{})
}

// ConfigureAuth initializes the session store and, when credentials are
// present, the GitLab OAuth provider.
func ConfigureAuth(config AuthConfig) {
	store := sessions.NewCookieStore([]byte(config.SessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	if config.OAuthClientID == "" || config.OAuthClientSecret == "" {
		return
	}
	base := strings.TrimRight(config.GitLabBaseURL, "/")
	goth.UseProviders(
		gitlab.NewCustomisedURL(
			config.OAuthClientID,
			config.OAuthClientSecret,
			config.OAuthCallbackURL,
			base+"/oauth/authorize",
			base+"/oauth/token",
			base+"/api/v4/user",
			"api",
		),
	)
}

// AuthRoutes registers the landing page and the GitLab login flow.
type AuthRoutes struct {
	log          *slog.Logger
	oauthEnabled bool
}

// NewAuthRoutes constructs auth routes.
func NewAuthRoutes(log *slog.Logger, oauthEnabled bool) *AuthRoutes {
	if log == nil {
		log = slog.Default()
	}
	return &AuthRoutes{log: log, oauthEnabled: oauthEnabled}
}

// RegisterRoutes registers authentication routes on the server.
func (a *AuthRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/", a.handleLanding)
	s.GET("/logout", a.handleLogout)
	s.GET("/failure", a.handleFailure)
	s.GET("/auth/:provider", a.handleAuthBegin)
	s.GET("/auth/:provider/callback", a.handleAuthCallback)
}

// RequireAuth rejects requests without a signed-in user. Page loads are sent
// to the landing page; everything else gets 401.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := authUserFromSession(c)
		if !ok {
			if c.Request().Method == http.MethodGet {
				return c.Redirect(http.StatusFound, "/")
			}
			return domain.ErrUnauthenticated
		}
		ctx := observability.WithRequestIdentity(c.Request().Context(), user.Username)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Set("authUser", user)
		return next(c)
	}
}

// GetAuthUser returns the authenticated user from request context.
func GetAuthUser(c echo.Context) (AuthUser, bool) {
	user, ok := c.Get("authUser").(AuthUser)
	return user, ok
}

func (a *AuthRoutes) handleLanding(c echo.Context) error {
	if _, ok := authUserFromSession(c); ok {
		return c.Redirect(http.StatusFound, "/issues")
	}
	return c.Render(http.StatusOK, "", pages.Landing(layoutFor(c), a.oauthEnabled))
}

func (a *AuthRoutes) handleFailure(c echo.Context) error {
	return c.Render(http.StatusUnauthorized, "", pages.Failure(layoutFor(c)))
}

func (a *AuthRoutes) handleLogout(c echo.Context) error {
	session, err := gothic.Store.Get(c.Request(), authSessionName)
	if err != nil {
		if isInvalidSecureCookieError(err) {
			clearSessionCookie(c, authSessionName)
			clearSessionCookie(c, gothSessionName)
			return c.Redirect(http.StatusFound, "/")
		}
		return err
	}
	delete(session.Values, authSessionUser)
	session.Options.MaxAge = -1
	if err := session.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	_ = gothic.Logout(c.Response(), c.Request())
	return c.Redirect(http.StatusFound, "/")
}

func (a *AuthRoutes) handleAuthBegin(c echo.Context) error {
	provider := c.Param("provider")
	if provider != gitlabProvider || !a.oauthEnabled {
		return echo.ErrNotFound
	}
	request := addProviderParam(c.Request(), provider)
	gothic.BeginAuthHandler(c.Response(), request)
	return nil
}

func (a *AuthRoutes) handleAuthCallback(c echo.Context) error {
	provider := c.Param("provider")
	if provider != gitlabProvider || !a.oauthEnabled {
		return echo.ErrNotFound
	}
	request := addProviderParam(c.Request(), provider)
	user, err := gothic.CompleteUserAuth(c.Response(), request)
	if err != nil {
		if isInvalidSecureCookieError(err) {
			clearSessionCookie(c, authSessionName)
			clearSessionCookie(c, gothSessionName)
		}
		a.log.WarnContext(request.Context(), "GitLab OAuth callback failed", "error", err)
		return c.Redirect(http.StatusFound, "/failure")
	}

	session, err := gothic.Store.Get(request, authSessionName)
	if err != nil {
		if isInvalidSecureCookieError(err) {
			clearSessionCookie(c, authSessionName)
			clearSessionCookie(c, gothSessionName)
			return c.Redirect(http.StatusFound, "/")
		}
		return err
	}
	id, _ := strconv.ParseInt(strings.TrimSpace(user.UserID), 10, 64)
	username := firstNonEmpty(user.NickName, user.Name, user.Email)
	session.Values[authSessionUser] = AuthUser{
		ID:        id,
		Username:  username,
		Name:      firstNonEmpty(user.Name, username),
		AvatarURL: user.AvatarURL,
	}
	if err := session.Save(request, c.Response()); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/issues")
}

func addProviderParam(request *http.Request, provider string) *http.Request {
	query := request.URL.Query()
	query.Set("provider", provider)
	request.URL.RawQuery = query.Encode()
	return request
}

func authUserFromSession(c echo.Context) (AuthUser, bool) {
	session, err := gothic.Store.Get(c.Request(), authSessionName)
	if err != nil {
		if isInvalidSecureCookieError(err) {
			clearSessionCookie(c, authSessionName)
			clearSessionCookie(c, gothSessionName)
		}
		return AuthUser{}, false
	}
	user, ok := session.Values[authSessionUser].(AuthUser)
	if !ok || strings.TrimSpace(user.Username) == "" {
		return AuthUser{}, false
	}
	return user, true
}

func isInvalidSecureCookieError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "securecookie") && strings.Contains(msg, "not valid")
}

func clearSessionCookie(c echo.Context, name string) {
	http.SetCookie(c.Response(), &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Request().TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
