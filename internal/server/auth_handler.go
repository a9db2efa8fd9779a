package server

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jonathan/job-recommender/internal/config"
	"github.com/jonathan/job-recommender/internal/server/middleware"
	"github.com/jonathan/job-recommender/internal/types"
)

const (
	stateCookieName = "oauth_state"
	stateCookieTTL  = 10 * time.Minute
	signInTimeout   = 15 * time.Second
)

var kakaoEndpoint = oauth2.Endpoint{
	AuthURL:   "https://kauth.kakao.com/oauth/authorize",
	TokenURL:  "https://kauth.kakao.com/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// OAuthProvider is one social login: its client registration, where to ask
// who signed in, and how to read the answer.
type OAuthProvider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
	AuthParams  []oauth2.AuthCodeOption
	Identity    func(userInfo []byte) *types.SocialIdentity
}

// GoogleProvider configures Google sign-in.
func GoogleProvider(cfg config.OAuthProvider) *OAuthProvider {
	return &OAuthProvider{
		Name: "google",
		Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		AuthParams: []oauth2.AuthCodeOption{
			oauth2.AccessTypeOffline,
			oauth2.SetAuthURLParam("prompt", "select_account"),
			oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		},
		Identity: googleIdentity,
	}
}

// KakaoProvider configures Kakao sign-in.
func KakaoProvider(cfg config.OAuthProvider) *OAuthProvider {
	return &OAuthProvider{
		Name: "kakao",
		Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     kakaoEndpoint,
			Scopes:       []string{"profile_nickname", "profile_image", "account_email"},
		},
		UserInfoURL: "https://kapi.kakao.com/v2/user/me",
		Identity:    kakaoIdentity,
	}
}

// DefaultProviders returns the configured providers by name.
func DefaultProviders(cfg config.AuthConfig) map[string]*OAuthProvider {
	providers := make(map[string]*OAuthProvider)
	if cfg.Google.Enabled() {
		providers["google"] = GoogleProvider(cfg.Google)
	}
	if cfg.Kakao.Enabled() {
		providers["kakao"] = KakaoProvider(cfg.Kakao)
	}
	return providers
}

func googleIdentity(body []byte) *types.SocialIdentity {
	return &types.SocialIdentity{
		Provider: "google",
		Subject:  gjson.GetBytes(body, "sub").String(),
		Email:    gjson.GetBytes(body, "email").String(),
		Name:     gjson.GetBytes(body, "name").String(),
		Picture:  gjson.GetBytes(body, "picture").String(),
	}
}

// kakaoIdentity reads /v2/user/me. Accounts without a shared email get a
// placeholder address derived from the account id.
func kakaoIdentity(body []byte) *types.SocialIdentity {
	id := gjson.GetBytes(body, "id").String()
	email := gjson.GetBytes(body, "kakao_account.email").String()
	if email == "" && id != "" {
		email = "kakao_" + id + "@no-email.kakao"
	}
	return &types.SocialIdentity{
		Provider: "kakao",
		Subject:  id,
		Email:    email,
		Name:     gjson.GetBytes(body, "kakao_account.profile.nickname").String(),
		Picture:  gjson.GetBytes(body, "kakao_account.profile.profile_image_url").String(),
	}
}

// AuthOptions configures an AuthHandler.
type AuthOptions struct {
	Providers      map[string]*OAuthProvider
	Users          *UserService
	JWT            *JWTService
	AllowedOrigins []string
	CookieSecure   bool
	Logger         *zap.Logger
}

// AuthHandler handles social login and the app_session cookie.
type AuthHandler struct {
	providers      map[string]*OAuthProvider
	users          *UserService
	jwt            *JWTService
	allowedOrigins []string
	cookieSecure   bool
	logger         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(opts AuthOptions) *AuthHandler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		providers:      opts.Providers,
		users:          opts.Users,
		jwt:            opts.JWT,
		allowedOrigins: opts.AllowedOrigins,
		cookieSecure:   opts.CookieSecure,
		logger:         logger,
	}
}

// provider returns the named provider, or nil when login through it is
// unavailable.
func (h *AuthHandler) provider(name string) *OAuthProvider {
	if h.jwt == nil {
		return nil
	}
	return h.providers[name]
}

func (h *AuthHandler) allowedOrigin(origin string) bool {
	return origin != "" && slices.Contains(h.allowedOrigins, origin)
}

// Start redirects the browser to the provider's consent page.
func (h *AuthHandler) Start(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := h.provider(name)
		if p == nil {
			http.Error(w, "Login unavailable", http.StatusNotFound)
			return
		}
		origin := r.URL.Query().Get("origin")
		if !h.allowedOrigin(origin) {
			http.Error(w, "Bad origin", http.StatusBadRequest)
			return
		}

		state := uuid.NewString()
		h.setStateCookie(w, state, origin)
		http.Redirect(w, r, p.Config.AuthCodeURL(state, p.AuthParams...), http.StatusFound)
	}
}

// LoginURL returns the consent page URL as JSON for clients that navigate
// themselves.
func (h *AuthHandler) LoginURL(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := h.provider(name)
		if p == nil {
			h.json(w, http.StatusNotFound, map[string]string{"error": "Login unavailable"})
			return
		}
		origin := r.URL.Query().Get("origin")
		if !h.allowedOrigin(origin) {
			h.json(w, http.StatusBadRequest, map[string]string{"error": "Bad origin or missing origin query parameter"})
			return
		}

		state := uuid.NewString()
		h.setStateCookie(w, state, origin)
		h.json(w, http.StatusOK, map[string]string{
			"url":   p.Config.AuthCodeURL(state, p.AuthParams...),
			"state": state,
		})
	}
}

// Callback completes a login: it checks the state, exchanges the code,
// records the user, sets the session cookie and sends the browser back to
// the origin it came from.
func (h *AuthHandler) Callback(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		origin, ok := h.consumeState(w, r, q.Get("state"))
		if !ok {
			h.json(w, http.StatusForbidden, map[string]string{"error": "INVALID_STATE"})
			return
		}

		p := h.provider(name)
		if p == nil {
			http.Redirect(w, r, callbackURL(origin, false), http.StatusFound)
			return
		}

		user, err := h.signIn(r.Context(), p, q.Get("code"))
		if err != nil {
			h.logger.Warn("login failed", zap.String("provider", name), zap.Error(err))
			http.Redirect(w, r, callbackURL(origin, false), http.StatusFound)
			return
		}

		token, err := h.jwt.GenerateToken(user.ID, user.Provider)
		if err != nil {
			h.logger.Error("failed to issue session token", zap.Error(err))
			http.Redirect(w, r, callbackURL(origin, false), http.StatusFound)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     config.SessionCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(h.jwt.config.Expiration().Seconds()),
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
		h.logger.Info("user signed in", zap.String("provider", name), zap.String("user_id", user.ID.String()))
		http.Redirect(w, r, callbackURL(origin, true), http.StatusFound)
	}
}

func (h *AuthHandler) signIn(ctx context.Context, p *OAuthProvider, code string) (*types.User, error) {
	if code == "" {
		return nil, errors.New("missing authorization code")
	}
	ctx, cancel := context.WithTimeout(ctx, signInTimeout)
	defer cancel()

	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	resp, err := resty.NewWithClient(p.Config.Client(ctx, token)).R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(p.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("user info returned status %d", resp.StatusCode())
	}

	return h.users.SignIn(ctx, p.Identity(resp.Body()))
}

// Me returns the signed-in user and their saved profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r)
	if !ok {
		h.json(w, http.StatusUnauthorized, map[string]any{"user": nil})
		return
	}

	user, err := h.users.Get(r.Context(), principal.GetUserID())
	var notFound *ErrUserNotFound
	if errors.As(err, &notFound) {
		h.json(w, http.StatusUnauthorized, map[string]any{"user": nil})
		return
	}
	if err != nil {
		h.logger.Error("failed to load user", zap.Error(err))
		h.json(w, http.StatusInternalServerError, errorBody{Error: errorDetail{Code: "INTERNAL", Message: "internal error"}})
		return
	}

	resp := map[string]any{"user": user}
	profile, err := h.users.Profile(r.Context(), user.ID)
	if err != nil {
		h.logger.Warn("failed to load saved profile", zap.Error(err))
	} else if profile != nil {
		resp["profile"] = profile
	}
	h.json(w, http.StatusOK, resp)
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	h.json(w, http.StatusOK, map[string]bool{"ok": true})
}

// setStateCookie remembers the login attempt's state and origin in the browser.
func (h *AuthHandler) setStateCookie(w http.ResponseWriter, state, origin string) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state + "." + base64.RawURLEncoding.EncodeToString([]byte(origin)),
		Path:     "/auth",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// consumeState clears the state cookie and returns its origin when it
// matches state and the origin is still allowed.
func (h *AuthHandler) consumeState(w http.ResponseWriter, r *http.Request, state string) (string, bool) {
	c, err := r.Cookie(stateCookieName)
	if err != nil || state == "" {
		return "", false
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/auth", MaxAge: -1, HttpOnly: true})

	saved, encoded, found := strings.Cut(c.Value, ".")
	if !found || subtle.ConstantTimeCompare([]byte(saved), []byte(state)) != 1 {
		return "", false
	}
	origin, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || !h.allowedOrigin(string(origin)) {
		return "", false
	}
	return string(origin), true
}

func callbackURL(origin string, ok bool) string {
	if ok {
		return origin + "/auth/callback?ok=1"
	}
	return origin + "/auth/callback?ok=0"
}

func (h *AuthHandler) json(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}
