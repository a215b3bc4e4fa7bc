package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shopino/internal/shared/config"
	"shopino/pkg/apiclient"
	"shopino/pkg/tokens"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiEnvelope struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Code    string                 `json:"code"`
	Data    map[string]interface{} `json:"data"`
	Errors  map[string]string      `json:"errors"`
}

func newAuthTestServer(t *testing.T) (*httptest.Server, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Load()
	cfg.GinMode = "debug"

	issuer := tokens.NewIssuer(tokens.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
		AccessTTL:  cfg.JWT.JWTExpiresIn,
		RefreshTTL: cfg.JWT.RefreshExpiresIn,
	})

	controller := NewController(NewService(newFakeRepository(), issuer), cfg)

	engine := gin.New()
	api := engine.Group(cfg.GetAPIBasePath())
	NewRouter(controller, issuer).SetupRoutes(api)

	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)
	return ts, cfg
}

// newBrowser builds an http.Client with a cookie jar, standing in for a
// real browser that holds the refresh cookie.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func postJSON(t *testing.T, client *http.Client, url string, payload interface{}, headers map[string]string) (*http.Response, []byte, apiEnvelope) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return resp, raw, env
}

func validRegisterBody(email string) map[string]string {
	return map[string]string{
		"first_name": "Sara",
		"last_name":  "Ahmadi",
		"email":      email,
		"password":   "Str0ng!Passw0rd",
		"phone":      "+989123456789",
	}
}

func TestRegisterEndpoint(t *testing.T) {
	ts, cfg := newAuthTestServer(t)
	browser := newBrowser(t)

	resp, raw, env := postJSON(t, browser, ts.URL+"/api/v1/auth/register", validRegisterBody("sara@example.com"), nil)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "success", env.Status)
	assert.NotEmpty(t, env.Data["access_token"])

	user := env.Data["user"].(map[string]interface{})
	assert.Equal(t, "sara@example.com", user["email"])
	assert.Equal(t, "09123456789", user["phone"], "phone must be normalized to local format")

	var refreshCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == cfg.Cookie.Name {
			refreshCookie = cookie
		}
	}
	require.NotNil(t, refreshCookie, "register must set the refresh cookie")
	assert.True(t, refreshCookie.HttpOnly)
	assert.Equal(t, cfg.Cookie.Path, refreshCookie.Path)
	assert.NotContains(t, string(raw), refreshCookie.Value, "refresh token must never appear in the body")
}

func TestRegisterWeakPasswordFieldError(t *testing.T) {
	ts, _ := newAuthTestServer(t)
	browser := newBrowser(t)

	body := validRegisterBody("sara@example.com")
	body["password"] = "12345678"

	resp, _, env := postJSON(t, browser, ts.URL+"/api/v1/auth/register", body, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", env.Status)
	assert.Contains(t, env.Errors, "password")
	assert.Empty(t, resp.Cookies())
}

func TestRegisterMalformedEmail(t *testing.T) {
	ts, _ := newAuthTestServer(t)
	browser := newBrowser(t)

	body := validRegisterBody("not-an-email")
	resp, _, env := postJSON(t, browser, ts.URL+"/api/v1/auth/register", body, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", env.Status)
}

func TestRegisterConflict(t *testing.T) {
	ts, _ := newAuthTestServer(t)
	browser := newBrowser(t)

	resp, _, _ := postJSON(t, browser, ts.URL+"/api/v1/auth/register", validRegisterBody("sara@example.com"), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _, env := postJSON(t, browser, ts.URL+"/api/v1/auth/register", validRegisterBody("sara@example.com"), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, env.Message, "already exists")
}

func TestLoginFailuresLookAlike(t *testing.T) {
	ts, _ := newAuthTestServer(t)
	browser := newBrowser(t)

	resp, _, _ := postJSON(t, browser, ts.URL+"/api/v1/auth/register", validRegisterBody("sara@example.com"), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	wrongPassword := map[string]string{"email": "sara@example.com", "password": "Wrong!Passw0rd"}
	resp, _, envA := postJSON(t, browser, ts.URL+"/api/v1/auth/login", wrongPassword, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	unknownUser := map[string]string{"email": "nobody@example.com", "password": "Wrong!Passw0rd"}
	resp, _, envB := postJSON(t, browser, ts.URL+"/api/v1/auth/login", unknownUser, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Equal(t, envA.Message, envB.Message, "failures must not reveal whether the account exists")
}

func TestRefreshWithoutCookie(t *testing.T) {
	ts, _ := newAuthTestServer(t)
	browser := newBrowser(t)

	resp, _, env := postJSON(t, browser, ts.URL+"/api/v1/auth/refresh", nil, nil)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, CodeRefreshExpired, env.Code)
}

func TestRefreshRotationOverHTTP(t *testing.T) {
	ts, cfg := newAuthTestServer(t)
	browser := newBrowser(t)

	resp, _, reg := postJSON(t, browser, ts.URL+"/api/v1/auth/register", validRegisterBody("sara@example.com"), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The jar replays the cookie; the empty body is enough.
	resp, _, env := postJSON(t, browser, ts.URL+"/api/v1/auth/refresh", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, env.Data["access_token"])
	assert.NotEqual(t, reg.Data["access_token"], env.Data["access_token"])

	// Hold on to the current cookie before the server revokes it.
	var staleCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == cfg.Cookie.Name {
			staleCookie = cookie
		}
	}
	require.NotNil(t, staleCookie)

	accessToken := env.Data["access_token"].(string)
	resp, _, _ = postJSON(t, browser, ts.URL+"/api/v1/auth/logout",
		map[string]bool{"logout_all": true},
		map[string]string{"Authorization": "Bearer " + accessToken})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Replaying the pre-logout cookie must be rejected terminally.
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/auth/refresh", strings.NewReader(""))
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: cfg.Cookie.Name, Value: staleCookie.Value})

	rawResp, err := browser.Do(req)
	require.NoError(t, err)
	defer rawResp.Body.Close()

	var terminal apiEnvelope
	require.NoError(t, json.NewDecoder(rawResp.Body).Decode(&terminal))
	assert.Equal(t, http.StatusForbidden, rawResp.StatusCode)
	assert.Equal(t, CodeRefreshExpired, terminal.Code)
}

func TestProfileRequiresAuth(t *testing.T) {
	ts, _ := newAuthTestServer(t)
	browser := newBrowser(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/auth/profile", nil)
	require.NoError(t, err)
	resp, err := browser.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// TestClientRefreshFlow drives the whole loop through the storefront
// client: login, a rejected access token, one transparent refresh, a
// successful retry, then a revoked session surfacing as terminal.
func TestClientRefreshFlow(t *testing.T) {
	ts, _ := newAuthTestServer(t)

	// Create the account out of band.
	browser := newBrowser(t)
	resp, _, _ := postJSON(t, browser, ts.URL+"/api/v1/auth/register", validRegisterBody("sara@example.com"), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	client, err := apiclient.New(ts.URL+"/api/v1", 5*time.Second)
	require.NoError(t, err)

	session, err := client.Login(context.Background(), apiclient.Credentials{
		Email:    "sara@example.com",
		Password: "Str0ng!Passw0rd",
	})
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)

	profile, err := client.Profile(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(profile), "sara@example.com")

	// Pretend the cached token went bad while the cache still trusts
	// it. The next call must refresh exactly once and succeed.
	var refreshed int
	client.Events.Subscribe(apiclient.EventTokensUpdated, func(interface{}) { refreshed++ })
	client.Store.Set("no-longer-valid", time.Now().Add(10*time.Minute).Unix())

	profile, err = client.Profile(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(profile), "sara@example.com")
	assert.Equal(t, 1, refreshed)

	token, ok := client.Store.Get()
	require.True(t, ok)
	assert.NotEqual(t, "no-longer-valid", token)

	// Revoke everything; the next refresh cycle is terminal.
	var expired []apiclient.AuthExpiredPayload
	client.Events.Subscribe(apiclient.EventAuthExpired, func(payload interface{}) {
		expired = append(expired, payload.(apiclient.AuthExpiredPayload))
	})
	client.Coordinator.SetRoute("/checkout")

	require.NoError(t, client.Logout(context.Background(), true))

	result := client.Coordinator.EnsureFresh(context.Background())
	assert.False(t, result.Success)
	assert.True(t, result.Terminal)
	require.Len(t, expired, 1)
	assert.Equal(t, "/checkout", expired[0].Route)
}
