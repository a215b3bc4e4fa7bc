package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// The refresh token travels only in this cookie: httpOnly so scripts
// never see it, SameSite=Strict, Secure outside debug mode, path scoped
// to the auth group so the browser replays it nowhere else.

func (c *Controller) setRefreshCookie(ctx *gin.Context, token string) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(
		c.config.Cookie.Name,
		token,
		int(c.config.JWT.RefreshExpiresIn.Seconds()),
		c.config.Cookie.Path,
		c.config.Cookie.Domain,
		c.config.IsProduction(),
		true,
	)
}

func (c *Controller) clearRefreshCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(
		c.config.Cookie.Name,
		"",
		-1,
		c.config.Cookie.Path,
		c.config.Cookie.Domain,
		c.config.IsProduction(),
		true,
	)
}
