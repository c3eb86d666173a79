// Package relay wires the session store, platform clients and HTTP surface
// of the social relay into a gin engine.
package relay

import (
	"fmt"
	"net/http"
	"os"

	"github.com/go-training/social-relay/pkg/auth"
	"github.com/go-training/social-relay/pkg/config"
	"github.com/go-training/social-relay/pkg/core"
	"github.com/go-training/social-relay/pkg/platform/linkedin"
	"github.com/go-training/social-relay/pkg/platform/twitter"
	"github.com/go-training/social-relay/pkg/publish"
	"github.com/go-training/social-relay/pkg/session"

	"github.com/gin-gonic/gin"
)

// Version is reported by the MCP server and the health endpoint.
var Version = "dev"

// App is the assembled relay.
type App struct {
	Engine     *gin.Engine
	Sessions   *session.Manager
	Authorizer *auth.Authorizer
	Publisher  *publish.Service
}

// New builds the relay for cfg on top of store.
func New(cfg config.Config, store core.SessionStore) (*App, error) {
	httpClient := &http.Client{Timeout: cfg.OutboundTimeout}

	var (
		providers  []auth.Provider
		publishers []publish.Publisher
	)
	if cfg.Twitter.Enabled() {
		twCfg := twitter.Config{
			ClientID:     cfg.Twitter.ClientID,
			ClientSecret: cfg.Twitter.ClientSecret,
			RedirectURL:  cfg.Twitter.CallbackURL,
			AuthURL:      cfg.Twitter.AuthURL,
			TokenURL:     cfg.Twitter.TokenURL,
			APIURL:       cfg.Twitter.APIURL,
		}
		providers = append(providers, twitter.NewProvider(twCfg, httpClient))
		publishers = append(publishers, twitter.NewPublisher(twCfg, httpClient))
	}
	if cfg.LinkedIn.Enabled() {
		liCfg := linkedin.Config{
			ClientID:     cfg.LinkedIn.ClientID,
			ClientSecret: cfg.LinkedIn.ClientSecret,
			RedirectURL:  cfg.LinkedIn.CallbackURL,
			AuthURL:      cfg.LinkedIn.AuthURL,
			TokenURL:     cfg.LinkedIn.TokenURL,
			APIURL:       cfg.LinkedIn.APIURL,
		}
		providers = append(providers, linkedin.NewProvider(liCfg, httpClient))
		publishers = append(publishers, linkedin.NewPublisher(liCfg, httpClient))
	}

	app := &App{
		Sessions: session.NewManager(store, cfg.Session.Secret, session.Options{
			CookieName: cfg.Session.CookieName,
			TTL:        cfg.Session.TTL,
			Secure:     cfg.SecureCookie(),
			SameSite:   cfg.Session.SameSiteMode(),
		}),
		Authorizer: auth.NewAuthorizer(auth.NewRegistry(providers...), auth.WithTimeout(cfg.OutboundTimeout)),
		Publisher:  publish.NewService(cfg.OutboundTimeout, publishers...),
	}

	engine, err := app.router(cfg)
	if err != nil {
		return nil, err
	}
	app.Engine = engine
	return app, nil
}

func (a *App) router(cfg config.Config) (*gin.Engine, error) {
	h := NewHandler(a.Sessions, a.Authorizer, a.Publisher, cfg.SuccessRedirect, cfg.FailureRedirect)

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery(), requestLogger(), corsMiddleware(cfg.Origins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": Version})
	})

	authGroup := r.Group("/auth")
	{
		authGroup.GET("/twitter", h.BeginAuth(core.PlatformTwitter))
		authGroup.GET("/linkedin", h.BeginAuth(core.PlatformLinkedIn))
		authGroup.POST("/logout", h.Logout)
	}
	r.GET("/callback", h.Callback(core.PlatformTwitter))
	r.GET("/callback/linkedin", h.Callback(core.PlatformLinkedIn))

	api := r.Group("/api")
	{
		api.POST("/tweet", h.Publish(core.PlatformTwitter, tweetResponder))
		api.POST("/linkedin", h.Publish(core.PlatformLinkedIn, linkedInResponder))
		api.GET("/session", h.Status)
	}

	mcpHandler := gin.WrapH(a.mcpServer())
	for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodDelete} {
		r.Handle(method, "/mcp", mcpHandler)
	}

	r.NoRoute(staticHandler(cfg.StaticDir))
	return r, nil
}

// staticHandler serves the single-page client from dir for unmatched GET
// requests. Everything else gets a JSON 404.
func staticHandler(dir string) gin.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if _, err := os.Stat(dir); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}
