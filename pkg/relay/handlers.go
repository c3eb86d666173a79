package relay

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-training/social-relay/pkg/auth"
	"github.com/go-training/social-relay/pkg/core"
	"github.com/go-training/social-relay/pkg/publish"
	"github.com/go-training/social-relay/pkg/session"

	"github.com/gin-gonic/gin"
)

// Handler serves the authorization and publishing endpoints.
type Handler struct {
	sessions   *session.Manager
	authorizer *auth.Authorizer
	publisher  *publish.Service

	successRedirect string
	failureRedirect string
}

// NewHandler returns a Handler. Redirect targets are paths or absolute URLs
// of the page the browser lands on after a callback.
func NewHandler(sessions *session.Manager, authorizer *auth.Authorizer, publisher *publish.Service, successRedirect, failureRedirect string) *Handler {
	return &Handler{
		sessions:        sessions,
		authorizer:      authorizer,
		publisher:       publisher,
		successRedirect: successRedirect,
		failureRedirect: failureRedirect,
	}
}

// BeginAuth returns the consent URL for platform as {"url": ...}. The pending
// state is committed to the session store before the URL is sent; if that
// fails the browser is sent to the failure page instead.
func (h *Handler) BeginAuth(platform core.Platform) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		logger := core.LoggerFromCtx(ctx).With("platform", platform)

		sess, err := h.sessions.Load(ctx, c.Request)
		if err != nil {
			logger.Error("failed to load session", "error", err)
			h.redirectFailure(c, platform)
			return
		}

		authReq, err := h.authorizer.Begin(sess, platform)
		if err != nil {
			if errors.Is(err, auth.ErrUnknownPlatform) {
				c.JSON(http.StatusNotFound, gin.H{"error": "platform not configured"})
				return
			}
			logger.Error("failed to begin authorization", "error", err)
			h.redirectFailure(c, platform)
			return
		}

		if err := h.sessions.Save(ctx, c.Writer, sess); err != nil {
			logger.Error("failed to commit session", "error", err)
			h.redirectFailure(c, platform)
			return
		}

		logger.Debug("authorization started")
		c.JSON(http.StatusOK, gin.H{"url": authReq.AuthorizationURL})
	}
}

// Callback completes the authorization for platform and redirects to the
// success or failure page. Tokens never appear in the redirect.
func (h *Handler) Callback(platform core.Platform) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		logger := core.LoggerFromCtx(ctx).With("platform", platform)

		if providerErr := c.Query("error"); providerErr != "" {
			logger.Warn("authorization failed",
				"error", auth.ErrAccessDenied,
				"provider_error", providerErr,
				"error_description", c.Query("error_description"),
			)
			h.redirectFailure(c, platform)
			return
		}

		sess, err := h.sessions.Load(ctx, c.Request)
		if err != nil {
			logger.Error("failed to load session", "error", err)
			h.redirectFailure(c, platform)
			return
		}

		if err := h.authorizer.Complete(ctx, sess, platform, c.Query("code"), c.Query("state")); err != nil {
			logger.Warn("authorization failed", "error", err)
			h.redirectFailure(c, platform)
			return
		}

		if err := h.sessions.Save(context.WithoutCancel(ctx), c.Writer, sess); err != nil {
			logger.Error("failed to commit session", "error", err)
			h.redirectFailure(c, platform)
			return
		}

		logger.Info("platform connected")
		h.redirect(c, h.successRedirect, platform, "connected")
	}
}

// publishResponder maps publish outcomes onto a platform's JSON responses.
type publishResponder struct {
	unauthenticated string
	failed          string
	success         func(c *gin.Context, receipt *core.PublishReceipt)

	// rejected handles provider errors; nil means "failed" with 500.
	rejected func(c *gin.Context, err *publish.ProviderError)
}

var tweetResponder = publishResponder{
	unauthenticated: "Not authenticated",
	failed:          "Tweet request failed",
	success: func(c *gin.Context, receipt *core.PublishReceipt) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", receipt.Body)
	},
}

var linkedInResponder = publishResponder{
	unauthenticated: "Not authenticated for LinkedIn",
	failed:          "LinkedIn posting error",
	success: func(c *gin.Context, receipt *core.PublishReceipt) {
		c.JSON(http.StatusOK, gin.H{"success": true, "result": receipt.Body})
	},
	rejected: func(c *gin.Context, err *publish.ProviderError) {
		c.JSON(err.StatusCode, gin.H{"error": err.JSONBody()})
	},
}

// Publish posts the JSON body {title, description, url} to platform.
func (h *Handler) Publish(platform core.Platform, r publishResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		logger := core.LoggerFromCtx(ctx).With("platform", platform)

		sess, err := h.sessions.Load(ctx, c.Request)
		if err != nil {
			logger.Error("failed to load session", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": r.failed})
			return
		}
		if _, ok := sess.TokenFor(platform); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": r.unauthenticated})
			return
		}

		var req core.PublishRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		receipt, err := h.publisher.Publish(ctx, sess, platform, req)
		if err != nil {
			var perr *publish.ProviderError
			switch {
			case errors.Is(err, publish.ErrUnauthenticated):
				c.JSON(http.StatusUnauthorized, gin.H{"error": r.unauthenticated})
			case errors.Is(err, publish.ErrMissingTitle):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.As(err, &perr) && r.rejected != nil:
				logger.Warn("provider rejected post", "status", perr.StatusCode)
				r.rejected(c, perr)
			default:
				logger.Error("publish failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": r.failed})
			}
			return
		}

		// Publishing counts as activity; a failed touch only shortens the session.
		if err := h.sessions.Save(context.WithoutCancel(ctx), c.Writer, sess); err != nil {
			logger.Warn("failed to refresh session", "error", err)
		}

		logger.Info("content published", "status", receipt.StatusCode)
		r.success(c, receipt)
	}
}

// Status reports which platforms the session is connected to.
func (h *Handler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	sess, err := h.sessions.Load(ctx, c.Request)
	if err != nil {
		core.LoggerFromCtx(ctx).Error("failed to load session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"platforms": sess.Connected(h.authorizer.Registry().Platforms()...),
	})
}

// Logout destroys the session and its tokens.
func (h *Handler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	sess, err := h.sessions.Load(ctx, c.Request)
	if err == nil {
		err = h.sessions.Destroy(ctx, c.Writer, sess)
	}
	if err != nil {
		core.LoggerFromCtx(ctx).Error("failed to destroy session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) redirectFailure(c *gin.Context, platform core.Platform) {
	h.redirect(c, h.failureRedirect, platform, "error")
}

func (h *Handler) redirect(c *gin.Context, target string, platform core.Platform, status string) {
	c.Redirect(http.StatusFound, withQuery(target, url.Values{
		"platform": {platform.String()},
		"status":   {status},
	}))
}

// withQuery merges extra into target's query string.
func withQuery(target string, extra url.Values) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	for k, vs := range extra {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
