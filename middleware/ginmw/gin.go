// Package ginmw provides Gin adapters for the goSession auth gate.
//
// The adapters mirror middleware.Attach and middleware.Require: the Engine and the
// authenticated Session travel in the request context, so handlers can use either
// the gin.Context helpers here or goSession.SessionFromContext on c.Request.
package ginmw

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/MrEthical07/goSession/session"
	"github.com/gin-gonic/gin"
)

// KeySession is the gin.Context key holding the *session.Session.
const KeySession = "gosession_session"

// Attach returns Gin middleware that places engine into the request context.
func Attach(engine *goSession.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if engine != nil {
			c.Request = c.Request.WithContext(goSession.WithEngine(c.Request.Context(), engine))
		}
		c.Next()
	}
}

// Require aborts with a bare 401 unless the request carries a valid bearer token
// for the Engine attached by Attach.
func Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		engine, ok := goSession.EngineFromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		ctx := goSession.WithClientIP(c.Request.Context(), c.ClientIP())
		token, _ := middleware.BearerToken(c.GetHeader("Authorization"))
		sess, err := engine.Authenticate(ctx, token)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Request = c.Request.WithContext(goSession.WithSession(ctx, sess))
		c.Set(KeySession, sess)
		c.Next()
	}
}

// Guard is Attach followed by Require, for route groups that own their Engine.
func Guard(engine *goSession.Engine) gin.HandlersChain {
	return gin.HandlersChain{Attach(engine), Require()}
}

// SessionFrom returns the Session set by Require.
func SessionFrom(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(KeySession)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok && sess != nil
}
