// Package httpapi exposes the coordinator's read-only status endpoint,
// grounded on internal/http's gin.Default()-based server.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/privasend/coordinator/internal/config"
	"github.com/privasend/coordinator/internal/mixing"
)

type Server struct {
	session *mixing.Session
	engine  *gin.Engine
}

func NewServer(session *mixing.Session) *Server {
	s := &Server{session: session, engine: gin.Default()}
	s.engine.GET("/api/v1/status", s.handleStatus)
	s.engine.GET("/api/v1/healthz", s.handleHealthz)
	return s
}

// Start blocks serving HTTP until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	addr := ":" + config.AppConfig.HTTPPort
	srv := &http.Server{Addr: addr, Handler: s.engine}

	go func() {
		log.Infof("httpapi server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("httpapi server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.GetJSONInfo())
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
