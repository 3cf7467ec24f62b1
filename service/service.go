package service

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yaoapp/kun/log"

	"github.com/raportyapp/raporty/config"
	"github.com/raportyapp/raporty/queue"
	"github.com/raportyapp/raporty/share"
)

// Service the network-facing endpoint: health checks, manual report
// triggers and the optional telegram webhook
type Service struct {
	queue    *queue.Queue
	router   *gin.Engine
	srv      *http.Server
	shutdown chan bool
	complete chan bool
}

// Option a service option
type Option func(*Service)

// WithWebhook mounts an extra POST handler, used for the telegram
// webhook route
func WithWebhook(path string, handler http.Handler) Option {
	return func(s *Service) {
		s.router.POST(path, gin.WrapH(handler))
	}
}

// New creates the service over the request queue
func New(q *queue.Queue, options ...Option) *Service {
	s := &Service{
		queue:    q,
		router:   gin.New(),
		shutdown: make(chan bool, 1),
		complete: make(chan bool, 1),
	}

	s.router.Use(gin.Recovery())
	s.router.GET("/health", s.health)
	s.router.POST("/trigger", s.trigger)
	s.router.DELETE("/requests/:id", s.cancel)

	for _, option := range options {
		option(s)
	}
	return s
}

// Router the gin engine, exposed for tests
func (s *Service) Router() *gin.Engine {
	return s.router
}

// Start binds the configured address and serves until Stop. A bind
// failure is returned to the caller and is the only fatal path.
func (s *Service) Start(cfg config.Config) error {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.srv = &http.Server{Addr: addr, Handler: s.router}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("cannot bind %s: %w", addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("[Service] listening on %s", addr)
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-s.shutdown:
		err := s.srv.Close()
		s.complete <- true
		log.Info("[Service] %s closed", addr)
		return err
	case err := <-errCh:
		log.Error("[Service] %s error: %s", addr, err.Error())
		return err
	}
}

// Stop closes the server and waits for Start to return
func (s *Service) Stop() {
	s.shutdown <- true
	<-s.complete
}

// health liveness status. No side effects, reports alive as long as
// the process runs, regardless of queue or generator state.
func (s *Service) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "alive",
		"version": share.VERSION,
		"queue":   s.queue.Depth(),
	})
}

// cancel drops a queued request that has not started processing
func (s *Service) cancel(c *gin.Context) {
	s.queue.Cancel(c.Param("id"))
	c.JSON(http.StatusAccepted, gin.H{"request_id": c.Param("id")})
}
