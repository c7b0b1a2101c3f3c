package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/opstrack/opstrack/internal/app/auth"
	"github.com/opstrack/opstrack/internal/kernel/store"
	"github.com/opstrack/opstrack/internal/kernel/system"
	"github.com/opstrack/opstrack/internal/kernel/t_op"
	"github.com/opstrack/opstrack/internal/metrics"
	"github.com/opstrack/opstrack/pkg/notification"
)

type Config struct {
	Addr        string        `flag:"addr" desc:"http server address" default:":8001"`
	Timeout     time.Duration `flag:"timeout" desc:"http server graceful shutdown timeout" default:"10s"`
	WaitTimeout time.Duration `flag:"wait-timeout" desc:"max time a run request with wait=true blocks" default:"30s"`
	CursorKey   string        `flag:"cursor-key" desc:"secret used to sign list cursors" default:"opstrack"`
	Cors        Cors          `flag:"cors" desc:"http cors settings"`
	Auth        auth.Config   `flag:"auth" desc:"http authentication settings"`
}

type Cors struct {
	AllowOrigins []string `flag:"allow-origin" desc:"allowed origins, if not provided cors is not enabled"`
}

// API is the part of the system the http server drives.
type API interface {
	Snapshot() *store.Store
	RunTrackedOperation(id string, message string, task t_op.Task, opts ...system.Option) *system.Handle
	Clear(ctx context.Context, id string) error
}

// Feed is the source of user facing notifications.
type Feed interface {
	Recent(now time.Time) []*notification.Notification
	Subscribe(buffer int) (<-chan *notification.Notification, func())
}

type Http struct {
	config *Config
	server *http.Server
}

func New(api API, feed Feed, metrics *metrics.Metrics, config *Config) (*Http, error) {
	authenticator, err := auth.New(&config.Auth)
	if err != nil {
		return nil, err
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("oneofci", OneOfCaseInsensitive); err != nil {
			return nil, err
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(instrument(metrics))

	if len(config.Cors.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     config.Cors.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s := &server{api: api, feed: feed, config: config, shutdown: make(chan struct{})}

	r.GET("/healthz", s.healthz)

	g := r.Group("/", auth.Middleware(authenticator))

	// Operation API
	g.GET("/operations", s.listOperations)
	g.GET("/operations/pending", s.pendingOperations)
	g.GET("/operations/:id", s.readOperation)
	g.POST("/operations/:id", s.runOperation)
	g.DELETE("/operations/:id", s.clearOperation)

	// Governance API
	g.GET("/proposals/:proposalId/pending", s.proposalPending)

	// Notification API
	g.GET("/notifications", s.recentNotifications)
	g.GET("/notifications/stream", s.streamNotifications)

	srv := &http.Server{
		Addr:    config.Addr,
		Handler: r,
	}

	// long lived streams end when the server shuts down
	var once sync.Once
	srv.RegisterOnShutdown(func() {
		once.Do(func() { close(s.shutdown) })
	})

	return &Http{
		config: config,
		server: srv,
	}, nil
}

func (h *Http) String() string {
	return "http"
}

func (h *Http) Addr() string {
	return h.config.Addr
}

func (h *Http) Handler() http.Handler {
	return h.server.Handler
}

func (h *Http) Start(errors chan<- error) {
	slog.Info("starting http server", "addr", h.config.Addr)
	if err := h.server.ListenAndServe(); err != nil && !isClosed(err) {
		errors <- err
	}
}

func (h *Http) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	return h.server.Shutdown(ctx)
}

func isClosed(err error) bool {
	return errors.Is(err, http.ErrServerClosed)
}

func instrument(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		method := c.Request.Method
		start := time.Now()

		m.ApiInFlight.WithLabelValues(method, route).Inc()
		c.Next()
		m.ApiInFlight.WithLabelValues(method, route).Dec()

		status := c.Writer.Status()
		m.ApiTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()

		slog.Debug("http:request", "method", method, "route", route, "status", status, "duration", time.Since(start))
	}
}

type server struct {
	api      API
	feed     Feed
	config   *Config
	shutdown chan struct{}
}

func (s *server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"operations": s.api.Snapshot().Len(),
	})
}
