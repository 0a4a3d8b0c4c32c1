package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/veritymkt/verity/internal/services"
	"github.com/veritymkt/verity/pkg/ratelimit"
)

var srvLog = logrus.WithField("component", "server")

type Config struct {
	Addr   string
	DBPath string
	// RatePerSec limits API requests per client IP. Zero disables limiting.
	RatePerSec int
}

// Server exposes the marketplace engine over HTTP and keeps a sale
// receipts journal in SQLite. The engine itself is the source of truth;
// the journal is an append-only convenience index for API consumers.
type Server struct {
	cfg Config
	db  *sql.DB
	mkt *services.Marketplace
}

func New(cfg Config, mkt *services.Marketplace) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path is required")
	}
	if mkt == nil {
		return nil, errors.New("marketplace is required")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite：单连接更稳定
	db.SetMaxIdleConns(1)

	s := &Server{cfg: cfg, db: db, mkt: mkt}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.wrap(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	api := r.Group("/api")
	if s.cfg.RatePerSec > 0 {
		limiter := ratelimit.NewPerKey(s.cfg.RatePerSec*2, s.cfg.RatePerSec)
		api.Use(func(c *gin.Context) {
			if !limiter.Allow(c.ClientIP()) {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
				return
			}
			c.Next()
		})
	}

	config := api.Group("/config")
	config.POST("/", s.wrap(s.handleConfigInit))
	config.GET("/", s.wrap(s.handleConfigGet))

	vaults := api.Group("/vaults")
	vaults.POST("/", s.wrap(s.handleVaultInit))
	vaults.POST("/withdraw", s.wrap(s.handleVaultWithdraw))
	vaults.GET("/find", s.wrap(s.handleVaultGet))

	listings := api.Group("/listings")
	listings.POST("/", s.wrap(s.handleListingCreate))
	listings.POST("/cancel", s.wrap(s.handleListingCancel))
	listings.POST("/buy", s.wrap(s.handleListingBuy))
	listings.POST("/force_cancel", s.wrap(s.handleListingForceCancel))
	listings.GET("/find", s.wrap(s.handleListingGet))
	listings.GET("/quote", s.wrap(s.handleListingQuote))

	attestors := api.Group("/attestors")
	attestors.POST("/", s.wrap(s.handleAttestorInit))
	attestors.GET("/:attestor", s.wrap(s.handleAttestorGet))

	attestations := api.Group("/attestations")
	attestations.POST("/", s.wrap(s.handleAttestationCreate))
	attestations.GET("/:attestor/:nonce", s.wrap(s.handleAttestationGet))

	receipts := api.Group("/receipts")
	receipts.GET("/", s.wrap(s.handleReceiptsList))

	r.GET("/ws", s.wrap(s.handleEventStream))

	return r
}

type paramsKeyType string

const paramsKey paramsKeyType = "verity_path_params"

// wrap adapts existing net/http handlers to gin, injecting path params into request context.
func (s *Server) wrap(h func(http.ResponseWriter, *http.Request)) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := map[string]string{}
		for _, p := range c.Params {
			m[p.Key] = p.Value
		}
		ctx := context.WithValue(c.Request.Context(), paramsKey, m)
		c.Request = c.Request.WithContext(ctx)
		h(c.Writer, c.Request)
	}
}

func pathParam(r *http.Request, key string) string {
	m, _ := r.Context().Value(paramsKey).(map[string]string)
	return m[key]
}
