package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"gorm.io/gorm"

	"github.com/npek/portal/internal/api"
	"github.com/npek/portal/internal/auth"
	"github.com/npek/portal/internal/config"
)

const (
	readHeaderTimeout = 10 * time.Second
	pingTimeout       = 2 * time.Second
)

type Server struct {
	config     *config.AppConfig
	log        *zap.Logger
	db         *gorm.DB
	metrics    *auth.MetricsCollector
	router     chi.Router
	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server
}

type Params struct {
	fx.In

	Config   *config.AppConfig
	Logger   *zap.Logger
	DB       *gorm.DB
	Metrics  *auth.MetricsCollector
	Sessions *auth.SessionMiddleware
	Routes   []api.Routes `group:"routes"`
}

func NewServer(p Params) *Server {
	s := &Server{
		config:  p.Config,
		log:     p.Logger,
		db:      p.DB,
		metrics: p.Metrics,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(p.Logger))
	r.Use(middleware.Recoverer)

	r.Get(api.Health, s.healthz)
	r.Group(func(r chi.Router) {
		r.Use(p.Sessions.Handler)
		for _, routes := range p.Routes {
			routes.Register(r)
		}
	})
	s.router = r

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", p.Config.Server.Host, p.Config.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	if p.Config.GRPC.Enabled {
		s.grpcServer = grpc.NewServer(
			grpc.MaxRecvMsgSize(p.Config.GRPC.MaxReceiveMessageSize),
			grpc.MaxSendMsgSize(p.Config.GRPC.MaxSendMessageSize),
		)
		s.health = health.NewServer()
		healthpb.RegisterHealthServer(s.grpcServer, s.health)
		if p.Config.GRPC.EnableReflection {
			reflection.Register(s.grpcServer)
		}
	}

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listeners and serves in the background.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.log.Info("starting http server",
		zap.String("address", s.httpServer.Addr),
		zap.Object("config", serverConfigToField(s.config)),
	)

	go func() {
		if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server failed", zap.Error(err))
		}
	}()

	if s.grpcServer == nil {
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.GRPC.Port)
	grpcLis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for grpc: %w", err)
	}

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.log.Info("starting grpc ops server", zap.String("address", addr))

	go func() {
		if err := s.grpcServer.Serve(grpcLis); err != nil {
			s.log.Error("grpc server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.grpcServer != nil {
		s.log.Info("shutting down grpc server")
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
	}

	s.log.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

type healthResponse struct {
	Status   string            `json:"status"`
	Database string            `json:"database"`
	Login    auth.LoginMetrics `json:"login"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Database: "ok",
		Login:    s.metrics.Snapshot(),
	}
	status := http.StatusOK

	if err := s.pingDB(r.Context()); err != nil {
		s.log.Warn("database ping failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Database = err.Error()
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) pingDB(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func serverConfigToField(config *config.AppConfig) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("environment", os.Getenv("APP_ENV"))
		enc.AddString("base_url", config.Server.BaseURL)
		enc.AddString("database_driver", config.Database.Driver)
		enc.AddBool("grpc_enabled", config.GRPC.Enabled)
		enc.AddBool("bot_enabled", config.Bot.Token != "")
		enc.AddBool("secure_cookie", config.Auth.SecureCookie)
		return nil
	})
}

// requestLogger logs one line per request after it completes.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}
			if status >= http.StatusInternalServerError {
				log.Error("request", fields...)
				return
			}
			log.Debug("request", fields...)
		})
	}
}
