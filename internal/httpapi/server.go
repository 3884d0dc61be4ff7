package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/PlumyCat/doctrans/internal/config"
	"github.com/PlumyCat/doctrans/internal/drive"
	"github.com/PlumyCat/doctrans/internal/translator"
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// blobStore is the slice of the blob layer the handlers need.
type blobStore interface {
	SourceExists(ctx context.Context, blobName string) (bool, error)
	TranslatedExists(ctx context.Context, blobName string) (bool, error)
	PrepareTranslationURLs(ctx context.Context, blobName, targetLang string) (string, string, error)
	TranslatedDownloadURL(ctx context.Context, blobName string) (string, error)
	DownloadTranslated(ctx context.Context, blobName string) ([]byte, error)
}

// translationEngine starts jobs on the external engine and polls them.
type translationEngine interface {
	Start(ctx context.Context, sourceURL, targetURL, targetLang string) (string, error)
	Status(ctx context.Context, jobID string) (*translator.JobStatus, error)
}

// driveMirror optionally copies translated outputs to the user's drive.
type driveMirror interface {
	Enabled() bool
	Upload(ctx context.Context, content []byte, fileName, userID string) (*drive.UploadResult, error)
}

type Server struct {
	cfg    *config.Config
	logger zerolog.Logger
	opts   Options
	blobs  blobStore
	engine translationEngine
	mirror driveMirror
}

func NewServer(cfg *config.Config, logger zerolog.Logger, blobs blobStore, engine translationEngine, mirror driveMirror, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8080
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		// get_result may download and mirror a document inside one
		// request, so the write budget is generous.
		writeTimeout = 120 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		cfg:    cfg,
		logger: logger,
		blobs:  blobs,
		engine: engine,
		mirror: mirror,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.blobs == nil || s.engine == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	e.POST("/start_translation", s.handleStartTranslation)
	e.GET("/check_status/:translation_id", s.handleCheckStatus)
	e.GET("/get_result", s.handleGetResult)
	e.GET("/health", s.handleHealth)
	e.GET("/languages", s.handleLanguages)
	e.GET("/formats", s.handleFormats)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("doctrans server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("doctrans server stopped")
	return nil
}

// httpErrorHandler converts anything a handler did not map itself into
// the structured error envelope; nothing propagates as an unstructured
// platform error.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if v, ok := he.Message.(string); ok && strings.TrimSpace(v) != "" {
			message = v
		} else if text := strings.TrimSpace(http.StatusText(status)); text != "" {
			message = text
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		s.logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("unhandled handler error")
	}
	_ = respondError(c, status, message)
}
