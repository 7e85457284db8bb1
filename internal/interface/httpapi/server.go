package httpapi

import (
	"log/slog"
	"net/http"
	"time"
)

// Server はドキュメントQ&AバックエンドのHTTPサーバーです
type Server struct {
	handler *Handler
	logger  *slog.Logger
}

// ServerOption は Server のオプション設定
type ServerOption func(*Server)

// WithLogger は Server にロガーを設定する
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer は新しい Server を作成します
func NewServer(handler *Handler, opts ...ServerOption) *Server {
	srv := &Server{
		handler: handler,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// Routes はエンドポイントを登録したハンドラーを返します
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handler.Health)
	mux.HandleFunc("POST /upload", s.handler.Upload)
	mux.HandleFunc("POST /upload-from-url", s.handler.UploadFromURL)
	mux.HandleFunc("POST /upload-from-urls", s.handler.UploadFromURLs)
	mux.HandleFunc("GET /documents", s.handler.ListDocuments)
	mux.HandleFunc("DELETE /documents/{id}", s.handler.DeleteDocument)
	mux.HandleFunc("POST /chat", s.handler.Chat)

	return withCORS(withAccessLog(s.logger, mux))
}

// ListenAndServe は指定アドレスでHTTPサーバーを起動します
func (s *Server) ListenAndServe(addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("http server listening", "addr", addr)
	return httpServer.ListenAndServe()
}
