package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/jinford/doc-copilot/internal/core/apperror"
	"github.com/jinford/doc-copilot/internal/core/chat"
	"github.com/jinford/doc-copilot/internal/core/ingest"
	"github.com/jinford/doc-copilot/internal/core/retrieve"
)

// maxUploadSize はアップロードの最大サイズ（50MB）
const maxUploadSize = 50 << 20

// Ingestor はドキュメントの取り込みと管理のインターフェース
type Ingestor interface {
	Ingest(ctx context.Context, content []byte, filename string) (*ingest.Result, error)
	Delete(ctx context.Context, documentID string) error
	List(ctx context.Context) ([]*ingest.Document, error)
}

// Asker は質問応答のインターフェース
type Asker interface {
	Ask(ctx context.Context, params chat.Params) (*chat.Result, error)
}

// Fetcher はURLからのファイル取得インターフェース
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	FetchAll(ctx context.Context, urls []string) ([]byte, error)
}

// Handler はHTTPエンドポイントの実装です
type Handler struct {
	ingestor Ingestor
	asker    Asker
	fetcher  Fetcher
	logger   *slog.Logger
}

// HandlerOption は Handler のオプション設定
type HandlerOption func(*Handler)

// WithHandlerLogger は Handler にロガーを設定する
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler は新しい Handler を作成します
func NewHandler(ingestor Ingestor, asker Asker, fetcher Fetcher, opts ...HandlerOption) *Handler {
	handler := &Handler{
		ingestor: ingestor,
		asker:    asker,
		fetcher:  fetcher,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(handler)
	}

	return handler
}

// Health はヘルスチェックに応答します
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Upload はmultipartでアップロードされたファイルを取り込みます
// filenameフォームフィールドでファイル名を上書きできます
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.writeError(w, apperror.Wrap(apperror.KindClient, "invalid multipart form", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, apperror.Wrap(apperror.KindClient, "file field is required", err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, apperror.Wrap(apperror.KindClient, "failed to read uploaded file", err))
		return
	}

	filename := r.FormValue("filename")
	if filename == "" {
		filename = header.Filename
	}

	result, err := h.ingestor.Ingest(r.Context(), content, filename)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type uploadFromURLRequest struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// UploadFromURL はURLからダウンロードしたファイルを取り込みます
func (h *Handler) UploadFromURL(w http.ResponseWriter, r *http.Request) {
	var req uploadFromURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperror.Wrap(apperror.KindClient, "invalid request body", err))
		return
	}
	if req.URL == "" || req.Filename == "" {
		h.writeError(w, apperror.New(apperror.KindClient, "url and filename are required"))
		return
	}

	content, err := h.fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		h.writeError(w, apperror.Wrap(apperror.KindUpstream, "download failed", err))
		return
	}

	result, err := h.ingestor.Ingest(r.Context(), content, req.Filename)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type uploadFromURLsRequest struct {
	URLs     []string `json:"urls"`
	Filename string   `json:"filename"`
}

// UploadFromURLs は分割アップロードされたパートを並列取得し、
// 連結した1ファイルとして取り込みます
func (h *Handler) UploadFromURLs(w http.ResponseWriter, r *http.Request) {
	var req uploadFromURLsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperror.Wrap(apperror.KindClient, "invalid request body", err))
		return
	}
	if len(req.URLs) == 0 {
		h.writeError(w, apperror.New(apperror.KindClient, "urls are required"))
		return
	}
	if req.Filename == "" {
		h.writeError(w, apperror.New(apperror.KindClient, "filename is required"))
		return
	}

	content, err := h.fetcher.FetchAll(r.Context(), req.URLs)
	if err != nil {
		h.writeError(w, apperror.Wrap(apperror.KindUpstream, "download failed", err))
		return
	}

	result, err := h.ingestor.Ingest(r.Context(), content, req.Filename)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListDocuments は取り込み済みドキュメントの一覧を返します
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.ingestor.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	if docs == nil {
		docs = []*ingest.Document{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// DeleteDocument は指定ドキュメントの全チャンクを削除します
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")

	if err := h.ingestor.Delete(r.Context(), documentID); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "deleted",
		"document_id": documentID,
	})
}

type chatRequest struct {
	Message     string         `json:"message"`
	History     []chat.Message `json:"history"`
	Settings    *chat.Settings `json:"settings"`
	DocumentIDs []string       `json:"document_ids"`
}

// Chat は質問に対する回答と出典を返します
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperror.Wrap(apperror.KindClient, "invalid request body", err))
		return
	}

	result, err := h.asker.Ask(r.Context(), chat.Params{
		Question:    req.Message,
		History:     req.History,
		Settings:    req.Settings,
		DocumentIDs: req.DocumentIDs,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	if result.Sources == nil {
		result.Sources = []*retrieve.Result{}
	}

	writeJSON(w, http.StatusOK, result)
}

// writeError はエラー分類をHTTPステータスにマッピングして応答します
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if apperror.KindOf(err) == apperror.KindClient {
		status = http.StatusBadRequest
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}

	var appErr *apperror.Error
	message := "internal server error"
	if errors.As(err, &appErr) {
		message = appErr.Msg
	}

	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
