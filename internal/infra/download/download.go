package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTimeout はダウンロード全体のデフォルトタイムアウト
	DefaultTimeout = 5 * time.Minute

	// MaxParallelDownloads は同時ダウンロード数の上限
	MaxParallelDownloads = 8
)

// Fetcher はURLからファイルコンテンツを取得します
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// FetcherOption は Fetcher のオプション設定
type FetcherOption func(*Fetcher)

// WithTimeout はダウンロードのタイムアウトを上書きする
func WithTimeout(timeout time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = timeout
	}
}

// WithHTTPClient は使用するHTTPクライアントを上書きする
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// NewFetcher は新しい Fetcher を作成します
func NewFetcher(opts ...FetcherOption) *Fetcher {
	fetcher := &Fetcher{
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(fetcher)
	}

	return fetcher
}

// Fetch は1つのURLからコンテンツを取得します
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: status %d", url, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}

	return content, nil
}

// FetchAll は複数URLを並列に取得し、URLの順序どおりに連結した
// コンテンツを返します（分割アップロードされたファイルの結合用）
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]byte, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("no urls to download")
	}

	parts := make([][]byte, len(urls))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(MaxParallelDownloads)

	for i, url := range urls {
		eg.Go(func() error {
			content, err := f.Fetch(ctx, url)
			if err != nil {
				return fmt.Errorf("part %d: %w", i, err)
			}
			parts[i] = content
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return bytes.Join(parts, nil), nil
}
