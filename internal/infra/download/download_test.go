package download

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	t.Run("200応答のボディを返す", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("file content"))
		}))
		defer server.Close()

		fetcher := NewFetcher()
		content, err := fetcher.Fetch(t.Context(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, []byte("file content"), content)
	})

	t.Run("200以外の応答はエラーを返す", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		fetcher := NewFetcher()
		_, err := fetcher.Fetch(t.Context(), server.URL)
		assert.ErrorContains(t, err, "status 404")
	})

	t.Run("タイムアウトを超えた場合はエラーを返す", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		fetcher := NewFetcher(WithTimeout(20 * time.Millisecond))
		_, err := fetcher.Fetch(t.Context(), server.URL)
		assert.Error(t, err)
	})
}

func TestFetchAll(t *testing.T) {
	t.Run("複数パートをURLの順序で連結する", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// パスの末尾要素をそのままボディとして返す
			part := strings.TrimPrefix(r.URL.Path, "/")
			_, _ = w.Write([]byte(part))
		}))
		defer server.Close()

		fetcher := NewFetcher()
		content, err := fetcher.FetchAll(t.Context(), []string{
			server.URL + "/part1-",
			server.URL + "/part2-",
			server.URL + "/part3",
		})
		require.NoError(t, err)
		assert.Equal(t, []byte("part1-part2-part3"), content)
	})

	t.Run("いずれかのパートが失敗した場合はエラーを返す", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/bad" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		fetcher := NewFetcher()
		_, err := fetcher.FetchAll(t.Context(), []string{server.URL + "/good", server.URL + "/bad"})
		assert.Error(t, err)
	})

	t.Run("URLが空の場合はエラーを返す", func(t *testing.T) {
		fetcher := NewFetcher()
		_, err := fetcher.FetchAll(t.Context(), nil)
		assert.Error(t, err)
	})
}
