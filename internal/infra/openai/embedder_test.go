package openai

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("APIキーが空の場合はエラーを返す", func(t *testing.T) {
		_, err := NewClient("")
		assert.ErrorIs(t, err, ErrAPIKeyNotSet)
	})

	t.Run("デフォルト設定でクライアントを作成できる", func(t *testing.T) {
		client, err := NewClient("test-api-key")
		require.NoError(t, err)
		assert.Equal(t, DefaultModel, client.ModelName())
	})

	t.Run("オプションでモデルを上書きできる", func(t *testing.T) {
		client, err := NewClient("test-api-key", WithChatModel("gpt-4o"))
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o", client.ModelName())
	})
}

func TestNewEmbedder(t *testing.T) {
	client, err := NewClient("test-api-key")
	require.NoError(t, err)

	t.Run("デフォルト設定でEmbedderを作成できる", func(t *testing.T) {
		emb := NewEmbedder(client)
		assert.Equal(t, DefaultEmbeddingDimension, emb.Dimension())
		assert.Equal(t, DefaultEmbeddingModel, emb.model)
		assert.True(t, emb.parallel)
	})

	t.Run("オプションでモデルと次元数を上書きできる", func(t *testing.T) {
		emb := NewEmbedder(client,
			WithEmbeddingModel("text-embedding-3-small"),
			WithEmbeddingDimension(512),
			WithParallelEmbedding(false),
		)
		assert.Equal(t, 512, emb.Dimension())
		assert.Equal(t, "text-embedding-3-small", emb.model)
		assert.False(t, emb.parallel)
	})
}

type embeddingRequest struct {
	Input          any    `json:"input"`
	Model          string `json:"model"`
	Dimensions     int    `json:"dimensions"`
	EncodingFormat string `json:"encoding_format"`
}

// encodeEmbedding はリクエストのencoding_formatに合わせてベクトルを符号化する
func encodeEmbedding(values []float32, format string) any {
	if format != "base64" {
		return values
	}
	buf := make([]byte, 0, len(values)*4)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func writeEmbeddingResponse(w http.ResponseWriter, format string, vectors [][]float32) {
	data := make([]map[string]any, len(vectors))
	for i, vector := range vectors {
		data[i] = map[string]any{
			"object":    "embedding",
			"index":     i,
			"embedding": encodeEmbedding(vector, format),
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   data,
		"model":  "text-embedding-3-large",
		"usage":  map[string]any{"prompt_tokens": 0, "total_tokens": 0},
	})
}

// chunkIndex は "chunk-<N>" 形式の入力テキストから位置を取り出す
func chunkIndex(t *testing.T, input string) int {
	t.Helper()
	idx, err := strconv.Atoi(strings.TrimPrefix(input, "chunk-"))
	require.NoError(t, err)
	return idx
}

func TestEmbedAll(t *testing.T) {
	newEmbedderForServer := func(t *testing.T, serverURL string, parallel bool) *Embedder {
		t.Helper()
		client, err := NewClient("test-api-key", WithBaseURL(serverURL))
		require.NoError(t, err)
		return NewEmbedder(client,
			WithEmbeddingDimension(3),
			WithParallelEmbedding(parallel),
		)
	}

	t.Run("並列モードでは完了順に関係なく結果を入力順に揃える", func(t *testing.T) {
		const total = 4

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req embeddingRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

			input, ok := req.Input.(string)
			require.True(t, ok, "並列モードはテキストごとの単一リクエストを送る")

			// 先頭のチャンクほど遅く応答させ、完了順を入力順の逆にする
			idx := chunkIndex(t, input)
			time.Sleep(time.Duration(total-idx) * 10 * time.Millisecond)

			writeEmbeddingResponse(w, req.EncodingFormat, [][]float32{
				{float32(idx), 0, 0},
			})
		}))
		defer server.Close()

		emb := newEmbedderForServer(t, server.URL, true)

		texts := make([]string, total)
		for i := range texts {
			texts[i] = fmt.Sprintf("chunk-%d", i)
		}

		vectors, err := emb.EmbedAll(t.Context(), texts)
		require.NoError(t, err)
		require.Len(t, vectors, total)
		for i, vector := range vectors {
			require.Len(t, vector, 3)
			assert.Equal(t, float32(i), vector[0], "vectors[%d] は texts[%d] に対応する", i, i)
		}
	})

	t.Run("並列モードでは1件の失敗で全体が失敗する", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 失敗後のキャンセルで途中終了するリクエストがあるため、デコード失敗は無視する
			var req embeddingRequest
			_ = json.NewDecoder(r.Body).Decode(&req)

			if input, ok := req.Input.(string); ok && input == "chunk-1" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":{"message":"invalid input","type":"invalid_request_error"}}`))
				return
			}

			writeEmbeddingResponse(w, req.EncodingFormat, [][]float32{{0, 0, 0}})
		}))
		defer server.Close()

		emb := newEmbedderForServer(t, server.URL, true)

		_, err := emb.EmbedAll(t.Context(), []string{"chunk-0", "chunk-1", "chunk-2"})
		require.Error(t, err)
		assert.ErrorContains(t, err, "chunk 1")
	})

	t.Run("バッチモードでは1リクエストにまとめ、応答順をそのまま返す", func(t *testing.T) {
		var requests atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)

			var req embeddingRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

			inputs, ok := req.Input.([]any)
			require.True(t, ok, "バッチモードは配列入力を送る")

			vectors := make([][]float32, len(inputs))
			for i, input := range inputs {
				idx := chunkIndex(t, input.(string))
				vectors[i] = []float32{float32(idx), 0, 0}
			}
			writeEmbeddingResponse(w, req.EncodingFormat, vectors)
		}))
		defer server.Close()

		emb := newEmbedderForServer(t, server.URL, false)

		vectors, err := emb.EmbedAll(t.Context(), []string{"chunk-0", "chunk-1", "chunk-2"})
		require.NoError(t, err)
		require.Len(t, vectors, 3)
		for i, vector := range vectors {
			assert.Equal(t, float32(i), vector[0])
		}
		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("入力が空の場合はAPIを呼ばずに空を返す", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected API call")
		}))
		defer server.Close()

		emb := newEmbedderForServer(t, server.URL, true)

		vectors, err := emb.EmbedAll(t.Context(), nil)
		require.NoError(t, err)
		assert.Empty(t, vectors)
	})
}

func TestToVector(t *testing.T) {
	client, err := NewClient("test-api-key")
	require.NoError(t, err)
	emb := NewEmbedder(client, WithEmbeddingDimension(3))

	t.Run("次元数が一致する場合はfloat32に変換される", func(t *testing.T) {
		vector, err := emb.toVector([]float64{0.1, 0.2, 0.3})
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
	})

	t.Run("次元数が一致しない場合はエラーを返す", func(t *testing.T) {
		_, err := emb.toVector([]float64{0.1, 0.2})
		assert.ErrorContains(t, err, "unexpected embedding dimension")
	})
}
