package postgres

import (
	"testing"

	pgvector "github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildChunkQuery(t *testing.T) {
	vector := pgvector.NewVector([]float32{0.1, 0.2})

	t.Run("絞り込みなしでは件数上限を$2でバインドする", func(t *testing.T) {
		query, args := buildChunkQuery(vector, 20, nil)

		assert.Contains(t, query, "LIMIT $2")
		assert.NotContains(t, query, "WHERE")
		require.Len(t, args, 2)
		assert.Equal(t, vector, args[0])
		assert.Equal(t, 20, args[1])
	})

	t.Run("ドキュメントIDの絞り込みは$2、件数上限は$3でバインドする", func(t *testing.T) {
		documentIDs := []string{"doc_1_aaaaaa", "doc_2_bbbbbb"}
		query, args := buildChunkQuery(vector, 5, documentIDs)

		assert.Contains(t, query, "WHERE document_id = ANY($2)")
		assert.Contains(t, query, "LIMIT $3")
		require.Len(t, args, 3)
		assert.Equal(t, documentIDs, args[1])
		assert.Equal(t, 5, args[2])
	})

	t.Run("スコアはコサイン距離から算出する", func(t *testing.T) {
		query, _ := buildChunkQuery(vector, 10, nil)
		assert.Contains(t, query, "1 - (embedding <=> $1) AS score")
		assert.Contains(t, query, "ORDER BY embedding <=> $1")
	})
}
