package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebook"
)

func TestFileBridge(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "recipe_bridge_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	tests := []struct {
		name string
		key  string
		data []byte
	}{
		{
			name: "basic recipe blob",
			key:  "@recipes",
			data: []byte(`[{"id":"1","title":"Cake","ingredients":"flour"}]`),
		},
		{
			name: "empty collection",
			key:  "empty",
			data: []byte(`[]`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := NewFileBridge(tmpDir)
			ctx := context.Background()

			require.NoError(t, bridge.Save(ctx, tt.key, tt.data))

			loaded, err := bridge.Load(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.data, loaded)
		})
	}

	t.Run("load nonexistent key", func(t *testing.T) {
		bridge := NewFileBridge(tmpDir)
		_, err := bridge.Load(context.Background(), "nonexistent")
		assert.ErrorIs(t, err, recipebook.ErrBlobNotFound)
	})

	t.Run("save overwrites previous blob", func(t *testing.T) {
		bridge := NewFileBridge(tmpDir)
		ctx := context.Background()

		require.NoError(t, bridge.Save(ctx, "overwrite", []byte(`[{"id":"a","title":"Old","ingredients":""}]`)))
		require.NoError(t, bridge.Save(ctx, "overwrite", []byte(`[]`)))

		loaded, err := bridge.Load(ctx, "overwrite")
		require.NoError(t, err)
		assert.Equal(t, []byte(`[]`), loaded)
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		dir := filepath.Join(tmpDir, "clean")
		bridge := NewFileBridge(dir)
		require.NoError(t, bridge.Save(context.Background(), "@recipes", []byte(`[]`)))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "@recipes.json", entries[0].Name())
	})

	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(tmpDir, "nested", "deeper")
		bridge := NewFileBridge(dir)
		require.NoError(t, bridge.Save(context.Background(), "k", []byte(`[]`)))
		assert.FileExists(t, bridge.Path("k"))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bridge := NewFileBridge(tmpDir)
		assert.ErrorIs(t, bridge.Save(ctx, "k", []byte(`[]`)), context.Canceled)
		_, err := bridge.Load(ctx, "k")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFileName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{key: "@recipes", want: "@recipes.json"},
		{key: "a/b", want: "a_b.json"},
		{key: "../escape", want: ".._escape.json"},
		{key: "..", want: "_...json"},
		{key: "", want: "_.json"},
		{key: "receitas doces", want: "receitas_doces.json"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, fileName(tt.key))
		})
	}
}
