package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebook/recipe"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	dataDir := filepath.Join(home, "data")
	t.Setenv("HOME", home)
	t.Setenv("STORAGE_TYPE", "file")
	t.Setenv("LOCAL_STORAGE_PATH", dataDir)
	t.Setenv("LOG_LEVEL", "warn")
	return dataDir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(strings.NewReader(stdin))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLILifecycle(t *testing.T) {
	dataDir := setupEnv(t)

	out, err := run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No recipes yet")

	out, err = run(t, "", "add", "--title", "Cake", "--ingredients", "flour,sugar", "--preparation", "bake 30min")
	require.NoError(t, err)
	cakeID := strings.TrimSpace(out)
	require.NotEmpty(t, cakeID)

	out, err = run(t, "", "add", "--title", "Soup", "--ingredients", "water")
	require.NoError(t, err)
	soupID := strings.TrimSpace(out)

	out, err = run(t, "", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, cakeID+"  Cake", lines[0])
	assert.Equal(t, soupID+"  Soup", lines[1])

	out, err = run(t, "", "edit", soupID, "--ingredients", "water,salt")
	require.NoError(t, err)
	assert.Contains(t, out, "ingredients: water,salt")
	assert.NotContains(t, out, "preparation:")

	out, err = run(t, "", "show", cakeID)
	require.NoError(t, err)
	assert.Contains(t, out, "preparation: bake 30min")

	out, err = run(t, "n\n", "delete", cakeID)
	require.NoError(t, err)
	assert.Contains(t, out, "kept")

	out, err = run(t, "y\n", "delete", cakeID)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	out, err = run(t, "", "list", "--json")
	require.NoError(t, err)
	c, err := recipe.Unmarshal([]byte(out))
	require.NoError(t, err)
	require.Len(t, c, 1)
	assert.Equal(t, soupID, c[0].ID)
	assert.Equal(t, "water,salt", c[0].Ingredients)
	assert.False(t, c[0].Detailed())

	assert.FileExists(t, filepath.Join(dataDir, "@recipes.json"))
}

func TestCLIErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{name: "add without title", args: []string{"add", "--ingredients", "eggs"}, wantErr: recipe.ErrValidation},
		{name: "add blank title", args: []string{"add", "--title", "   "}, wantErr: recipe.ErrValidation},
		{name: "edit missing", args: []string{"edit", "nope", "--title", "x"}, wantErr: recipe.ErrNotFound},
		{name: "delete missing", args: []string{"delete", "nope", "--yes"}, wantErr: recipe.ErrNotFound},
		{name: "show missing", args: []string{"show", "nope"}, wantErr: recipe.ErrNotFound},
		{name: "bad storage flag", args: []string{"list", "--storage", "tape"}, wantMsg: `unknown storage type "tape"`},
		{name: "bad log level", args: []string{"list", "--log-level", "loud"}, wantMsg: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupEnv(t)
			_, err := run(t, "", tt.args...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestCLIEditBlankTitleKeepsRecipe(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "", "add", "--title", "Tea", "--ingredients", "leaves")
	require.NoError(t, err)
	id := strings.TrimSpace(out)

	_, err = run(t, "", "edit", id, "--title", "")
	assert.ErrorIs(t, err, recipe.ErrValidation)

	out, err = run(t, "", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Tea")
}

func TestCLIShowDebug(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "", "add", "--title", "Pie", "--preparation", "bake")
	require.NoError(t, err)
	id := strings.TrimSpace(out)

	out, err = run(t, "", "show", id, "--debug")
	require.NoError(t, err)
	assert.Contains(t, out, "(recipe.Recipe)")
	assert.Contains(t, out, `Title: (string) (len=3) "Pie"`)
}

func TestCLISaveLog(t *testing.T) {
	setupEnv(t)
	logPath := filepath.Join(t.TempDir(), "saves.json")
	t.Setenv("SAVE_LOG_PATH", logPath)

	_, err := run(t, "", "add", "--title", "Logged")
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	var out struct {
		Session struct {
			Saves []struct {
				Key     string `json:"key"`
				Records int    `json:"records"`
				Error   string `json:"error"`
			} `json:"saves"`
		} `json:"persistence_session"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.Session.Saves, 1)
	assert.Equal(t, "@recipes", out.Session.Saves[0].Key)
	assert.Equal(t, 1, out.Session.Saves[0].Records)
	assert.Empty(t, out.Session.Saves[0].Error)
}

func TestCLISaveLogStdout(t *testing.T) {
	setupEnv(t)
	t.Setenv("SAVE_LOG_PATH", "-")

	out, err := run(t, "", "add", "--title", "Streamed")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.NotEmpty(t, lines[0])

	var entry struct {
		Key     string `json:"key"`
		Records int    `json:"records"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "@recipes", entry.Key)
	assert.Equal(t, 1, entry.Records)
}

func TestCLIFlagOverridesEnvironment(t *testing.T) {
	setupEnv(t)
	t.Setenv("STORAGE_TYPE", "s3")

	_, err := run(t, "", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET_NAME must be set for s3 storage")

	out, err := run(t, "", "--storage", "memory", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No recipes yet")
}

func TestCLIConfigFile(t *testing.T) {
	setupEnv(t)
	t.Setenv("STORAGE_TYPE", "")
	t.Setenv("LOCAL_STORAGE_PATH", "")

	dir := t.TempDir()
	dsn := filepath.Join(dir, "recipes.db")
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage_type = \"sqlite\"\ndata_source_name = \""+dsn+"\"\n"), 0o600))

	_, err := run(t, "", "--config", cfgPath, "add", "--title", "Stored in sqlite")
	require.NoError(t, err)

	out, err := run(t, "", "--config", cfgPath, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Stored in sqlite")
	assert.FileExists(t, dsn)
}

func TestCLISchema(t *testing.T) {
	out, err := run(t, "", "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, "array", schema["type"])
}
