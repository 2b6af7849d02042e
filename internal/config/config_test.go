package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "df", cfg.Database.Table)
	assert.Equal(t, "fail", cfg.Database.IfExists)
	assert.Equal(t, 0.2, cfg.Training.TestSize)
	assert.Equal(t, [][2]int{{1, 1}, {1, 2}}, cfg.Training.Grid.NGramRanges)
	assert.Equal(t, []int{2, 4}, cfg.Training.Grid.MinSamplesSplit)
	assert.NoError(t, cfg.Validate())

	schema, err := cfg.LabelSchema()
	require.NoError(t, err)
	assert.Nil(t, schema)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DR_MODEL_DIR", "/srv/models")
	path := writeConfig(t, `
database:
  if_exists: replace
labels:
  - name: related
    values: [0, 1, 2]
  - name: request
training:
  n_estimators: 10
  grid:
    ngram_ranges: [[1, 3]]
server:
  model_path: "${DR_MODEL_DIR}/clf.gob"
  database_path: "${DR_UNSET_VAR}"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "replace", cfg.Database.IfExists)
	assert.Equal(t, "df", cfg.Database.Table)
	assert.Equal(t, 10, cfg.Training.NEstimators)
	assert.Equal(t, [][2]int{{1, 3}}, cfg.Training.Grid.NGramRanges)
	assert.Equal(t, "/srv/models/clf.gob", cfg.Server.ModelPath)
	assert.Equal(t, "./data/DisasterResponse.db", cfg.Server.DatabasePath)

	schema, err := cfg.LabelSchema()
	require.NoError(t, err)
	assert.Equal(t, []string{"related", "request"}, schema.Names())
	assert.True(t, schema.Allows(0, 2))
	assert.False(t, schema.Allows(0, 3))
	assert.True(t, schema.Allows(1, 9))
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"database type": "database:\n  type: mysql\n",
		"if_exists":     "database:\n  if_exists: append\n",
		"test size":     "training:\n  test_size: 1.5\n",
		"folds":         "training:\n  cv_folds: 1\n",
		"ngram":         "training:\n  grid:\n    ngram_ranges: [[2, 1]]\n",
		"min split":     "training:\n  grid:\n    min_samples_split: [1]\n",
		"label value":   "labels:\n  - name: related\n    values: [10]\n",
		"label clash":   "labels:\n  - name: genre\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoadConfig_Shipped(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "configs", "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, "./models/classifier.gob", cfg.Server.ModelPath)
	assert.Equal(t, 100, cfg.Training.NEstimators)
}

func TestLoadConfig_Seed(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "training:\n  seed: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), cfg.Training.Seed)

	cfg, err = LoadConfig(writeConfig(t, "training:\n  n_estimators: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultSeed), cfg.Training.Seed)
	assert.Equal(t, 5, cfg.Training.NEstimators)
}
