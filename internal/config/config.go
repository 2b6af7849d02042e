package config

import (
	"fmt"
	"os"

	"disaster-response/internal/models"

	"gopkg.in/yaml.v3"
)

// Config holds pipeline configuration shared by the process-data,
// train-classifier and server binaries.
type Config struct {
	Database struct {
		Type     string `yaml:"type"`      // "sqlite" or "postgres"
		Table    string `yaml:"table"`     // table holding the cleaned dataset
		IfExists string `yaml:"if_exists"` // "fail" or "replace"
	} `yaml:"database"`

	// Optional explicit label schema. When empty, labels are inferred from
	// the first category string in the data.
	Labels []models.LabelSpec `yaml:"labels"`

	Training TrainingConfig `yaml:"training"`

	Server struct {
		Port         string `yaml:"port"`
		ModelPath    string `yaml:"model_path"`
		DatabasePath string `yaml:"database_path"`
	} `yaml:"server"`
}

// TrainingConfig controls the train/test split, the forest and the grid search.
type TrainingConfig struct {
	TestSize          float64 `yaml:"test_size"`
	Seed              int64   `yaml:"seed"`
	NEstimators       int     `yaml:"n_estimators"`
	CVFolds           int     `yaml:"cv_folds"`
	Workers           int     `yaml:"workers"`
	FaithfulTokenizer bool    `yaml:"faithful_tokenizer"`

	Grid struct {
		NGramRanges     [][2]int `yaml:"ngram_ranges"`
		MinSamplesSplit []int    `yaml:"min_samples_split"`
	} `yaml:"grid"`
}

// DefaultSeed seeds the split and the forests unless training.seed is set.
const DefaultSeed = 42

// Default returns the configuration used when no file is given.
func Default() *Config {
	config := &Config{}
	config.Training.Seed = DefaultSeed
	config.applyDefaults()
	return config
}

// LoadConfig loads configuration from YAML file. Keys missing from the file
// keep their Default value; a key given explicitly, such as seed: 0, is used
// as is.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.Server.ModelPath = os.ExpandEnv(config.Server.ModelPath)
	config.Server.DatabasePath = os.ExpandEnv(config.Server.DatabasePath)

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Load returns Default when configPath is empty and LoadConfig otherwise.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return Default(), nil
	}
	return LoadConfig(configPath)
}

func (c *Config) applyDefaults() {
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Table == "" {
		c.Database.Table = "df"
	}
	if c.Database.IfExists == "" {
		c.Database.IfExists = "fail"
	}

	t := &c.Training
	if t.TestSize == 0 {
		t.TestSize = 0.2
	}
	if t.NEstimators == 0 {
		t.NEstimators = 100
	}
	if t.CVFolds == 0 {
		t.CVFolds = 5
	}
	if len(t.Grid.NGramRanges) == 0 {
		t.Grid.NGramRanges = [][2]int{{1, 1}, {1, 2}}
	}
	if len(t.Grid.MinSamplesSplit) == 0 {
		t.Grid.MinSamplesSplit = []int{2, 4}
	}

	if c.Server.Port == "" {
		c.Server.Port = "8003"
	}
	if c.Server.ModelPath == "" {
		c.Server.ModelPath = "./models/classifier.gob"
	}
	if c.Server.DatabasePath == "" {
		c.Server.DatabasePath = "./data/DisasterResponse.db"
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	switch c.Database.IfExists {
	case "fail", "replace":
	default:
		return fmt.Errorf("unsupported if_exists mode %q", c.Database.IfExists)
	}
	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		return fmt.Errorf("training.test_size must be in (0, 1), got %v", c.Training.TestSize)
	}
	if c.Training.NEstimators < 1 {
		return fmt.Errorf("training.n_estimators must be positive, got %d", c.Training.NEstimators)
	}
	if c.Training.CVFolds < 2 {
		return fmt.Errorf("training.cv_folds must be at least 2, got %d", c.Training.CVFolds)
	}
	for _, r := range c.Training.Grid.NGramRanges {
		if r[0] < 1 || r[1] < r[0] {
			return fmt.Errorf("invalid ngram range (%d, %d)", r[0], r[1])
		}
	}
	for _, m := range c.Training.Grid.MinSamplesSplit {
		if m < 2 {
			return fmt.Errorf("min_samples_split must be at least 2, got %d", m)
		}
	}
	if _, err := c.LabelSchema(); err != nil {
		return err
	}
	return nil
}

// LabelSchema returns the configured label schema, or nil when labels are
// to be inferred from the data.
func (c *Config) LabelSchema() (*models.LabelSchema, error) {
	if len(c.Labels) == 0 {
		return nil, nil
	}
	return models.NewLabelSchema(c.Labels)
}
