package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/lessonvec/ai"
	"github.com/poiesic/lessonvec/index"
	"github.com/poiesic/lessonvec/pipeline"
)

// settings is the resolved configuration for a command, built once at
// startup and threaded into component constructors. Components never
// read environment state themselves.
type settings struct {
	AccountId string
	APIToken  string
	IndexName string
	WorkerURL string

	Provider   string
	BaseURL    string
	Model      string
	Dimensions int

	CurriculumPath string
	CachePath      string
}

// fileConfig is the optional YAML config file shape. Flags and
// environment values override it.
type fileConfig struct {
	AccountId string `yaml:"accountId"`
	APIToken  string `yaml:"apiToken"`
	IndexName string `yaml:"indexName"`
	WorkerURL string `yaml:"workerURL"`

	Embedding struct {
		Provider   string `yaml:"provider"`
		BaseURL    string `yaml:"baseURL"`
		Model      string `yaml:"model"`
		Dimensions int    `yaml:"dimensions"`
	} `yaml:"embedding"`

	Paths struct {
		Curriculum string `yaml:"curriculum"`
		Cache      string `yaml:"cache"`
	} `yaml:"paths"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return &cfg, nil
}

// resolveSettings merges the optional config file under flag/env values.
// Precedence: flag (or its bound env var) > config file > defaults.
func resolveSettings(c *cli.Context) (*settings, error) {
	s := &settings{
		AccountId:      c.String("account-id"),
		APIToken:       c.String("api-token"),
		IndexName:      c.String("index-name"),
		WorkerURL:      c.String("worker-url"),
		Provider:       c.String("provider"),
		BaseURL:        c.String("embedding-host"),
		Model:          c.String("embedding-model"),
		Dimensions:     c.Int("dimensions"),
		CurriculumPath: c.String("curriculum"),
		CachePath:      c.String("cache"),
	}

	if path := c.String("config"); path != "" {
		file, err := loadFileConfig(path)
		if err != nil {
			return nil, err
		}
		applyFileConfig(s, file, c)
	}

	return s, nil
}

func applyFileConfig(s *settings, file *fileConfig, c *cli.Context) {
	if s.AccountId == "" {
		s.AccountId = file.AccountId
	}
	if s.APIToken == "" {
		s.APIToken = file.APIToken
	}
	if !c.IsSet("index-name") && file.IndexName != "" {
		s.IndexName = file.IndexName
	}
	if s.WorkerURL == "" {
		s.WorkerURL = file.WorkerURL
	}
	if !c.IsSet("provider") && file.Embedding.Provider != "" {
		s.Provider = file.Embedding.Provider
	}
	if !c.IsSet("embedding-host") && file.Embedding.BaseURL != "" {
		s.BaseURL = file.Embedding.BaseURL
	}
	if !c.IsSet("embedding-model") && file.Embedding.Model != "" {
		s.Model = file.Embedding.Model
	}
	if !c.IsSet("dimensions") && file.Embedding.Dimensions > 0 {
		s.Dimensions = file.Embedding.Dimensions
	}
	if !c.IsSet("curriculum") && file.Paths.Curriculum != "" {
		s.CurriculumPath = file.Paths.Curriculum
	}
	if !c.IsSet("cache") && file.Paths.Cache != "" {
		s.CachePath = file.Paths.Cache
	}
}

// aiConfig builds the embedding provider configuration.
func (s *settings) aiConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithProvider(ai.Provider(s.Provider)),
		ai.WithAccountId(s.AccountId),
		ai.WithAPIToken(s.APIToken),
	}
	if s.BaseURL != "" {
		opts = append(opts, ai.WithBaseURL(s.BaseURL))
	}
	if s.Model != "" {
		opts = append(opts, ai.WithModel(s.Model))
	}
	if s.Dimensions > 0 {
		opts = append(opts, ai.WithDimensions(s.Dimensions))
	}
	return ai.NewConfig(opts...)
}

// indexConfig builds the vector index client configuration.
func (s *settings) indexConfig() *index.Config {
	cfg := index.DefaultConfig()
	cfg.AccountId = s.AccountId
	cfg.APIToken = s.APIToken
	cfg.IndexName = s.IndexName
	return cfg
}

func generatorConfig(c *cli.Context) *pipeline.GeneratorConfig {
	return &pipeline.GeneratorConfig{
		BatchSize:         c.Int("batch-size"),
		RequestsPerMinute: c.Int("requests-per-minute"),
		FlushEvery:        c.Int("flush-every"),
	}
}

func uploaderConfig(c *cli.Context) *pipeline.UploaderConfig {
	return &pipeline.UploaderConfig{
		BatchSize:  c.Int("insert-batch-size"),
		MaxRetries: c.Int("max-retries"),
		RetryDelay: c.Duration("retry-delay"),
		BatchPause: c.Duration("batch-pause"),
	}
}
