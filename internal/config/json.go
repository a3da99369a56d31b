package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophjournal/internal/flagx"
	"github.com/dmitrijs2005/gophjournal/internal/timex"
)

type jsonS3 struct {
	Bucket       *string `json:"bucket"`
	Region       *string `json:"region"`
	BaseEndpoint *string `json:"base_endpoint"`
	AccessKey    *string `json:"access_key"`
	SecretKey    *string `json:"secret_key"`
}

type jsonInsight struct {
	Enabled *bool   `json:"enabled"`
	BaseURL *string `json:"base_url"`
	Model   *string `json:"model"`
	APIKey  *string `json:"api_key"`
}

// JsonConfig mirrors Config for unmarshalling. Pointer fields distinguish
// "absent" from zero so a partial file only overrides what it names.
type JsonConfig struct {
	DataDir            *string         `json:"data_dir"`
	DatabaseFile       *string         `json:"database_file"`
	MediaBackend       *string         `json:"media_backend"`
	S3                 *jsonS3         `json:"s3"`
	LogFile            *string         `json:"log_file"`
	LogLevel           *string         `json:"log_level"`
	PageSize           *int            `json:"page_size"`
	SearchRefreshDelay *timex.Duration `json:"search_refresh_delay"`
	InboxDir           *string         `json:"inbox_dir"`
	CustomPrompts      []string        `json:"custom_prompts"`
	Insight            *jsonInsight    `json:"insight"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJson overlays cfg with the file named by -c/-config. No flag means
// nothing to do.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	set(&cfg.DataDir, jc.DataDir)
	set(&cfg.DatabaseFile, jc.DatabaseFile)
	set(&cfg.MediaBackend, jc.MediaBackend)
	set(&cfg.LogFile, jc.LogFile)
	set(&cfg.LogLevel, jc.LogLevel)
	set(&cfg.PageSize, jc.PageSize)
	set(&cfg.InboxDir, jc.InboxDir)
	if jc.SearchRefreshDelay != nil {
		cfg.SearchRefreshDelay = jc.SearchRefreshDelay.Duration
	}
	if jc.CustomPrompts != nil {
		cfg.CustomPrompts = jc.CustomPrompts
	}
	if s := jc.S3; s != nil {
		set(&cfg.S3.Bucket, s.Bucket)
		set(&cfg.S3.Region, s.Region)
		set(&cfg.S3.BaseEndpoint, s.BaseEndpoint)
		set(&cfg.S3.AccessKey, s.AccessKey)
		set(&cfg.S3.SecretKey, s.SecretKey)
	}
	if in := jc.Insight; in != nil {
		set(&cfg.Insight.Enabled, in.Enabled)
		set(&cfg.Insight.BaseURL, in.BaseURL)
		set(&cfg.Insight.Model, in.Model)
		set(&cfg.Insight.APIKey, in.APIKey)
	}

	return nil
}
