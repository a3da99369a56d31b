package config

import (
	"time"
)

// S3 holds the optional object-storage tier used for media blobs.
type S3 struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// Insight configures the OpenAI-compatible endpoint used for entry analysis
// and weekly digests. Disabled means no requests are ever made.
type Insight struct {
	Enabled bool
	BaseURL string
	Model   string
	APIKey  string
}

// Config holds runtime settings for the journal CLI.
type Config struct {
	DataDir      string
	DatabaseFile string
	MediaBackend string
	S3           S3

	LogFile  string
	LogLevel string

	PageSize           int
	SearchRefreshDelay time.Duration
	InboxDir           string
	CustomPrompts      []string

	Insight Insight
}

// LoadDefaults populates c with defaults suitable for a single local user.
func (c *Config) LoadDefaults() {
	c.DataDir = "journal-data"
	c.DatabaseFile = "journal.db"
	c.MediaBackend = "local"
	c.S3 = S3{Region: "us-east-1"}
	c.LogFile = "journal.log"
	c.LogLevel = "info"
	c.PageSize = 20
	c.SearchRefreshDelay = 750 * time.Millisecond
	c.InboxDir = ""
	c.CustomPrompts = nil
	c.Insight = Insight{BaseURL: "http://127.0.0.1:11434/v1"}
}

// LoadConfig applies defaults, then the JSON file named by -c/-config, then
// command-line flags. args excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
