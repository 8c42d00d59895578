package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Pipeline struct {
		ResultTTLHours  int `yaml:"result_ttl_hours"`
		FailureTTLHours int `yaml:"failure_ttl_hours"`
	} `yaml:"pipeline"`
	News struct {
		TimeoutSeconds    int  `yaml:"timeout_seconds"`
		ScrapeFallback    bool `yaml:"scrape_fallback"`
		MaxReportArticles int  `yaml:"max_report_articles"`
	} `yaml:"news"`
	Reddit struct {
		Forums                   []string `yaml:"forums"`
		SearchLimit              int      `yaml:"search_limit"`
		SearchWindow             string   `yaml:"search_window"`
		MinSubmissionScore       int      `yaml:"min_submission_score"`
		MinCommentScore          int      `yaml:"min_comment_score"`
		MinCommentLength         int      `yaml:"min_comment_length"`
		MaxTextLength            int      `yaml:"max_text_length"`
		MaxCommentSubmissions    int      `yaml:"max_comment_submissions"`
		MaxCommentsPerSubmission int      `yaml:"max_comments_per_submission"`
		MaxItems                 int      `yaml:"max_items"`
	} `yaml:"reddit"`
	LLM struct {
		Provider          string `yaml:"provider"`
		Model             string `yaml:"model"`
		AnalysisMaxTokens int    `yaml:"analysis_max_tokens"`
		ReportMaxTokens   int    `yaml:"report_max_tokens"`
		MaxContextItems   int    `yaml:"max_context_items"`
	} `yaml:"llm"`
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr cannot be empty")
	}
	if len(c.Reddit.Forums) == 0 {
		return errors.New("reddit.forums cannot be empty")
	}
	if c.Pipeline.ResultTTLHours <= c.Pipeline.FailureTTLHours {
		return fmt.Errorf("pipeline.result_ttl_hours (%d) must exceed pipeline.failure_ttl_hours (%d)",
			c.Pipeline.ResultTTLHours, c.Pipeline.FailureTTLHours)
	}
	switch c.LLM.Provider {
	case "CLAUDE", "OPENAI", "NOOP":
	default:
		return fmt.Errorf("llm.provider must be 'CLAUDE', 'OPENAI' or 'NOOP', got '%s'", c.LLM.Provider)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

// Default returns a config with all defaults applied, without reading a file.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}
	if c.Pipeline.ResultTTLHours == 0 {
		c.Pipeline.ResultTTLHours = 24
	}
	if c.Pipeline.FailureTTLHours == 0 {
		c.Pipeline.FailureTTLHours = 1
	}
	if c.News.TimeoutSeconds == 0 {
		c.News.TimeoutSeconds = 10
	}
	if c.News.MaxReportArticles == 0 {
		c.News.MaxReportArticles = 30
	}
	if len(c.Reddit.Forums) == 0 {
		c.Reddit.Forums = []string{"wallstreetbets", "stocks", "investing"}
	}
	if c.Reddit.SearchLimit == 0 {
		c.Reddit.SearchLimit = 50
	}
	if c.Reddit.SearchWindow == "" {
		c.Reddit.SearchWindow = "month"
	}
	if c.Reddit.MinSubmissionScore == 0 {
		c.Reddit.MinSubmissionScore = 10
	}
	if c.Reddit.MinCommentScore == 0 {
		c.Reddit.MinCommentScore = 5
	}
	if c.Reddit.MinCommentLength == 0 {
		c.Reddit.MinCommentLength = 100
	}
	if c.Reddit.MaxTextLength == 0 {
		c.Reddit.MaxTextLength = 1000
	}
	if c.Reddit.MaxCommentSubmissions == 0 {
		c.Reddit.MaxCommentSubmissions = 30
	}
	if c.Reddit.MaxCommentsPerSubmission == 0 {
		c.Reddit.MaxCommentsPerSubmission = 5
	}
	if c.Reddit.MaxItems == 0 {
		c.Reddit.MaxItems = 100
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "CLAUDE"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "claude-sonnet-4-5-20250929"
	}
	if c.LLM.AnalysisMaxTokens == 0 {
		c.LLM.AnalysisMaxTokens = 4000
	}
	if c.LLM.ReportMaxTokens == 0 {
		c.LLM.ReportMaxTokens = 16000
	}
	if c.LLM.MaxContextItems == 0 {
		c.LLM.MaxContextItems = 50
	}
}
