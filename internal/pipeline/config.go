package pipeline

import (
	"fmt"
	"time"

	"riskeval/internal/common/config"
)

// Config holds the runtime settings of the evaluation pipeline.
type Config struct {
	// Concurrency bounds how many ratio stages run in parallel during phase
	// one, to respect the generation service's rate limits.
	Concurrency int

	// StageTimeout bounds one stage execution including retries.
	StageTimeout time.Duration

	// MaxRetries is the number of additional attempts after a transport
	// failure. Validation failures are never retried.
	MaxRetries int

	// DegradedThreshold is how many degraded ratio stages force the
	// conservative INTERMEDIO/50 aggregate.
	DegradedThreshold int

	// DocumentExcerpt caps how many characters of the document feed each
	// stage prompt.
	DocumentExcerpt int

	// ExecutiveSummary enables the free-text summary generation after
	// aggregation.
	ExecutiveSummary bool

	// StrictSchemas degrades stages whose valid JSON payload fails the
	// category's type schema.
	StrictSchemas bool
}

func DefaultConfig() *Config {
	return &Config{
		Concurrency:       3,
		StageTimeout:      45 * time.Second,
		MaxRetries:        1,
		DegradedThreshold: 2,
		DocumentExcerpt:   1500,
		ExecutiveSummary:  true,
		StrictSchemas:     false,
	}
}

// FromAppConfig converts the application-level config section.
func FromAppConfig(pc config.PipelineConfig) *Config {
	return &Config{
		Concurrency:       pc.Concurrency,
		StageTimeout:      time.Duration(pc.StageTimeout) * time.Millisecond,
		MaxRetries:        pc.MaxRetries,
		DegradedThreshold: pc.DegradedThreshold,
		DocumentExcerpt:   pc.DocumentExcerpt,
		ExecutiveSummary:  pc.ExecutiveSummary,
		StrictSchemas:     pc.StrictSchemas,
	}
}

func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.StageTimeout <= 0 {
		return fmt.Errorf("stage_timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.DegradedThreshold <= 0 {
		return fmt.Errorf("degraded_threshold must be positive")
	}
	if c.DocumentExcerpt <= 0 {
		return fmt.Errorf("document_excerpt must be positive")
	}
	return nil
}
