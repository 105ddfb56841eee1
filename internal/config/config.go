package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config carries every construction input the crawl manager needs: crawl
// scope and limits, the politeness/backoff knobs of pkg/limiter and
// pkg/retry, and the fetch parameters applied to every request.
type Config struct {
	//===============
	//  Crawl scope
	//===============
	// The single seed URL the crawl starts from; every enqueued URL must
	// share its authority.
	baseURL url.URL

	//===============
	// Limits
	//===============
	// Maximum number of hyperlink hops from the seed URL.
	maxDepth int
	// Number of worker goroutines processing frontier entries concurrently.
	threads int

	//===============
	// Politeness
	//===============
	// Minimum, fixed waiting time enforced between two requests to the same host.
	baseDelay time.Duration
	// Randomized variation added on top of the base delay.
	jitter time.Duration
	// Seeds the limiter's random number generator.
	randomSeed int64
	// Maximum attempts during fetch retry.
	maxAttempt int
	// Initial delay for exponential backoff.
	backoffInitialDuration time.Duration
	// Multiplier applied on each backoff step.
	backoffMultiplier float64
	// Capped maximum delay for backoff.
	backoffMaxDuration time.Duration

	//===============
	// Fetch
	//===============
	// Maximum time allotted to a single fetch attempt; each retry attempt
	// gets its own timeout.
	timeout time.Duration
	// User agent sent on every request (fetch, robots.txt, sitemap.xml).
	userAgent string
}

type configDTO struct {
	BaseURL                url.URL       `json:"baseUrl"`
	MaxDepth               int           `json:"maxDepth,omitempty"`
	Threads                int           `json:"threads,omitempty"`
	BaseDelay              time.Duration `json:"baseDelay,omitempty"`
	Jitter                 time.Duration `json:"jitter,omitempty"`
	RandomSeed             int64         `json:"randomSeed,omitempty"`
	MaxAttempt             int           `json:"maxAttempt,omitempty"`
	BackoffInitialDuration time.Duration `json:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64       `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     time.Duration `json:"backoffMaxDuration,omitempty"`
	Timeout                time.Duration `json:"timeout,omitempty"`
	UserAgent              string        `json:"userAgent,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	cfg, err := WithDefault(dto.BaseURL).Build()
	if err != nil {
		return Config{}, err
	}

	if dto.MaxDepth != 0 {
		cfg.maxDepth = dto.MaxDepth
	}
	if dto.Threads != 0 {
		cfg.threads = dto.Threads
	}
	if dto.BaseDelay != 0 {
		cfg.baseDelay = dto.BaseDelay
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}

	return cfg, nil
}

// WithConfigFile loads a Config from a JSON file, falling back to defaults
// for any field the file omits.
func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	if err := json.Unmarshal(configContent, &cfgDTO); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg, err := newConfigFromDTO(cfgDTO)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithDefault creates a new Config builder seeded with baseURL and default
// values for every other field.
func WithDefault(baseURL url.URL) *Config {
	defaultConfig := Config{
		baseURL:                baseURL,
		maxDepth:               3,
		threads:                10,
		baseDelay:              0,
		jitter:                 0,
		randomSeed:             1,
		maxAttempt:             3,
		backoffInitialDuration: 1 * time.Second,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     30 * time.Second,
		timeout:                10 * time.Second,
		userAgent:              "seo-crawler/1.0",
	}
	return &defaultConfig
}

func (c *Config) WithBaseURL(baseURL url.URL) *Config {
	c.baseURL = baseURL
	return c
}

func (c *Config) WithMaxDepth(depth int) *Config {
	c.maxDepth = depth
	return c
}

func (c *Config) WithThreads(threads int) *Config {
	c.threads = threads
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

// Build validates the accumulated Config and returns it by value.
func (c *Config) Build() (Config, error) {
	if c.baseURL.Host == "" {
		return Config{}, fmt.Errorf("%w: baseUrl must be an absolute URL", ErrInvalidConfig)
	}
	if c.maxDepth < 0 {
		return Config{}, fmt.Errorf("%w: maxDepth must be >= 0", ErrInvalidConfig)
	}
	if c.threads < 1 {
		return Config{}, fmt.Errorf("%w: threads must be >= 1", ErrInvalidConfig)
	}
	return *c, nil
}

func (c Config) BaseURL() url.URL {
	return c.baseURL
}

func (c Config) MaxDepth() int {
	return c.maxDepth
}

func (c Config) Threads() int {
	return c.threads
}

func (c Config) BaseDelay() time.Duration {
	return c.baseDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}
