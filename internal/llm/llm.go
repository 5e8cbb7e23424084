package llm

import (
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/dermachat-go/internal/config"
)

// NewClient creates a new OpenAI-compatible client. Any server speaking the chat
// completions API works, selected by cfg.BaseURL.
func NewClient(cfg config.LLMConfig, timeout time.Duration) *openai.Client {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	if timeout > 0 {
		c.HTTPClient = &http.Client{Timeout: timeout}
	}
	return openai.NewClientWithConfig(c)
}
