package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comigor/dermachat-go/internal/catalog"
	"github.com/comigor/dermachat-go/internal/chat"
)

func TestAnswerPrinter_Reveal(t *testing.T) {
	var out bytes.Buffer
	p := &answerPrinter{w: &out}

	_, done := p.handle(chat.Event{Kind: chat.EventMessageAppended, Message: &chat.Message{Role: chat.RoleUser, Content: "acne"}})
	require.False(t, done)

	p.handle(chat.Event{Kind: chat.EventRevealProgress, Partial: "Great"})
	p.handle(chat.Event{Kind: chat.EventRevealProgress, Partial: "Great question!"})
	msg, done := p.handle(chat.Event{Kind: chat.EventMessageAppended, Message: &chat.Message{Role: chat.RoleAssistant, Content: "Great question!"}})

	require.True(t, done)
	require.Equal(t, "Great question!", msg.Content)
	require.Equal(t, "Great question!\n", out.String())
}

func TestAnswerPrinter_NoReveal(t *testing.T) {
	var out bytes.Buffer
	p := &answerPrinter{w: &out}

	_, done := p.handle(chat.Event{Kind: chat.EventMessageAppended, Message: &chat.Message{Role: chat.RoleAssistant, Content: chat.FallbackMessage}})
	require.True(t, done)
	require.Equal(t, chat.FallbackMessage+"\n", out.String())
}

func TestReadPassword(t *testing.T) {
	pw, err := readPassword(strings.NewReader("ignored\n"), io.Discard, "from-flag")
	require.NoError(t, err)
	require.Equal(t, "from-flag", pw)

	pw, err = readPassword(strings.NewReader("s3cret\r\n"), io.Discard, "")
	require.NoError(t, err)
	require.Equal(t, "s3cret", pw)

	pw, err = readPassword(strings.NewReader("no-newline"), io.Discard, "")
	require.NoError(t, err)
	require.Equal(t, "no-newline", pw)

	_, err = readPassword(strings.NewReader("\n"), io.Discard, "")
	require.Error(t, err)
}

func TestPrintValue(t *testing.T) {
	t.Cleanup(func() { outputFormat = "yaml" })
	v := map[string]any{"skin_type": "oily"}

	var out bytes.Buffer
	outputFormat = "yaml"
	require.NoError(t, printValue(&out, v))
	require.Equal(t, "skin_type: oily\n", out.String())

	out.Reset()
	outputFormat = "json"
	require.NoError(t, printValue(&out, v))
	require.JSONEq(t, `{"skin_type":"oily"}`, out.String())

	outputFormat = "xml"
	require.Error(t, printValue(&out, v))
}

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		product := map[string]any{
			"id": "p1", "brand": "Acme", "name": "Clear Gel",
			"price":     map[string]any{"mrp": 499, "sale": 349},
			"sourceUrl": "https://shop.example.com/p1",
		}
		var data any = map[string]any{}
		switch r.URL.Path {
		case "/api/search":
			data = map[string]any{
				"query":       "acne gel",
				"parsedQuery": map[string]any{"concern": "acne"},
				"products":    []any{product},
			}
		case "/api/products/p1":
			data = product
		case "/api/products/p1/videos":
			data = map[string]any{
				"productId": "p1",
				"videos": []any{map[string]any{
					"videoId": "v1", "channelTitle": "Dr. Skin", "videoUrl": "https://video.example.com/v1",
				}},
			}
		case "/api/search/popular":
			data = map[string]any{"searches": []string{"vitamin c serum", "niacinamide"}}
		case "/api/videos/products-summary":
			data = map[string]any{"p1": map[string]any{"videoCount": 1}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, backendURL string, extra ...string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`api:
  base_url: %s/api
logging:
  enabled: false
storage:
  session_path: %s
  history_path: %s
`, backendURL, filepath.Join(dir, "session.db"), filepath.Join(dir, "history.db")) + strings.Join(extra, "")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_PATH", path)
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestAskThenHistory(t *testing.T) {
	backend := fakeBackend(t)
	writeConfig(t, backend.URL)

	out := run(t, "ask", "--no-reveal", "acne", "gel")
	require.Contains(t, out, "Great question! I found 1 excellent products for acne.")
	require.Contains(t, out, "1. Acme Clear Gel [p1] ₹349")

	out = run(t, "history")
	require.Contains(t, out, "user:\nacne gel")
	require.Contains(t, out, "assistant:\nGreat question!")
}

func TestAssistantCommand(t *testing.T) {
	backend := fakeBackend(t)

	var calls int
	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req struct {
			Model string `json:"model"`
			Tools []any  `json:"tools"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "test-model", req.Model)
		require.Len(t, req.Tools, 4)

		calls++
		message := map[string]any{
			"role": "assistant",
			"tool_calls": []any{map[string]any{
				"id": "call_1", "type": "function",
				"function": map[string]any{"name": "search_products", "arguments": `{"query":"acne gel"}`},
			}},
		}
		if calls > 1 {
			message = map[string]any{"role": "assistant", "content": "Acme Clear Gel [p1] is a good start."}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      fmt.Sprintf("cmpl-%d", calls),
			"choices": []any{map[string]any{"index": 0, "message": message}},
		})
	}))
	t.Cleanup(model.Close)

	writeConfig(t, backend.URL, fmt.Sprintf("llm:\n  base_url: %s/v1\n  model: test-model\n", model.URL))

	out := run(t, "assistant", "something", "for", "acne")
	require.Equal(t, "Acme Clear Gel [p1] is a good start.\n", out)
	require.Equal(t, 2, calls)
}

func TestPopularCommand(t *testing.T) {
	writeConfig(t, fakeBackend(t).URL)

	out := run(t, "popular")
	require.Equal(t, " 1. vitamin c serum\n 2. niacinamide\n", out)
}

func TestProductBuyAndPlay(t *testing.T) {
	writeConfig(t, fakeBackend(t).URL)
	resetFlag := func(name string) {
		f := productCmd.Flags().Lookup(name)
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	}
	t.Cleanup(func() {
		resetFlag("buy")
		resetFlag("play")
	})

	out := run(t, "product", "p1", "--buy")
	require.Equal(t, "https://shop.example.com/p1\n", out)

	resetFlag("buy")
	out = run(t, "product", "p1", "--play", "v1")
	require.Equal(t, "https://video.example.com/v1\n", out)
}

func TestFindVideo(t *testing.T) {
	_, err := findVideo(nil, "v1")
	require.Error(t, err)

	videos := &catalog.ProductVideos{ProductID: "p1", Videos: []catalog.Video{{VideoID: "v1"}}}
	v, err := findVideo(videos, "v1")
	require.NoError(t, err)
	require.Equal(t, "v1", v.VideoID)

	_, err = findVideo(videos, "v9")
	require.ErrorContains(t, err, `no video "v9"`)
}

func TestWishlistAndVideosCommands(t *testing.T) {
	writeConfig(t, fakeBackend(t).URL)
	t.Cleanup(func() { outputFormat = "yaml" })

	out := run(t, "wishlist", "p1")
	require.Equal(t, "Added Acme Clear Gel to your wishlist.\n", out)

	out = run(t, "videos", "p1", "-o", "json")
	require.JSONEq(t, `{"p1":{"videoCount":1}}`, out)
}
