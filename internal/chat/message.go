// Package chat owns the conversation with the recommendation backend: the ordered
// transcript, the in-flight query, and the word-by-word reveal of assistant answers.
package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/comigor/dermachat-go/internal/catalog"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. It is never modified after it is appended.
type Message struct {
	ID            string                `json:"id"`
	Role          Role                  `json:"role"`
	Content       string                `json:"content"`
	Timestamp     time.Time             `json:"timestamp"`
	SearchResults *catalog.SearchResult `json:"searchResults,omitempty"`
}

func newMessage(role Role, content string, res *catalog.SearchResult) Message {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return Message{
		ID:            id.String(),
		Role:          role,
		Content:       content,
		Timestamp:     time.Now(),
		SearchResults: res,
	}
}

// EventKind identifies what changed.
type EventKind int

const (
	EventMessageAppended EventKind = iota
	EventLoadingChanged
	EventRevealProgress
	EventRevealCleared
	EventProductsChanged
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventMessageAppended:
		return "message"
	case EventLoadingChanged:
		return "loading"
	case EventRevealProgress:
		return "reveal"
	case EventRevealCleared:
		return "reveal_cleared"
	case EventProductsChanged:
		return "products"
	case EventReset:
		return "reset"
	}
	return "unknown"
}

// Event is a change notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind     EventKind         `json:"-"`
	Message  *Message          `json:"message,omitempty"`
	Loading  bool              `json:"loading"`
	Partial  string            `json:"partial,omitempty"`
	Products []catalog.Product `json:"products,omitempty"`
}

// Observer receives events in the order they happened. It runs on the goroutine
// that caused the change and must not block or call back into mutating controller
// methods.
type Observer func(Event)

// ViewState is the shared presentation state next to the transcript.
type ViewState struct {
	Query             string            `json:"query"`
	CompareMode       bool              `json:"compareMode"`
	SelectedProduct   *catalog.Product  `json:"selectedProduct,omitempty"`
	ShowProductDetail bool              `json:"showProductDetail"`
	Products          []catalog.Product `json:"products"`
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	Phase          Phase     `json:"phase"`
	Loading        bool      `json:"loading"`
	Partial        string    `json:"partial"`
	Transcript     []Message `json:"messages"`
	KeyIngredients []string  `json:"keyIngredients"`
	View           ViewState `json:"view"`
}
