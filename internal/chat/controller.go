package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/qmuntal/stateless"

	"github.com/comigor/dermachat-go/internal/catalog"
	"github.com/comigor/dermachat-go/internal/logger"
)

const (
	DefaultRevealInterval = 80 * time.Millisecond
	DefaultClearDelay     = 100 * time.Millisecond
)

var errNoResult = errors.New("search returned no result")

// Searcher runs a free-text product search.
type Searcher interface {
	Search(ctx context.Context, query string) (*catalog.SearchResult, error)
}

// Tracker receives completed searches for analytics. Implementations must not block.
type Tracker interface {
	Search(query string, resultsCount int, filters map[string]any)
}

// Recorder persists appended messages.
type Recorder interface {
	Record(ctx context.Context, sessionID string, m Message) error
}

// Controller is a single chat session.
type Controller struct {
	searcher   Searcher
	interval   time.Duration
	clearDelay time.Duration
	log        *slog.Logger
	observers  []Observer
	tracker    Tracker
	recorder   Recorder
	sessionID  string

	mu             sync.Mutex
	fsm            *stateless.StateMachine
	transcript     []Message
	loading        bool
	queue          []string
	keyIngredients []string
	view           ViewState
	partial        string
	reveal         *reveal
	clearTimer     *time.Timer
	gen            uint64
	cancelSearch   context.CancelFunc
	pending        []Event

	// dispatchMu keeps observer delivery in the order events were produced.
	dispatchMu sync.Mutex
	wg         sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithRevealInterval sets the delay between revealed words. A non-positive interval
// appends answers directly.
func WithRevealInterval(d time.Duration) Option {
	return func(c *Controller) { c.interval = d }
}

// WithClearDelay sets how long the finished partial text stays visible.
func WithClearDelay(d time.Duration) Option {
	return func(c *Controller) { c.clearDelay = d }
}

// WithLogger replaces the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithObserver registers an event observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, o) }
}

// WithTracker reports completed searches to t.
func WithTracker(t Tracker) Option {
	return func(c *Controller) { c.tracker = t }
}

// WithRecorder persists every appended message under sessionID.
func WithRecorder(r Recorder, sessionID string) Option {
	return func(c *Controller) {
		c.recorder = r
		c.sessionID = sessionID
	}
}

// WithTranscript seeds the transcript, for resumed sessions.
func WithTranscript(msgs []Message) Option {
	return func(c *Controller) { c.transcript = slices.Clone(msgs) }
}

// New creates an idle controller.
func New(searcher Searcher, opts ...Option) *Controller {
	c := &Controller{
		searcher:   searcher,
		interval:   DefaultRevealInterval,
		clearDelay: DefaultClearDelay,
		log:        logger.L,
		view:       ViewState{Products: []catalog.Product{}},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.fsm = c.newPhaseMachine()
	return c
}

// SubmitQuery appends text as a user message and searches for it. Blank input is
// ignored and reports false. While a search or reveal is running the query waits
// its turn.
func (c *Controller) SubmitQuery(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	accepted := false
	c.locked(func() {
		phase := c.phaseLocked()
		if phase == PhaseClosed {
			return
		}
		accepted = true
		c.appendLocked(newMessage(RoleUser, text, nil))
		c.view.Query = text
		if phase == PhaseIdle {
			c.startSearchLocked(text)
			return
		}
		c.queue = append(c.queue, text)
		c.log.Debug("query queued", "pending", len(c.queue), "phase", string(phase))
	})
	return accepted
}

func (c *Controller) startSearchLocked(query string) {
	ctx, cancel := context.WithCancel(context.Background())
	c.gen++
	gen := c.gen
	c.cancelSearch = cancel
	c.fireLocked(triggerSubmit)

	c.wg.Add(1)
	go c.runSearch(ctx, gen, query)
}

func (c *Controller) runSearch(ctx context.Context, gen uint64, query string) {
	defer c.wg.Done()

	res, err := func() (res *catalog.SearchResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("search panicked: %v", r)
			}
		}()
		return c.searcher.Search(ctx, query)
	}()
	if err == nil && res == nil {
		err = errNoResult
	}

	tracked := false
	c.locked(func() {
		if gen != c.gen {
			c.log.Debug("dropping stale search result", "query", query)
			return
		}
		c.cancelSearch()
		c.cancelSearch = nil

		if err != nil {
			c.log.Error("search failed", "query", query, "error", err)
			c.appendLocked(newMessage(RoleAssistant, FallbackMessage, nil))
			c.fireLocked(triggerSearchFailed)
			c.drainQueueLocked()
			return
		}

		tracked = true
		c.view.Products = res.Products
		c.keyIngredients = KeyIngredients(res.Products)
		c.emitLocked(Event{Kind: EventProductsChanged, Products: slices.Clone(res.Products)})

		answer := newMessage(RoleAssistant, Summarize(res), res)
		if c.interval <= 0 {
			c.appendLocked(answer)
			c.fireLocked(triggerSearchSucceeded)
			c.drainQueueLocked()
			return
		}
		c.beginRevealLocked(answer)
	})

	if tracked && c.tracker != nil {
		c.tracker.Search(query, len(res.Products), res.Filters())
	}
}

// drainQueueLocked starts the next queued query once the controller is idle.
func (c *Controller) drainQueueLocked() {
	if len(c.queue) == 0 || c.phaseLocked() != PhaseIdle {
		return
	}
	next := c.queue[0]
	c.queue = c.queue[1:]
	c.startSearchLocked(next)
}

func (c *Controller) setLoadingLocked(v bool) {
	if c.loading == v {
		return
	}
	c.loading = v
	c.emitLocked(Event{Kind: EventLoadingChanged, Loading: v})
}

func (c *Controller) appendLocked(m Message) {
	c.transcript = append(c.transcript, m)
	c.emitLocked(Event{Kind: EventMessageAppended, Message: &m})
}

func (c *Controller) emitLocked(e Event) {
	c.pending = append(c.pending, e)
}

// locked runs fn under the state lock and then delivers the events it produced.
func (c *Controller) locked(fn func()) {
	c.mu.Lock()
	fn()
	events := c.pending
	c.pending = nil
	c.dispatchMu.Lock()
	c.mu.Unlock()
	defer c.dispatchMu.Unlock()

	for _, e := range events {
		if e.Kind == EventMessageAppended && c.recorder != nil {
			if err := c.recorder.Record(context.Background(), c.sessionID, *e.Message); err != nil {
				c.log.Warn("failed to record message", "error", err)
			}
		}
		for _, o := range c.observers {
			o(e)
		}
	}
}

// Teardown stops the reveal, the pending clear and any in-flight search. Results
// arriving afterwards are dropped. Calling it again does nothing.
func (c *Controller) Teardown() {
	c.locked(func() {
		c.fireLocked(triggerTeardown)
	})
}

// releaseLocked frees every owned timer and cancels the search. A reveal in
// progress is flushed so its answer is not lost.
func (c *Controller) releaseLocked() {
	c.stopRevealLocked(true)
	c.stopClearLocked()
	if c.cancelSearch != nil {
		c.cancelSearch()
		c.cancelSearch = nil
	}
	c.gen++
	c.queue = nil
	c.setLoadingLocked(false)
}

// Wait blocks until the search and reveal goroutines have exited. Call it after
// Teardown.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Reset clears the transcript and the view state and abandons any work in flight.
func (c *Controller) Reset() {
	c.locked(func() {
		if c.phaseLocked() == PhaseClosed {
			return
		}
		c.stopRevealLocked(false)
		c.stopClearLocked()
		if c.cancelSearch != nil {
			c.cancelSearch()
			c.cancelSearch = nil
		}
		c.gen++
		c.queue = nil
		c.fireLocked(triggerReset)
		c.transcript = nil
		c.keyIngredients = nil
		c.partial = ""
		c.view = ViewState{Products: []catalog.Product{}}
		c.emitLocked(Event{Kind: EventReset})
	})
}

// SetQuery records the text currently in the input box.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Query = q
}

// ToggleCompareMode flips the compare view.
func (c *Controller) ToggleCompareMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.CompareMode = !c.view.CompareMode
	return c.view.CompareMode
}

// SelectProduct marks p as selected; nil clears the selection.
func (c *Controller) SelectProduct(p *catalog.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p == nil {
		c.view.SelectedProduct = nil
		return
	}
	cp := *p
	c.view.SelectedProduct = &cp
}

// ToggleProductDetail flips the product detail view.
func (c *Controller) ToggleProductDetail() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.ShowProductDetail = !c.view.ShowProductDetail
	return c.view.ShowProductDetail
}

// Transcript returns a copy of the messages appended so far.
func (c *Controller) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.transcript)
}

// Loading reports whether a search is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phaseLocked()
}

// Partial returns the text revealed so far.
func (c *Controller) Partial() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.partial
}

// Products returns the products of the latest successful search.
func (c *Controller) Products() []catalog.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.view.Products)
}

// KeyIngredients returns the distinct ingredients of the latest products.
func (c *Controller) KeyIngredients() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.keyIngredients)
}

// ActiveTimers counts recurring reveal timers currently running (0 or 1).
func (c *Controller) ActiveTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reveal != nil {
		return 1
	}
	return 0
}

// State returns a consistent snapshot.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := c.view
	view.Products = slices.Clone(c.view.Products)
	return Snapshot{
		Phase:          c.phaseLocked(),
		Loading:        c.loading,
		Partial:        c.partial,
		Transcript:     slices.Clone(c.transcript),
		KeyIngredients: slices.Clone(c.keyIngredients),
		View:           view,
	}
}
