package chat

import (
	"strings"
	"time"
)

// reveal is the state of one word-by-word display.
type reveal struct {
	words    []string
	revealed int
	pending  Message
	stop     chan struct{}
}

// BeginReveal shows text one word at a time and appends it as an assistant message
// once every word is visible. A reveal already running is stopped and its message
// appended first.
func (c *Controller) BeginReveal(text string) {
	c.locked(func() {
		if c.phaseLocked() == PhaseClosed {
			return
		}
		m := newMessage(RoleAssistant, text, nil)
		if c.interval <= 0 {
			c.stopRevealLocked(true)
			c.appendLocked(m)
			return
		}
		c.beginRevealLocked(m)
	})
}

func (c *Controller) beginRevealLocked(m Message) {
	c.stopRevealLocked(true)
	c.stopClearLocked()
	c.partial = ""

	r := &reveal{
		words:   strings.Split(m.Content, " "),
		pending: m,
		stop:    make(chan struct{}),
	}
	c.reveal = r
	c.fireLocked(triggerReveal)

	ticker := time.NewTicker(c.interval)
	c.wg.Add(1)
	go c.runReveal(r, ticker)
}

func (c *Controller) runReveal(r *reveal, ticker *time.Ticker) {
	defer c.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			done := false
			c.locked(func() { done = c.tickLocked(r) })
			if done {
				return
			}
		}
	}
}

// tickLocked reveals the next word, or finishes the reveal when none are left. It
// reports whether the ticker goroutine should exit.
func (c *Controller) tickLocked(r *reveal) bool {
	if c.reveal != r {
		return true
	}
	if r.revealed < len(r.words) {
		r.revealed++
		c.partial = strings.Join(r.words[:r.revealed], " ")
		c.emitLocked(Event{Kind: EventRevealProgress, Partial: c.partial})
		return false
	}

	c.reveal = nil
	close(r.stop)
	c.appendLocked(r.pending)
	c.scheduleClearLocked()
	c.fireLocked(triggerRevealFinished)
	c.drainQueueLocked()
	return true
}

// stopRevealLocked cancels the active reveal, if any. With flush set its message is
// appended to the transcript.
func (c *Controller) stopRevealLocked(flush bool) {
	r := c.reveal
	if r == nil {
		return
	}
	c.reveal = nil
	close(r.stop)
	if flush {
		c.appendLocked(r.pending)
	}
	c.partial = ""
}

func (c *Controller) scheduleClearLocked() {
	c.stopClearLocked()
	var t *time.Timer
	t = time.AfterFunc(c.clearDelay, func() {
		c.locked(func() {
			if c.clearTimer != t {
				return
			}
			c.clearTimer = nil
			c.partial = ""
			c.emitLocked(Event{Kind: EventRevealCleared})
		})
	})
	c.clearTimer = t
}

func (c *Controller) stopClearLocked() {
	if c.clearTimer != nil {
		c.clearTimer.Stop()
		c.clearTimer = nil
	}
}
