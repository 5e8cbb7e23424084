package chat

import (
	"context"

	"github.com/qmuntal/stateless"
)

// Phase is the controller state.
type Phase string

const (
	PhaseIdle      Phase = "Idle"
	PhaseLoading   Phase = "Loading"
	PhaseStreaming Phase = "Streaming"
	PhaseClosed    Phase = "Closed"
)

type trigger string

const (
	triggerSubmit          trigger = "Submit"
	triggerSearchSucceeded trigger = "SearchSucceeded"
	triggerSearchFailed    trigger = "SearchFailed"
	triggerReveal          trigger = "Reveal"
	triggerRevealFinished  trigger = "RevealFinished"
	triggerReset           trigger = "Reset"
	triggerTeardown        trigger = "Teardown"
)

// newPhaseMachine wires the phase transitions. Actions run inside Fire, which the
// controller only calls with c.mu held, so they must not lock.
func (c *Controller) newPhaseMachine() *stateless.StateMachine {
	sm := stateless.NewStateMachine(PhaseIdle)

	sm.Configure(PhaseIdle).
		Permit(triggerSubmit, PhaseLoading).
		Permit(triggerReveal, PhaseStreaming).
		PermitReentry(triggerReset).
		Permit(triggerTeardown, PhaseClosed).
		Ignore(triggerSearchSucceeded).
		Ignore(triggerSearchFailed).
		Ignore(triggerRevealFinished)

	sm.Configure(PhaseLoading).
		OnEntry(func(_ context.Context, _ ...any) error {
			c.setLoadingLocked(true)
			return nil
		}).
		OnExit(func(_ context.Context, _ ...any) error {
			c.setLoadingLocked(false)
			return nil
		}).
		Permit(triggerSearchSucceeded, PhaseIdle).
		Permit(triggerSearchFailed, PhaseIdle).
		Permit(triggerReveal, PhaseStreaming).
		Permit(triggerReset, PhaseIdle).
		Permit(triggerTeardown, PhaseClosed).
		Ignore(triggerRevealFinished)

	sm.Configure(PhaseStreaming).
		PermitReentry(triggerReveal).
		Permit(triggerRevealFinished, PhaseIdle).
		Permit(triggerReset, PhaseIdle).
		Permit(triggerTeardown, PhaseClosed).
		Ignore(triggerSearchSucceeded).
		Ignore(triggerSearchFailed)

	sm.Configure(PhaseClosed).
		OnEntry(func(_ context.Context, _ ...any) error {
			c.releaseLocked()
			return nil
		}).
		Ignore(triggerSubmit).
		Ignore(triggerSearchSucceeded).
		Ignore(triggerSearchFailed).
		Ignore(triggerReveal).
		Ignore(triggerRevealFinished).
		Ignore(triggerReset).
		Ignore(triggerTeardown)

	return sm
}

// fireLocked fires t and logs a rejected transition instead of failing the caller.
func (c *Controller) fireLocked(t trigger) {
	if err := c.fsm.Fire(t); err != nil {
		c.log.Warn("phase transition rejected", "trigger", string(t), "phase", string(c.phaseLocked()), "error", err)
	}
}

func (c *Controller) phaseLocked() Phase {
	return c.fsm.MustState().(Phase)
}
