// Package assistant answers open-ended skincare questions with an
// OpenAI-compatible model that can call the product tools.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/qmuntal/stateless"
	"github.com/sashabaranov/go-openai"

	"github.com/comigor/dermachat-go/internal/config"
	"github.com/comigor/dermachat-go/internal/llm"
	"github.com/comigor/dermachat-go/internal/logger"
	"github.com/comigor/dermachat-go/pkg/tools"
)

// State is a step of one Ask run.
type State string

var (
	StateIdle           State = "Idle"
	StateReadyToCallLLM State = "ReadyToCallLLM"
	StateExecutingTools State = "ExecutingTools"
	StateDone           State = "Done"  // terminal
	StateError          State = "Error" // terminal
)

type trigger string

const (
	triggerProcessInput            trigger = "ProcessInput"
	triggerLLMRespondedWithContent trigger = "LLMRespondedWithContent"
	triggerLLMRequestedTools       trigger = "LLMRequestedTools"
	triggerToolsExecutionCompleted trigger = "ToolsExecutionCompleted"
	triggerErrorOccurred           trigger = "ErrorOccurred"
)

const (
	defaultSystemPrompt = "You are a skincare shopping assistant. Look products up with the tools before recommending any, mention product ids so the user can open them, and keep answers short."
	defaultMaxTurns     = 5
)

// ErrMaxTurns is returned when the model keeps asking for tools past the turn limit.
var ErrMaxTurns = errors.New("exceeded maximum interaction turns")

// Assistant is the main assistant struct
type Assistant struct {
	llmClient llm.Client
	cfg       config.LLMConfig
	tools     *tools.ToolManager
	llmTools  []openai.Tool
}

// New creates an assistant that offers every tool in tm to the model.
func New(llmClient llm.Client, cfg config.LLMConfig, tm *tools.ToolManager) *Assistant {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = defaultMaxTurns
	}
	a := &Assistant{
		llmClient: llmClient,
		cfg:       cfg,
		tools:     tm,
	}
	for _, t := range tm.List() {
		a.llmTools = append(a.llmTools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  paramsSchema(t.Params()),
			},
		})
		logger.L.Debug("registered tool for LLM", "tool", t.Name())
	}
	return a
}

// paramsSchema renders tool params as a JSON schema object. Every param is a string.
func paramsSchema(params []tools.Param) json.RawMessage {
	props := make(map[string]any, len(params))
	required := make([]string, 0, len(params))
	for _, p := range params {
		props[p.Name] = map[string]any{"type": "string", "description": p.Description}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	b, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type": "object", "properties": {}}`)
	}
	return b
}

func (a *Assistant) systemPrompt() string {
	if a.cfg.SystemPrompt != "" {
		return a.cfg.SystemPrompt
	}
	return defaultSystemPrompt
}

// run is the state of one Ask call.
type run struct {
	messages     []openai.ChatCompletionMessage
	llmResponse  *openai.ChatCompletionResponse
	finalContent string
	lastError    error
	currentTurn  int
}

func newMachine() *stateless.StateMachine {
	sm := stateless.NewStateMachine(StateIdle)

	sm.Configure(StateIdle).
		Permit(triggerProcessInput, StateReadyToCallLLM)

	sm.Configure(StateReadyToCallLLM).
		Permit(triggerLLMRequestedTools, StateExecutingTools).
		Permit(triggerLLMRespondedWithContent, StateDone).
		Permit(triggerErrorOccurred, StateError)

	sm.Configure(StateExecutingTools).
		Permit(triggerToolsExecutionCompleted, StateReadyToCallLLM).
		Permit(triggerErrorOccurred, StateError)

	return sm
}

// Ask sends request to the model and keeps running the tools it asks for until it
// answers with plain content.
func (a *Assistant) Ask(ctx context.Context, request string) (string, error) {
	if strings.TrimSpace(request) == "" {
		return "", errors.New("empty request")
	}

	r := &run{messages: []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: a.systemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: request},
	}}

	sm := newMachine()
	next := triggerProcessInput
	for {
		if err := sm.FireCtx(ctx, next); err != nil {
			return "", fmt.Errorf("assistant state machine: %w", err)
		}

		state := sm.MustState().(State)
		logger.L.Debug("assistant state", "state", string(state), "turn", r.currentTurn)
		switch state {
		case StateReadyToCallLLM:
			next = a.callLLM(ctx, r)
		case StateExecutingTools:
			next = a.executeTools(ctx, r)
		case StateDone:
			return r.finalContent, nil
		case StateError:
			if r.lastError == nil {
				r.lastError = errors.New("assistant reached error state without a specific error")
			}
			return "", r.lastError
		default:
			return "", fmt.Errorf("assistant ended in an unexpected state: %v", state)
		}
	}
}

func (a *Assistant) callLLM(ctx context.Context, r *run) trigger {
	if r.currentTurn >= a.cfg.MaxTurns {
		logger.L.Warn("max interaction turns reached", "maxTurns", a.cfg.MaxTurns)
		r.lastError = ErrMaxTurns
		return triggerErrorOccurred
	}
	r.currentTurn++

	resp, err := a.llmClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    a.cfg.Model,
		Messages: r.messages,
		Tools:    a.llmTools,
	})
	if err != nil {
		logger.L.Error("LLM call failed", "error", err)
		r.lastError = fmt.Errorf("llm: %w", err)
		return triggerErrorOccurred
	}
	if len(resp.Choices) == 0 {
		r.lastError = errors.New("llm returned no choices")
		return triggerErrorOccurred
	}
	r.llmResponse = &resp

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		return triggerLLMRequestedTools
	}
	r.finalContent = msg.Content
	return triggerLLMRespondedWithContent
}

// executeTools runs every requested tool call. A failing tool becomes an error
// message for the model rather than failing the run.
func (a *Assistant) executeTools(ctx context.Context, r *run) trigger {
	msg := r.llmResponse.Choices[0].Message
	r.messages = append(r.messages, msg)

	for _, tc := range msg.ToolCalls {
		output, err := a.tools.Call(ctx, tc.Function.Name, tc.Function.Arguments)
		if err != nil {
			if ctx.Err() != nil {
				r.lastError = ctx.Err()
				return triggerErrorOccurred
			}
			logger.L.Warn("tool call failed", "tool", tc.Function.Name, "error", err)
			output = "Error: " + err.Error()
		}
		r.messages = append(r.messages, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    output,
			ToolCallID: tc.ID,
			Name:       tc.Function.Name,
		})
	}
	return triggerToolsExecutionCompleted
}
