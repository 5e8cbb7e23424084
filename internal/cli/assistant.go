package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/comigor/dermachat-go/internal/assistant"
	"github.com/comigor/dermachat-go/internal/llm"
	"github.com/comigor/dermachat-go/pkg/tools"
)

var assistantModel string

var assistantCmd = &cobra.Command{
	Use:   "assistant <question>",
	Short: "Ask an LLM that can search and compare products",
	Long: `Ask an open-ended question to an OpenAI-compatible model. The model can call
the same tools the MCP server exposes: product search, comparison, creator
videos and profile completion.

Configure the endpoint under "llm" in config.yaml or with DERMACHAT_LLM_*
environment variables.

Examples:
  dermachat assistant "which of the niacinamide serums is gentlest?"
  DERMACHAT_LLM_BASE_URL=http://localhost:11434/v1 dermachat assistant --model llama3.1 "routine for oily skin"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		llmCfg := cfg.LLM
		if assistantModel != "" {
			llmCfg.Model = assistantModel
		}
		if llmCfg.Model == "" {
			return errors.New("no model configured: set llm.model or pass --model")
		}

		a := assistant.New(
			llm.NewClient(llmCfg, cfg.API.Timeout),
			llmCfg,
			tools.NewDefaultManager(newClient(nil)),
		)
		answer, err := a.Ask(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("assistant: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

func init() {
	assistantCmd.Flags().StringVarP(&assistantModel, "model", "m", "", "model name (default: llm.model)")
}
