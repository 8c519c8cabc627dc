// Package advisor produces an optional LLM-generated remediation plan for
// the findings of a scan. One generation call per run; failures are
// reported to the caller, who treats them as non-fatal.
package advisor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	oai "github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/openai/openai-go/option"

	"github.com/juparave/tfgitsec/internal/config"
	"github.com/juparave/tfgitsec/internal/domain"
)

// Advisor generates remediation advice using an LLM
type Advisor struct {
	config  config.AdvisorConfig
	genkit  *genkit.Genkit
	modelID string
}

// New creates a new Advisor for the configured provider
func New(cfg config.AdvisorConfig) (*Advisor, error) {
	ctx := context.Background()

	var g *genkit.Genkit
	var modelID string

	switch cfg.Provider {
	case "openai":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}

		// Build options for custom base URL
		var opts []option.RequestOption
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}

		plugin := &oai.OpenAI{
			APIKey: apiKey,
			Opts:   opts,
		}

		modelID = cfg.Model
		if modelID == "" {
			modelID = "gpt-4o-mini"
		}
		// Prefix with openai/ for Genkit
		if !strings.Contains(modelID, "/") {
			modelID = "openai/" + modelID
		}

		g = genkit.Init(ctx,
			genkit.WithDefaultModel(modelID),
			genkit.WithPlugins(plugin),
		)

	case "googleai":
		fallthrough
	default:
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
			if apiKey == "" {
				apiKey = os.Getenv("GOOGLE_API_KEY")
			}
		}

		modelID = cfg.Model
		if modelID == "" {
			modelID = "gemini-2.0-flash"
		}
		// Prefix with googleai/ for Genkit
		if !strings.Contains(modelID, "/") {
			modelID = "googleai/" + modelID
		}

		g = genkit.Init(ctx,
			genkit.WithDefaultModel(modelID),
			genkit.WithPlugins(&googlegenai.GoogleAI{
				APIKey: apiKey,
			}),
		)
	}

	return &Advisor{
		config:  cfg,
		genkit:  g,
		modelID: modelID,
	}, nil
}

// Advise returns a short prioritized remediation plan for the findings
func (a *Advisor) Advise(ctx context.Context, findings []domain.Finding) (string, error) {
	if len(findings) == 0 {
		return "", nil
	}

	prompt := a.buildPrompt(findings)

	answer, err := genkit.GenerateText(ctx, a.genkit,
		ai.WithModelName(a.modelID),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("generating advice: %w", err)
	}

	return strings.TrimSpace(answer), nil
}

func (a *Advisor) buildPrompt(findings []domain.Finding) string {
	var sb strings.Builder

	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n## Current Findings\n\n")

	for _, f := range findings {
		sb.WriteString(fmt.Sprintf("### %s (%s)\n", f.RuleID, f.Severity))
		sb.WriteString(fmt.Sprintf("- Rule: %s\n", f.RuleDescription))
		sb.WriteString(fmt.Sprintf("- Resource: %s (%s:%s)\n", f.Resource, f.Location.Basename(), f.Location.LineRange()))
		if f.Impact != "" {
			sb.WriteString(fmt.Sprintf("- Impact: %s\n", f.Impact))
		}
		if f.Resolution != "" {
			sb.WriteString(fmt.Sprintf("- Suggested resolution: %s\n", f.Resolution))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(outputInstructions)

	return sb.String()
}

const systemPrompt = `You are a senior cloud security engineer reviewing the findings of a Terraform static security scan. Your role is to help the team decide what to fix first and how.

## Your Principles

1. **Prioritize by blast radius** - Public exposure and data loss risks come before hygiene issues.
2. **Group related findings** - Several findings on the same resource usually share one fix.
3. **Be concrete** - Name the Terraform attributes to change, not just the goal.
4. **Stay brief** - The team reads this in an issue tracker, not a report.`

const outputInstructions = `
## Required Output

Write a short remediation plan in plain text (no markdown headers):
- Start with one sentence summarizing the overall risk posture.
- Then list at most five prioritized remediation steps, most urgent first.
- Each step: what to change, which resources it covers, and why it matters.

Respond ONLY with the plan, no additional commentary.`
