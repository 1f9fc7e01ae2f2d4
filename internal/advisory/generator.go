package advisory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/leiwu/speiwatch/internal/metrics"
	"github.com/leiwu/speiwatch/internal/raster"
	"github.com/leiwu/speiwatch/internal/stats"
)

const systemPrompt = "You are a drought monitoring analyst. Write a short, plain-language " +
	"advisory for regional water managers based on the figures provided. " +
	"Two paragraphs at most. Do not invent numbers; only restate and " +
	"interpret the ones given."

// Generator produces an optional natural-language advisory for a report.
// It supplements the deterministic narrative and never replaces it: when
// generation fails or no key is configured, pages simply show the built-in
// narrative alone.
type Generator struct {
	client openai.Client
	model  openai.ChatModel
}

// NewGenerator reads OPENAI_API_KEY for authentication. The service runs
// without advisories when the key is absent; callers treat the error as
// "feature off", not a startup failure.
func NewGenerator() (*Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Generator{
		client: client,
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

// Generate writes an advisory for the given period and report.
func (g *Generator) Generate(ctx context.Context, p raster.Period, rep stats.Report) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(p, rep)),
		},
	})
	if err != nil {
		metrics.AdvisoryRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("advisory generation failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.AdvisoryRequestsTotal.WithLabelValues("empty").Inc()
		return "", errors.New("no advisory text returned")
	}

	metrics.AdvisoryRequestsTotal.WithLabelValues("ok").Inc()
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// buildPrompt lays out the report figures for the model. Only numbers from
// the deterministic report go in, so the advisory cannot contradict the
// page it sits on.
func buildPrompt(p raster.Period, rep stats.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Region: %s\n", rep.Region)
	fmt.Fprintf(&b, "Period: %04d-%02d at accumulation scale %s months\n", p.Year, p.Month, p.Scale)
	fmt.Fprintf(&b, "Monitored area: %.2f ten-thousand km2\n", rep.TotalArea)
	fmt.Fprintf(&b, "Area under drought: %.2f ten-thousand km2 (%.1f%%)\n", rep.HazardArea, rep.HazardPct)
	b.WriteString("Severity breakdown:\n")
	for _, ba := range rep.Breakdown {
		if ba.Area == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s: %.2f ten-thousand km2 (%.1f%%)\n", ba.Label, ba.Area, ba.Pct)
	}
	if rep.Worst != nil {
		fmt.Fprintf(&b, "Most affected subregion: %s with %.2f ten-thousand km2 under drought (%.1f%%)\n",
			rep.Worst.Region, rep.Worst.HazardArea, rep.Worst.HazardPct)
	}
	return b.String()
}
