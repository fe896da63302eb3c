package openai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const explainerPrompt = `You explain the result of a comparison between holding a traditional stock and holding its tokenized version in a liquidity pool. The tokenized holding tracks the stock price and also earns a share of the pool's trading fees, proportional to the investor's share of the pool TVL (capped at the whole pool).

You will receive a markdown report with the figures. Your response must follow this structure:

**What happened:**
[One or two sentences on the price move and both returns]

**Where the fees come from:**
[Pool share, fees for the period and how much of them the investor claims]

**Caveats:**
[Fees are estimated from recent pool activity and spread evenly over the period; smart-contract and liquidity risks; past returns are not a forecast]

Guidelines:
- Use only the numbers in the report, never invent figures
- Be concise, plain text with bullet points where useful
- Do not give investment advice`

// Explainer narrates a comparison report in plain language.
type Explainer struct {
	cli   oa.Client
	model oa.ChatModel
}

func NewExplainer(apiKey string, opts ...option.RequestOption) *Explainer {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Explainer{cli: oa.NewClient(opts...), model: oa.ChatModelGPT4}
}

func (e *Explainer) Explain(ctx context.Context, report string) (string, error) {
	report = sanitizeReport(report)
	if report == "" {
		return "", fmt.Errorf("empty report")
	}

	resp, err := e.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: e.model,
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(explainerPrompt),
			oa.UserMessage(buildUserPrompt(report)),
		},
		MaxTokens: oa.Int(800), // Limit response length for telegram
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildUserPrompt(report string) string {
	return "Explain this comparison to a retail investor:\n\n" + report
}

var (
	reMarkdownImg = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`) // ![alt](url)
	reURL         = regexp.MustCompile(`https?://\S+`)
)

// sanitizeReport strips images and links and caps the length sent upstream.
func sanitizeReport(report string) string {
	text := reMarkdownImg.ReplaceAllString(report, "")
	text = reURL.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	if len(text) > 6000 {
		text = text[:6000]
	}
	return text
}
