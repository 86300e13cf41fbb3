package knowledge

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/rkeerthivasan/estateline/internal/index"
	"github.com/rkeerthivasan/estateline/models"
	"github.com/rkeerthivasan/estateline/provider"
)

// Route says which source answers a query.
type Route string

const (
	RouteProfile Route = "profile"
	RouteGeneral Route = "general"
)

// Fixed fallback replies. External-call failures never propagate past the
// engine; callers always get speakable text.
const (
	FallbackNoData     = "Sorry, I couldn't find relevant data right now. But I can connect you to a senior advisor!"
	FallbackNoProfile  = "Sorry, I couldn't load our company profile, but I can connect you to a senior advisor."
	FallbackEscalation = "I understand. Let me connect you with a senior advisor who can provide detailed information."
)

// Searcher is the retrieval half of the engine. Both *index.Index and
// *index.Hybrid satisfy it.
type Searcher interface {
	Search(ctx context.Context, query string, embedder index.Embedder, k int) ([]models.SearchHit, error)
}

// Engine answers free-text market questions. Identity and company-fact
// queries are answered from the trusted profile document alone; everything
// else goes through similarity search plus generation.
type Engine struct {
	searcher Searcher
	llm      provider.Provider
	profile  string
	brand    string
	topK     int
	triggers []string
	logger   *log.Logger
}

// NewEngine builds the engine. brand is matched (lower-cased) as a profile
// trigger alongside the fixed keyword set.
func NewEngine(searcher Searcher, llm provider.Provider, profile, brand string, topK int, logger *log.Logger) *Engine {
	if topK < 1 {
		topK = 2
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[KNOW] ", log.LstdFlags)
	}
	triggers := []string{"company", "founder", "ceo", "head office", "headquarters", "who are you", "contact"}
	if b := strings.ToLower(strings.TrimSpace(brand)); b != "" {
		triggers = append(triggers, b)
	}
	return &Engine{
		searcher: searcher,
		llm:      llm,
		profile:  profile,
		brand:    brand,
		topK:     topK,
		triggers: triggers,
		logger:   logger,
	}
}

// RouteQuery decides between the profile-only path and general retrieval.
// Trigger keywords are matched case-insensitively as substrings.
func (e *Engine) RouteQuery(query string) Route {
	q := strings.ToLower(query)
	for _, t := range e.triggers {
		if strings.Contains(q, t) {
			return RouteProfile
		}
	}
	return RouteGeneral
}

// Answer resolves a query through the routed path. Generation failures
// degrade to the fixed escalation fallback; only retrieval failures are
// returned as errors so the orchestrator can apply its degradation rule.
func (e *Engine) Answer(ctx context.Context, query string) (string, error) {
	if e.RouteQuery(query) == RouteProfile {
		return e.answerProfile(ctx, query), nil
	}
	return e.answerGeneral(ctx, query)
}

func (e *Engine) answerProfile(ctx context.Context, query string) string {
	if strings.TrimSpace(e.profile) == "" {
		return FallbackNoProfile
	}
	prompt := fmt.Sprintf(`You are Alexa, an AI advisor at %s.

Use ONLY this company profile:
%s

User question: %q

Rules:
- Maximum 3 sentences.
- Include founder, address and contact details only if asked.
- Never invent information that is not in the profile.
- End with: "If you'd like, I can arrange a call with our senior advisors."`,
		e.brand, e.profile, query)

	reply, err := e.llm.Generate(ctx, prompt)
	if err != nil {
		e.logger.Printf("generation failed on profile path: %v", err)
		return FallbackEscalation
	}
	return strings.TrimSpace(reply)
}

func (e *Engine) answerGeneral(ctx context.Context, query string) (string, error) {
	hits, err := e.searcher.Search(ctx, query, e.llm, e.topK)
	if err != nil {
		return "", fmt.Errorf("retrieval: %w", err)
	}

	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.Chunk.Text)
	}
	contextText := strings.Join(parts, "\n\n")
	if strings.TrimSpace(contextText) == "" {
		// never generate on empty context
		return FallbackNoData, nil
	}

	prompt := fmt.Sprintf(`You are Alexa, an AI advisor at %s.

Use this market context:
%s

User question:
%q

Rules:
- Keep it short (2-3 sentences).
- Suggest the next step: "Shall I prepare a detailed report?"
- Sound friendly and professional.`,
		e.brand, contextText, query)

	reply, err := e.llm.Generate(ctx, prompt)
	if err != nil {
		e.logger.Printf("generation failed on general path: %v", err)
		return FallbackEscalation, nil
	}
	return strings.TrimSpace(reply), nil
}
