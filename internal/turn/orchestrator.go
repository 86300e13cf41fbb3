package turn

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/rkeerthivasan/estateline/internal/dialogue"
	"github.com/rkeerthivasan/estateline/internal/knowledge"
	"github.com/rkeerthivasan/estateline/internal/session"
	"github.com/rkeerthivasan/estateline/internal/store"
	"github.com/rkeerthivasan/estateline/models"
	"github.com/rkeerthivasan/estateline/provider"
)

// Options bound the orchestrator's external calls.
type Options struct {
	Brand             string
	RetrievalTimeout  time.Duration
	GenerationTimeout time.Duration
	MaxInflightCalls  int
}

// Result is one resolved turn.
type Result struct {
	Reply string `json:"reply"`
	Final bool   `json:"final"`
}

// Orchestrator resolves one utterance into one reply. Scripted intents go
// straight through the dialogue state machine; unknown intents fan out a
// knowledge lookup and a conversational generation in parallel, each under
// its own timeout, with the pool capping in-flight external calls across
// all turns.
type Orchestrator struct {
	engine    *knowledge.Engine
	llm       provider.Provider
	sessions  session.Store
	audit     *store.Store
	semaphore chan struct{}
	opts      Options
	logger    *log.Logger
}

func NewOrchestrator(engine *knowledge.Engine, llm provider.Provider, sessions session.Store, audit *store.Store, opts Options, logger *log.Logger) *Orchestrator {
	if opts.RetrievalTimeout <= 0 {
		opts.RetrievalTimeout = 3 * time.Second
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = 4 * time.Second
	}
	if opts.MaxInflightCalls < 1 {
		opts.MaxInflightCalls = 8
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[TURN] ", log.LstdFlags)
	}
	return &Orchestrator{
		engine:    engine,
		llm:       llm,
		sessions:  sessions,
		audit:     audit,
		semaphore: make(chan struct{}, opts.MaxInflightCalls),
		opts:      opts,
		logger:    logger,
	}
}

// HandleTurn processes one utterance for a call. An empty utterance on an
// untracked call id starts the session and returns the greeting; an empty
// utterance mid-call asks the caller to repeat. A non-empty utterance for
// an untracked call id reports session.ErrNotFound so the transport can
// tell the caller to ring back, rather than silently restarting the call.
func (o *Orchestrator) HandleTurn(ctx context.Context, callID string, profile models.ClientProfile, utterance string) (Result, error) {
	start := time.Now()
	utterance = strings.TrimSpace(utterance)

	if utterance == "" {
		sess, created, err := o.sessions.GetOrCreate(ctx, callID, profile)
		if err != nil {
			return Result{}, fmt.Errorf("resolving session: %w", err)
		}
		if created {
			return Result{Reply: sess.Greeting(o.opts.Brand)}, nil
		}
		return Result{Reply: dialogue.MessageRepeat}, nil
	}

	sess, err := o.sessions.Get(ctx, callID)
	if err != nil {
		return Result{}, err
	}

	intent := dialogue.Classify(utterance)
	turnsTotal.WithLabelValues(string(intent)).Inc()

	var res Result
	if reply, final, handled := sess.Advance(intent); handled {
		res = Result{Reply: reply, Final: final}
		if final {
			if err := o.sessions.Remove(ctx, callID); err != nil {
				o.logger.Printf("warn: removing finalized session %s: %v", callID, err)
			}
		} else if err := o.sessions.Save(ctx, sess); err != nil {
			o.logger.Printf("warn: saving session %s: %v", callID, err)
		}
	} else {
		res = Result{Reply: o.answerUnknown(ctx, sess, utterance)}
	}

	o.recordTurn(ctx, callID, utterance, res.Reply, intent)
	turnDuration.Observe(time.Since(start).Seconds())
	return res, nil
}

// EndCall removes the session on transport-level call teardown.
func (o *Orchestrator) EndCall(ctx context.Context, callID string) error {
	return o.sessions.Remove(ctx, callID)
}

// ActiveSessions reports the number of currently tracked sessions.
func (o *Orchestrator) ActiveSessions(ctx context.Context) (int, error) {
	return o.sessions.Count(ctx)
}

type outcome struct {
	text string
	err  error
}

// answerUnknown fans out the knowledge query and the conversational
// generation concurrently. The buffered channels let a branch that misses
// its deadline finish in the background and be discarded.
func (o *Orchestrator) answerUnknown(ctx context.Context, sess *dialogue.Session, utterance string) string {
	knowCh := make(chan outcome, 1)
	genCh := make(chan outcome, 1)

	go func() {
		kctx, cancel := context.WithTimeout(ctx, o.opts.RetrievalTimeout)
		defer cancel()
		knowCh <- o.withSlot(kctx, func() (string, error) {
			return o.engine.Answer(kctx, utterance)
		})
	}()
	go func() {
		gctx, cancel := context.WithTimeout(ctx, o.opts.GenerationTimeout)
		defer cancel()
		genCh <- o.withSlot(gctx, func() (string, error) {
			return o.llm.Generate(gctx, o.conversationalPrompt(sess.Profile, utterance))
		})
	}()

	know := <-knowCh
	gen := <-genCh
	if know.err != nil {
		fanoutFailures.WithLabelValues("knowledge").Inc()
		o.logger.Printf("knowledge branch failed for %s: %v", sess.CallID, know.err)
	}
	if gen.err != nil {
		fanoutFailures.WithLabelValues("generation").Inc()
		o.logger.Printf("generation branch failed for %s: %v", sess.CallID, gen.err)
	}

	// conversational text always precedes the knowledge fact
	switch {
	case gen.err == nil && know.err == nil:
		return strings.TrimSpace(gen.text + " " + know.text)
	case gen.err == nil:
		return gen.text
	case know.err == nil:
		return know.text
	default:
		return dialogue.MessageEscalation
	}
}

// withSlot runs fn holding one worker-pool slot. Waiting for a slot counts
// against the branch deadline, so a saturated pool degrades a turn instead
// of queueing it forever.
func (o *Orchestrator) withSlot(ctx context.Context, fn func() (string, error)) outcome {
	select {
	case o.semaphore <- struct{}{}:
		defer func() { <-o.semaphore }()
	case <-ctx.Done():
		return outcome{err: ctx.Err()}
	}
	text, err := fn()
	return outcome{text: text, err: err}
}

func (o *Orchestrator) conversationalPrompt(p models.ClientProfile, utterance string) string {
	return fmt.Sprintf(`You are Alexa, an AI real estate consultant at %s.

Client details:
- %d-bedroom in %s
- Bought in %d for %d Dirhams
- Current value: %d Dirhams

User said: %q

Guidelines:
- Speak naturally (2-3 sentences)
- If they hesitate, emphasize timing and opportunities
- If they confirm, suggest connecting with an advisor
- If they reject twice, politely close the call`,
		o.opts.Brand, p.Bedrooms, p.Location, p.PurchaseYear, p.BoughtPrice, p.CurrentPrice, utterance)
}

func (o *Orchestrator) recordTurn(ctx context.Context, callID, userText, replyText string, intent dialogue.Intent) {
	if o.audit == nil {
		return
	}
	t := models.ConversationTurn{
		CallID:    callID,
		UserText:  userText,
		ReplyText: replyText,
		Intent:    string(intent),
	}
	if err := o.audit.SaveTurn(ctx, t); err != nil && !errors.Is(err, context.Canceled) {
		o.logger.Printf("warn: audit log write failed: %v", err)
	}
}
