package dialogue

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rkeerthivasan/estateline/models"
)

// Intent is the coarse classification of one utterance.
type Intent string

const (
	IntentConfirm Intent = "confirm"
	IntentReject  Intent = "reject"
	IntentUnknown Intent = "unknown"
)

// Fixed reply texts for the scripted transitions.
const (
	MessageConfirmInterim = "Great! Let's explore what works best for your situation."
	MessageConfirmClosing = "Perfect. One of our senior advisors will contact you shortly. Thank you for your time!"
	MessageRejectInterim  = "I understand. Let me share one strategy that might change your perspective."
	MessageRejectClosing  = "No problem. Thanks for your time. Have a wonderful day!"
	MessageRepeat         = "Sorry, could you repeat that?"
	MessageEscalation     = "I understand. Let me connect you with an advisor who can assist further."
)

// finalizeAt is the confirm/reject count at which a session finalizes.
const finalizeAt = 2

var confirmTriggers = []string{"yes", "sure", "go ahead", "ok", "okay", "interested", "let's do it", "please do", "i'm ready"}

var rejectTriggers = []string{"no", "not now", "not interested", "stop", "leave me", "don't", "not today"}

// Classify maps an utterance to an intent by case-insensitive substring
// match. Confirm triggers are checked before reject triggers, so an
// utterance containing both resolves to confirm.
func Classify(utterance string) Intent {
	u := strings.ToLower(utterance)
	for _, t := range confirmTriggers {
		if strings.Contains(u, t) {
			return IntentConfirm
		}
	}
	for _, t := range rejectTriggers {
		if strings.Contains(u, t) {
			return IntentReject
		}
	}
	return IntentUnknown
}

// Session is the per-call dialogue state: the client being discussed plus
// confirm/reject counters. Advance holds the session lock, so concurrent
// turns for the same call cannot interleave a read-modify-write.
type Session struct {
	CallID       string               `json:"call_id"`
	Profile      models.ClientProfile `json:"profile"`
	ConfirmCount int                  `json:"confirm_count"`
	RejectCount  int                  `json:"reject_count"`
	Finalized    bool                 `json:"finalized"`
	CreatedAt    time.Time            `json:"created_at"`

	mu sync.Mutex
}

func NewSession(callID string, profile models.ClientProfile) *Session {
	return &Session{CallID: callID, Profile: profile, CreatedAt: time.Now()}
}

// Greeting composes the opening line for a fresh call.
func (s *Session) Greeting(brand string) string {
	return fmt.Sprintf(
		"Good day, %s. I'm Alexa from %s. I've reviewed your %d-bedroom property in %s. Would now be a good time to discuss it?",
		s.Profile.Name, brand, s.Profile.Bedrooms, s.Profile.Location,
	)
}

// Advance applies a classified intent to the session. For confirm and
// reject it returns the scripted reply and whether the session finalized;
// handled is false for unknown intents, which the caller resolves through
// retrieval and generation instead.
func (s *Session) Advance(intent Intent) (reply string, final bool, handled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch intent {
	case IntentConfirm:
		s.ConfirmCount++
		if s.ConfirmCount >= finalizeAt {
			s.Finalized = true
			return MessageConfirmClosing, true, true
		}
		return MessageConfirmInterim, false, true
	case IntentReject:
		s.RejectCount++
		if s.RejectCount >= finalizeAt {
			s.Finalized = true
			return MessageRejectClosing, true, true
		}
		return MessageRejectInterim, false, true
	default:
		return "", false, false
	}
}

// IsFinalized reports whether the session reached its terminal state.
func (s *Session) IsFinalized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Finalized
}
