package messages

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"strings"

	"crypto/sha256"
)

// DefaultNotification is spoken when the agent waits for input.
const DefaultNotification = "Your agent needs your input"

// completionPool is the static completion phrase set.
var completionPool = []string{
	"Work complete!",
	"All done!",
	"Task finished!",
	"Job complete!",
	"Ready for next task!",
	"Mission accomplished!",
	"Task complete!",
	"Finished successfully!",
	"All set!",
	"Done and dusted!",
	"Wrapped up!",
	"Job well done!",
	"That's a wrap!",
	"Successfully completed!",
	"All finished!",
	"Task accomplished!",
	"Good to go!",
	"Completed successfully!",
	"Everything's done!",
	"Ready when you are!",
	"Done!",
	"Nailed it!",
	"Crushed it!",
	"Finished!",
	"Complete!",
	"All clear!",
	"Job's done!",
	"That'll do it!",
	"Sorted!",
	"Handled!",
	"Locked in!",
	"Mission complete!",
	"Task done!",
	"Boom! Done!",
	"Check!",
	"Got it done!",
	"Wrapped!",
	"Delivered!",
	"Signed, sealed, delivered!",
	"The test is complete. You will be baked, and then there will be cake.",
	"Well done. The Enrichment Center reminds you that the task is complete.",
	"The task is finished. Any contact with the chamber floor will result in an unsatisfactory mark on your official testing record, followed by death.",
	"Mission complete! Awaiting orders.",
	"All your tasks are belong to us. Completed!",
	"The answer is 42. The task? Completed!",
	"Groovy, baby! Mission accomplished!",
	"As you wish. Task completed!",
	"Hello. My name is your agent. You gave me a task. Prepare to... see it completed!",
	"What is this? A task for ants? It's completed now!",
	"I'm kind of a big deal. This task is complete!",
	"Hasta la vista, baby! Task terminated!",
	"We get shit done!",
}

// CompletionPool returns a copy of the static completion phrases.
func CompletionPool() []string {
	pool := make([]string, len(completionPool))
	copy(pool, completionPool)
	return pool
}

// phonetics is the NATO alphabet used for session identifiers.
var phonetics = []string{
	"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot",
	"Golf", "Hotel", "India", "Juliet", "Kilo", "Lima",
	"Mike", "November", "Oscar", "Papa", "Quebec", "Romeo",
	"Sierra", "Tango", "Uniform", "Victor", "Whiskey", "X-ray",
	"Yankee", "Zulu",
}

// SessionIdentifier derives a short spoken tag such as "Alpha 3" from a
// session ID. The mapping is stable for a given ID. Empty and test IDs
// produce no identifier.
func SessionIdentifier(sessionID string) (string, bool) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" || sessionID == "test" {
		return "", false
	}
	sum := sha256.Sum256([]byte(sessionID))
	value := binary.BigEndian.Uint32(sum[:4])
	phonetic := phonetics[value%uint32(len(phonetics))]
	number := (value / uint32(len(phonetics))) % 10
	return fmt.Sprintf("%s %d", phonetic, number), true
}

// WithSessionIdentifier prefixes message with the session tag when one can
// be derived.
func WithSessionIdentifier(message, sessionID string) string {
	identifier, ok := SessionIdentifier(sessionID)
	if !ok {
		return message
	}
	return identifier + ": " + message
}

// Selector applies the selection policy.
type Selector struct {
	engineerName    string
	personalization float64
	summarizer      float64
	randFloat       func() float64
	randIntn        func(int) int
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand injects the randomness sources, primarily for tests.
func WithRand(randFloat func() float64, randIntn func(int) int) Option {
	return func(s *Selector) {
		if randFloat != nil {
			s.randFloat = randFloat
		}
		if randIntn != nil {
			s.randIntn = randIntn
		}
	}
}

// NewSelector builds a selector. engineerName may be empty, which disables
// personalization regardless of probability.
func NewSelector(engineerName string, personalizationProb, summarizerProb float64, opts ...Option) *Selector {
	s := &Selector{
		engineerName:    strings.TrimSpace(engineerName),
		personalization: personalizationProb,
		summarizer:      summarizerProb,
		randFloat:       rand.Float64,
		randIntn:        rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notification returns the phrase for a waiting agent, personalized with
// probability personalization when a name is configured.
func (s *Selector) Notification() string {
	if s.engineerName != "" && s.randFloat() < s.personalization {
		return s.engineerName + ", your agent needs your input"
	}
	return DefaultNotification
}

// Completion draws a uniform random phrase from the static pool.
func (s *Selector) Completion() string {
	return completionPool[s.randIntn(len(completionPool))]
}

// UseSummarizer reports whether this completion should attempt a novel
// LLM-generated phrase instead of the static pool.
func (s *Selector) UseSummarizer() bool {
	return s.summarizer > 0 && s.randFloat() < s.summarizer
}
