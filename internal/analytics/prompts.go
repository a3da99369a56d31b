package analytics

import (
	"fmt"
	"time"
)

type Prompt struct {
	ID   string
	Text string
}

var builtinPrompts = []string{
	"What made you smile today?",
	"What is one thing you are grateful for right now?",
	"Describe a small moment you want to remember.",
	"What challenged you today, and how did you respond?",
	"Who did you connect with today?",
	"What is on your mind that you haven't said out loud?",
	"What did you learn today?",
	"How does your body feel right now?",
	"What would make tomorrow a good day?",
	"What are you looking forward to this week?",
	"Write about a place that feels like home.",
	"What is something you want to let go of?",
	"Describe your energy today in three words, then explain.",
	"What did you do today just for yourself?",
	"If today had a title, what would it be?",
}

// PromptPool returns the built-in prompts followed by custom ones.
func PromptPool(custom []string) []Prompt {
	pool := make([]Prompt, 0, len(builtinPrompts)+len(custom))
	for i, p := range builtinPrompts {
		pool = append(pool, Prompt{ID: fmt.Sprintf("builtin-%d", i+1), Text: p})
	}
	for i, p := range custom {
		pool = append(pool, Prompt{ID: fmt.Sprintf("custom-%d", i+1), Text: p})
	}
	return pool
}

// DailyPrompt picks pool[date.YearDay() % len(pool)]. The same date and the
// same custom list always yield the same prompt.
func DailyPrompt(date time.Time, custom []string) Prompt {
	pool := PromptPool(custom)
	return pool[date.YearDay()%len(pool)]
}

// PromptByID looks a prompt up in the pool built from custom.
func PromptByID(id string, custom []string) (Prompt, bool) {
	for _, p := range PromptPool(custom) {
		if p.ID == id {
			return p, true
		}
	}
	return Prompt{}, false
}
