// Package research defines the domain model shared by the agents,
// workflow, store and API layers.
package research

import "fmt"

// Analyst is a generated research persona. Each analyst drives one
// interview and contributes one report section.
type Analyst struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Affiliation string `json:"affiliation"`
	Description string `json:"description"`
}

// Persona renders the analyst as a prompt fragment.
func (a Analyst) Persona() string {
	return fmt.Sprintf("Name: %s\nRole: %s\nAffiliation: %s\nDescription: %s\n",
		a.Name, a.Role, a.Affiliation, a.Description)
}

// Perspectives is the structured output of analyst generation.
type Perspectives struct {
	Analysts []Analyst `json:"analysts"`
}

// SearchQuery is the structured output of query generation during an
// interview turn.
type SearchQuery struct {
	SearchQuery string `json:"search_query"`
}

const (
	// MaxAnalystsLimit and MaxTurnsLimit bound user-supplied settings.
	MaxAnalystsLimit = 6
	MaxTurnsLimit    = 5

	DefaultMaxAnalysts = 3
	DefaultMaxTurns    = 2
)

// Config describes a single research run.
type Config struct {
	Topic         string `json:"topic"`
	MaxAnalysts   int    `json:"max_analysts"`
	MaxTurns      int    `json:"max_turns"`
	HumanFeedback string `json:"human_feedback,omitempty"`
	// Parallelism bounds concurrent interviews. Zero or one means
	// interviews run sequentially.
	Parallelism int `json:"parallelism,omitempty"`
}

// Normalize clamps the config to supported bounds and applies defaults.
func (c *Config) Normalize() {
	if c.MaxAnalysts <= 0 {
		c.MaxAnalysts = DefaultMaxAnalysts
	}
	if c.MaxAnalysts > MaxAnalystsLimit {
		c.MaxAnalysts = MaxAnalystsLimit
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	if c.MaxTurns > MaxTurnsLimit {
		c.MaxTurns = MaxTurnsLimit
	}
	if c.Parallelism < 0 {
		c.Parallelism = 0
	}
}

// Validate reports whether the config can start a run.
func (c *Config) Validate() error {
	if c.Topic == "" {
		return fmt.Errorf("research config: topic is required")
	}
	return nil
}

// Results holds everything a completed run produced.
type Results struct {
	Topic        string    `json:"topic"`
	Analysts     []Analyst `json:"analysts"`
	Sections     []string  `json:"sections"`
	Introduction string    `json:"introduction"`
	Content      string    `json:"content"`
	Conclusion   string    `json:"conclusion"`
	FinalReport  string    `json:"final_report"`
}

// Callbacks receive progress updates while a run executes. All fields
// are optional.
type Callbacks struct {
	OnProgress          func(progress int, message string)
	OnAnalystsCreated   func(analysts []Analyst)
	OnInterviewComplete func(analystName, section string)
	OnSectionComplete   func(section string)
	OnError             func(message string)
}

// Progress invokes OnProgress if set.
func (cb Callbacks) Progress(p int, msg string) {
	if cb.OnProgress != nil {
		cb.OnProgress(p, msg)
	}
}

// AnalystsCreated invokes OnAnalystsCreated if set.
func (cb Callbacks) AnalystsCreated(analysts []Analyst) {
	if cb.OnAnalystsCreated != nil {
		cb.OnAnalystsCreated(analysts)
	}
}

// InterviewComplete invokes OnInterviewComplete if set.
func (cb Callbacks) InterviewComplete(name, section string) {
	if cb.OnInterviewComplete != nil {
		cb.OnInterviewComplete(name, section)
	}
}

// SectionComplete invokes OnSectionComplete if set.
func (cb Callbacks) SectionComplete(section string) {
	if cb.OnSectionComplete != nil {
		cb.OnSectionComplete(section)
	}
}

// Error invokes OnError if set.
func (cb Callbacks) Error(msg string) {
	if cb.OnError != nil {
		cb.OnError(msg)
	}
}
