package research

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalystPersona(t *testing.T) {
	a := Analyst{
		Name:        "Dr. Ada Park",
		Role:        "Security Researcher",
		Affiliation: "Open Web Institute",
		Description: "Focuses on supply-chain risk.",
	}

	persona := a.Persona()
	assert.Equal(t, "Name: Dr. Ada Park\nRole: Security Researcher\nAffiliation: Open Web Institute\nDescription: Focuses on supply-chain risk.\n", persona)
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       Config
		expected Config
	}{
		{"zero values get defaults", Config{Topic: "t"}, Config{Topic: "t", MaxAnalysts: 3, MaxTurns: 2}},
		{"above limits clamped", Config{Topic: "t", MaxAnalysts: 12, MaxTurns: 9}, Config{Topic: "t", MaxAnalysts: 6, MaxTurns: 5}},
		{"negative parallelism reset", Config{Topic: "t", MaxAnalysts: 2, MaxTurns: 1, Parallelism: -4}, Config{Topic: "t", MaxAnalysts: 2, MaxTurns: 1, Parallelism: 0}},
		{"in range untouched", Config{Topic: "t", MaxAnalysts: 4, MaxTurns: 3, Parallelism: 2}, Config{Topic: "t", MaxAnalysts: 4, MaxTurns: 3, Parallelism: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.in
			cfg.Normalize()
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	assert.Error(t, cfg.Validate())

	cfg.Topic = "quantum networking"
	assert.NoError(t, cfg.Validate())
}

func TestCallbacksNilSafe(t *testing.T) {
	var cb Callbacks
	assert.NotPanics(t, func() {
		cb.Progress(10, "starting")
		cb.AnalystsCreated(nil)
		cb.InterviewComplete("a", "s")
		cb.SectionComplete("s")
		cb.Error("boom")
	})
}

func TestCallbacksDispatch(t *testing.T) {
	var gotProgress int
	var gotMsg string
	cb := Callbacks{
		OnProgress: func(p int, msg string) {
			gotProgress = p
			gotMsg = msg
		},
	}
	cb.Progress(42, "interviewing")
	assert.Equal(t, 42, gotProgress)
	assert.Equal(t, "interviewing", gotMsg)
}
