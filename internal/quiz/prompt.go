package quiz

import (
	"fmt"
	"strings"
)

const promptTemplate = `Generate %[1]d multiple choice questions on the topic "%[2]s".

Each question should be based on %[3]s level and follow this exact format:

Q1. <question>
A) <option 1>
B) <option 2>
C) <option 3>
D) <option 4>
Answer: <A/B/C/D>

Q2. <question>
...

Continue for all %[1]d questions.

Topic: %[2]s
Start generating:`

// BuildPrompt renders the generation prompt. The marker format it asks for is the one
// Parse reads back.
func BuildPrompt(topic string, count int, difficulty Difficulty) string {
	return fmt.Sprintf(promptTemplate, count, strings.TrimSpace(topic), difficulty)
}

// MinResponseLength is the shortest trimmed completion not flagged as suspicious.
const MinResponseLength = 100

// Warning codes for completions that parsed into fewer questions than expected.
const (
	WarningPartialResponse = "partial_response"
	WarningShortResponse   = "short_response"
)

// Warning flags a parse shortfall. It is informational: the parsed questions remain
// usable.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CheckShortfall compares what was parsed against what was requested.
func CheckShortfall(raw string, requested, parsed int) *Warning {
	if parsed < requested {
		return &Warning{
			Code:    WarningPartialResponse,
			Message: fmt.Sprintf("Partial response detected. Got %d questions instead of %d.", parsed, requested),
		}
	}
	if n := len(strings.TrimSpace(raw)); n < MinResponseLength {
		return &Warning{
			Code:    WarningShortResponse,
			Message: fmt.Sprintf("Response too short (%d characters). This might indicate an API issue.", n),
		}
	}
	return nil
}
