package quiz

import (
	"strings"
)

// Parse converts a raw completion into questions.
//
// The text is scanned line by line. A line starting with "Q<number>." opens a block
// that runs until the next such line or the end of the text. Inside a block, lines of
// the form "<A-D>) <text>" are options in document order, and the first
// "Answer: <A-D>" gives the correct label. Everything between the marker and the first
// option is the question stem.
//
// Blocks without a stem, without options or without an answer are skipped. The answer
// label is kept as written even when it points past the recorded options; see Usable.
// Parse never fails: malformed input yields fewer questions.
func Parse(raw string) []Question {
	var (
		out []Question
		cur *block
	)

	flush := func() {
		if cur == nil {
			return
		}
		if q, ok := cur.question(); ok {
			out = append(out, q)
		}
		cur = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")

		if rest, ok := cutQuestionMarker(line); ok {
			flush()
			cur = &block{}
			if rest != "" {
				cur.stem = append(cur.stem, rest)
			}
			continue
		}
		if cur == nil {
			// Preamble before the first marker.
			continue
		}

		if text, ok := cutOption(line); ok {
			cur.options = append(cur.options, text)
			cur.inOptions = true
			continue
		}
		if label, ok := cutAnswer(line); ok {
			if cur.answer == "" {
				cur.answer = label
			}
			continue
		}
		if !cur.inOptions {
			cur.stem = append(cur.stem, line)
		}
	}
	flush()

	return out
}

// block accumulates one question block while scanning.
type block struct {
	stem      []string
	options   []string
	answer    Label
	inOptions bool
}

func (b *block) question() (Question, bool) {
	prompt := strings.TrimSpace(strings.Join(b.stem, "\n"))
	if prompt == "" || len(b.options) == 0 || b.answer == "" {
		return Question{}, false
	}
	return Question{
		Prompt:       prompt,
		Options:      b.options,
		CorrectLabel: b.answer,
	}, true
}

// cutQuestionMarker matches "Q<digits>." at the start of a line (leading spaces
// allowed) and returns the remainder of the line.
func cutQuestionMarker(line string) (string, bool) {
	s := strings.TrimLeft(line, " \t")
	if len(s) < 3 || s[0] != 'Q' {
		return "", false
	}
	i := 1
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 1 || i >= len(s) || s[i] != '.' {
		return "", false
	}
	return strings.TrimSpace(s[i+1:]), true
}

// cutOption matches "<A-D>) <text>" at the start of a line.
func cutOption(line string) (string, bool) {
	s := strings.TrimLeft(line, " \t")
	if len(s) < 2 || s[0] < 'A' || s[0] > 'D' || s[1] != ')' {
		return "", false
	}
	return strings.TrimSpace(s[2:]), true
}

// cutAnswer finds "Answer:" anywhere on the line followed by a label A-D.
func cutAnswer(line string) (Label, bool) {
	const marker = "Answer:"
	idx := strings.Index(line, marker)
	if idx < 0 {
		return "", false
	}
	rest := strings.TrimLeft(line[idx+len(marker):], " \t")
	if rest == "" || rest[0] < 'A' || rest[0] > 'D' {
		return "", false
	}
	return Label(rest[:1]), true
}
