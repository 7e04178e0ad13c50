package quiz

// Grade compares chosen option texts with the correct labels.
//
// For each index the chosen text is resolved to a label by its first exact match in
// the question's options. An answer that is missing, not among the options, or whose
// question has an out-of-range label counts as incorrect. total is len(questions).
func Grade(questions []Question, answers []string) (score, total int) {
	for i, q := range questions {
		if i >= len(answers) {
			break
		}
		label, ok := q.LabelOf(answers[i])
		if ok && q.Valid() && label == q.CorrectLabel {
			score++
		}
	}
	return score, len(questions)
}
