package model

import "time"

// TimestampLayout is the fixed YYYY-MM-DD HH:MM:SS format of result timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// QuizResult is a graded attempt as persisted for later review.
type QuizResult struct {
	OwnerEmail string `json:"email"`
	Topic      string `json:"topic"`
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	Timestamp  string `json:"time"`
}

// Key is the record identity: owner email and timestamp. Two results for the same
// owner within one second share a key and the later one wins.
func (r QuizResult) Key() string {
	return r.OwnerEmail + "_" + r.Timestamp
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
