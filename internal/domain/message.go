package domain

// Message is a composed notification. Subject is used by channels that
// support one (email); Body is markdown-flavored plain text.
type Message struct {
	Subject string
	Body    string
}
