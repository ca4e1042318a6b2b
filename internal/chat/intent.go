package chat

import (
	"regexp"
	"strings"
)

// Intent is what the console loop decides to do with a line of input.
type Intent int

const (
	// IntentQuestion is the default: retrieve context and answer.
	IntentQuestion Intent = iota
	IntentExit
	IntentHelp
	IntentTranscripts
	IntentLinksFile
	IntentLinksInline
	IntentStoreKnowledge
)

var (
	linksFilePattern = regexp.MustCompile(`(?i)\b(upload|store|save|add|ingest)\b.*\b(file|txt)\b`)
	linksInline      = regexp.MustCompile(`(?i)\b(upload|store|save|add|ingest)\b.*https?://`)
	storePattern     = regexp.MustCompile(`(?i)\b(upload|store|save|add|ingest)\b.*(note|knowledge|context|info|information|this)`)
	urlPattern       = regexp.MustCompile(`https?://[^\s]+`)
	urlSeparators    = regexp.MustCompile(`[,\n]`)
)

// Classify maps a trimmed input line to an intent. Command matches are
// checked most-specific first; anything that matches nothing is a
// question for the assistant.
func Classify(input string) Intent {
	lowered := strings.ToLower(strings.TrimSpace(input))

	switch lowered {
	case "exit", "quit":
		return IntentExit
	case "help":
		return IntentHelp
	case "upload meeting transcript":
		return IntentTranscripts
	}

	if linksFilePattern.MatchString(input) {
		return IntentLinksFile
	}
	if linksInline.MatchString(input) {
		return IntentLinksInline
	}
	if storePattern.MatchString(input) {
		return IntentStoreKnowledge
	}

	return IntentQuestion
}

// ExtractURLs pulls every http(s) URL out of a message, tolerating comma
// and newline separated lists.
func ExtractURLs(input string) []string {
	normalized := urlSeparators.ReplaceAllString(input, " ")
	return urlPattern.FindAllString(normalized, -1)
}
