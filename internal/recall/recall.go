// Package recall detects the "search my memory" intent in user messages
// without involving the model. It is a deterministic, rule-based
// pre-filter: an explicit search:/find: prefix or one of a fixed set of
// natural-language trigger phrases short-circuits the turn entirely.
package recall

import (
	"fmt"
	"strings"

	"github.com/ewhitley/campusmate/internal/memory"
)

// triggerPhrases are the natural-language forms that indicate a recall
// intent. Matching is case-insensitive substring.
var triggerPhrases = []string{
	"did i mention", "what did i say", "have i talked about",
	"remind me about", "memory of", "search memory for",
	"do you remember", "what did we discuss", "have we talked about",
	"did we discuss", "remember when", "what was that about",
	"find in memory", "look up", "search for",
}

// aboutPhrases are triggers where an "about X" sub-pattern, when
// present, carries the actual search term.
var aboutPhrases = map[string]bool{
	"what did i say":      true,
	"did i mention":       true,
	"have i talked about": true,
	"did we discuss":      true,
	"what did we discuss": true,
}

// stopWords are dropped from extracted terms; they carry no search value.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true,
	"anything": true, "something": true,
}

const termCutset = " ?\"'.,!"

// Detect classifies message as a memory query. It returns the extracted
// search term and true on a match, or "" and false otherwise.
func Detect(message string) (string, bool) {
	lower := strings.ToLower(message)

	// Explicit command forms take priority.
	if strings.HasPrefix(lower, "search:") || strings.HasPrefix(lower, "find:") {
		term := message[strings.Index(message, ":")+1:]
		term = strings.TrimSpace(term)
		if term == "" {
			return "", false
		}
		return term, true
	}

	for _, phrase := range triggerPhrases {
		if !strings.Contains(lower, phrase) {
			continue
		}

		var raw string
		if aboutPhrases[phrase] {
			if pos := strings.Index(lower, "about"); pos >= 0 {
				raw = strings.Trim(message[pos+len("about"):], termCutset)
				if strings.HasPrefix(strings.ToLower(raw), "about ") {
					raw = raw[len("about "):]
				}
			} else {
				raw = afterPhrase(lower, phrase)
			}
		} else {
			raw = afterPhrase(lower, phrase)
		}
		if raw == "" {
			continue
		}

		if term := cleanTerm(raw); term != "" {
			return term, true
		}
	}

	return "", false
}

// afterPhrase returns the text following the last occurrence of phrase.
func afterPhrase(lower, phrase string) string {
	idx := strings.LastIndex(lower, phrase)
	if idx < 0 {
		return ""
	}
	return strings.Trim(lower[idx+len(phrase):], termCutset)
}

// cleanTerm strips stop words and single-letter tokens; returns "" when
// nothing usable remains.
func cleanTerm(raw string) string {
	var kept []string
	for _, word := range strings.Fields(raw) {
		word = strings.Trim(word, termCutset)
		if len(word) <= 1 || stopWords[strings.ToLower(word)] {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

// maxDisplayContent bounds the per-result excerpt in human output.
const maxDisplayContent = 150

// FormatResults renders search results for a human reader.
func FormatResults(results []memory.Message, term string) string {
	if len(results) == 0 {
		return fmt.Sprintf("I didn't find anything in memory about %q.", term)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d result(s) for %q:\n", len(results), term)
	for i, m := range results {
		content := m.Content
		if len(content) > maxDisplayContent {
			content = content[:maxDisplayContent-3] + "..."
		}
		fmt.Fprintf(&b, "%d. %s — %s: %s\n", i+1,
			m.Timestamp.Format("Jan 2, 2006 at 3:04 PM"), m.Role, content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatForModel renders search results for model consumption:
// role-tagged lines with date-only timestamps.
func FormatForModel(results []memory.Message) string {
	if len(results) == 0 {
		return "No relevant information found in conversation history."
	}

	var b strings.Builder
	b.WriteString("Relevant conversation history:\n")
	for _, m := range results {
		fmt.Fprintf(&b, "[%s] %s: %s\n",
			m.Timestamp.Format("Jan 2, 2006"), titleRole(m.Role), m.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func titleRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
