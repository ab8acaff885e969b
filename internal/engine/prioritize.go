package engine

import "strings"

var highPriorityKeywords = []string{
	"score",
	"turnover",
	"injury",
	"knock-out",
	"surf",
	"cage",
	"screen",
	"pickup",
	"possession",
}

// Prioritize tags event text HIGH when it mentions a momentum-changing
// keyword and MED otherwise.
func Prioritize(text string) Priority {
	low := strings.ToLower(text)
	for _, k := range highPriorityKeywords {
		if strings.Contains(low, k) {
			return PriorityHigh
		}
	}
	return PriorityMed
}

// PrioritizeAll returns a copy of events with Priority set. Nothing is dropped.
func PrioritizeAll(events []Event) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		e.Priority = Prioritize(e.String())
		out[i] = e
	}
	return out
}
