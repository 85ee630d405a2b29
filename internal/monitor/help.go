package monitor

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

func (s *Session) help() {
	s.print("Monitor commands (capitals give the shortest abbreviation):\n")
	for _, c := range commands {
		s.print("  %-12s %s\n", c.name, c.usage)
	}
	s.print("Expressions use identifiers of the paused program, denotations,\n")
	s.print("casts, operators of the standard environ, calls of environ\n")
	s.print("procedures, slices, selections and assignations.\n")
}

// apropos lists the commands whose name or description matches topic.
func (s *Session) apropos(topic string) error {
	found := false
	for _, c := range commands {
		if !match(c.name, topic) && !fuzzy.MatchFold(topic, c.name) && !strings.Contains(strings.ToLower(c.help), strings.ToLower(topic)) {
			continue
		}
		s.print("%-40s %s\n", c.usage, c.help)
		found = true
	}
	if !found {
		return contextError("no help for", topic)
	}
	return nil
}
