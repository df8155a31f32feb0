package graph

import (
	"fmt"

	"github.com/meshed/agentgraph/pkg/domain"
)

// Predicate is a labeled routing condition. The label shows up in graph exports.
type Predicate struct {
	Label string
	Test  func(s *domain.State) bool
}

// Check builds a predicate from an arbitrary function.
func Check(label string, test func(s *domain.State) bool) Predicate {
	return Predicate{Label: label, Test: test}
}

// Has is true when key holds a non-empty value.
func Has(key string) Predicate {
	return Predicate{
		Label: key,
		Test:  func(s *domain.State) bool { return s.Has(key) },
	}
}

// Missing is true when key is absent or empty.
func Missing(key string) Predicate {
	return Predicate{
		Label: "no " + key,
		Test:  func(s *domain.State) bool { return !s.Has(key) },
	}
}

// Equals is true when key coerces to the string value.
func Equals(key, value string) Predicate {
	return Predicate{
		Label: fmt.Sprintf("%s = %s", key, value),
		Test: func(s *domain.State) bool {
			v, ok := s.GetString(key)
			return ok && v == value
		},
	}
}

// FaultKind is true when the state carries a fault of the given kind.
// Only meaningful in OnFault style custom routers, since Table handles faults first.
func FaultKind(kind domain.FaultKind) Predicate {
	return Predicate{
		Label: "fault " + string(kind),
		Test:  func(s *domain.State) bool { return s.Fault != nil && s.Fault.Kind == kind },
	}
}
