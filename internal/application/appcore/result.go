package appcore

import (
	"github.com/atiendo/atiendo/internal/domain/event"
)

// Result is the generic use-case result: the value plus the events the
// operation produced (already published by the dispatch pipeline; kept
// on the result for callers that need them, e.g. tests).
type Result[T any] struct {
	Value  T
	Events []event.DomainEvent
}
