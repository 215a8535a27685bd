package driven

// ResultSink receives plain structured plan and result objects from the
// core's entry points. The core makes no assumption about how the sink
// renders or transports them; JSON, human-readable text, and tool-call
// notifications are all valid downstream choices.
type ResultSink interface {
	// Plan emits what an operation would do, before (or instead of)
	// execution.
	Plan(op string, payload any) error

	// Result emits what an operation did.
	Result(op string, payload any) error

	// Info emits a human-oriented progress note. Sinks that only carry
	// structured data may discard it.
	Info(op string, message string)
}

// DiscardSink drops everything. Useful as a default and in tests.
type DiscardSink struct{}

// Plan discards the payload.
func (DiscardSink) Plan(string, any) error { return nil }

// Result discards the payload.
func (DiscardSink) Result(string, any) error { return nil }

// Info discards the message.
func (DiscardSink) Info(string, string) {}
