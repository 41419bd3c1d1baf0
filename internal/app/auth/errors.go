package auth

// Kind classifies a flow failure so the transport layer can map it to a
// status code without string matching.
type Kind int

const (
	KindConflict Kind = iota + 1
	KindInvalidInput
	KindUnauthorized
	KindNotFound
)

// FlowError is a failure with a user-facing message and a classification.
// Anything that is not a FlowError is treated as a server error upstream.
type FlowError struct {
	kind    Kind
	message string
}

func (e *FlowError) Error() string {
	return e.message
}

func (e *FlowError) Kind() Kind {
	return e.kind
}

// NewFlowError builds a classified flow failure with a user-facing message.
func NewFlowError(kind Kind, message string) *FlowError {
	return &FlowError{kind: kind, message: message}
}

func conflictError(message string) *FlowError {
	return &FlowError{kind: KindConflict, message: message}
}

func invalidInputError(message string) *FlowError {
	return &FlowError{kind: KindInvalidInput, message: message}
}

func unauthorizedError(message string) *FlowError {
	return &FlowError{kind: KindUnauthorized, message: message}
}

func notFoundError(message string) *FlowError {
	return &FlowError{kind: KindNotFound, message: message}
}
