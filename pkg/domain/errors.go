package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownUseCase is matched by UnknownUseCaseError.
	ErrUnknownUseCase = errors.New("unknown use case")

	// ErrInvalidState is matched by InvalidStateError.
	ErrInvalidState = errors.New("invalid conversation state")

	// ErrIterationLimitExceeded is matched by IterationLimitExceededError.
	ErrIterationLimitExceeded = errors.New("iteration limit exceeded")

	// ErrNodeExecution is matched by NodeExecutionError.
	ErrNodeExecution = errors.New("node execution failed")

	// ErrArtifactNotFound is matched by ArtifactNotFoundError.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrInvalidFrequency is matched by InvalidFrequencyError.
	ErrInvalidFrequency = errors.New("invalid frequency")
)

// UnknownUseCaseError is returned when a run names a use case nobody registered.
type UnknownUseCaseError struct {
	Name  string
	Known []string
}

func (e *UnknownUseCaseError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown use case %q", e.Name)
	}
	return fmt.Sprintf("unknown use case %q (available: %s)", e.Name, strings.Join(e.Known, ", "))
}

func (e *UnknownUseCaseError) Is(target error) bool { return target == ErrUnknownUseCase }

// InvalidStateError signals an ordering defect in a conversation.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return "invalid conversation state: " + e.Reason
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// IterationLimitExceededError is returned when a conditional loop runs past its bound.
// Partial holds the conversation as of the moment the limit was hit.
type IterationLimitExceededError struct {
	Limit   int
	Node    string
	Partial *Conversation
}

func (e *IterationLimitExceededError) Error() string {
	return fmt.Sprintf("iteration limit of %d exceeded at node %q", e.Limit, e.Node)
}

func (e *IterationLimitExceededError) Is(target error) bool {
	return target == ErrIterationLimitExceeded
}

// NodeExecutionError wraps a failure raised by a node (model call, tool, summarizer).
type NodeExecutionError struct {
	Node    string
	Partial *Conversation
	Err     error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %q failed: %v", e.Node, e.Err)
}

func (e *NodeExecutionError) Unwrap() error { return e.Err }

func (e *NodeExecutionError) Is(target error) bool { return target == ErrNodeExecution }

// ArtifactNotFoundError is returned when no summary exists for a key.
// It is a normal, reportable condition.
type ArtifactNotFoundError struct {
	Key string
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("no artifact stored for %q", e.Key)
}

func (e *ArtifactNotFoundError) Is(target error) bool { return target == ErrArtifactNotFound }

// InvalidFrequencyError is returned for a frequency tag outside daily, weekly, monthly.
// Like an unknown use case it is user-correctable.
type InvalidFrequencyError struct {
	Value string
}

func (e *InvalidFrequencyError) Error() string {
	return fmt.Sprintf("invalid frequency %q: want one of daily, weekly, monthly", e.Value)
}

func (e *InvalidFrequencyError) Is(target error) bool { return target == ErrInvalidFrequency }
