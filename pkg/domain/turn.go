package domain

// TurnRequest is what a presenter hands to the orchestrator for one turn.
type TurnRequest struct {
	// UseCase names a registered use case (id or display alias).
	UseCase string

	// Input is the raw user text. For the summary use case it is the frequency tag.
	Input string

	// Conversation optionally carries prior history; Input is appended to it as a
	// user message when both are set.
	Conversation *Conversation

	// Settings is the per-request context (provider, model, credentials).
	Settings RequestContext
}

// TurnResult is the outcome of a batch run.
type TurnResult struct {
	UseCase string `json:"use_case"`

	// Conversation is the full turn in causal order (nil for the summary use case).
	Conversation *Conversation `json:"conversation,omitempty"`

	// Artifact is set by the summary use case.
	Artifact *ArtifactRef `json:"artifact,omitempty"`

	// Steps is the number of node executions.
	Steps int `json:"steps"`

	// Degraded is true when the turn stopped early but still produced a displayable result
	// (e.g. the tool loop hit its iteration limit).
	Degraded bool `json:"degraded,omitempty"`
}

// Update is one element of a streaming run: the state as of the end of a node.
type Update struct {
	// UseCase is the resolved use case id.
	UseCase      string        `json:"use_case,omitempty"`
	Step         int           `json:"step"`
	Node         string        `json:"node"`
	Conversation *Conversation `json:"conversation,omitempty"`
	Artifact     *ArtifactRef  `json:"artifact,omitempty"`
}
