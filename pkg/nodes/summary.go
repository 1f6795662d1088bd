package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// DefaultSummaryName is the node id used in events and errors.
const DefaultSummaryName = "summarize"

// ErrEmptySummary is returned when the summarizer produced nothing to store.
var ErrEmptySummary = errors.New("summarizer returned an empty digest")

// SummaryNode turns a frequency into a stored digest.
// It consumes a scalar instead of a conversation, so it is not a graph.Node.
type SummaryNode struct {
	summarizer ports.Summarizer
	store      ports.ArtifactStore
}

// NewSummaryNode creates a summary node. store is usually an artifact.Manager so
// writes to one frequency are serialized.
func NewSummaryNode(summarizer ports.Summarizer, store ports.ArtifactStore) *SummaryNode {
	return &SummaryNode{summarizer: summarizer, store: store}
}

// Name returns the node id.
func (n *SummaryNode) Name() string { return DefaultSummaryName }

// Process summarizes the window of freq and overwrites the artifact stored
// under freq.Key().
func (n *SummaryNode) Process(ctx context.Context, freq domain.Frequency) (domain.ArtifactRef, error) {
	if n.summarizer == nil || n.store == nil {
		return domain.ArtifactRef{}, fmt.Errorf("summary node: summarizer and store are required")
	}

	digest, err := n.summarizer.Summarize(ctx, freq)
	if err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("summarize %s: %w", freq, err)
	}
	if strings.TrimSpace(digest) == "" {
		return domain.ArtifactRef{}, ErrEmptySummary
	}

	ref, err := n.store.Save(ctx, freq.Key(), digest)
	if err != nil {
		return domain.ArtifactRef{}, fmt.Errorf("store %s summary: %w", freq, err)
	}
	ref.Frequency = freq
	return ref, nil
}
