// Package entities provides the core data structures for tta-core.
package entities

import "time"

// UniverseStatus is the lifecycle state of a timeline
type UniverseStatus string

// Universe statuses. Universes are never deleted, only archived.
const (
	UniverseActive   UniverseStatus = "active"
	UniverseArchived UniverseStatus = "archived"
	UniverseMerged   UniverseStatus = "merged"
)

// Universe is one timeline in the multiverse. Forks form a DAG rooted at the
// prime universe: the root has no parent, and every child's depth is its
// parent's depth plus one.
type Universe struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Branch      string         `json:"branch"`
	ParentID    string         `json:"parent_id,omitempty"`
	ForkEventID string         `json:"fork_event_id,omitempty"`
	Depth       int            `json:"depth"`
	OwnerID     string         `json:"owner_id,omitempty"`
	Status      UniverseStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// MergeProposalStatus is the lifecycle state of a merge proposal
type MergeProposalStatus string

// Merge proposal statuses. Conflict marks a proposal whose validation found
// blockers; it can still be reviewed, but never approved.
const (
	ProposalPending  MergeProposalStatus = "pending"
	ProposalApproved MergeProposalStatus = "approved"
	ProposalRejected MergeProposalStatus = "rejected"
	ProposalMerged   MergeProposalStatus = "merged"
	ProposalConflict MergeProposalStatus = "conflict"
)

// MergeProposal nominates entities born in a fork for adoption by an
// ancestor universe. Merges flow up the tree only.
type MergeProposal struct {
	ID               string              `json:"id"`
	SourceUniverseID string              `json:"source_universe_id"`
	TargetUniverseID string              `json:"target_universe_id"`
	EntityIDs        []string            `json:"entity_ids"`
	Title            string              `json:"title,omitempty"`
	Description      string              `json:"description,omitempty"`
	Status           MergeProposalStatus `json:"status"`
	SubmitterID      string              `json:"submitter_id,omitempty"`
	ReviewerID       string              `json:"reviewer_id,omitempty"`
	ReviewNotes      string              `json:"review_notes,omitempty"`
	Conflicts        []string            `json:"conflicts,omitempty"`
	ValidationPassed bool                `json:"validation_passed"`
	CreatedAt        time.Time           `json:"created_at"`
	ReviewedAt       *time.Time          `json:"reviewed_at,omitempty"`
	MergedAt         *time.Time          `json:"merged_at,omitempty"`
}

// IsPrime reports whether this is the root canonical universe
func (u *Universe) IsPrime() bool {
	return u.ParentID == "" && u.Depth == 0
}

// IsActive reports whether the universe accepts new events
func (u *Universe) IsActive() bool {
	return u.Status == UniverseActive
}
