package multiverse

import "github.com/KirkDiggler/tta-core/internal/entities"

// CreatePrimeInput names the root universe
type CreatePrimeInput struct {
	Name string
}

// CreatePrimeOutput carries the created root universe
type CreatePrimeOutput struct {
	Universe *entities.Universe
}

// ForkUniverseInput describes the branch to create
type ForkUniverseInput struct {
	ParentID string
	Name     string
	Reason   string
	// ActorID is who triggered the fork, recorded on the FORK events
	ActorID string
	// ForkPointEventID pins the fork to a specific event, optional
	ForkPointEventID string
}

// ForkUniverseOutput carries the child universe and the FORK events written
// to each side
type ForkUniverseOutput struct {
	Universe      *entities.Universe
	ParentEventID string
	ChildEventID  string
}

// GetEntityInput identifies an entity as seen from a universe
type GetEntityInput struct {
	UniverseID string
	EntityID   string
}

// GetEntityOutput carries the resolved entity. IsVariant reports that the
// universe holds its own diverged copy rather than the canonical.
type GetEntityOutput struct {
	Entity    *entities.Entity
	IsVariant bool
}

// EnsureVariantInput marks an entity as about to diverge in a universe
type EnsureVariantInput struct {
	UniverseID string
	EntityID   string
}

// EnsureVariantOutput reports the graph variant node. Entity is the
// universe-local truth record after divergence; callers holding an inherited
// copy must switch to it before writing, its version moved on. Nil in the
// root universe.
type EnsureVariantOutput struct {
	VariantNodeID string
	Created       bool
	Entity        *entities.Entity
}

// WorldTravelInput moves a character between universes
type WorldTravelInput struct {
	TravelerID     string
	FromUniverseID string
	ToUniverseID   string
	// Method is how the crossing happens, recorded on the events
	Method string
	// PortalName is the arrival location, created if absent
	PortalName string
}

// WorldTravelOutput reports the copy placed in the destination
type WorldTravelOutput struct {
	TravelerCopyID   string
	PortalLocationID string
	ItemsTransferred int
	SourceEventID    string
	DestEventID      string
}

// LineageInput identifies the universe to trace
type LineageInput struct {
	UniverseID string
}

// LineageOutput carries the ancestry, root first
type LineageOutput struct {
	Universes []*entities.Universe
}

// ProposeMergeInput nominates entities from a fork for adoption by an
// ancestor universe
type ProposeMergeInput struct {
	SourceUniverseID string
	TargetUniverseID string
	EntityIDs        []string
	Title            string
	Description      string
	// SubmitterID is who opened the proposal, recorded for review
	SubmitterID string
}

// ProposeMergeOutput carries the stored proposal. Status is conflict when
// validation found blockers.
type ProposeMergeOutput struct {
	Proposal *entities.MergeProposal
}

// ReviewProposalInput records a verdict on a proposal
type ReviewProposalInput struct {
	ProposalID string
	ReviewerID string
	Approved   bool
	Notes      string
}

// ReviewProposalOutput carries the reviewed proposal
type ReviewProposalOutput struct {
	Proposal *entities.MergeProposal
}

// ExecuteMergeInput executes an approved proposal
type ExecuteMergeInput struct {
	ProposalID string
}

// ExecuteMergeOutput reports what landed in the target. Merged holds the new
// target-side entity ids; Skipped holds source ids that could not be copied.
type ExecuteMergeOutput struct {
	Proposal *entities.MergeProposal
	Merged   []string
	Skipped  []string
	EventID  string
}

// ListProposalsInput filters the proposal registry; zero values match all
type ListProposalsInput struct {
	TargetUniverseID string
	Status           entities.MergeProposalStatus
}

// ListProposalsOutput carries the matching proposals, oldest first
type ListProposalsOutput struct {
	Proposals []*entities.MergeProposal
}

// GetProposalInput identifies one proposal
type GetProposalInput struct {
	ProposalID string
}

// GetProposalOutput carries the proposal
type GetProposalOutput struct {
	Proposal *entities.MergeProposal
}

// ArchiveUniverseInput identifies the universe to archive
type ArchiveUniverseInput struct {
	UniverseID string
}

// ArchiveUniverseOutput is empty; errors carry the failure
type ArchiveUniverseOutput struct{}
