// Package multiverse manages the fork DAG: branching timelines, lazy
// divergence of entities, merge proposals, and character travel between
// universes. The truth store and the relationship graph both branch eagerly
// on fork; graph nodes are shared across timelines and grow variants only on
// first mutation.
package multiverse

//go:generate mockgen -destination=mock/mock_service.go -package=multiversemock github.com/KirkDiggler/tta-core/internal/orchestrators/multiverse Service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
	"github.com/KirkDiggler/tta-core/internal/pkg/clock"
	"github.com/KirkDiggler/tta-core/internal/pkg/idgen"
	"github.com/KirkDiggler/tta-core/internal/repositories/graph"
	"github.com/KirkDiggler/tta-core/internal/repositories/truth"
)

// Defaults for world travel
const (
	DefaultPortalName   = "Planar Crossing"
	DefaultTravelMethod = "portal"
)

// maxLineageDepth bounds parent walks so a corrupted parent cycle cannot
// loop forever
const maxLineageDepth = 64

// Service defines the interface for multiverse operations
type Service interface {
	// CreatePrime creates the root universe. Called once during setup.
	CreatePrime(ctx context.Context, input *CreatePrimeInput) (*CreatePrimeOutput, error)

	// ForkUniverse branches a new timeline off an active universe
	ForkUniverse(ctx context.Context, input *ForkUniverseInput) (*ForkUniverseOutput, error)

	// GetEntity reads an entity as seen from a universe, falling back to
	// ancestor universes when the entity has not diverged locally
	GetEntity(ctx context.Context, input *GetEntityInput) (*GetEntityOutput, error)

	// EnsureVariant creates the graph variant node for an entity about to be
	// mutated in a non-root universe. Idempotent.
	EnsureVariant(ctx context.Context, input *EnsureVariantInput) (*EnsureVariantOutput, error)

	// WorldTravel copies a character into another universe
	WorldTravel(ctx context.Context, input *WorldTravelInput) (*WorldTravelOutput, error)

	// ProposeMerge nominates fork-born entities for adoption by an ancestor
	// universe. Validation runs immediately; blockers land on the proposal.
	ProposeMerge(ctx context.Context, input *ProposeMergeInput) (*ProposeMergeOutput, error)

	// ReviewProposal records the reviewer's verdict on a pending proposal
	ReviewProposal(ctx context.Context, input *ReviewProposalInput) (*ReviewProposalOutput, error)

	// ExecuteMerge copies an approved proposal's entities into the target
	ExecuteMerge(ctx context.Context, input *ExecuteMergeInput) (*ExecuteMergeOutput, error)

	// ListProposals filters the proposal registry
	ListProposals(ctx context.Context, input *ListProposalsInput) (*ListProposalsOutput, error)

	// GetProposal fetches one proposal by id
	GetProposal(ctx context.Context, input *GetProposalInput) (*GetProposalOutput, error)

	// Lineage traces a universe's ancestry back to the root
	Lineage(ctx context.Context, input *LineageInput) (*LineageOutput, error)

	// ArchiveUniverse makes a universe read-only. The root cannot be archived.
	ArchiveUniverse(ctx context.Context, input *ArchiveUniverseInput) (*ArchiveUniverseOutput, error)
}

// Config holds the dependencies for the multiverse orchestrator
type Config struct {
	TruthRepo truth.Repository
	GraphRepo graph.Repository
	IDGen     idgen.Generator
	Clock     clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.TruthRepo == nil {
		vb.RequiredField("TruthRepo")
	}
	if c.GraphRepo == nil {
		vb.RequiredField("GraphRepo")
	}
	if c.IDGen == nil {
		vb.RequiredField("IDGen")
	}
	return vb.Build()
}

type orchestrator struct {
	truthRepo truth.Repository
	graphRepo graph.Repository
	idGen     idgen.Generator
	clock     clock.Clock

	// Merge proposals live in memory; they are working state of the merge
	// workflow, not world truth
	mu        sync.Mutex
	proposals map[string]*entities.MergeProposal
}

// NewOrchestrator creates a new multiverse orchestrator
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	return &orchestrator{
		truthRepo: cfg.TruthRepo,
		graphRepo: cfg.GraphRepo,
		idGen:     cfg.IDGen,
		clock:     c,
		proposals: make(map[string]*entities.MergeProposal),
	}, nil
}

func branchLabel(name string) string {
	label := strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(label, " ", "-")
}

func cloneEntity(e *entities.Entity) *entities.Entity {
	b, _ := json.Marshal(e)
	var out entities.Entity
	_ = json.Unmarshal(b, &out)
	return &out
}

func (o *orchestrator) CreatePrime(ctx context.Context, input *CreatePrimeInput) (*CreatePrimeOutput, error) {
	if input == nil {
		return nil, errors.BadInput("input is required")
	}
	name := input.Name
	if name == "" {
		name = "Prime Material"
	}

	now := o.clock.Now()
	prime := &entities.Universe{
		ID:        o.idGen.Generate(),
		Name:      name,
		Branch:    "main",
		Depth:     0,
		Status:    entities.UniverseActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := o.truthRepo.CreateUniverse(ctx, &truth.CreateUniverseInput{Universe: prime}); err != nil {
		return nil, err
	}
	return &CreatePrimeOutput{Universe: prime}, nil
}

// ForkUniverse creates the child record, branches the truth store, copies
// the parent's relationship edges into the child, and appends a FORK event
// to each side referencing the other. Graph nodes are not duplicated: they
// diverge lazily via EnsureVariant.
func (o *orchestrator) ForkUniverse(ctx context.Context, input *ForkUniverseInput) (*ForkUniverseOutput, error) {
	if input == nil || input.ParentID == "" || input.Name == "" {
		return nil, errors.BadInput("parent universe ID and name are required")
	}

	parentOut, err := o.truthRepo.GetUniverse(ctx, &truth.GetUniverseInput{UniverseID: input.ParentID})
	if err != nil {
		return nil, err
	}
	parent := parentOut.Universe
	if !parent.IsActive() {
		return nil, errors.RuleViolationf("cannot fork from universe %s with status %s", parent.ID, parent.Status)
	}

	now := o.clock.Now()
	child := &entities.Universe{
		ID:          o.idGen.Generate(),
		Name:        input.Name,
		Description: input.Reason,
		Branch:      branchLabel(input.Name),
		ParentID:    parent.ID,
		ForkEventID: input.ForkPointEventID,
		Depth:       parent.Depth + 1,
		OwnerID:     input.ActorID,
		Status:      entities.UniverseActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := o.truthRepo.CreateUniverse(ctx, &truth.CreateUniverseInput{Universe: child}); err != nil {
		return nil, err
	}
	if _, err := o.truthRepo.CreateBranch(ctx, &truth.CreateBranchInput{
		FromUniverseID: parent.ID,
		ToUniverseID:   child.ID,
		Branch:         child.Branch,
	}); err != nil {
		return nil, err
	}
	copied, err := o.copyRelationships(ctx, parent.ID, child.ID)
	if err != nil {
		return nil, err
	}

	parentEventID := o.idGen.Generate()
	childEventID := o.idGen.Generate()
	parentEvent := &entities.Event{
		ID:         parentEventID,
		UniverseID: parent.ID,
		Type:       entities.EventFork,
		Outcome:    entities.OutcomeSuccess,
		ActorID:    input.ActorID,
		CausedByID: input.ForkPointEventID,
		Payload: map[string]interface{}{
			"child_universe_id": child.ID,
			"sibling_event_id":  childEventID,
			"reason":            input.Reason,
		},
		GameTime:    now,
		RecordedAt:  now,
		Description: "the timeline split: " + input.Name,
	}
	childEvent := &entities.Event{
		ID:         childEventID,
		UniverseID: child.ID,
		Type:       entities.EventFork,
		Outcome:    entities.OutcomeSuccess,
		ActorID:    input.ActorID,
		CausedByID: input.ForkPointEventID,
		Payload: map[string]interface{}{
			"parent_universe_id": parent.ID,
			"sibling_event_id":   parentEventID,
			"reason":             input.Reason,
		},
		GameTime:    now,
		RecordedAt:  now,
		Description: "this timeline split off from " + parent.Name,
	}
	if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: parentEvent}); err != nil {
		return nil, err
	}
	if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: childEvent}); err != nil {
		return nil, err
	}

	slog.Info("universe forked",
		"parent_id", parent.ID,
		"child_id", child.ID,
		"depth", child.Depth,
		"relationships", copied,
		"reason", input.Reason,
	)
	return &ForkUniverseOutput{
		Universe:      child,
		ParentEventID: parentEventID,
		ChildEventID:  childEventID,
	}, nil
}

// copyRelationships clones every edge in the parent into the child, so the
// forked scene starts identical: occupancy, inventory, and social edges all
// carry over. Edge rows are universe-local and get fresh ids.
func (o *orchestrator) copyRelationships(ctx context.Context, fromUniverseID, toUniverseID string) (int, error) {
	rels, err := o.graphRepo.ListRelationships(ctx, &graph.ListRelationshipsInput{
		UniverseID: fromUniverseID,
	})
	if err != nil {
		return 0, err
	}
	for _, rel := range rels.Relationships {
		clone := *rel
		clone.ID = o.idGen.Generate()
		clone.UniverseID = toUniverseID
		if _, err := o.graphRepo.CreateRelationship(ctx, &graph.CreateRelationshipInput{Relationship: &clone}); err != nil {
			return 0, err
		}
	}
	return len(rels.Relationships), nil
}

// GetEntity resolves an entity for a universe. The local record wins; when
// none exists the ancestor chain is walked and the nearest canonical is
// returned unmodified.
func (o *orchestrator) GetEntity(ctx context.Context, input *GetEntityInput) (*GetEntityOutput, error) {
	if input == nil || input.UniverseID == "" || input.EntityID == "" {
		return nil, errors.BadInput("universe ID and entity ID are required")
	}

	universeID := input.UniverseID
	for depth := 0; depth < maxLineageDepth; depth++ {
		out, err := o.truthRepo.GetEntity(ctx, &truth.GetEntityInput{
			UniverseID: universeID,
			EntityID:   input.EntityID,
		})
		if err == nil {
			return &GetEntityOutput{
				Entity:    out.Entity,
				IsVariant: universeID == input.UniverseID && out.Entity.CanonicalID != "",
			}, nil
		}
		if !errors.IsNotFound(err) {
			return nil, err
		}

		uniOut, uniErr := o.truthRepo.GetUniverse(ctx, &truth.GetUniverseInput{UniverseID: universeID})
		if uniErr != nil {
			return nil, uniErr
		}
		if uniOut.Universe.ParentID == "" {
			break
		}
		universeID = uniOut.Universe.ParentID
	}
	return nil, errors.NotFoundf("entity %s not found in universe %s or its ancestors", input.EntityID, input.UniverseID)
}

// EnsureVariant registers an entity's divergence in a non-root universe:
// a variant node with a VARIANT_OF edge back to the canonical. Subsequent
// calls return the existing variant.
func (o *orchestrator) EnsureVariant(ctx context.Context, input *EnsureVariantInput) (*EnsureVariantOutput, error) {
	if input == nil || input.UniverseID == "" || input.EntityID == "" {
		return nil, errors.BadInput("universe ID and entity ID are required")
	}

	uniOut, err := o.truthRepo.GetUniverse(ctx, &truth.GetUniverseInput{UniverseID: input.UniverseID})
	if err != nil {
		return nil, err
	}
	if uniOut.Universe.IsPrime() {
		return &EnsureVariantOutput{}, nil
	}

	existing, err := o.graphRepo.HasVariant(ctx, &graph.HasVariantInput{
		UniverseID:  input.UniverseID,
		CanonicalID: input.EntityID,
	})
	if err != nil {
		return nil, err
	}
	if existing.HasVariant {
		out := &EnsureVariantOutput{VariantNodeID: existing.VariantID}
		local, err := o.truthRepo.GetEntity(ctx, &truth.GetEntityInput{
			UniverseID: input.UniverseID,
			EntityID:   input.EntityID,
		})
		if err != nil && !errors.IsNotFound(err) {
			return nil, err
		}
		if err == nil {
			out.Entity = local.Entity
		}
		return out, nil
	}

	resolved, err := o.GetEntity(ctx, &GetEntityInput{
		UniverseID: input.UniverseID,
		EntityID:   input.EntityID,
	})
	if err != nil {
		return nil, err
	}
	entity := resolved.Entity

	variantNodeID := o.idGen.Generate()
	if _, err := o.graphRepo.UpsertNode(ctx, &graph.UpsertNodeInput{Node: &graph.Node{
		ID:          variantNodeID,
		UniverseID:  input.UniverseID,
		CanonicalID: input.EntityID,
		Name:        entity.Name,
		Type:        entity.Type,
	}}); err != nil {
		return nil, err
	}
	if _, err := o.graphRepo.CreateRelationship(ctx, &graph.CreateRelationshipInput{Relationship: &entities.Relationship{
		ID:         o.idGen.Generate(),
		UniverseID: input.UniverseID,
		FromID:     variantNodeID,
		ToID:       input.EntityID,
		Type:       entities.RelVariantOf,
		CreatedAt:  o.clock.Now(),
	}}); err != nil {
		return nil, err
	}

	// Mark the truth record too, so reads can tell variant from canonical
	local := cloneEntity(entity)
	local.UniverseID = input.UniverseID
	local.CanonicalID = input.EntityID
	local.Version++
	local.UpdatedAt = o.clock.Now()
	if _, err := o.truthRepo.SaveEntity(ctx, &truth.SaveEntityInput{Entity: local}); err != nil {
		return nil, err
	}

	slog.Debug("entity diverged",
		"universe_id", input.UniverseID,
		"entity_id", input.EntityID,
		"variant_node_id", variantNodeID,
	)
	return &EnsureVariantOutput{VariantNodeID: variantNodeID, Created: true, Entity: local}, nil
}

// WorldTravel copies a character into the destination universe. The original
// stays behind, dormant. Ownership edges and their items move with the copy;
// personal edges stay, relationships are universe-local.
func (o *orchestrator) WorldTravel(ctx context.Context, input *WorldTravelInput) (*WorldTravelOutput, error) {
	if input == nil || input.TravelerID == "" || input.FromUniverseID == "" || input.ToUniverseID == "" {
		return nil, errors.BadInput("traveler ID and both universe IDs are required")
	}
	if input.FromUniverseID == input.ToUniverseID {
		return nil, errors.BadInput("source and destination universes must differ")
	}
	method := input.Method
	if method == "" {
		method = DefaultTravelMethod
	}
	portalName := input.PortalName
	if portalName == "" {
		portalName = DefaultPortalName
	}

	if _, err := o.truthRepo.GetUniverse(ctx, &truth.GetUniverseInput{UniverseID: input.FromUniverseID}); err != nil {
		return nil, err
	}
	destUni, err := o.truthRepo.GetUniverse(ctx, &truth.GetUniverseInput{UniverseID: input.ToUniverseID})
	if err != nil {
		return nil, err
	}
	if !destUni.Universe.IsActive() {
		return nil, errors.RuleViolationf("cannot travel to universe %s with status %s", destUni.Universe.ID, destUni.Universe.Status)
	}

	resolved, err := o.GetEntity(ctx, &GetEntityInput{
		UniverseID: input.FromUniverseID,
		EntityID:   input.TravelerID,
	})
	if err != nil {
		return nil, err
	}
	traveler := resolved.Entity
	if traveler.Type != entities.EntityCharacter {
		return nil, errors.InvalidTargetf("only characters can travel between worlds, %s is a %s", traveler.ID, traveler.Type)
	}

	now := o.clock.Now()
	portal, err := o.ensurePortal(ctx, input.ToUniverseID, portalName, now)
	if err != nil {
		return nil, err
	}

	arrival := cloneEntity(traveler)
	arrival.ID = o.idGen.Generate()
	arrival.UniverseID = input.ToUniverseID
	arrival.CanonicalID = traveler.ID
	arrival.Version = 1
	arrival.CreatedAt = now
	arrival.UpdatedAt = now
	if _, err := o.truthRepo.SaveEntity(ctx, &truth.SaveEntityInput{Entity: arrival}); err != nil {
		return nil, err
	}
	if _, err := o.graphRepo.UpsertNode(ctx, &graph.UpsertNodeInput{Node: &graph.Node{
		ID:          arrival.ID,
		UniverseID:  input.ToUniverseID,
		CanonicalID: traveler.ID,
		Name:        arrival.Name,
		Type:        arrival.Type,
	}}); err != nil {
		return nil, err
	}
	if _, err := o.graphRepo.CreateRelationship(ctx, &graph.CreateRelationshipInput{Relationship: &entities.Relationship{
		ID:         o.idGen.Generate(),
		UniverseID: input.ToUniverseID,
		FromID:     arrival.ID,
		ToID:       portal.ID,
		Type:       entities.RelLocatedIn,
		CreatedAt:  now,
	}}); err != nil {
		return nil, err
	}

	transferred, err := o.transferBelongings(ctx, input, traveler, arrival, now)
	if err != nil {
		return nil, err
	}

	sourceEventID := o.idGen.Generate()
	destEventID := o.idGen.Generate()
	payload := map[string]interface{}{
		"original_entity_id": traveler.ID,
		"traveler_copy_id":   arrival.ID,
		"from_universe_id":   input.FromUniverseID,
		"to_universe_id":     input.ToUniverseID,
		"travel_method":      method,
	}
	if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: &entities.Event{
		ID:          sourceEventID,
		UniverseID:  input.FromUniverseID,
		Type:        entities.EventWorldTravel,
		Outcome:     entities.OutcomeSuccess,
		ActorID:     traveler.ID,
		Payload:     payload,
		GameTime:    now,
		RecordedAt:  now,
		Description: traveler.Name + " left this world via " + method + ".",
	}}); err != nil {
		return nil, err
	}
	if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: &entities.Event{
		ID:          destEventID,
		UniverseID:  input.ToUniverseID,
		Type:        entities.EventWorldTravel,
		Outcome:     entities.OutcomeSuccess,
		ActorID:     arrival.ID,
		LocationID:  portal.ID,
		Payload:     payload,
		GameTime:    now,
		RecordedAt:  now,
		Description: traveler.Name + " arrived from another world via " + method + ".",
	}}); err != nil {
		return nil, err
	}

	slog.Info("world travel",
		"traveler_id", traveler.ID,
		"copy_id", arrival.ID,
		"from", input.FromUniverseID,
		"to", input.ToUniverseID,
		"items", transferred,
	)
	return &WorldTravelOutput{
		TravelerCopyID:   arrival.ID,
		PortalLocationID: portal.ID,
		ItemsTransferred: transferred,
		SourceEventID:    sourceEventID,
		DestEventID:      destEventID,
	}, nil
}

func (o *orchestrator) ensurePortal(ctx context.Context, universeID, name string, now time.Time) (*entities.Entity, error) {
	found, err := o.truthRepo.GetEntityByName(ctx, &truth.GetEntityByNameInput{
		UniverseID: universeID,
		Name:       name,
	})
	if err == nil {
		return found.Entity, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	portal := &entities.Entity{
		ID:          o.idGen.Generate(),
		UniverseID:  universeID,
		Type:        entities.EntityLocation,
		Name:        name,
		Description: "A shimmering rift where travelers from other worlds arrive.",
		Version:     1,
		Location:    &entities.LocationStats{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := o.truthRepo.SaveEntity(ctx, &truth.SaveEntityInput{Entity: portal}); err != nil {
		return nil, err
	}
	if _, err := o.graphRepo.UpsertNode(ctx, &graph.UpsertNodeInput{Node: &graph.Node{
		ID:         portal.ID,
		UniverseID: universeID,
		Name:       portal.Name,
		Type:       portal.Type,
	}}); err != nil {
		return nil, err
	}
	return portal, nil
}

// transferBelongings copies owned and carried items alongside the traveler.
// Personal edges and LOCATED_IN are deliberately left out.
func (o *orchestrator) transferBelongings(ctx context.Context, input *WorldTravelInput, traveler, arrival *entities.Entity, now time.Time) (int, error) {
	rels, err := o.graphRepo.ListRelationships(ctx, &graph.ListRelationshipsInput{
		UniverseID: input.FromUniverseID,
		FromID:     traveler.ID,
	})
	if err != nil {
		return 0, err
	}

	transferred := 0
	for _, rel := range rels.Relationships {
		if entities.PersonalRelationshipTypes[rel.Type] {
			continue
		}
		switch rel.Type {
		case entities.RelOwns, entities.RelCarries, entities.RelWields, entities.RelWears:
		default:
			continue
		}

		itemOut, err := o.GetEntity(ctx, &GetEntityInput{
			UniverseID: input.FromUniverseID,
			EntityID:   rel.ToID,
		})
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return transferred, err
		}

		itemCopy := cloneEntity(itemOut.Entity)
		itemCopy.ID = o.idGen.Generate()
		itemCopy.UniverseID = input.ToUniverseID
		itemCopy.CanonicalID = itemOut.Entity.ID
		itemCopy.Version = 1
		itemCopy.CreatedAt = now
		itemCopy.UpdatedAt = now
		if _, err := o.truthRepo.SaveEntity(ctx, &truth.SaveEntityInput{Entity: itemCopy}); err != nil {
			return transferred, err
		}
		if _, err := o.graphRepo.UpsertNode(ctx, &graph.UpsertNodeInput{Node: &graph.Node{
			ID:          itemCopy.ID,
			UniverseID:  input.ToUniverseID,
			CanonicalID: itemOut.Entity.ID,
			Name:        itemCopy.Name,
			Type:        itemCopy.Type,
		}}); err != nil {
			return transferred, err
		}
		if _, err := o.graphRepo.CreateRelationship(ctx, &graph.CreateRelationshipInput{Relationship: &entities.Relationship{
			ID:         o.idGen.Generate(),
			UniverseID: input.ToUniverseID,
			FromID:     arrival.ID,
			ToID:       itemCopy.ID,
			Type:       rel.Type,
			CreatedAt:  now,
		}}); err != nil {
			return transferred, err
		}
		transferred++
	}
	return transferred, nil
}

// Lineage walks the parent chain and returns it root first
func (o *orchestrator) Lineage(ctx context.Context, input *LineageInput) (*LineageOutput, error) {
	if input == nil || input.UniverseID == "" {
		return nil, errors.BadInput("universe ID is required")
	}

	var chain []*entities.Universe
	universeID := input.UniverseID
	for depth := 0; universeID != "" && depth < maxLineageDepth; depth++ {
		out, err := o.truthRepo.GetUniverse(ctx, &truth.GetUniverseInput{UniverseID: universeID})
		if err != nil {
			return nil, err
		}
		chain = append(chain, out.Universe)
		universeID = out.Universe.ParentID
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return &LineageOutput{Universes: chain}, nil
}

// ArchiveUniverse flips a universe to read-only. The root is protected.
func (o *orchestrator) ArchiveUniverse(ctx context.Context, input *ArchiveUniverseInput) (*ArchiveUniverseOutput, error) {
	if input == nil || input.UniverseID == "" {
		return nil, errors.BadInput("universe ID is required")
	}

	out, err := o.truthRepo.GetUniverse(ctx, &truth.GetUniverseInput{UniverseID: input.UniverseID})
	if err != nil {
		return nil, err
	}
	universe := out.Universe
	if universe.IsPrime() {
		return nil, errors.RuleViolation("the root universe cannot be archived")
	}

	universe.Status = entities.UniverseArchived
	universe.UpdatedAt = o.clock.Now()
	if _, err := o.truthRepo.UpdateUniverse(ctx, &truth.UpdateUniverseInput{Universe: universe}); err != nil {
		return nil, err
	}
	return &ArchiveUniverseOutput{}, nil
}
