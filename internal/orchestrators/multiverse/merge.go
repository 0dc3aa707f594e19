package multiverse

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
	"github.com/KirkDiggler/tta-core/internal/repositories/graph"
	"github.com/KirkDiggler/tta-core/internal/repositories/truth"
)

// ProposeMerge opens a proposal and validates it immediately. Blockers do
// not fail the call: they land on the proposal as conflicts and flip its
// status, so the submitter can see exactly what stands in the way.
func (o *orchestrator) ProposeMerge(ctx context.Context, input *ProposeMergeInput) (*ProposeMergeOutput, error) {
	if input == nil || input.SourceUniverseID == "" || input.TargetUniverseID == "" {
		return nil, errors.BadInput("source and target universe IDs are required")
	}
	if input.SourceUniverseID == input.TargetUniverseID {
		return nil, errors.BadInput("source and target universes must differ")
	}
	if len(input.EntityIDs) == 0 {
		return nil, errors.BadInput("at least one entity is required")
	}

	proposal := &entities.MergeProposal{
		ID:               o.idGen.Generate(),
		SourceUniverseID: input.SourceUniverseID,
		TargetUniverseID: input.TargetUniverseID,
		EntityIDs:        input.EntityIDs,
		Title:            input.Title,
		Description:      input.Description,
		Status:           entities.ProposalPending,
		SubmitterID:      input.SubmitterID,
		CreatedAt:        o.clock.Now(),
	}

	conflicts, err := o.validateMerge(ctx, proposal)
	if err != nil {
		return nil, err
	}
	proposal.Conflicts = conflicts
	proposal.ValidationPassed = len(conflicts) == 0
	if !proposal.ValidationPassed {
		proposal.Status = entities.ProposalConflict
	}

	o.mu.Lock()
	o.proposals[proposal.ID] = proposal
	o.mu.Unlock()

	slog.Info("merge proposed",
		"proposal_id", proposal.ID,
		"source", proposal.SourceUniverseID,
		"target", proposal.TargetUniverseID,
		"entities", len(proposal.EntityIDs),
		"conflicts", len(conflicts),
	)
	return &ProposeMergeOutput{Proposal: proposal}, nil
}

// validateMerge collects everything blocking a proposal: the target must be
// an active ancestor of the source, every entity must exist in the source,
// and no entity's name may already be taken in the target. Inherited copies
// always trip the name check against their own canonical, so only content
// born in the fork merges cleanly.
func (o *orchestrator) validateMerge(ctx context.Context, p *entities.MergeProposal) ([]string, error) {
	var conflicts []string

	if _, err := o.truthRepo.GetUniverse(ctx, &truth.GetUniverseInput{UniverseID: p.SourceUniverseID}); err != nil {
		return nil, err
	}
	targetOut, err := o.truthRepo.GetUniverse(ctx, &truth.GetUniverseInput{UniverseID: p.TargetUniverseID})
	if err != nil {
		return nil, err
	}
	if !targetOut.Universe.IsActive() {
		conflicts = append(conflicts, fmt.Sprintf("target universe %s is %s", p.TargetUniverseID, targetOut.Universe.Status))
	}

	// Merges flow up the tree only
	lineage, err := o.Lineage(ctx, &LineageInput{UniverseID: p.SourceUniverseID})
	if err != nil {
		return nil, err
	}
	ancestor := false
	for _, u := range lineage.Universes {
		if u.ID == p.TargetUniverseID && u.ID != p.SourceUniverseID {
			ancestor = true
			break
		}
	}
	if !ancestor {
		conflicts = append(conflicts, fmt.Sprintf("universe %s is not an ancestor of %s", p.TargetUniverseID, p.SourceUniverseID))
	}

	for _, id := range p.EntityIDs {
		src, err := o.truthRepo.GetEntity(ctx, &truth.GetEntityInput{
			UniverseID: p.SourceUniverseID,
			EntityID:   id,
		})
		if err != nil {
			if errors.IsNotFound(err) {
				conflicts = append(conflicts, fmt.Sprintf("entity %s does not exist in the source universe", id))
				continue
			}
			return nil, err
		}

		_, err = o.truthRepo.GetEntityByName(ctx, &truth.GetEntityByNameInput{
			UniverseID: p.TargetUniverseID,
			Name:       src.Entity.Name,
		})
		if err == nil {
			conflicts = append(conflicts, fmt.Sprintf("an entity named %q already exists in the target universe", src.Entity.Name))
			continue
		}
		if !errors.IsNotFound(err) {
			return nil, err
		}
	}
	return conflicts, nil
}

// ReviewProposal settles a proposal. Approval sticks only when validation
// passed; approving a conflicted proposal leaves it conflicted.
func (o *orchestrator) ReviewProposal(ctx context.Context, input *ReviewProposalInput) (*ReviewProposalOutput, error) {
	if input == nil || input.ProposalID == "" {
		return nil, errors.BadInput("proposal ID is required")
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.proposals[input.ProposalID]
	if !ok {
		return nil, errors.NotFoundf("merge proposal %s not found", input.ProposalID)
	}
	switch p.Status {
	case entities.ProposalPending, entities.ProposalConflict:
	default:
		return nil, errors.RuleViolationf("proposal %s has already been %s", p.ID, p.Status)
	}

	now := o.clock.Now()
	p.ReviewerID = input.ReviewerID
	p.ReviewNotes = input.Notes
	p.ReviewedAt = &now
	switch {
	case !input.Approved:
		p.Status = entities.ProposalRejected
	case p.ValidationPassed:
		p.Status = entities.ProposalApproved
	default:
		p.Status = entities.ProposalConflict
	}
	return &ReviewProposalOutput{Proposal: p}, nil
}

// ExecuteMerge copies an approved proposal's entities into the target with
// fresh ids, records a MERGE event there, and closes the proposal. When the
// whole proposal lands, the source universe is marked merged and goes
// read-only.
func (o *orchestrator) ExecuteMerge(ctx context.Context, input *ExecuteMergeInput) (*ExecuteMergeOutput, error) {
	if input == nil || input.ProposalID == "" {
		return nil, errors.BadInput("proposal ID is required")
	}

	o.mu.Lock()
	p, ok := o.proposals[input.ProposalID]
	o.mu.Unlock()
	if !ok {
		return nil, errors.NotFoundf("merge proposal %s not found", input.ProposalID)
	}
	if p.Status != entities.ProposalApproved {
		return nil, errors.RuleViolationf("proposal %s is %s; only approved proposals can execute", p.ID, p.Status)
	}

	now := o.clock.Now()
	var merged, skipped, names []string
	for _, id := range p.EntityIDs {
		src, err := o.truthRepo.GetEntity(ctx, &truth.GetEntityInput{
			UniverseID: p.SourceUniverseID,
			EntityID:   id,
		})
		if err != nil {
			if errors.IsNotFound(err) {
				skipped = append(skipped, id)
				continue
			}
			return nil, err
		}

		adopted := cloneEntity(src.Entity)
		adopted.ID = o.idGen.Generate()
		adopted.UniverseID = p.TargetUniverseID
		adopted.CanonicalID = src.Entity.ID
		adopted.Version = 1
		adopted.CreatedAt = now
		adopted.UpdatedAt = now
		if _, err := o.truthRepo.SaveEntity(ctx, &truth.SaveEntityInput{Entity: adopted}); err != nil {
			// A name claimed in the target since validation
			if errors.IsConflictState(err) {
				skipped = append(skipped, id)
				continue
			}
			return nil, err
		}
		if _, err := o.graphRepo.UpsertNode(ctx, &graph.UpsertNodeInput{Node: &graph.Node{
			ID:          adopted.ID,
			UniverseID:  p.TargetUniverseID,
			CanonicalID: src.Entity.ID,
			Name:        adopted.Name,
			Type:        adopted.Type,
		}}); err != nil {
			return nil, err
		}
		merged = append(merged, adopted.ID)
		names = append(names, adopted.Name)
	}

	outcome := entities.OutcomeSuccess
	switch {
	case len(merged) == 0:
		outcome = entities.OutcomeFail
	case len(skipped) > 0:
		outcome = entities.OutcomeWeakHit
	}

	eventID := o.idGen.Generate()
	if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: &entities.Event{
		ID:         eventID,
		UniverseID: p.TargetUniverseID,
		Type:       entities.EventMerge,
		Outcome:    outcome,
		ActorID:    p.SubmitterID,
		Payload: map[string]interface{}{
			"proposal_id":        p.ID,
			"source_universe_id": p.SourceUniverseID,
			"entities_merged":    len(merged),
			"entities_skipped":   len(skipped),
			"entity_names":       strings.Join(names, ", "),
		},
		GameTime:    now,
		RecordedAt:  now,
		Description: fmt.Sprintf("merged %d of %d entities from another timeline", len(merged), len(p.EntityIDs)),
	}}); err != nil {
		return nil, err
	}

	o.mu.Lock()
	p.Status = entities.ProposalMerged
	p.MergedAt = &now
	o.mu.Unlock()

	if len(merged) == len(p.EntityIDs) {
		srcOut, err := o.truthRepo.GetUniverse(ctx, &truth.GetUniverseInput{UniverseID: p.SourceUniverseID})
		if err != nil {
			return nil, err
		}
		source := srcOut.Universe
		source.Status = entities.UniverseMerged
		source.UpdatedAt = now
		if _, err := o.truthRepo.UpdateUniverse(ctx, &truth.UpdateUniverseInput{Universe: source}); err != nil {
			return nil, err
		}
	}

	slog.Info("merge executed",
		"proposal_id", p.ID,
		"target", p.TargetUniverseID,
		"merged", len(merged),
		"skipped", len(skipped),
	)
	return &ExecuteMergeOutput{
		Proposal: p,
		Merged:   merged,
		Skipped:  skipped,
		EventID:  eventID,
	}, nil
}

// ListProposals returns proposals matching the filter, oldest first
func (o *orchestrator) ListProposals(ctx context.Context, input *ListProposalsInput) (*ListProposalsOutput, error) {
	if input == nil {
		input = &ListProposalsInput{}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	out := &ListProposalsOutput{}
	for _, p := range o.proposals {
		if input.Status != "" && p.Status != input.Status {
			continue
		}
		if input.TargetUniverseID != "" && p.TargetUniverseID != input.TargetUniverseID {
			continue
		}
		out.Proposals = append(out.Proposals, p)
	}
	sort.Slice(out.Proposals, func(i, j int) bool {
		a, b := out.Proposals[i], out.Proposals[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

// GetProposal fetches one proposal by id
func (o *orchestrator) GetProposal(ctx context.Context, input *GetProposalInput) (*GetProposalOutput, error) {
	if input == nil || input.ProposalID == "" {
		return nil, errors.BadInput("proposal ID is required")
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.proposals[input.ProposalID]
	if !ok {
		return nil, errors.NotFoundf("merge proposal %s not found", input.ProposalID)
	}
	return &GetProposalOutput{Proposal: p}, nil
}
