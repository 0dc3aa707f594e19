package multiverse_test

import (
	"time"

	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/multiverse"
	"github.com/KirkDiggler/tta-core/internal/repositories/truth"
)

// saveLocationIn plants a location entity directly in the given universe,
// the way a GM move introduces fork-born content
func (s *OrchestratorTestSuite) saveLocationIn(universeID, id, name string) *entities.Entity {
	e := &entities.Entity{
		ID:         id,
		UniverseID: universeID,
		Type:       entities.EntityLocation,
		Name:       name,
		Version:    1,
		Location:   &entities.LocationStats{DangerLevel: 2},
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	_, err := s.truthRepo.SaveEntity(s.ctx, &truth.SaveEntityInput{Entity: e})
	s.Require().NoError(err)
	return e
}

func (s *OrchestratorTestSuite) TestMergeLifecycle() {
	child := s.fork("Branch A")
	grove := s.saveLocationIn(child.ID, "ent_grove", "Whispering Grove")

	proposed, err := s.svc.ProposeMerge(s.ctx, &multiverse.ProposeMergeInput{
		SourceUniverseID: child.ID,
		TargetUniverseID: s.prime.ID,
		EntityIDs:        []string{grove.ID},
		Title:            "Adopt the grove",
		SubmitterID:      "ent_hero",
	})
	s.Require().NoError(err)
	proposal := proposed.Proposal
	s.Equal(entities.ProposalPending, proposal.Status)
	s.True(proposal.ValidationPassed)
	s.Empty(proposal.Conflicts)

	pending, err := s.svc.ListProposals(s.ctx, &multiverse.ListProposalsInput{
		TargetUniverseID: s.prime.ID,
		Status:           entities.ProposalPending,
	})
	s.Require().NoError(err)
	s.Require().Len(pending.Proposals, 1)
	s.Equal(proposal.ID, pending.Proposals[0].ID)

	reviewed, err := s.svc.ReviewProposal(s.ctx, &multiverse.ReviewProposalInput{
		ProposalID: proposal.ID,
		ReviewerID: "ent_gm",
		Approved:   true,
		Notes:      "fits the canon",
	})
	s.Require().NoError(err)
	s.Equal(entities.ProposalApproved, reviewed.Proposal.Status)

	executed, err := s.svc.ExecuteMerge(s.ctx, &multiverse.ExecuteMergeInput{ProposalID: proposal.ID})
	s.Require().NoError(err)
	s.Require().Len(executed.Merged, 1)
	s.Empty(executed.Skipped)
	s.Equal(entities.ProposalMerged, executed.Proposal.Status)

	// The adopted copy lives in the target under a fresh id, tracking its origin
	adopted, err := s.truthRepo.GetEntityByName(s.ctx, &truth.GetEntityByNameInput{
		UniverseID: s.prime.ID,
		Name:       "Whispering Grove",
	})
	s.Require().NoError(err)
	s.NotEqual(grove.ID, adopted.Entity.ID)
	s.Equal(grove.ID, adopted.Entity.CanonicalID)

	// A MERGE event lands on the target
	evt, err := s.truthRepo.GetEvent(s.ctx, &truth.GetEventInput{EventID: executed.EventID})
	s.Require().NoError(err)
	s.Equal(entities.EventMerge, evt.Event.Type)
	s.Equal(s.prime.ID, evt.Event.UniverseID)
	s.Equal(entities.OutcomeSuccess, evt.Event.Outcome)
	s.Equal(proposal.ID, evt.Event.Payload["proposal_id"])

	// A fully merged source goes read-only
	source, err := s.truthRepo.GetUniverse(s.ctx, &truth.GetUniverseInput{UniverseID: child.ID})
	s.Require().NoError(err)
	s.Equal(entities.UniverseMerged, source.Universe.Status)
	s.False(source.Universe.IsActive())
}

func (s *OrchestratorTestSuite) TestMergeInheritedEntityConflicts() {
	king := s.saveCharacter("ent_king", "The King", 25)
	child := s.fork("Branch A")

	proposed, err := s.svc.ProposeMerge(s.ctx, &multiverse.ProposeMergeInput{
		SourceUniverseID: child.ID,
		TargetUniverseID: s.prime.ID,
		EntityIDs:        []string{king.ID},
		SubmitterID:      "ent_hero",
	})
	s.Require().NoError(err)
	s.Equal(entities.ProposalConflict, proposed.Proposal.Status)
	s.False(proposed.Proposal.ValidationPassed)
	s.Require().Len(proposed.Proposal.Conflicts, 1)
	s.Contains(proposed.Proposal.Conflicts[0], "The King")

	// Approval cannot override a failed validation
	reviewed, err := s.svc.ReviewProposal(s.ctx, &multiverse.ReviewProposalInput{
		ProposalID: proposed.Proposal.ID,
		Approved:   true,
	})
	s.Require().NoError(err)
	s.Equal(entities.ProposalConflict, reviewed.Proposal.Status)

	_, err = s.svc.ExecuteMerge(s.ctx, &multiverse.ExecuteMergeInput{ProposalID: proposed.Proposal.ID})
	s.Require().Error(err)
	s.True(errors.IsRuleViolation(err))
}

func (s *OrchestratorTestSuite) TestMergeDownTheTreeConflicts() {
	child := s.fork("Branch A")
	grove := s.saveLocationIn(s.prime.ID, "ent_grove", "Whispering Grove")

	proposed, err := s.svc.ProposeMerge(s.ctx, &multiverse.ProposeMergeInput{
		SourceUniverseID: s.prime.ID,
		TargetUniverseID: child.ID,
		EntityIDs:        []string{grove.ID},
	})
	s.Require().NoError(err)
	s.Equal(entities.ProposalConflict, proposed.Proposal.Status)
	s.Contains(proposed.Proposal.Conflicts[0], "not an ancestor")
}

func (s *OrchestratorTestSuite) TestRejectedProposalCannotExecute() {
	child := s.fork("Branch A")
	grove := s.saveLocationIn(child.ID, "ent_grove", "Whispering Grove")

	proposed, err := s.svc.ProposeMerge(s.ctx, &multiverse.ProposeMergeInput{
		SourceUniverseID: child.ID,
		TargetUniverseID: s.prime.ID,
		EntityIDs:        []string{grove.ID},
	})
	s.Require().NoError(err)

	reviewed, err := s.svc.ReviewProposal(s.ctx, &multiverse.ReviewProposalInput{
		ProposalID: proposed.Proposal.ID,
		Approved:   false,
		Notes:      "stays a what-if",
	})
	s.Require().NoError(err)
	s.Equal(entities.ProposalRejected, reviewed.Proposal.Status)

	_, err = s.svc.ExecuteMerge(s.ctx, &multiverse.ExecuteMergeInput{ProposalID: proposed.Proposal.ID})
	s.Require().Error(err)
	s.True(errors.IsRuleViolation(err))

	// The grove stays fork-local
	_, err = s.truthRepo.GetEntityByName(s.ctx, &truth.GetEntityByNameInput{
		UniverseID: s.prime.ID,
		Name:       "Whispering Grove",
	})
	s.Require().Error(err)
	s.True(errors.IsNotFound(err))
}

func (s *OrchestratorTestSuite) TestMergeUnknownProposalNotFound() {
	_, err := s.svc.ReviewProposal(s.ctx, &multiverse.ReviewProposalInput{ProposalID: "prop_missing", Approved: true})
	s.Require().Error(err)
	s.True(errors.IsNotFound(err))

	_, err = s.svc.GetProposal(s.ctx, &multiverse.GetProposalInput{ProposalID: "prop_missing"})
	s.Require().Error(err)
	s.True(errors.IsNotFound(err))
}
