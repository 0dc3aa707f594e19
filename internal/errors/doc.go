// Package errors provides the structured error handling used across tta-core.
//
// This package provides:
//   - Structured errors with codes, messages, and metadata
//   - Error context preservation through wrapping
//   - Validation error helpers
//   - Type-safe error checking
//
// # Basic Usage
//
// Creating errors:
//
//	err := errors.NotFound("entity not found")
//	err := errors.BadInputf("invalid dice notation: %q", notation)
//
// Adding metadata:
//
//	err := errors.NotFound("entity not found").
//	    WithMeta("entity_id", entityID).
//	    WithMeta("universe_id", universeID)
//
// Wrapping errors:
//
//	if err := repo.GetEntity(ctx, input); err != nil {
//	    return errors.Wrap(err, "failed to get entity")
//	}
//
// Changing error semantics:
//
//	if err := db.Query(); err != nil {
//	    if isNotFound(err) {
//	        return errors.WrapWithCode(err, errors.CodeNotFound, "entity not found")
//	    }
//	    return errors.Wrap(err, "database error")
//	}
//
// # Error Checking
//
// Type checking:
//
//	if errors.IsNotFound(err) {
//	    // Handle not found case
//	}
//
// Extracting information:
//
//	code := errors.GetCode(err)
//	message := errors.GetMessage(err)
//	meta := errors.GetMeta(err)
//
// # Validation Errors
//
// Using the validation builder:
//
//	vb := errors.NewValidationBuilder()
//	errors.ValidateRequired("name", input.Name, vb)
//	errors.ValidateRange("level", input.Level, 1, 20, vb)
//	if err := vb.Build(); err != nil {
//	    return err
//	}
//
// # Error Codes
//
// The code set is closed and maps one-to-one onto the engine's failure
// policy:
//   - BadInput: malformed notation, unknown intent, invalid operation input
//   - NotFound: missing entity, ability, universe, or quest
//   - InsufficientResource: out of slots, uses, momentum; depleted usage die
//   - InvalidTarget: targeting type or range violation
//   - RuleViolation: rule-level rejection (double concentration, forbidden source)
//   - ConflictState: stale version on save; retried once, then surfaced
//   - Timeout: LLM port deadline expiry; recovered locally via templates
//   - RepoError: persistence failure; fatal to the turn, transaction rolled back
//
// The first five surface to the caller as an unsuccessful result without
// mutating state. Use IsTurnRecoverable to branch on that policy.
package errors
