package errors

// Code represents an error code
type Code string

// Error codes. This is a closed set: every failure the engine can produce
// maps onto exactly one of these.
const (
	CodeOK Code = "OK"

	// CodeBadInput covers malformed dice notation, unknown intents, and
	// invalid operation inputs.
	CodeBadInput Code = "BAD_INPUT"

	// CodeNotFound covers missing entities, abilities, universes, and quests.
	CodeNotFound Code = "NOT_FOUND"

	// CodeInsufficientResource covers exhausted spell slots, cooldown uses,
	// momentum, depleted usage dice, and spent defy-death uses.
	CodeInsufficientResource Code = "INSUFFICIENT_RESOURCE"

	// CodeInvalidTarget covers targeting violations (wrong targeting type,
	// out of range, self-only ability aimed elsewhere).
	CodeInvalidTarget Code = "INVALID_TARGET"

	// CodeRuleViolation covers rule-level rejections such as a second
	// concurrent concentration effect or a forbidden ability source.
	CodeRuleViolation Code = "RULE_VIOLATION"

	// CodeConflictState covers stale-version saves and other optimistic
	// concurrency conflicts.
	CodeConflictState Code = "CONFLICT_STATE"

	// CodeTimeout covers LLM port deadline expiry.
	CodeTimeout Code = "TIMEOUT"

	// CodeRepoError covers persistence failures. Fatal to the turn.
	CodeRepoError Code = "REPO_ERROR"
)

// String returns the string representation of the code
func (c Code) String() string {
	return string(c)
}
