// Package truth defines the truth-store port: entities, the append-only
// event log, universes, quests, branches, and snapshots.
package truth

//go:generate mockgen -destination=mock/mock_repository.go -package=truthmock github.com/KirkDiggler/tta-core/internal/repositories/truth Repository

import (
	"context"

	"github.com/KirkDiggler/tta-core/internal/entities"
)

// Repository is the truth-store port. Events are append-only; entity saves
// are idempotent given (id, version); branches give each universe its own
// copy-on-fork state.
type Repository interface {
	// GetEntity retrieves an entity within a universe
	GetEntity(ctx context.Context, input *GetEntityInput) (*GetEntityOutput, error)

	// GetEntityByName retrieves an entity by its unique-per-universe name
	GetEntityByName(ctx context.Context, input *GetEntityByNameInput) (*GetEntityOutput, error)

	// ListEntities returns entities of a type in a universe
	ListEntities(ctx context.Context, input *ListEntitiesInput) (*ListEntitiesOutput, error)

	// SaveEntity inserts or updates an entity. Saving the same version twice
	// is a no-op; saving an older version fails with ConflictState.
	SaveEntity(ctx context.Context, input *SaveEntityInput) (*SaveEntityOutput, error)

	// AppendEvent appends to the immutable event log
	AppendEvent(ctx context.Context, input *AppendEventInput) (*AppendEventOutput, error)

	// GetEvent retrieves a single event
	GetEvent(ctx context.Context, input *GetEventInput) (*GetEventOutput, error)

	// ListEvents returns events for a universe in append order
	ListEvents(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error)

	// CreateUniverse inserts a universe record
	CreateUniverse(ctx context.Context, input *CreateUniverseInput) (*CreateUniverseOutput, error)

	// GetUniverse retrieves a universe
	GetUniverse(ctx context.Context, input *GetUniverseInput) (*GetUniverseOutput, error)

	// UpdateUniverse updates a universe record
	UpdateUniverse(ctx context.Context, input *UpdateUniverseInput) (*UpdateUniverseOutput, error)

	// ListUniverses returns all universes
	ListUniverses(ctx context.Context, input *ListUniversesInput) (*ListUniversesOutput, error)

	// CreateBranch copies one universe's state into another. Called once per
	// fork, immediately after CreateUniverse.
	CreateBranch(ctx context.Context, input *CreateBranchInput) (*CreateBranchOutput, error)

	// SnapshotAt captures a universe's entity state, identified by the event
	// id up to which it is valid
	SnapshotAt(ctx context.Context, input *SnapshotAtInput) (*SnapshotAtOutput, error)

	// GetSnapshot retrieves a previously captured snapshot
	GetSnapshot(ctx context.Context, input *GetSnapshotInput) (*GetSnapshotOutput, error)

	// SaveQuest inserts or updates a quest
	SaveQuest(ctx context.Context, input *SaveQuestInput) (*SaveQuestOutput, error)

	// GetQuest retrieves a quest
	GetQuest(ctx context.Context, input *GetQuestInput) (*GetQuestOutput, error)

	// ListQuests returns quests in a universe
	ListQuests(ctx context.Context, input *ListQuestsInput) (*ListQuestsOutput, error)

	// Begin starts a staged-write transaction. Writes are invisible until
	// Commit; a failed Commit applies nothing.
	Begin(ctx context.Context) (Transaction, error)
}

// Transaction stages writes and applies them atomically on Commit
type Transaction interface {
	// SaveEntity stages an entity write
	SaveEntity(ctx context.Context, input *SaveEntityInput) error

	// AppendEvent stages an event append
	AppendEvent(ctx context.Context, input *AppendEventInput) error

	// SaveQuest stages a quest write
	SaveQuest(ctx context.Context, input *SaveQuestInput) error

	// Commit applies all staged writes. Version conflicts fail the whole
	// transaction with ConflictState and nothing is applied.
	Commit(ctx context.Context) error

	// Discard drops all staged writes
	Discard()
}

// GetEntityInput identifies an entity within a universe
type GetEntityInput struct {
	UniverseID string
	EntityID   string
}

// GetEntityByNameInput identifies an entity by name within a universe
type GetEntityByNameInput struct {
	UniverseID string
	Name       string
}

// GetEntityOutput carries the retrieved entity
type GetEntityOutput struct {
	Entity *entities.Entity
}

// ListEntitiesInput filters entities by universe and optional type
type ListEntitiesInput struct {
	UniverseID string
	Type       entities.EntityType // empty matches all
}

// ListEntitiesOutput carries the matched entities
type ListEntitiesOutput struct {
	Entities []*entities.Entity
}

// SaveEntityInput carries the entity to persist
type SaveEntityInput struct {
	Entity *entities.Entity
}

// SaveEntityOutput reports whether the save applied or was an idempotent
// no-op
type SaveEntityOutput struct {
	Applied bool
}

// AppendEventInput carries the event to append
type AppendEventInput struct {
	Event *entities.Event
}

// AppendEventOutput reports the appended event's sequence in its universe
type AppendEventOutput struct {
	Sequence int
}

// GetEventInput identifies an event
type GetEventInput struct {
	EventID string
}

// GetEventOutput carries the retrieved event
type GetEventOutput struct {
	Event *entities.Event
}

// ListEventsInput filters the event log
type ListEventsInput struct {
	UniverseID   string
	SinceEventID string // exclusive; empty means from the beginning
	LocationID   string // optional filter
	Limit        int    // 0 means no limit
}

// ListEventsOutput carries events in append order
type ListEventsOutput struct {
	Events []*entities.Event
}

// CreateUniverseInput carries the universe to insert
type CreateUniverseInput struct {
	Universe *entities.Universe
}

// CreateUniverseOutput is empty; errors carry the failure
type CreateUniverseOutput struct{}

// GetUniverseInput identifies a universe
type GetUniverseInput struct {
	UniverseID string
}

// GetUniverseOutput carries the retrieved universe
type GetUniverseOutput struct {
	Universe *entities.Universe
}

// UpdateUniverseInput carries the universe to update
type UpdateUniverseInput struct {
	Universe *entities.Universe
}

// UpdateUniverseOutput is empty; errors carry the failure
type UpdateUniverseOutput struct{}

// ListUniversesInput is empty; all universes are returned
type ListUniversesInput struct{}

// ListUniversesOutput carries all universes
type ListUniversesOutput struct {
	Universes []*entities.Universe
}

// CreateBranchInput names the source and destination universes
type CreateBranchInput struct {
	FromUniverseID string
	ToUniverseID   string
	Branch         string
}

// CreateBranchOutput reports how many records were copied
type CreateBranchOutput struct {
	EntitiesCopied int
	EventsCopied   int
}

// SnapshotAtInput identifies the universe and the event the snapshot is
// valid up to
type SnapshotAtInput struct {
	UniverseID string
	EventID    string
}

// SnapshotAtOutput is empty; errors carry the failure
type SnapshotAtOutput struct{}

// GetSnapshotInput identifies a snapshot by universe and event
type GetSnapshotInput struct {
	UniverseID string
	EventID    string
}

// GetSnapshotOutput carries the snapshotted entities
type GetSnapshotOutput struct {
	Entities []*entities.Entity
}

// SaveQuestInput carries the quest to persist
type SaveQuestInput struct {
	Quest *entities.Quest
}

// SaveQuestOutput is empty; errors carry the failure
type SaveQuestOutput struct{}

// GetQuestInput identifies a quest
type GetQuestInput struct {
	QuestID string
}

// GetQuestOutput carries the retrieved quest
type GetQuestOutput struct {
	Quest *entities.Quest
}

// ListQuestsInput filters quests by universe and optional status
type ListQuestsInput struct {
	UniverseID string
	Status     entities.QuestStatus // empty matches all
}

// ListQuestsOutput carries the matched quests
type ListQuestsOutput struct {
	Quests []*entities.Quest
}
