package truth

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
)

// InMemoryRepository implements Repository with in-process maps. It is the
// default store for tests and single-session play.
type InMemoryRepository struct {
	mu        sync.RWMutex
	universes map[string]*entities.Universe
	byID      map[string]map[string]*entities.Entity // universe id -> entity id -> entity
	byName    map[string]map[string]string           // universe id -> name -> entity id
	events    map[string][]*entities.Event           // universe id -> append order
	eventByID map[string]*entities.Event
	quests    map[string]*entities.Quest
	snapshots map[string][]*entities.Entity // universe id + "@" + event id
}

// NewInMemory creates an empty in-memory truth store
func NewInMemory() *InMemoryRepository {
	return &InMemoryRepository{
		universes: make(map[string]*entities.Universe),
		byID:      make(map[string]map[string]*entities.Entity),
		byName:    make(map[string]map[string]string),
		events:    make(map[string][]*entities.Event),
		eventByID: make(map[string]*entities.Event),
		quests:    make(map[string]*entities.Quest),
		snapshots: make(map[string][]*entities.Entity),
	}
}

func copyEntity(e *entities.Entity) *entities.Entity {
	b, _ := json.Marshal(e)
	var out entities.Entity
	_ = json.Unmarshal(b, &out)
	return &out
}

func copyEvent(e *entities.Event) *entities.Event {
	b, _ := json.Marshal(e)
	var out entities.Event
	_ = json.Unmarshal(b, &out)
	return &out
}

func copyUniverse(u *entities.Universe) *entities.Universe {
	b, _ := json.Marshal(u)
	var out entities.Universe
	_ = json.Unmarshal(b, &out)
	return &out
}

func copyQuest(q *entities.Quest) *entities.Quest {
	b, _ := json.Marshal(q)
	var out entities.Quest
	_ = json.Unmarshal(b, &out)
	return &out
}

// GetEntity retrieves an entity within a universe
func (r *InMemoryRepository) GetEntity(ctx context.Context, input *GetEntityInput) (*GetEntityOutput, error) {
	if input == nil || input.UniverseID == "" || input.EntityID == "" {
		return nil, errors.BadInput("universe ID and entity ID are required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[input.UniverseID][input.EntityID]
	if !ok {
		return nil, errors.NotFoundf("entity %s not found in universe %s", input.EntityID, input.UniverseID)
	}
	return &GetEntityOutput{Entity: copyEntity(e)}, nil
}

// GetEntityByName retrieves an entity by name within a universe
func (r *InMemoryRepository) GetEntityByName(ctx context.Context, input *GetEntityByNameInput) (*GetEntityOutput, error) {
	if input == nil || input.UniverseID == "" || input.Name == "" {
		return nil, errors.BadInput("universe ID and name are required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[input.UniverseID][input.Name]
	if !ok {
		return nil, errors.NotFoundf("entity %q not found in universe %s", input.Name, input.UniverseID)
	}
	return &GetEntityOutput{Entity: copyEntity(r.byID[input.UniverseID][id])}, nil
}

// ListEntities returns entities of a type in a universe
func (r *InMemoryRepository) ListEntities(ctx context.Context, input *ListEntitiesInput) (*ListEntitiesOutput, error) {
	if input == nil || input.UniverseID == "" {
		return nil, errors.BadInput("universe ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := &ListEntitiesOutput{}
	for _, e := range r.byID[input.UniverseID] {
		if input.Type != "" && e.Type != input.Type {
			continue
		}
		out.Entities = append(out.Entities, copyEntity(e))
	}
	return out, nil
}

// saveEntityLocked applies a save under the write lock. Returns whether the
// write applied.
func (r *InMemoryRepository) saveEntityLocked(e *entities.Entity) (bool, error) {
	if err := e.Validate(); err != nil {
		return false, err
	}

	universe := r.byID[e.UniverseID]
	if universe == nil {
		universe = make(map[string]*entities.Entity)
		r.byID[e.UniverseID] = universe
		r.byName[e.UniverseID] = make(map[string]string)
	}

	existing, ok := universe[e.ID]
	if ok {
		if e.Version == existing.Version {
			return false, nil // idempotent re-save
		}
		if e.Version < existing.Version {
			return false, errors.ConflictStatef(
				"stale version %d for entity %s (current %d)", e.Version, e.ID, existing.Version)
		}
		if existing.Name != e.Name {
			delete(r.byName[e.UniverseID], existing.Name)
		}
	}

	if otherID, taken := r.byName[e.UniverseID][e.Name]; taken && otherID != e.ID {
		return false, errors.ConflictStatef("entity name %q already used in universe %s", e.Name, e.UniverseID)
	}

	universe[e.ID] = copyEntity(e)
	r.byName[e.UniverseID][e.Name] = e.ID
	return true, nil
}

// SaveEntity inserts or updates an entity with version checking
func (r *InMemoryRepository) SaveEntity(ctx context.Context, input *SaveEntityInput) (*SaveEntityOutput, error) {
	if input == nil || input.Entity == nil {
		return nil, errors.BadInput("entity is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	applied, err := r.saveEntityLocked(input.Entity)
	if err != nil {
		return nil, err
	}
	return &SaveEntityOutput{Applied: applied}, nil
}

func (r *InMemoryRepository) appendEventLocked(e *entities.Event) (int, error) {
	if e.ID == "" || e.UniverseID == "" {
		return 0, errors.BadInput("event ID and universe ID are required")
	}
	if _, exists := r.eventByID[e.ID]; exists {
		return 0, errors.ConflictStatef("event %s already appended", e.ID)
	}
	stored := copyEvent(e)
	r.events[e.UniverseID] = append(r.events[e.UniverseID], stored)
	r.eventByID[e.ID] = stored
	return len(r.events[e.UniverseID]), nil
}

// AppendEvent appends to the immutable event log
func (r *InMemoryRepository) AppendEvent(ctx context.Context, input *AppendEventInput) (*AppendEventOutput, error) {
	if input == nil || input.Event == nil {
		return nil, errors.BadInput("event is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seq, err := r.appendEventLocked(input.Event)
	if err != nil {
		return nil, err
	}
	return &AppendEventOutput{Sequence: seq}, nil
}

// GetEvent retrieves a single event
func (r *InMemoryRepository) GetEvent(ctx context.Context, input *GetEventInput) (*GetEventOutput, error) {
	if input == nil || input.EventID == "" {
		return nil, errors.BadInput("event ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.eventByID[input.EventID]
	if !ok {
		return nil, errors.NotFoundf("event %s not found", input.EventID)
	}
	return &GetEventOutput{Event: copyEvent(e)}, nil
}

// ListEvents returns events for a universe in append order
func (r *InMemoryRepository) ListEvents(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error) {
	if input == nil || input.UniverseID == "" {
		return nil, errors.BadInput("universe ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.events[input.UniverseID]
	start := 0
	if input.SinceEventID != "" {
		found := false
		for i, e := range events {
			if e.ID == input.SinceEventID {
				start = i + 1
				found = true
				break
			}
		}
		if !found {
			return nil, errors.NotFoundf("event %s not found in universe %s", input.SinceEventID, input.UniverseID)
		}
	}

	out := &ListEventsOutput{}
	for _, e := range events[start:] {
		if input.LocationID != "" && e.LocationID != input.LocationID {
			continue
		}
		out.Events = append(out.Events, copyEvent(e))
		if input.Limit > 0 && len(out.Events) >= input.Limit {
			break
		}
	}
	return out, nil
}

// CreateUniverse inserts a universe record
func (r *InMemoryRepository) CreateUniverse(ctx context.Context, input *CreateUniverseInput) (*CreateUniverseOutput, error) {
	if input == nil || input.Universe == nil || input.Universe.ID == "" {
		return nil, errors.BadInput("universe is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.universes[input.Universe.ID]; exists {
		return nil, errors.ConflictStatef("universe %s already exists", input.Universe.ID)
	}
	r.universes[input.Universe.ID] = copyUniverse(input.Universe)
	return &CreateUniverseOutput{}, nil
}

// GetUniverse retrieves a universe
func (r *InMemoryRepository) GetUniverse(ctx context.Context, input *GetUniverseInput) (*GetUniverseOutput, error) {
	if input == nil || input.UniverseID == "" {
		return nil, errors.BadInput("universe ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.universes[input.UniverseID]
	if !ok {
		return nil, errors.NotFoundf("universe %s not found", input.UniverseID)
	}
	return &GetUniverseOutput{Universe: copyUniverse(u)}, nil
}

// UpdateUniverse updates a universe record
func (r *InMemoryRepository) UpdateUniverse(ctx context.Context, input *UpdateUniverseInput) (*UpdateUniverseOutput, error) {
	if input == nil || input.Universe == nil || input.Universe.ID == "" {
		return nil, errors.BadInput("universe is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.universes[input.Universe.ID]; !ok {
		return nil, errors.NotFoundf("universe %s not found", input.Universe.ID)
	}
	r.universes[input.Universe.ID] = copyUniverse(input.Universe)
	return &UpdateUniverseOutput{}, nil
}

// ListUniverses returns all universes
func (r *InMemoryRepository) ListUniverses(ctx context.Context, input *ListUniversesInput) (*ListUniversesOutput, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := &ListUniversesOutput{}
	for _, u := range r.universes {
		out.Universes = append(out.Universes, copyUniverse(u))
	}
	return out, nil
}

// CreateBranch copies one universe's entities, events, and quests into
// another universe id
func (r *InMemoryRepository) CreateBranch(ctx context.Context, input *CreateBranchInput) (*CreateBranchOutput, error) {
	if input == nil || input.FromUniverseID == "" || input.ToUniverseID == "" {
		return nil, errors.BadInput("source and destination universe IDs are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if input.FromUniverseID == input.ToUniverseID {
		return nil, errors.BadInput("cannot branch a universe onto itself")
	}
	if len(r.byID[input.ToUniverseID]) > 0 || len(r.events[input.ToUniverseID]) > 0 {
		return nil, errors.ConflictStatef("universe %s already has state", input.ToUniverseID)
	}

	out := &CreateBranchOutput{}
	dest := make(map[string]*entities.Entity)
	destNames := make(map[string]string)
	for id, e := range r.byID[input.FromUniverseID] {
		clone := copyEntity(e)
		clone.UniverseID = input.ToUniverseID
		dest[id] = clone
		destNames[clone.Name] = id
		out.EntitiesCopied++
	}
	r.byID[input.ToUniverseID] = dest
	r.byName[input.ToUniverseID] = destNames

	for _, e := range r.events[input.FromUniverseID] {
		clone := copyEvent(e)
		clone.UniverseID = input.ToUniverseID
		// Branched events keep their identity prefixed by the new universe so
		// the per-id index stays unique
		clone.ID = input.ToUniverseID + ":" + clone.ID
		r.events[input.ToUniverseID] = append(r.events[input.ToUniverseID], clone)
		r.eventByID[clone.ID] = clone
		out.EventsCopied++
	}

	for id, q := range r.quests {
		if q.UniverseID != input.FromUniverseID {
			continue
		}
		clone := copyQuest(q)
		clone.UniverseID = input.ToUniverseID
		clone.ID = input.ToUniverseID + ":" + id
		r.quests[clone.ID] = clone
	}

	return out, nil
}

// SnapshotAt captures the current entity state of a universe
func (r *InMemoryRepository) SnapshotAt(ctx context.Context, input *SnapshotAtInput) (*SnapshotAtOutput, error) {
	if input == nil || input.UniverseID == "" || input.EventID == "" {
		return nil, errors.BadInput("universe ID and event ID are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var snap []*entities.Entity
	for _, e := range r.byID[input.UniverseID] {
		snap = append(snap, copyEntity(e))
	}
	r.snapshots[input.UniverseID+"@"+input.EventID] = snap
	return &SnapshotAtOutput{}, nil
}

// GetSnapshot retrieves a previously captured snapshot
func (r *InMemoryRepository) GetSnapshot(ctx context.Context, input *GetSnapshotInput) (*GetSnapshotOutput, error) {
	if input == nil || input.UniverseID == "" || input.EventID == "" {
		return nil, errors.BadInput("universe ID and event ID are required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, ok := r.snapshots[input.UniverseID+"@"+input.EventID]
	if !ok {
		return nil, errors.NotFoundf("no snapshot for universe %s at event %s", input.UniverseID, input.EventID)
	}
	out := &GetSnapshotOutput{}
	for _, e := range snap {
		out.Entities = append(out.Entities, copyEntity(e))
	}
	return out, nil
}

// SaveQuest inserts or updates a quest
func (r *InMemoryRepository) SaveQuest(ctx context.Context, input *SaveQuestInput) (*SaveQuestOutput, error) {
	if input == nil || input.Quest == nil || input.Quest.ID == "" {
		return nil, errors.BadInput("quest is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.quests[input.Quest.ID] = copyQuest(input.Quest)
	return &SaveQuestOutput{}, nil
}

// GetQuest retrieves a quest
func (r *InMemoryRepository) GetQuest(ctx context.Context, input *GetQuestInput) (*GetQuestOutput, error) {
	if input == nil || input.QuestID == "" {
		return nil, errors.BadInput("quest ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.quests[input.QuestID]
	if !ok {
		return nil, errors.NotFoundf("quest %s not found", input.QuestID)
	}
	return &GetQuestOutput{Quest: copyQuest(q)}, nil
}

// ListQuests returns quests in a universe
func (r *InMemoryRepository) ListQuests(ctx context.Context, input *ListQuestsInput) (*ListQuestsOutput, error) {
	if input == nil || input.UniverseID == "" {
		return nil, errors.BadInput("universe ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := &ListQuestsOutput{}
	for _, q := range r.quests {
		if q.UniverseID != input.UniverseID {
			continue
		}
		if input.Status != "" && q.Status != input.Status {
			continue
		}
		out.Quests = append(out.Quests, copyQuest(q))
	}
	return out, nil
}

// Begin starts a staged-write transaction
func (r *InMemoryRepository) Begin(ctx context.Context) (Transaction, error) {
	return &inMemoryTx{repo: r}, nil
}

type stagedWrite struct {
	entity *entities.Entity
	event  *entities.Event
	quest  *entities.Quest
}

type inMemoryTx struct {
	repo      *InMemoryRepository
	staged    []stagedWrite
	committed bool
}

// SaveEntity stages an entity write
func (t *inMemoryTx) SaveEntity(ctx context.Context, input *SaveEntityInput) error {
	if input == nil || input.Entity == nil {
		return errors.BadInput("entity is required")
	}
	t.staged = append(t.staged, stagedWrite{entity: copyEntity(input.Entity)})
	return nil
}

// AppendEvent stages an event append
func (t *inMemoryTx) AppendEvent(ctx context.Context, input *AppendEventInput) error {
	if input == nil || input.Event == nil {
		return errors.BadInput("event is required")
	}
	t.staged = append(t.staged, stagedWrite{event: copyEvent(input.Event)})
	return nil
}

// SaveQuest stages a quest write
func (t *inMemoryTx) SaveQuest(ctx context.Context, input *SaveQuestInput) error {
	if input == nil || input.Quest == nil {
		return errors.BadInput("quest is required")
	}
	t.staged = append(t.staged, stagedWrite{quest: copyQuest(input.Quest)})
	return nil
}

// Commit applies all staged writes atomically
func (t *inMemoryTx) Commit(ctx context.Context) error {
	if t.committed {
		return errors.ConflictState("transaction already committed")
	}

	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	// Validate everything before touching state so a failure applies nothing
	for _, w := range t.staged {
		if w.entity != nil {
			if err := w.entity.Validate(); err != nil {
				return err
			}
			if existing, ok := t.repo.byID[w.entity.UniverseID][w.entity.ID]; ok {
				if w.entity.Version < existing.Version {
					return errors.ConflictStatef(
						"stale version %d for entity %s (current %d)",
						w.entity.Version, w.entity.ID, existing.Version)
				}
			}
		}
		if w.event != nil {
			if _, exists := t.repo.eventByID[w.event.ID]; exists {
				return errors.ConflictStatef("event %s already appended", w.event.ID)
			}
		}
	}

	for _, w := range t.staged {
		switch {
		case w.entity != nil:
			if _, err := t.repo.saveEntityLocked(w.entity); err != nil {
				return err
			}
		case w.event != nil:
			if _, err := t.repo.appendEventLocked(w.event); err != nil {
				return err
			}
		case w.quest != nil:
			t.repo.quests[w.quest.ID] = w.quest
		}
	}

	t.committed = true
	t.staged = nil
	return nil
}

// Discard drops all staged writes
func (t *inMemoryTx) Discard() {
	t.staged = nil
}
