package truth

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS universes (
	id TEXT PRIMARY KEY,
	doc TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS entities (
	universe_id TEXT NOT NULL,
	id TEXT NOT NULL,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	version INTEGER NOT NULL,
	doc TEXT NOT NULL,
	PRIMARY KEY (universe_id, id)
);
CREATE UNIQUE INDEX IF NOT EXISTS entities_name ON entities (universe_id, name);
CREATE TABLE IF NOT EXISTS events (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	universe_id TEXT NOT NULL,
	location_id TEXT,
	doc TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS events_universe ON events (universe_id, seq);
CREATE TABLE IF NOT EXISTS quests (
	id TEXT PRIMARY KEY,
	universe_id TEXT NOT NULL,
	status TEXT NOT NULL,
	doc TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots (
	universe_id TEXT NOT NULL,
	event_id TEXT NOT NULL,
	doc TEXT NOT NULL,
	PRIMARY KEY (universe_id, event_id)
);
`

// SQLiteRepository implements Repository over a SQLite database. Stats,
// tags, and payload columns are stored as JSON documents.
type SQLiteRepository struct {
	db *sql.DB
}

// SQLiteConfig holds the connection settings
type SQLiteConfig struct {
	// Path is the database file; ":memory:" for ephemeral stores
	Path string
}

// Validate ensures the config is complete
func (c *SQLiteConfig) Validate() error {
	if c == nil {
		return errors.BadInput("config is required")
	}
	if c.Path == "" {
		return errors.BadInput("path is required")
	}
	return nil
}

// NewSQLite opens the database and bootstraps the schema
func NewSQLite(cfg *SQLiteConfig) (*SQLiteRepository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite database")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to bootstrap schema")
	}
	return &SQLiteRepository{db: db}, nil
}

// Close releases the database handle
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanEntity(doc string) (*entities.Entity, error) {
	var e entities.Entity
	if err := json.Unmarshal([]byte(doc), &e); err != nil {
		return nil, errors.Wrap(err, "failed to decode entity document")
	}
	return &e, nil
}

// GetEntity retrieves an entity within a universe
func (r *SQLiteRepository) GetEntity(ctx context.Context, input *GetEntityInput) (*GetEntityOutput, error) {
	if input == nil || input.UniverseID == "" || input.EntityID == "" {
		return nil, errors.BadInput("universe ID and entity ID are required")
	}

	var doc string
	err := r.db.QueryRowContext(ctx,
		`SELECT doc FROM entities WHERE universe_id = ? AND id = ?`,
		input.UniverseID, input.EntityID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("entity %s not found in universe %s", input.EntityID, input.UniverseID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query entity")
	}

	e, err := scanEntity(doc)
	if err != nil {
		return nil, err
	}
	return &GetEntityOutput{Entity: e}, nil
}

// GetEntityByName retrieves an entity by name within a universe
func (r *SQLiteRepository) GetEntityByName(ctx context.Context, input *GetEntityByNameInput) (*GetEntityOutput, error) {
	if input == nil || input.UniverseID == "" || input.Name == "" {
		return nil, errors.BadInput("universe ID and name are required")
	}

	var doc string
	err := r.db.QueryRowContext(ctx,
		`SELECT doc FROM entities WHERE universe_id = ? AND name = ?`,
		input.UniverseID, input.Name).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("entity %q not found in universe %s", input.Name, input.UniverseID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query entity by name")
	}

	e, err := scanEntity(doc)
	if err != nil {
		return nil, err
	}
	return &GetEntityOutput{Entity: e}, nil
}

// ListEntities returns entities of a type in a universe
func (r *SQLiteRepository) ListEntities(ctx context.Context, input *ListEntitiesInput) (*ListEntitiesOutput, error) {
	if input == nil || input.UniverseID == "" {
		return nil, errors.BadInput("universe ID is required")
	}

	query := `SELECT doc FROM entities WHERE universe_id = ?`
	args := []interface{}{input.UniverseID}
	if input.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(input.Type))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list entities")
	}
	defer func() { _ = rows.Close() }()

	out := &ListEntitiesOutput{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.Wrap(err, "failed to scan entity row")
		}
		e, err := scanEntity(doc)
		if err != nil {
			return nil, err
		}
		out.Entities = append(out.Entities, e)
	}
	return out, rows.Err()
}

func saveEntityExec(ctx context.Context, q queryer, e *entities.Entity) (bool, error) {
	if err := e.Validate(); err != nil {
		return false, err
	}

	var current int64
	err := q.QueryRowContext(ctx,
		`SELECT version FROM entities WHERE universe_id = ? AND id = ?`,
		e.UniverseID, e.ID).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		// insert below
	case err != nil:
		return false, errors.Wrap(err, "failed to query entity version")
	case e.Version == current:
		return false, nil
	case e.Version < current:
		return false, errors.ConflictStatef(
			"stale version %d for entity %s (current %d)", e.Version, e.ID, current)
	}

	doc, err := json.Marshal(e)
	if err != nil {
		return false, errors.Wrap(err, "failed to encode entity")
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO entities (universe_id, id, name, type, version, doc)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (universe_id, id)
		DO UPDATE SET name = excluded.name, type = excluded.type,
			version = excluded.version, doc = excluded.doc`,
		e.UniverseID, e.ID, e.Name, string(e.Type), e.Version, string(doc))
	if err != nil {
		return false, errors.Wrap(err, "failed to save entity")
	}
	return true, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SaveEntity inserts or updates an entity with version checking
func (r *SQLiteRepository) SaveEntity(ctx context.Context, input *SaveEntityInput) (*SaveEntityOutput, error) {
	if input == nil || input.Entity == nil {
		return nil, errors.BadInput("entity is required")
	}
	applied, err := saveEntityExec(ctx, r.db, input.Entity)
	if err != nil {
		return nil, err
	}
	return &SaveEntityOutput{Applied: applied}, nil
}

func appendEventExec(ctx context.Context, q queryer, e *entities.Event) (int, error) {
	if e.ID == "" || e.UniverseID == "" {
		return 0, errors.BadInput("event ID and universe ID are required")
	}
	doc, err := json.Marshal(e)
	if err != nil {
		return 0, errors.Wrap(err, "failed to encode event")
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO events (id, universe_id, location_id, doc) VALUES (?, ?, ?, ?)`,
		e.ID, e.UniverseID, e.LocationID, string(doc))
	if err != nil {
		return 0, errors.WrapWithCodef(err, errors.CodeConflictState, "failed to append event %s", e.ID)
	}
	seq, _ := res.LastInsertId()
	return int(seq), nil
}

// AppendEvent appends to the immutable event log
func (r *SQLiteRepository) AppendEvent(ctx context.Context, input *AppendEventInput) (*AppendEventOutput, error) {
	if input == nil || input.Event == nil {
		return nil, errors.BadInput("event is required")
	}
	seq, err := appendEventExec(ctx, r.db, input.Event)
	if err != nil {
		return nil, err
	}
	return &AppendEventOutput{Sequence: seq}, nil
}

// GetEvent retrieves a single event
func (r *SQLiteRepository) GetEvent(ctx context.Context, input *GetEventInput) (*GetEventOutput, error) {
	if input == nil || input.EventID == "" {
		return nil, errors.BadInput("event ID is required")
	}

	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM events WHERE id = ?`, input.EventID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("event %s not found", input.EventID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query event")
	}

	var e entities.Event
	if err := json.Unmarshal([]byte(doc), &e); err != nil {
		return nil, errors.Wrap(err, "failed to decode event document")
	}
	return &GetEventOutput{Event: &e}, nil
}

// ListEvents returns events for a universe in append order
func (r *SQLiteRepository) ListEvents(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error) {
	if input == nil || input.UniverseID == "" {
		return nil, errors.BadInput("universe ID is required")
	}

	query := `SELECT doc FROM events WHERE universe_id = ?`
	args := []interface{}{input.UniverseID}

	if input.SinceEventID != "" {
		var sinceSeq int64
		err := r.db.QueryRowContext(ctx,
			`SELECT seq FROM events WHERE id = ? AND universe_id = ?`,
			input.SinceEventID, input.UniverseID).Scan(&sinceSeq)
		if err == sql.ErrNoRows {
			return nil, errors.NotFoundf("event %s not found in universe %s", input.SinceEventID, input.UniverseID)
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve since event")
		}
		query += ` AND seq > ?`
		args = append(args, sinceSeq)
	}
	if input.LocationID != "" {
		query += ` AND location_id = ?`
		args = append(args, input.LocationID)
	}
	query += ` ORDER BY seq`
	if input.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, input.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list events")
	}
	defer func() { _ = rows.Close() }()

	out := &ListEventsOutput{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.Wrap(err, "failed to scan event row")
		}
		var e entities.Event
		if err := json.Unmarshal([]byte(doc), &e); err != nil {
			return nil, errors.Wrap(err, "failed to decode event document")
		}
		out.Events = append(out.Events, &e)
	}
	return out, rows.Err()
}

// CreateUniverse inserts a universe record
func (r *SQLiteRepository) CreateUniverse(ctx context.Context, input *CreateUniverseInput) (*CreateUniverseOutput, error) {
	if input == nil || input.Universe == nil || input.Universe.ID == "" {
		return nil, errors.BadInput("universe is required")
	}

	doc, err := json.Marshal(input.Universe)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode universe")
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO universes (id, doc) VALUES (?, ?)`,
		input.Universe.ID, string(doc))
	if err != nil {
		return nil, errors.WrapWithCodef(err, errors.CodeConflictState,
			"failed to create universe %s", input.Universe.ID)
	}
	return &CreateUniverseOutput{}, nil
}

// GetUniverse retrieves a universe
func (r *SQLiteRepository) GetUniverse(ctx context.Context, input *GetUniverseInput) (*GetUniverseOutput, error) {
	if input == nil || input.UniverseID == "" {
		return nil, errors.BadInput("universe ID is required")
	}

	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM universes WHERE id = ?`, input.UniverseID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("universe %s not found", input.UniverseID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query universe")
	}

	var u entities.Universe
	if err := json.Unmarshal([]byte(doc), &u); err != nil {
		return nil, errors.Wrap(err, "failed to decode universe document")
	}
	return &GetUniverseOutput{Universe: &u}, nil
}

// UpdateUniverse updates a universe record
func (r *SQLiteRepository) UpdateUniverse(ctx context.Context, input *UpdateUniverseInput) (*UpdateUniverseOutput, error) {
	if input == nil || input.Universe == nil || input.Universe.ID == "" {
		return nil, errors.BadInput("universe is required")
	}

	doc, err := json.Marshal(input.Universe)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode universe")
	}
	res, err := r.db.ExecContext(ctx, `UPDATE universes SET doc = ? WHERE id = ?`,
		string(doc), input.Universe.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update universe")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errors.NotFoundf("universe %s not found", input.Universe.ID)
	}
	return &UpdateUniverseOutput{}, nil
}

// ListUniverses returns all universes
func (r *SQLiteRepository) ListUniverses(ctx context.Context, input *ListUniversesInput) (*ListUniversesOutput, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT doc FROM universes`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list universes")
	}
	defer func() { _ = rows.Close() }()

	out := &ListUniversesOutput{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.Wrap(err, "failed to scan universe row")
		}
		var u entities.Universe
		if err := json.Unmarshal([]byte(doc), &u); err != nil {
			return nil, errors.Wrap(err, "failed to decode universe document")
		}
		out.Universes = append(out.Universes, &u)
	}
	return out, rows.Err()
}

// CreateBranch copies one universe's entities, events, and quests into
// another universe id, all in one SQL transaction
func (r *SQLiteRepository) CreateBranch(ctx context.Context, input *CreateBranchInput) (*CreateBranchOutput, error) {
	if input == nil || input.FromUniverseID == "" || input.ToUniverseID == "" {
		return nil, errors.BadInput("source and destination universe IDs are required")
	}
	if input.FromUniverseID == input.ToUniverseID {
		return nil, errors.BadInput("cannot branch a universe onto itself")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin branch transaction")
	}
	defer func() { _ = tx.Rollback() }()

	out := &CreateBranchOutput{}

	rows, err := tx.QueryContext(ctx,
		`SELECT doc FROM entities WHERE universe_id = ?`, input.FromUniverseID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read source entities")
	}
	var docs []string
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			_ = rows.Close()
			return nil, errors.Wrap(err, "failed to scan entity row")
		}
		docs = append(docs, doc)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read source entities")
	}

	for _, doc := range docs {
		e, err := scanEntity(doc)
		if err != nil {
			return nil, err
		}
		e.UniverseID = input.ToUniverseID
		if _, err := saveEntityExec(ctx, tx, e); err != nil {
			return nil, err
		}
		out.EntitiesCopied++
	}

	eventRows, err := tx.QueryContext(ctx,
		`SELECT doc FROM events WHERE universe_id = ? ORDER BY seq`, input.FromUniverseID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read source events")
	}
	var eventDocs []string
	for eventRows.Next() {
		var doc string
		if err := eventRows.Scan(&doc); err != nil {
			_ = eventRows.Close()
			return nil, errors.Wrap(err, "failed to scan event row")
		}
		eventDocs = append(eventDocs, doc)
	}
	_ = eventRows.Close()
	if err := eventRows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read source events")
	}

	for _, doc := range eventDocs {
		var e entities.Event
		if err := json.Unmarshal([]byte(doc), &e); err != nil {
			return nil, errors.Wrap(err, "failed to decode event document")
		}
		e.UniverseID = input.ToUniverseID
		e.ID = input.ToUniverseID + ":" + e.ID
		if _, err := appendEventExec(ctx, tx, &e); err != nil {
			return nil, err
		}
		out.EventsCopied++
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit branch")
	}
	return out, nil
}

// SnapshotAt captures the current entity state of a universe
func (r *SQLiteRepository) SnapshotAt(ctx context.Context, input *SnapshotAtInput) (*SnapshotAtOutput, error) {
	if input == nil || input.UniverseID == "" || input.EventID == "" {
		return nil, errors.BadInput("universe ID and event ID are required")
	}

	list, err := r.ListEntities(ctx, &ListEntitiesInput{UniverseID: input.UniverseID})
	if err != nil {
		return nil, err
	}
	doc, err := json.Marshal(list.Entities)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode snapshot")
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (universe_id, event_id, doc) VALUES (?, ?, ?)
		ON CONFLICT (universe_id, event_id) DO UPDATE SET doc = excluded.doc`,
		input.UniverseID, input.EventID, string(doc))
	if err != nil {
		return nil, errors.Wrap(err, "failed to save snapshot")
	}
	return &SnapshotAtOutput{}, nil
}

// GetSnapshot retrieves a previously captured snapshot
func (r *SQLiteRepository) GetSnapshot(ctx context.Context, input *GetSnapshotInput) (*GetSnapshotOutput, error) {
	if input == nil || input.UniverseID == "" || input.EventID == "" {
		return nil, errors.BadInput("universe ID and event ID are required")
	}

	var doc string
	err := r.db.QueryRowContext(ctx,
		`SELECT doc FROM snapshots WHERE universe_id = ? AND event_id = ?`,
		input.UniverseID, input.EventID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("no snapshot for universe %s at event %s", input.UniverseID, input.EventID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query snapshot")
	}

	out := &GetSnapshotOutput{}
	if err := json.Unmarshal([]byte(doc), &out.Entities); err != nil {
		return nil, errors.Wrap(err, "failed to decode snapshot")
	}
	return out, nil
}

// SaveQuest inserts or updates a quest
func (r *SQLiteRepository) SaveQuest(ctx context.Context, input *SaveQuestInput) (*SaveQuestOutput, error) {
	if input == nil || input.Quest == nil || input.Quest.ID == "" {
		return nil, errors.BadInput("quest is required")
	}

	doc, err := json.Marshal(input.Quest)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode quest")
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO quests (id, universe_id, status, doc) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET status = excluded.status, doc = excluded.doc`,
		input.Quest.ID, input.Quest.UniverseID, string(input.Quest.Status), string(doc))
	if err != nil {
		return nil, errors.Wrap(err, "failed to save quest")
	}
	return &SaveQuestOutput{}, nil
}

// GetQuest retrieves a quest
func (r *SQLiteRepository) GetQuest(ctx context.Context, input *GetQuestInput) (*GetQuestOutput, error) {
	if input == nil || input.QuestID == "" {
		return nil, errors.BadInput("quest ID is required")
	}

	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM quests WHERE id = ?`, input.QuestID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("quest %s not found", input.QuestID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query quest")
	}

	var q entities.Quest
	if err := json.Unmarshal([]byte(doc), &q); err != nil {
		return nil, errors.Wrap(err, "failed to decode quest document")
	}
	return &GetQuestOutput{Quest: &q}, nil
}

// ListQuests returns quests in a universe
func (r *SQLiteRepository) ListQuests(ctx context.Context, input *ListQuestsInput) (*ListQuestsOutput, error) {
	if input == nil || input.UniverseID == "" {
		return nil, errors.BadInput("universe ID is required")
	}

	query := `SELECT doc FROM quests WHERE universe_id = ?`
	args := []interface{}{input.UniverseID}
	if input.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(input.Status))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list quests")
	}
	defer func() { _ = rows.Close() }()

	out := &ListQuestsOutput{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.Wrap(err, "failed to scan quest row")
		}
		var q entities.Quest
		if err := json.Unmarshal([]byte(doc), &q); err != nil {
			return nil, errors.Wrap(err, "failed to decode quest document")
		}
		out.Quests = append(out.Quests, &q)
	}
	return out, rows.Err()
}

// Begin starts a staged-write transaction backed by a SQL transaction
func (r *SQLiteRepository) Begin(ctx context.Context) (Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	return &sqliteTx{tx: tx}, nil
}

type sqliteTx struct {
	tx   *sql.Tx
	done bool
}

// SaveEntity stages an entity write
func (t *sqliteTx) SaveEntity(ctx context.Context, input *SaveEntityInput) error {
	if input == nil || input.Entity == nil {
		return errors.BadInput("entity is required")
	}
	_, err := saveEntityExec(ctx, t.tx, input.Entity)
	return err
}

// AppendEvent stages an event append
func (t *sqliteTx) AppendEvent(ctx context.Context, input *AppendEventInput) error {
	if input == nil || input.Event == nil {
		return errors.BadInput("event is required")
	}
	_, err := appendEventExec(ctx, t.tx, input.Event)
	return err
}

// SaveQuest stages a quest write
func (t *sqliteTx) SaveQuest(ctx context.Context, input *SaveQuestInput) error {
	if input == nil || input.Quest == nil {
		return errors.BadInput("quest is required")
	}
	doc, err := json.Marshal(input.Quest)
	if err != nil {
		return errors.Wrap(err, "failed to encode quest")
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO quests (id, universe_id, status, doc) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET status = excluded.status, doc = excluded.doc`,
		input.Quest.ID, input.Quest.UniverseID, string(input.Quest.Status), string(doc))
	if err != nil {
		return errors.Wrap(err, "failed to save quest")
	}
	return nil
}

// Commit applies all staged writes atomically
func (t *sqliteTx) Commit(ctx context.Context) error {
	if t.done {
		return errors.ConflictState("transaction already finished")
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// Discard drops all staged writes
func (t *sqliteTx) Discard() {
	if t.done {
		return
	}
	t.done = true
	_ = t.tx.Rollback()
}
