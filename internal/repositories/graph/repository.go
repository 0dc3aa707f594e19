// Package graph defines the graph-store port: soft state such as
// relationships, NPC memories, variant links, and vector retrieval.
package graph

//go:generate mockgen -destination=mock/mock_repository.go -package=graphmock github.com/KirkDiggler/tta-core/internal/repositories/graph Repository

import (
	"context"

	"github.com/KirkDiggler/tta-core/internal/entities"
)

// Node is an entity's presence in the graph store. Variants carry the
// canonical node's id and shadow it inside their own universe.
type Node struct {
	ID          string                 `json:"id"`
	UniverseID  string                 `json:"universe_id"`
	CanonicalID string                 `json:"canonical_id,omitempty"`
	Name        string                 `json:"name"`
	Type        entities.EntityType    `json:"type"`
	Labels      []string               `json:"labels,omitempty"`
	Embedding   []float32              `json:"embedding,omitempty"`
	Props       map[string]interface{} `json:"props,omitempty"`
}

// Repository is the graph-store port. Reads accept a universe id and honour
// the lazy-divergence rule: a variant shadows its canonical inside its
// universe; absent a variant, the canonical is returned.
type Repository interface {
	// UpsertNode inserts or replaces a node
	UpsertNode(ctx context.Context, input *UpsertNodeInput) (*UpsertNodeOutput, error)

	// GetNode retrieves a node by id
	GetNode(ctx context.Context, input *GetNodeInput) (*GetNodeOutput, error)

	// ResolveNode applies the variant rule: the variant of the canonical in
	// the given universe if one exists, otherwise the canonical itself
	ResolveNode(ctx context.Context, input *ResolveNodeInput) (*ResolveNodeOutput, error)

	// HasVariant reports whether a canonical node has a variant in a universe
	HasVariant(ctx context.Context, input *HasVariantInput) (*HasVariantOutput, error)

	// CreateRelationship adds a directed edge
	CreateRelationship(ctx context.Context, input *CreateRelationshipInput) (*CreateRelationshipOutput, error)

	// DeleteRelationship removes an edge
	DeleteRelationship(ctx context.Context, input *DeleteRelationshipInput) (*DeleteRelationshipOutput, error)

	// DeleteNode removes a node and its edges. Used only for compensating
	// deletes after a partial persist.
	DeleteNode(ctx context.Context, input *DeleteNodeInput) (*DeleteNodeOutput, error)

	// ListRelationships returns edges matching the filter
	ListRelationships(ctx context.Context, input *ListRelationshipsInput) (*ListRelationshipsOutput, error)

	// EntitiesAtLocation returns ids of entities LOCATED_IN a location
	EntitiesAtLocation(ctx context.Context, input *EntitiesAtLocationInput) (*EntitiesAtLocationOutput, error)

	// QueryByVector returns nodes ranked by cosine similarity to the query
	// embedding
	QueryByVector(ctx context.Context, input *QueryByVectorInput) (*QueryByVectorOutput, error)

	// SaveMemory stores an NPC memory
	SaveMemory(ctx context.Context, input *SaveMemoryInput) (*SaveMemoryOutput, error)

	// ListMemories returns an NPC's memories, most recent first
	ListMemories(ctx context.Context, input *ListMemoriesInput) (*ListMemoriesOutput, error)
}

// UpsertNodeInput carries the node to write
type UpsertNodeInput struct {
	Node *Node
}

// UpsertNodeOutput is empty; errors carry the failure
type UpsertNodeOutput struct{}

// GetNodeInput identifies a node
type GetNodeInput struct {
	NodeID string
}

// GetNodeOutput carries the retrieved node
type GetNodeOutput struct {
	Node *Node
}

// ResolveNodeInput identifies a canonical node and the universe reading it
type ResolveNodeInput struct {
	UniverseID  string
	CanonicalID string
}

// ResolveNodeOutput carries the resolved node and whether it is a variant
type ResolveNodeOutput struct {
	Node      *Node
	IsVariant bool
}

// HasVariantInput identifies a canonical node and a universe
type HasVariantInput struct {
	UniverseID  string
	CanonicalID string
}

// HasVariantOutput reports variant existence
type HasVariantOutput struct {
	HasVariant bool
	VariantID  string
}

// CreateRelationshipInput carries the edge to add
type CreateRelationshipInput struct {
	Relationship *entities.Relationship
}

// CreateRelationshipOutput is empty; errors carry the failure
type CreateRelationshipOutput struct{}

// DeleteRelationshipInput identifies an edge
type DeleteRelationshipInput struct {
	RelationshipID string
}

// DeleteRelationshipOutput is empty; errors carry the failure
type DeleteRelationshipOutput struct{}

// DeleteNodeInput identifies a node
type DeleteNodeInput struct {
	NodeID string
}

// DeleteNodeOutput reports how many edges were removed with the node
type DeleteNodeOutput struct {
	RelationshipsDeleted int
}

// ListRelationshipsInput filters edges. FromID or ToID may be empty; Type
// empty matches all.
type ListRelationshipsInput struct {
	UniverseID string
	FromID     string
	ToID       string
	Type       entities.RelationshipType
}

// ListRelationshipsOutput carries the matched edges
type ListRelationshipsOutput struct {
	Relationships []*entities.Relationship
}

// EntitiesAtLocationInput identifies a location within a universe
type EntitiesAtLocationInput struct {
	UniverseID string
	LocationID string
}

// EntitiesAtLocationOutput carries the ids of present entities
type EntitiesAtLocationOutput struct {
	EntityIDs []string
}

// QueryByVectorInput carries the query embedding
type QueryByVectorInput struct {
	UniverseID string
	Embedding  []float32
	Limit      int
}

// ScoredNode pairs a node id with its similarity score
type ScoredNode struct {
	NodeID string
	Score  float64
}

// QueryByVectorOutput carries ranked matches, best first
type QueryByVectorOutput struct {
	Matches []ScoredNode
}

// SaveMemoryInput carries the memory to store
type SaveMemoryInput struct {
	Memory *entities.NPCMemory
}

// SaveMemoryOutput is empty; errors carry the failure
type SaveMemoryOutput struct{}

// ListMemoriesInput identifies an NPC within a universe
type ListMemoriesInput struct {
	UniverseID string
	NPCID      string
	Limit      int
}

// ListMemoriesOutput carries memories, most recent first
type ListMemoriesOutput struct {
	Memories []*entities.NPCMemory
}
