package graph

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"sync"

	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
)

// InMemoryRepository implements Repository with in-process maps
type InMemoryRepository struct {
	mu       sync.RWMutex
	nodes    map[string]*Node
	rels     map[string]*entities.Relationship
	variants map[string]string                // universe id + ":" + canonical id -> variant node id
	memories map[string][]*entities.NPCMemory // universe id + ":" + npc id
}

// NewInMemory creates an empty in-memory graph store
func NewInMemory() *InMemoryRepository {
	return &InMemoryRepository{
		nodes:    make(map[string]*Node),
		rels:     make(map[string]*entities.Relationship),
		variants: make(map[string]string),
		memories: make(map[string][]*entities.NPCMemory),
	}
}

func copyNode(n *Node) *Node {
	b, _ := json.Marshal(n)
	var out Node
	_ = json.Unmarshal(b, &out)
	return &out
}

func copyRelationship(r *entities.Relationship) *entities.Relationship {
	clone := *r
	return &clone
}

// UpsertNode inserts or replaces a node, registering variants as it goes
func (r *InMemoryRepository) UpsertNode(ctx context.Context, input *UpsertNodeInput) (*UpsertNodeOutput, error) {
	if input == nil || input.Node == nil || input.Node.ID == "" {
		return nil, errors.BadInput("node is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	node := copyNode(input.Node)
	r.nodes[node.ID] = node
	if node.CanonicalID != "" {
		r.variants[node.UniverseID+":"+node.CanonicalID] = node.ID
	}
	return &UpsertNodeOutput{}, nil
}

// GetNode retrieves a node by id
func (r *InMemoryRepository) GetNode(ctx context.Context, input *GetNodeInput) (*GetNodeOutput, error) {
	if input == nil || input.NodeID == "" {
		return nil, errors.BadInput("node ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.nodes[input.NodeID]
	if !ok {
		return nil, errors.NotFoundf("node %s not found", input.NodeID)
	}
	return &GetNodeOutput{Node: copyNode(n)}, nil
}

// ResolveNode applies the variant rule for a universe
func (r *InMemoryRepository) ResolveNode(ctx context.Context, input *ResolveNodeInput) (*ResolveNodeOutput, error) {
	if input == nil || input.UniverseID == "" || input.CanonicalID == "" {
		return nil, errors.BadInput("universe ID and canonical ID are required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if variantID, ok := r.variants[input.UniverseID+":"+input.CanonicalID]; ok {
		return &ResolveNodeOutput{Node: copyNode(r.nodes[variantID]), IsVariant: true}, nil
	}
	n, ok := r.nodes[input.CanonicalID]
	if !ok {
		return nil, errors.NotFoundf("node %s not found", input.CanonicalID)
	}
	return &ResolveNodeOutput{Node: copyNode(n)}, nil
}

// HasVariant reports whether a canonical node has a variant in a universe
func (r *InMemoryRepository) HasVariant(ctx context.Context, input *HasVariantInput) (*HasVariantOutput, error) {
	if input == nil || input.UniverseID == "" || input.CanonicalID == "" {
		return nil, errors.BadInput("universe ID and canonical ID are required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	variantID, ok := r.variants[input.UniverseID+":"+input.CanonicalID]
	return &HasVariantOutput{HasVariant: ok, VariantID: variantID}, nil
}

// CreateRelationship adds a directed edge. LOCATED_IN is functional: a new
// edge replaces any existing one for the same entity and universe.
func (r *InMemoryRepository) CreateRelationship(ctx context.Context, input *CreateRelationshipInput) (*CreateRelationshipOutput, error) {
	if input == nil || input.Relationship == nil || input.Relationship.ID == "" {
		return nil, errors.BadInput("relationship is required")
	}
	rel := input.Relationship
	if rel.FromID == "" || rel.ToID == "" || rel.UniverseID == "" {
		return nil, errors.BadInput("relationship endpoints and universe are required")
	}
	if rel.Type == entities.RelKnows && (rel.Trust < -1 || rel.Trust > 1) {
		return nil, errors.BadInput("trust must be within [-1, 1]")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rel.Type == entities.RelLocatedIn {
		for id, existing := range r.rels {
			if existing.Type == entities.RelLocatedIn &&
				existing.FromID == rel.FromID &&
				existing.UniverseID == rel.UniverseID {
				delete(r.rels, id)
			}
		}
	}

	r.rels[rel.ID] = copyRelationship(rel)
	return &CreateRelationshipOutput{}, nil
}

// DeleteRelationship removes an edge
func (r *InMemoryRepository) DeleteRelationship(ctx context.Context, input *DeleteRelationshipInput) (*DeleteRelationshipOutput, error) {
	if input == nil || input.RelationshipID == "" {
		return nil, errors.BadInput("relationship ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rels[input.RelationshipID]; !ok {
		return nil, errors.NotFoundf("relationship %s not found", input.RelationshipID)
	}
	delete(r.rels, input.RelationshipID)
	return &DeleteRelationshipOutput{}, nil
}

// DeleteNode removes a node and all edges touching it
func (r *InMemoryRepository) DeleteNode(ctx context.Context, input *DeleteNodeInput) (*DeleteNodeOutput, error) {
	if input == nil || input.NodeID == "" {
		return nil, errors.BadInput("node ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[input.NodeID]
	if !ok {
		return nil, errors.NotFoundf("node %s not found", input.NodeID)
	}
	delete(r.nodes, input.NodeID)
	if n.CanonicalID != "" {
		delete(r.variants, n.UniverseID+":"+n.CanonicalID)
	}

	out := &DeleteNodeOutput{}
	for id, rel := range r.rels {
		if rel.FromID == input.NodeID || rel.ToID == input.NodeID {
			delete(r.rels, id)
			out.RelationshipsDeleted++
		}
	}
	return out, nil
}

// ListRelationships returns edges matching the filter
func (r *InMemoryRepository) ListRelationships(ctx context.Context, input *ListRelationshipsInput) (*ListRelationshipsOutput, error) {
	if input == nil || input.UniverseID == "" {
		return nil, errors.BadInput("universe ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := &ListRelationshipsOutput{}
	for _, rel := range r.rels {
		if rel.UniverseID != input.UniverseID {
			continue
		}
		if input.FromID != "" && rel.FromID != input.FromID {
			continue
		}
		if input.ToID != "" && rel.ToID != input.ToID {
			continue
		}
		if input.Type != "" && rel.Type != input.Type {
			continue
		}
		out.Relationships = append(out.Relationships, copyRelationship(rel))
	}
	sort.Slice(out.Relationships, func(i, j int) bool {
		return out.Relationships[i].ID < out.Relationships[j].ID
	})
	return out, nil
}

// EntitiesAtLocation returns ids of entities LOCATED_IN a location
func (r *InMemoryRepository) EntitiesAtLocation(ctx context.Context, input *EntitiesAtLocationInput) (*EntitiesAtLocationOutput, error) {
	if input == nil || input.UniverseID == "" || input.LocationID == "" {
		return nil, errors.BadInput("universe ID and location ID are required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := &EntitiesAtLocationOutput{}
	for _, rel := range r.rels {
		if rel.Type == entities.RelLocatedIn &&
			rel.UniverseID == input.UniverseID &&
			rel.ToID == input.LocationID {
			out.EntityIDs = append(out.EntityIDs, rel.FromID)
		}
	}
	sort.Strings(out.EntityIDs)
	return out, nil
}

// CosineSimilarity computes the cosine between two embeddings
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// QueryByVector brute-forces cosine similarity over a universe's nodes
func (r *InMemoryRepository) QueryByVector(ctx context.Context, input *QueryByVectorInput) (*QueryByVectorOutput, error) {
	if input == nil || input.UniverseID == "" || len(input.Embedding) == 0 {
		return nil, errors.BadInput("universe ID and embedding are required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := &QueryByVectorOutput{}
	for _, n := range r.nodes {
		if n.UniverseID != input.UniverseID || len(n.Embedding) == 0 {
			continue
		}
		out.Matches = append(out.Matches, ScoredNode{
			NodeID: n.ID,
			Score:  CosineSimilarity(input.Embedding, n.Embedding),
		})
	}
	sort.Slice(out.Matches, func(i, j int) bool {
		if out.Matches[i].Score != out.Matches[j].Score {
			return out.Matches[i].Score > out.Matches[j].Score
		}
		return out.Matches[i].NodeID < out.Matches[j].NodeID
	})
	if input.Limit > 0 && len(out.Matches) > input.Limit {
		out.Matches = out.Matches[:input.Limit]
	}
	return out, nil
}

// SaveMemory stores an NPC memory
func (r *InMemoryRepository) SaveMemory(ctx context.Context, input *SaveMemoryInput) (*SaveMemoryOutput, error) {
	if input == nil || input.Memory == nil || input.Memory.NPCID == "" {
		return nil, errors.BadInput("memory is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m := *input.Memory
	key := m.UniverseID + ":" + m.NPCID
	r.memories[key] = append(r.memories[key], &m)
	return &SaveMemoryOutput{}, nil
}

// ListMemories returns an NPC's memories, most recent first
func (r *InMemoryRepository) ListMemories(ctx context.Context, input *ListMemoriesInput) (*ListMemoriesOutput, error) {
	if input == nil || input.UniverseID == "" || input.NPCID == "" {
		return nil, errors.BadInput("universe ID and NPC ID are required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.memories[input.UniverseID+":"+input.NPCID]
	out := &ListMemoriesOutput{}
	for i := len(stored) - 1; i >= 0; i-- {
		m := *stored[i]
		out.Memories = append(out.Memories, &m)
		if input.Limit > 0 && len(out.Memories) >= input.Limit {
			break
		}
	}
	return out, nil
}
