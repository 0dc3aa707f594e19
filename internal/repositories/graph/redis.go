package graph

import (
	"context"
	"encoding/json"
	"sort"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
	redisclient "github.com/KirkDiggler/tta-core/internal/redis"
)

const (
	nodeKeyPrefix    = "graph:node:"
	relKeyPrefix     = "graph:rel:"
	universePrefix   = "graph:universe:"
	variantKeyPrefix = "graph:variant:"
	memoryKeyPrefix  = "graph:memory:"
)

func nodeKey(nodeID string) string              { return nodeKeyPrefix + nodeID }
func relKey(relID string) string                { return relKeyPrefix + relID }
func universeNodesKey(universeID string) string { return universePrefix + universeID + ":nodes" }
func universeRelsKey(universeID string) string  { return universePrefix + universeID + ":rels" }
func variantKey(universeID, canonicalID string) string {
	return variantKeyPrefix + universeID + ":" + canonicalID
}
func memoryKey(universeID, npcID string) string { return memoryKeyPrefix + universeID + ":" + npcID }

type redisRepository struct {
	client redisclient.Client
}

// RedisConfig contains configuration for the Redis graph repository.
type RedisConfig struct {
	Client redisclient.Client
}

// Validate validates the RedisConfig.
func (cfg *RedisConfig) Validate() error {
	if cfg == nil {
		return errors.BadInput("config cannot be nil")
	}
	if cfg.Client == nil {
		return errors.BadInput("client cannot be nil")
	}
	return nil
}

// NewRedis creates a new Redis-backed graph repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &redisRepository{client: cfg.Client}, nil
}

func (r *redisRepository) UpsertNode(ctx context.Context, input *UpsertNodeInput) (*UpsertNodeOutput, error) {
	if input == nil || input.Node == nil || input.Node.ID == "" {
		return nil, errors.BadInput("node is required")
	}

	data, err := json.Marshal(input.Node)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal node")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, nodeKey(input.Node.ID), data, 0)
	pipe.SAdd(ctx, universeNodesKey(input.Node.UniverseID), input.Node.ID)
	if input.Node.CanonicalID != "" {
		pipe.Set(ctx, variantKey(input.Node.UniverseID, input.Node.CanonicalID), input.Node.ID, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to upsert node")
	}
	return &UpsertNodeOutput{}, nil
}

func (r *redisRepository) getNode(ctx context.Context, nodeID string) (*Node, error) {
	data, err := r.client.Get(ctx, nodeKey(nodeID)).Result()
	if err == redis.Nil {
		return nil, errors.NotFoundf("node %s not found", nodeID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get node")
	}

	var node Node
	if err := json.Unmarshal([]byte(data), &node); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal node")
	}
	return &node, nil
}

func (r *redisRepository) GetNode(ctx context.Context, input *GetNodeInput) (*GetNodeOutput, error) {
	if input == nil || input.NodeID == "" {
		return nil, errors.BadInput("node ID is required")
	}

	node, err := r.getNode(ctx, input.NodeID)
	if err != nil {
		return nil, err
	}
	return &GetNodeOutput{Node: node}, nil
}

func (r *redisRepository) ResolveNode(ctx context.Context, input *ResolveNodeInput) (*ResolveNodeOutput, error) {
	if input == nil || input.UniverseID == "" || input.CanonicalID == "" {
		return nil, errors.BadInput("universe ID and canonical ID are required")
	}

	variantID, err := r.client.Get(ctx, variantKey(input.UniverseID, input.CanonicalID)).Result()
	if err != nil && err != redis.Nil {
		return nil, errors.Wrapf(err, "failed to look up variant")
	}
	if err == nil {
		node, err := r.getNode(ctx, variantID)
		if err != nil {
			return nil, err
		}
		return &ResolveNodeOutput{Node: node, IsVariant: true}, nil
	}

	node, err := r.getNode(ctx, input.CanonicalID)
	if err != nil {
		return nil, err
	}
	return &ResolveNodeOutput{Node: node}, nil
}

func (r *redisRepository) HasVariant(ctx context.Context, input *HasVariantInput) (*HasVariantOutput, error) {
	if input == nil || input.UniverseID == "" || input.CanonicalID == "" {
		return nil, errors.BadInput("universe ID and canonical ID are required")
	}

	variantID, err := r.client.Get(ctx, variantKey(input.UniverseID, input.CanonicalID)).Result()
	if err == redis.Nil {
		return &HasVariantOutput{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to look up variant")
	}
	return &HasVariantOutput{HasVariant: true, VariantID: variantID}, nil
}

func (r *redisRepository) CreateRelationship(ctx context.Context, input *CreateRelationshipInput) (*CreateRelationshipOutput, error) {
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

	// LOCATED_IN is functional per entity and universe
	if rel.Type == entities.RelLocatedIn {
		existing, err := r.listRelationships(ctx, rel.UniverseID)
		if err != nil {
			return nil, err
		}
		for _, e := range existing {
			if e.Type == entities.RelLocatedIn && e.FromID == rel.FromID {
				if err := r.deleteRelationship(ctx, e); err != nil {
					return nil, err
				}
			}
		}
	}

	data, err := json.Marshal(rel)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal relationship")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, relKey(rel.ID), data, 0)
	pipe.SAdd(ctx, universeRelsKey(rel.UniverseID), rel.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to create relationship")
	}
	return &CreateRelationshipOutput{}, nil
}

func (r *redisRepository) deleteRelationship(ctx context.Context, rel *entities.Relationship) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, relKey(rel.ID))
	pipe.SRem(ctx, universeRelsKey(rel.UniverseID), rel.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to delete relationship")
	}
	return nil
}

func (r *redisRepository) DeleteRelationship(ctx context.Context, input *DeleteRelationshipInput) (*DeleteRelationshipOutput, error) {
	if input == nil || input.RelationshipID == "" {
		return nil, errors.BadInput("relationship ID is required")
	}

	data, err := r.client.Get(ctx, relKey(input.RelationshipID)).Result()
	if err == redis.Nil {
		return nil, errors.NotFoundf("relationship %s not found", input.RelationshipID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get relationship")
	}

	var rel entities.Relationship
	if err := json.Unmarshal([]byte(data), &rel); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal relationship")
	}
	if err := r.deleteRelationship(ctx, &rel); err != nil {
		return nil, err
	}
	return &DeleteRelationshipOutput{}, nil
}

func (r *redisRepository) DeleteNode(ctx context.Context, input *DeleteNodeInput) (*DeleteNodeOutput, error) {
	if input == nil || input.NodeID == "" {
		return nil, errors.BadInput("node ID is required")
	}

	node, err := r.getNode(ctx, input.NodeID)
	if err != nil {
		return nil, err
	}

	rels, err := r.listRelationships(ctx, node.UniverseID)
	if err != nil {
		return nil, err
	}

	out := &DeleteNodeOutput{}
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, nodeKey(node.ID))
	pipe.SRem(ctx, universeNodesKey(node.UniverseID), node.ID)
	if node.CanonicalID != "" {
		pipe.Del(ctx, variantKey(node.UniverseID, node.CanonicalID))
	}
	for _, rel := range rels {
		if rel.FromID == input.NodeID || rel.ToID == input.NodeID {
			pipe.Del(ctx, relKey(rel.ID))
			pipe.SRem(ctx, universeRelsKey(rel.UniverseID), rel.ID)
			out.RelationshipsDeleted++
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to delete node")
	}
	return out, nil
}

func (r *redisRepository) listRelationships(ctx context.Context, universeID string) ([]*entities.Relationship, error) {
	ids, err := r.client.SMembers(ctx, universeRelsKey(universeID)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list relationship ids")
	}

	rels := make([]*entities.Relationship, 0, len(ids))
	for _, id := range ids {
		data, err := r.client.Get(ctx, relKey(id)).Result()
		if err == redis.Nil {
			continue // index may lag a delete
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get relationship")
		}
		var rel entities.Relationship
		if err := json.Unmarshal([]byte(data), &rel); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal relationship")
		}
		rels = append(rels, &rel)
	}
	return rels, nil
}

func (r *redisRepository) ListRelationships(ctx context.Context, input *ListRelationshipsInput) (*ListRelationshipsOutput, error) {
	if input == nil || input.UniverseID == "" {
		return nil, errors.BadInput("universe ID is required")
	}

	rels, err := r.listRelationships(ctx, input.UniverseID)
	if err != nil {
		return nil, err
	}

	out := &ListRelationshipsOutput{}
	for _, rel := range rels {
		if input.FromID != "" && rel.FromID != input.FromID {
			continue
		}
		if input.ToID != "" && rel.ToID != input.ToID {
			continue
		}
		if input.Type != "" && rel.Type != input.Type {
			continue
		}
		out.Relationships = append(out.Relationships, rel)
	}
	sort.Slice(out.Relationships, func(i, j int) bool {
		return out.Relationships[i].ID < out.Relationships[j].ID
	})
	return out, nil
}

func (r *redisRepository) EntitiesAtLocation(ctx context.Context, input *EntitiesAtLocationInput) (*EntitiesAtLocationOutput, error) {
	if input == nil || input.UniverseID == "" || input.LocationID == "" {
		return nil, errors.BadInput("universe ID and location ID are required")
	}

	rels, err := r.listRelationships(ctx, input.UniverseID)
	if err != nil {
		return nil, err
	}

	out := &EntitiesAtLocationOutput{}
	for _, rel := range rels {
		if rel.Type == entities.RelLocatedIn && rel.ToID == input.LocationID {
			out.EntityIDs = append(out.EntityIDs, rel.FromID)
		}
	}
	sort.Strings(out.EntityIDs)
	return out, nil
}

func (r *redisRepository) QueryByVector(ctx context.Context, input *QueryByVectorInput) (*QueryByVectorOutput, error) {
	if input == nil || input.UniverseID == "" || len(input.Embedding) == 0 {
		return nil, errors.BadInput("universe ID and embedding are required")
	}

	ids, err := r.client.SMembers(ctx, universeNodesKey(input.UniverseID)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list node ids")
	}

	out := &QueryByVectorOutput{}
	for _, id := range ids {
		node, err := r.getNode(ctx, id)
		if errors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(node.Embedding) == 0 {
			continue
		}
		out.Matches = append(out.Matches, ScoredNode{
			NodeID: node.ID,
			Score:  CosineSimilarity(input.Embedding, node.Embedding),
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

func (r *redisRepository) SaveMemory(ctx context.Context, input *SaveMemoryInput) (*SaveMemoryOutput, error) {
	if input == nil || input.Memory == nil || input.Memory.NPCID == "" {
		return nil, errors.BadInput("memory is required")
	}

	data, err := json.Marshal(input.Memory)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal memory")
	}
	if err := r.client.RPush(ctx, memoryKey(input.Memory.UniverseID, input.Memory.NPCID), data).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to save memory")
	}
	return &SaveMemoryOutput{}, nil
}

func (r *redisRepository) ListMemories(ctx context.Context, input *ListMemoriesInput) (*ListMemoriesOutput, error) {
	if input == nil || input.UniverseID == "" || input.NPCID == "" {
		return nil, errors.BadInput("universe ID and NPC ID are required")
	}

	raw, err := r.client.LRange(ctx, memoryKey(input.UniverseID, input.NPCID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list memories")
	}

	out := &ListMemoriesOutput{}
	for i := len(raw) - 1; i >= 0; i-- {
		var m entities.NPCMemory
		if err := json.Unmarshal([]byte(raw[i]), &m); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal memory")
		}
		out.Memories = append(out.Memories, &m)
		if input.Limit > 0 && len(out.Memories) >= input.Limit {
			break
		}
	}
	return out, nil
}
