// Package moves executes GM moves: the consequences the system imposes on a
// player miss. Soft moves warn, hard moves hurt, and the generative moves
// create NPCs and location features, with an LLM fill when one is wired and
// template tables when it is not.
package moves

//go:generate mockgen -destination=mock/mock_service.go -package=movesmock github.com/KirkDiggler/tta-core/internal/orchestrators/moves Service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KirkDiggler/tta-core/internal/clients/llm"
	"github.com/KirkDiggler/tta-core/internal/dice"
	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/errors"
	"github.com/KirkDiggler/tta-core/internal/pkg/clock"
	"github.com/KirkDiggler/tta-core/internal/pkg/idgen"
	"github.com/KirkDiggler/tta-core/internal/repositories/graph"
	"github.com/KirkDiggler/tta-core/internal/repositories/truth"
)

// DefaultLLMTimeout bounds every model call; past it the generator falls
// back to templates and the turn completes.
const DefaultLLMTimeout = 5 * time.Second

const npcSystemPrompt = `You are an NPC generator for a tabletop RPG. Output ONLY valid JSON:
{"name": "...", "description": "1-2 sentences", "role": "merchant|guard|traveler|criminal|noble|scholar|priest",
"traits": {"openness": 0-100, "conscientiousness": 0-100, "extraversion": 0-100, "agreeableness": 0-100, "neuroticism": 0-100},
"motivations": ["survival"|"wealth"|"power"|"knowledge"|"duty"|"safety"|"belonging"|"respect"|"love"|"revenge"|"justice"],
"speech_style": "formal|terse|warm|cold|nervous|mysterious"}
Match the NPC to the location and danger level. Higher danger means more desperate NPCs.`

const featureSystemPrompt = `You are an environment feature generator for a tabletop RPG. Output ONLY valid JSON:
{"name": "1-3 words", "description": "1-2 atmospheric sentences", "feature_type": "passage|hazard|discovery|hideout|obstacle", "is_dangerous": true|false}
Match the feature to the location and danger level.`

// Service defines the interface for GM move execution
type Service interface {
	// Execute runs one GM move against the world
	Execute(ctx context.Context, input *ExecuteInput) (*ExecuteOutput, error)
}

// Config holds the dependencies for the move executor
type Config struct {
	Roller    *dice.Roller
	TruthRepo truth.Repository
	GraphRepo graph.Repository
	IDGen     idgen.Generator
	Clock     clock.Clock
	// LLM is optional; without it every generative move uses templates
	LLM        llm.Client
	LLMTimeout time.Duration
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.Roller == nil {
		vb.RequiredField("Roller")
	}
	if c.TruthRepo == nil {
		vb.RequiredField("TruthRepo")
	}
	if c.GraphRepo == nil {
		vb.RequiredField("GraphRepo")
	}
	if c.IDGen == nil {
		vb.RequiredField("IDGen")
	}
	return vb.Build()
}

type orchestrator struct {
	roller     *dice.Roller
	truthRepo  truth.Repository
	graphRepo  graph.Repository
	idGen      idgen.Generator
	clock      clock.Clock
	llm        llm.Client
	llmTimeout time.Duration
}

// NewOrchestrator creates a new move executor
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	timeout := cfg.LLMTimeout
	if timeout == 0 {
		timeout = DefaultLLMTimeout
	}

	return &orchestrator{
		roller:     cfg.Roller,
		truthRepo:  cfg.TruthRepo,
		graphRepo:  cfg.GraphRepo,
		idGen:      cfg.IDGen,
		clock:      c,
		llm:        cfg.LLM,
		llmTimeout: timeout,
	}, nil
}

// SelectMove picks the GM move for a miss. Selection is deterministic:
// danger at or past 10, or two prior warnings, escalates to a hard move.
// Within a band the pick rotates so repeated misses vary.
func SelectMove(input *SelectInput) *SelectOutput {
	hard := input.DangerLevel >= 10 || input.RecentSoftMoves >= 2

	if hard {
		if input.InCombat {
			return &SelectOutput{Move: entities.MoveDealDamage, IsHard: true}
		}
		rotation := []entities.GMMoveType{
			entities.MoveDealDamage, entities.MoveTakeAway, entities.MoveCapture,
			entities.MoveSeparateThem, entities.MoveUseMonsterMove,
		}
		return &SelectOutput{Move: rotation[input.DangerLevel%len(rotation)], IsHard: true}
	}

	rotation := []entities.GMMoveType{
		entities.MoveShowDanger, entities.MoveOfferOpportunity,
		entities.MoveRevealUnwelcomeTruth,
	}
	return &SelectOutput{Move: rotation[input.RecentSoftMoves%len(rotation)]}
}

func (o *orchestrator) Execute(ctx context.Context, input *ExecuteInput) (*ExecuteOutput, error) {
	if input == nil || input.Actor == nil {
		return nil, errors.BadInput("actor is required")
	}

	var (
		out *ExecuteOutput
		err error
	)
	switch input.Move {
	case entities.MoveIntroduceNPC:
		out, err = o.introduceNPC(ctx, input)
	case entities.MoveChangeEnvironment:
		out, err = o.changeEnvironment(ctx, input)
	case entities.MoveOfferOpportunity:
		out, err = o.offerOpportunity(ctx, input)
	case entities.MoveDealDamage:
		out, err = o.dealDamage(ctx, input)
	case entities.MoveTakeAway:
		out, err = o.takeAway(ctx, input)
	case entities.MoveCapture:
		out, err = o.capture(ctx, input)
	case entities.MoveSeparateThem:
		out, err = o.separateThem(ctx, input)
	case entities.MoveShowDanger:
		out, err = o.narrativeOnly(input, dangerSigns, "Danger sensed")
	case entities.MoveRevealUnwelcomeTruth:
		out, err = o.narrativeOnly(input, revelations, "Unsettling revelation")
	case entities.MoveAdvanceTime:
		out, err = o.narrativeOnly(input, timePassages, "Time passed")
	case entities.MoveUseMonsterMove:
		out, err = o.narrativeOnly(input, monsterMoveNarratives, "Monster move")
	default:
		return nil, errors.BadInputf("unknown GM move %q", input.Move)
	}
	if err != nil {
		return nil, err
	}

	evt := o.newEvent(input, entities.EventGMMove)
	evt.Payload = map[string]interface{}{
		"move":          string(input.Move),
		"used_fallback": out.UsedFallback,
		"narrative":     out.Narrative,
	}
	if _, appendErr := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); appendErr != nil {
		return nil, appendErr
	}
	out.EventIDs = append(out.EventIDs, evt.ID)

	slog.Info("gm move executed",
		"move", input.Move,
		"entities_created", len(out.EntitiesCreated),
		"used_fallback", out.UsedFallback,
	)
	return out, nil
}

func (o *orchestrator) newEvent(input *ExecuteInput, eventType entities.EventType) *entities.Event {
	now := o.clock.Now()
	evt := &entities.Event{
		ID:         o.idGen.Generate(),
		UniverseID: input.UniverseID,
		Type:       eventType,
		ActorID:    input.Actor.ID,
		CausedByID: input.CausedByEventID,
		GameTime:   now,
		RecordedAt: now,
	}
	if input.Location != nil {
		evt.LocationID = input.Location.ID
	}
	return evt
}

// pick chooses a list index with the roller so scripted tests stay
// deterministic
func (o *orchestrator) pick(n int) (int, error) {
	if n <= 1 {
		return 0, nil
	}
	rolls, err := o.roller.Roll(1, n)
	if err != nil {
		return 0, err
	}
	return rolls[0] - 1, nil
}

func (o *orchestrator) rollRange(low, high int) (int, error) {
	if high <= low {
		return low, nil
	}
	rolls, err := o.roller.Roll(1, high-low+1)
	if err != nil {
		return 0, err
	}
	return low + rolls[0] - 1, nil
}

func (o *orchestrator) narrativeOnly(input *ExecuteInput, lines []string, change string) (*ExecuteOutput, error) {
	idx, err := o.pick(len(lines))
	if err != nil {
		return nil, err
	}
	return &ExecuteOutput{
		Success:      true,
		Narrative:    lines[idx],
		StateChanges: []string{change},
	}, nil
}

// persistCreated writes the entity, its graph node, and then the edges.
// Events land first, entity before edges, and a failed edge write triggers a
// compensating delete of the node.
func (o *orchestrator) persistCreated(ctx context.Context, e *entities.Entity, rels []*entities.Relationship) error {
	if _, err := o.truthRepo.SaveEntity(ctx, &truth.SaveEntityInput{Entity: e}); err != nil {
		return err
	}
	node := &graph.Node{
		ID:         e.ID,
		UniverseID: e.UniverseID,
		Name:       e.Name,
		Type:       e.Type,
	}
	if _, err := o.graphRepo.UpsertNode(ctx, &graph.UpsertNodeInput{Node: node}); err != nil {
		return err
	}
	for _, rel := range rels {
		if _, err := o.graphRepo.CreateRelationship(ctx, &graph.CreateRelationshipInput{Relationship: rel}); err != nil {
			if _, delErr := o.graphRepo.DeleteNode(ctx, &graph.DeleteNodeInput{NodeID: e.ID}); delErr != nil {
				slog.Error("compensating delete failed", "node_id", e.ID, "error", delErr)
			}
			return errors.Wrapf(err, "linking %s", e.ID)
		}
	}
	return nil
}

func (o *orchestrator) introduceNPC(ctx context.Context, input *ExecuteInput) (*ExecuteOutput, error) {
	params, usedFallback, err := o.generateNPCParams(ctx, input)
	if err != nil {
		return nil, err
	}

	now := o.clock.Now()
	npc := &entities.Entity{
		ID:          o.idGen.Generate(),
		UniverseID:  input.UniverseID,
		Type:        entities.EntityCharacter,
		Name:        params.Name,
		Description: params.Description,
		Tags:        []string{"npc", params.Role},
		Character: &entities.CharacterStats{
			HP:    10 + input.DangerLevel,
			HPMax: 10 + input.DangerLevel,
			AC:    10 + input.DangerLevel/5,
			Level: 1,
			Abilities: map[entities.AbilityScore]int{
				entities.STR: 10, entities.DEX: 10, entities.CON: 10,
				entities.INT: 10, entities.WIS: 10, entities.CHA: 10,
			},
			NPC: &entities.NPCProfile{
				Traits: entities.PersonalityTraits{
					Openness:          params.Traits.Openness,
					Conscientiousness: params.Traits.Conscientiousness,
					Extraversion:      params.Traits.Extraversion,
					Agreeableness:     params.Traits.Agreeableness,
					Neuroticism:       params.Traits.Neuroticism,
				},
				Motivations: parseMotivations(params.Motivations),
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	npc.Character.NPC.EntityID = npc.ID

	var rels []*entities.Relationship
	if input.Location != nil {
		rels = append(rels, &entities.Relationship{
			ID:         o.idGen.Generate(),
			UniverseID: input.UniverseID,
			FromID:     npc.ID,
			ToID:       input.Location.ID,
			Type:       entities.RelLocatedIn,
			CreatedAt:  now,
		})
	}
	if err := o.persistCreated(ctx, npc, rels); err != nil {
		return nil, err
	}

	out := &ExecuteOutput{
		Success:         true,
		Narrative:       fmt.Sprintf("A figure catches your attention: %s, %s.", npc.Name, npc.Description),
		EntitiesCreated: []string{npc.ID},
		StateChanges:    []string{"New NPC: " + npc.Name},
		UsedFallback:    usedFallback,
	}
	for _, rel := range rels {
		out.RelationshipsCreated = append(out.RelationshipsCreated, rel.ID)
	}
	return out, nil
}

func (o *orchestrator) generateNPCParams(ctx context.Context, input *ExecuteInput) (*npcParams, bool, error) {
	if o.llm != nil {
		params, err := o.llmNPCParams(ctx, input)
		if err == nil {
			return params, false, nil
		}
		slog.Warn("llm npc generation failed, using templates", "error", err)
	}
	params, err := o.templateNPCParams(input)
	return params, true, err
}

func (o *orchestrator) llmNPCParams(ctx context.Context, input *ExecuteInput) (*npcParams, error) {
	llmCtx, cancel := context.WithTimeout(ctx, o.llmTimeout)
	defer cancel()

	locationName := "Unknown"
	var existing []string
	if input.Location != nil {
		locationName = input.Location.Name
	}
	for _, e := range input.Present {
		existing = append(existing, e.Name)
	}

	prompt := fmt.Sprintf(
		"Location: %s\nDanger: %d/20\nExisting characters: %s\nGenerate a NEW character who fits this scene. JSON only.",
		locationName, input.DangerLevel, strings.Join(existing, ", "),
	)

	var params npcParams
	if err := o.llm.GenerateStructured(llmCtx, &llm.GenerateStructuredInput{
		System: npcSystemPrompt,
		Prompt: prompt,
	}, &params); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, errors.BadInput("model reply missing a name")
	}
	clampTraits(&params)
	return &params, nil
}

func clampTraits(p *npcParams) {
	clamp := func(v int) int {
		if v < 0 {
			return 0
		}
		if v > 100 {
			return 100
		}
		return v
	}
	p.Traits.Openness = clamp(p.Traits.Openness)
	p.Traits.Conscientiousness = clamp(p.Traits.Conscientiousness)
	p.Traits.Extraversion = clamp(p.Traits.Extraversion)
	p.Traits.Agreeableness = clamp(p.Traits.Agreeableness)
	p.Traits.Neuroticism = clamp(p.Traits.Neuroticism)
}

func parseMotivations(raw []string) []entities.Motivation {
	known := map[string]entities.Motivation{
		"survival": entities.MotivationSurvival, "safety": entities.MotivationSafety,
		"wealth": entities.MotivationWealth, "power": entities.MotivationPower,
		"love": entities.MotivationLove, "belonging": entities.MotivationBelonging,
		"respect": entities.MotivationRespect, "knowledge": entities.MotivationKnowledge,
		"justice": entities.MotivationJustice, "duty": entities.MotivationDuty,
		"revenge": entities.MotivationRevenge,
	}
	var out []entities.Motivation
	for _, r := range raw {
		if m, ok := known[strings.ToLower(r)]; ok {
			out = append(out, m)
		}
		if len(out) == 3 {
			break
		}
	}
	if len(out) == 0 {
		out = []entities.Motivation{entities.MotivationSurvival}
	}
	return out
}

func (o *orchestrator) templateNPCParams(input *ExecuteInput) (*npcParams, error) {
	tmpl, ok := npcTemplates[locationKind(input.Location)]
	if !ok {
		tmpl = npcTemplates["default"]
	}

	var params npcParams
	idx, err := o.pick(len(tmpl.Names))
	if err != nil {
		return nil, err
	}
	params.Name = tmpl.Names[idx]
	if idx, err = o.pick(len(tmpl.Roles)); err != nil {
		return nil, err
	}
	params.Role = tmpl.Roles[idx]
	if idx, err = o.pick(len(tmpl.Descriptions)); err != nil {
		return nil, err
	}
	params.Description = tmpl.Descriptions[idx]
	if idx, err = o.pick(len(tmpl.SpeechStyles)); err != nil {
		return nil, err
	}
	params.SpeechStyle = tmpl.SpeechStyles[idx]
	for _, m := range tmpl.Motivations {
		params.Motivations = append(params.Motivations, string(m))
	}

	trait := func(name string) (int, error) {
		if r, ok := tmpl.TraitRanges[name]; ok {
			return o.rollRange(r[0], r[1])
		}
		return o.rollRange(40, 60)
	}
	if params.Traits.Openness, err = trait("openness"); err != nil {
		return nil, err
	}
	if params.Traits.Conscientiousness, err = trait("conscientiousness"); err != nil {
		return nil, err
	}
	if params.Traits.Extraversion, err = trait("extraversion"); err != nil {
		return nil, err
	}
	if params.Traits.Agreeableness, err = trait("agreeableness"); err != nil {
		return nil, err
	}
	if params.Traits.Neuroticism, err = trait("neuroticism"); err != nil {
		return nil, err
	}
	return &params, nil
}

func (o *orchestrator) changeEnvironment(ctx context.Context, input *ExecuteInput) (*ExecuteOutput, error) {
	switch {
	case input.DangerLevel < 5:
		return o.narrativeOnly(input, atmospheres, "Atmosphere changed")
	case input.DangerLevel < 12:
		return o.addFeature(ctx, input, false)
	default:
		return o.addFeature(ctx, input, true)
	}
}

func (o *orchestrator) addFeature(ctx context.Context, input *ExecuteInput, hazard bool) (*ExecuteOutput, error) {
	if input.Location == nil {
		return o.narrativeOnly(input, atmospheres, "Atmosphere changed")
	}

	params, usedFallback, err := o.generateFeatureParams(ctx, input, hazard)
	if err != nil {
		return nil, err
	}

	return o.createFeature(ctx, input, params.Name, params.Description,
		[]string{"location_feature", params.FeatureType},
		"The environment shifts... "+params.Description,
		"New feature: "+params.Name, usedFallback)
}

func (o *orchestrator) generateFeatureParams(ctx context.Context, input *ExecuteInput, hazard bool) (*featureParams, bool, error) {
	if o.llm != nil {
		llmCtx, cancel := context.WithTimeout(ctx, o.llmTimeout)
		defer cancel()

		hazardNote := ""
		if hazard {
			hazardNote = "\nThe feature should be DANGEROUS."
		}
		prompt := fmt.Sprintf("Location: %s\nDanger: %d/20%s\nGenerate a feature. JSON only.",
			input.Location.Name, input.DangerLevel, hazardNote)

		var params featureParams
		err := o.llm.GenerateStructured(llmCtx, &llm.GenerateStructuredInput{
			System: featureSystemPrompt,
			Prompt: prompt,
		}, &params)
		if err == nil && params.Name != "" {
			return &params, false, nil
		}
		slog.Warn("llm feature generation failed, using templates", "error", err)
	}

	features, ok := environmentFeatures[locationKind(input.Location)]
	if !ok {
		features = environmentFeatures["default"]
	}
	idx, err := o.pick(len(features))
	if err != nil {
		return nil, false, err
	}
	params := &featureParams{
		Name:        features[idx].Name,
		Description: features[idx].Description,
		FeatureType: "discovery",
		IsDangerous: hazard,
	}
	if hazard {
		params.FeatureType = "hazard"
		params.Description = strings.TrimSuffix(params.Description, ".") + ", and it looks dangerous."
	}
	return params, true, nil
}

// createFeature makes an item entity at the location linked by CONTAINS
func (o *orchestrator) createFeature(ctx context.Context, input *ExecuteInput, name, description string, tags []string, narrative, change string, usedFallback bool) (*ExecuteOutput, error) {
	now := o.clock.Now()
	feature := &entities.Entity{
		ID:          o.idGen.Generate(),
		UniverseID:  input.UniverseID,
		Type:        entities.EntityItem,
		Name:        name,
		Description: description,
		Tags:        tags,
		Item:        &entities.ItemStats{Active: true},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	contains := &entities.Relationship{
		ID:         o.idGen.Generate(),
		UniverseID: input.UniverseID,
		FromID:     input.Location.ID,
		ToID:       feature.ID,
		Type:       entities.RelContains,
		CreatedAt:  now,
	}
	if err := o.persistCreated(ctx, feature, []*entities.Relationship{contains}); err != nil {
		return nil, err
	}

	return &ExecuteOutput{
		Success:              true,
		Narrative:            narrative,
		EntitiesCreated:      []string{feature.ID},
		RelationshipsCreated: []string{contains.ID},
		StateChanges:         []string{change},
		UsedFallback:         usedFallback,
	}, nil
}

func (o *orchestrator) offerOpportunity(ctx context.Context, input *ExecuteInput) (*ExecuteOutput, error) {
	if input.Location == nil {
		return o.narrativeOnly(input, revelations, "Unsettling revelation")
	}
	idx, err := o.pick(len(opportunityFeatures))
	if err != nil {
		return nil, err
	}
	f := opportunityFeatures[idx]
	return o.createFeature(ctx, input, f.Name, f.Description,
		[]string{"opportunity", "interactive"},
		"An opportunity presents itself: "+f.Description,
		"Opportunity: "+f.Name, true)
}

// dealDamage hits the actor with danger-scaled damage: 1d4 up to danger 5,
// then 1d6, 1d8, and 1d10 past 15
func (o *orchestrator) dealDamage(ctx context.Context, input *ExecuteInput) (*ExecuteOutput, error) {
	sides := 4
	switch {
	case input.DangerLevel > 15:
		sides = 10
	case input.DangerLevel > 10:
		sides = 8
	case input.DangerLevel > 5:
		sides = 6
	}
	rolls, err := o.roller.Roll(1, sides)
	if err != nil {
		return nil, err
	}
	damage := rolls[0]

	c := input.Actor.Character
	if c == nil {
		return nil, errors.InvalidTarget("actor has no character stats")
	}
	c.HP -= damage
	if c.HP < 0 {
		c.HP = 0
	}
	if c.Resources != nil {
		if c.Resources.Pool != nil {
			c.Resources.Pool.ResetMomentum()
		}
		if c.Resources.Solo != nil {
			c.Resources.Solo.DamageThisRound += damage
		}
	}
	input.Actor.Version++
	input.Actor.UpdatedAt = o.clock.Now()
	if _, err := o.truthRepo.SaveEntity(ctx, &truth.SaveEntityInput{Entity: input.Actor}); err != nil {
		return nil, err
	}

	return &ExecuteOutput{
		Success:          true,
		Narrative:        fmt.Sprintf("The attack connects, dealing %d damage!", damage),
		EntitiesModified: []string{input.Actor.ID},
		StateChanges:     []string{fmt.Sprintf("Took %d damage", damage)},
	}, nil
}

func (o *orchestrator) takeAway(ctx context.Context, input *ExecuteInput) (*ExecuteOutput, error) {
	var candidates []*entities.Entity
	for _, item := range input.Inventory {
		if item.Item != nil && item.Item.Active && !item.Item.Lost {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		return &ExecuteOutput{
			Success:   true,
			Narrative: "You have nothing to lose... this time.",
		}, nil
	}

	idx, err := o.pick(len(candidates))
	if err != nil {
		return nil, err
	}
	item := candidates[idx]

	item.Item.Active = false
	item.Item.Lost = true
	item.Version++
	item.UpdatedAt = o.clock.Now()
	if _, err := o.truthRepo.SaveEntity(ctx, &truth.SaveEntityInput{Entity: item}); err != nil {
		return nil, err
	}

	// Strip the inventory edges so the item no longer travels with the actor
	for _, relType := range []entities.RelationshipType{entities.RelCarries, entities.RelWields, entities.RelWears} {
		listed, err := o.graphRepo.ListRelationships(ctx, &graph.ListRelationshipsInput{
			UniverseID: input.UniverseID,
			FromID:     input.Actor.ID,
			ToID:       item.ID,
			Type:       relType,
		})
		if err != nil {
			return nil, err
		}
		for _, rel := range listed.Relationships {
			if _, err := o.graphRepo.DeleteRelationship(ctx, &graph.DeleteRelationshipInput{RelationshipID: rel.ID}); err != nil {
				return nil, err
			}
		}
	}

	evt := o.newEvent(input, entities.EventItemLost)
	evt.TargetID = item.ID
	evt.Payload = map[string]interface{}{"item": item.Name}
	if _, err := o.truthRepo.AppendEvent(ctx, &truth.AppendEventInput{Event: evt}); err != nil {
		return nil, err
	}

	return &ExecuteOutput{
		Success:          true,
		Narrative:        fmt.Sprintf("Your %s slips from your grasp and is lost!", item.Name),
		EntitiesModified: []string{item.ID},
		StateChanges:     []string{"Lost: " + item.Name},
		EventIDs:         []string{evt.ID},
	}, nil
}

func (o *orchestrator) capture(ctx context.Context, input *ExecuteInput) (*ExecuteOutput, error) {
	idx, err := o.pick(len(trapFeatures))
	if err != nil {
		return nil, err
	}
	trap := trapFeatures[idx]

	now := o.clock.Now()
	trapLocation := &entities.Entity{
		ID:          o.idGen.Generate(),
		UniverseID:  input.UniverseID,
		Type:        entities.EntityLocation,
		Name:        trap.Name,
		Description: trap.Description,
		Location:    &entities.LocationStats{DangerLevel: input.DangerLevel},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	rels := []*entities.Relationship{
		{
			ID:         o.idGen.Generate(),
			UniverseID: input.UniverseID,
			FromID:     input.Actor.ID,
			ToID:       trapLocation.ID,
			Type:       entities.RelLocatedIn,
			CreatedAt:  now,
		},
		{
			ID:         o.idGen.Generate(),
			UniverseID: input.UniverseID,
			FromID:     input.Actor.ID,
			ToID:       trapLocation.ID,
			Type:       entities.RelTrappedIn,
			CreatedAt:  now,
		},
	}
	if err := o.persistCreated(ctx, trapLocation, rels); err != nil {
		return nil, err
	}

	out := &ExecuteOutput{
		Success:         true,
		Narrative:       fmt.Sprintf("You find yourself trapped in a %s! %s", strings.ToLower(trap.Name), trap.Description),
		EntitiesCreated: []string{trapLocation.ID},
		StateChanges:    []string{"Trapped!", "Location: " + trap.Name},
		NewLocationID:   trapLocation.ID,
	}
	for _, rel := range rels {
		out.RelationshipsCreated = append(out.RelationshipsCreated, rel.ID)
	}
	return out, nil
}

func (o *orchestrator) separateThem(ctx context.Context, input *ExecuteInput) (*ExecuteOutput, error) {
	var npcs []*entities.Entity
	for _, e := range input.Present {
		if e.Type == entities.EntityCharacter && e.ID != input.Actor.ID {
			npcs = append(npcs, e)
		}
	}
	if len(npcs) == 0 || input.Location == nil {
		return o.narrativeOnly(input, isolationNarratives, "Isolated")
	}

	idx, err := o.pick(len(npcs))
	if err != nil {
		return nil, err
	}
	separated := npcs[idx]

	listed, err := o.graphRepo.ListRelationships(ctx, &graph.ListRelationshipsInput{
		UniverseID: input.UniverseID,
		FromID:     separated.ID,
		ToID:       input.Location.ID,
		Type:       entities.RelLocatedIn,
	})
	if err != nil {
		return nil, err
	}
	for _, rel := range listed.Relationships {
		if _, err := o.graphRepo.DeleteRelationship(ctx, &graph.DeleteRelationshipInput{RelationshipID: rel.ID}); err != nil {
			return nil, err
		}
	}

	return &ExecuteOutput{
		Success:          true,
		Narrative:        fmt.Sprintf("%s vanishes from sight! You've been separated!", separated.Name),
		EntitiesModified: []string{separated.ID},
		StateChanges:     []string{"Separated from " + separated.Name},
	}, nil
}
