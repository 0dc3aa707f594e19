package moves

import (
	"strings"

	"github.com/KirkDiggler/tta-core/internal/entities"
)

// npcTemplate seeds NPC generation for one kind of location
type npcTemplate struct {
	Names        []string
	Roles        []string
	Descriptions []string
	SpeechStyles []string
	Motivations  []entities.Motivation
	TraitRanges  map[string][2]int
}

var npcTemplates = map[string]npcTemplate{
	"tavern": {
		Names: []string{"Greta", "Old Tom", "Bron", "Mira the Red", "Stumpy Pete"},
		Roles: []string{"barkeeper", "patron", "bard", "gambler", "server"},
		Descriptions: []string{
			"a weathered face that's seen too many bar fights",
			"nursing a drink and watching the door nervously",
			"humming a tune while polishing a mug",
			"shuffling a worn deck of cards",
		},
		SpeechStyles: []string{"warm", "gruff", "chatty", "suspicious"},
		Motivations:  []entities.Motivation{entities.MotivationWealth, entities.MotivationSafety, entities.MotivationBelonging},
		TraitRanges: map[string][2]int{
			"extraversion": {50, 85}, "agreeableness": {40, 75}, "neuroticism": {20, 50},
		},
	},
	"dungeon": {
		Names: []string{"The Prisoner", "Whisper", "Lost One", "Broken Guard", "The Survivor"},
		Roles: []string{"prisoner", "survivor", "lost_soul", "former_guard"},
		Descriptions: []string{
			"shackled to the wall, eyes hollow with despair",
			"huddled in a corner, barely alive",
			"muttering to themselves in the darkness",
			"wounded and delirious, armor rusted",
		},
		SpeechStyles: []string{"fearful", "desperate", "resigned", "paranoid"},
		Motivations:  []entities.Motivation{entities.MotivationSurvival, entities.MotivationSafety},
		TraitRanges: map[string][2]int{
			"neuroticism": {65, 95}, "extraversion": {10, 35}, "agreeableness": {30, 70},
		},
	},
	"market": {
		Names: []string{"Merchant Finn", "Silverhand", "Madame Vera", "Quick Nick", "Honest Hal"},
		Roles: []string{"merchant", "pickpocket", "fortune_teller", "hawker", "fence"},
		Descriptions: []string{
			"gesturing enthusiastically at their wares",
			"eyes darting through the crowd",
			"draped in colorful scarves and jingling jewelry",
			"calling out prices in a practiced sing-song",
		},
		SpeechStyles: []string{"persuasive", "shifty", "mysterious", "boisterous"},
		Motivations:  []entities.Motivation{entities.MotivationWealth, entities.MotivationRespect, entities.MotivationSurvival},
		TraitRanges: map[string][2]int{
			"extraversion": {65, 95}, "conscientiousness": {25, 70}, "agreeableness": {20, 60},
		},
	},
	"forest": {
		Names: []string{"The Hermit", "Ranger Thorne", "Wild Child", "The Wanderer"},
		Roles: []string{"hermit", "ranger", "druid", "traveler"},
		Descriptions: []string{
			"dressed in furs and leaves, eyes sharp as a hawk",
			"moving silently despite their gear",
			"covered in mud but seemingly at peace",
			"carrying a staff carved with strange symbols",
		},
		SpeechStyles: []string{"cryptic", "terse", "gentle", "wary"},
		Motivations:  []entities.Motivation{entities.MotivationKnowledge, entities.MotivationSafety, entities.MotivationDuty},
		TraitRanges: map[string][2]int{
			"openness": {60, 90}, "extraversion": {15, 45}, "neuroticism": {20, 50},
		},
	},
	"default": {
		Names: []string{"Stranger", "Traveler", "Local", "Passerby", "The Figure"},
		Roles: []string{"traveler", "commoner", "wanderer", "worker"},
		Descriptions: []string{
			"watching you with guarded curiosity",
			"going about their business",
			"pausing to observe the newcomer",
			"neither friendly nor hostile, just... there",
		},
		SpeechStyles: []string{"neutral", "cautious", "curious"},
		Motivations:  []entities.Motivation{entities.MotivationSurvival, entities.MotivationSafety},
	},
}

// environmentFeature is one discoverable feature for a location kind
type environmentFeature struct {
	Name        string
	Description string
}

var environmentFeatures = map[string][]environmentFeature{
	"dungeon": {
		{"Hidden Passage", "A section of wall slides aside, revealing darkness beyond."},
		{"Collapsed Tunnel", "Rubble blocks what was once a passage, though gaps remain."},
		{"Underground Stream", "Water trickles through a crack, pooling in a small basin."},
		{"Ancient Inscription", "Faded writing covers this section of wall."},
	},
	"tavern": {
		{"Back Room", "A door you hadn't noticed leads to a private area."},
		{"Loose Floorboard", "A board creaks oddly, suggesting a hollow beneath."},
		{"Secret Cellar", "Behind the bar, a trapdoor leads down."},
	},
	"forest": {
		{"Animal Trail", "A narrow path through the undergrowth, recently used."},
		{"Hollow Tree", "An ancient oak with a dark cavity in its trunk."},
		{"Hidden Clearing", "The trees part to reveal a small glade."},
		{"Overgrown Ruins", "Stone foundations barely visible through the growth."},
	},
	"default": {
		{"Shadowy Corner", "An area the light doesn't quite reach."},
		{"Strange Mark", "An unfamiliar symbol scratched into the surface."},
		{"Hidden Alcove", "A small recess, easy to miss at first glance."},
	},
}

var opportunityFeatures = []environmentFeature{
	{"Hidden Lever", "A lever protrudes from the wall. It could open a way forward, or trigger something worse."},
	{"Abandoned Supplies", "You spot a discarded pack. Useful items, perhaps, but why was it abandoned here?"},
	{"Strange Device", "An odd mechanism sits here, humming with energy. It looks operational."},
	{"Cracked Wall", "A section of wall looks weakened. You might be able to break through."},
	{"Glowing Runes", "Arcane symbols pulse with light. They seem to react to your presence."},
}

var trapFeatures = []environmentFeature{
	{"Holding Cell", "A cramped, dark cell with iron bars."},
	{"Pit Trap", "A deep pit with smooth walls, impossible to climb."},
	{"Collapsed Chamber", "Rubble seals the way you came; you're cut off."},
	{"Sealed Room", "The door slams shut behind you with terrible finality."},
}

var dangerSigns = []string{
	"You hear ominous sounds in the distance...",
	"The air grows heavy with a sense of menace.",
	"Something shifts in the shadows nearby.",
	"A chill runs down your spine.",
	"An unnatural silence falls over the area.",
}

var revelations = []string{
	"You realize the path you came from has vanished...",
	"A cold certainty settles over you: you are being watched.",
	"The symbols on the wall... you've seen them before, in nightmares.",
	"You notice tracks in the dust. Something has been following you.",
}

var atmospheres = []string{
	"An eerie silence falls over the area...",
	"The air grows thick with tension...",
	"Shadows seem to deepen around you...",
	"The temperature drops noticeably...",
}

var timePassages = []string{
	"Time passes... the shadows grow longer.",
	"Hours slip by as you struggle with your situation.",
	"When you recover your bearings, significant time has passed.",
}

var isolationNarratives = []string{
	"The path behind you collapses. You're on your own now.",
	"The fog rolls in thick, cutting you off from any allies.",
	"You realize with a start that you've become completely turned around.",
}

var monsterMoveNarratives = []string{
	"The creature rears back and unleashes something you haven't seen before!",
	"With terrible speed, your enemy does the unexpected.",
	"The thing shrieks, and the sound alone makes your ears ring.",
}

// locationKind classifies a location for template lookup. An explicit Kind
// wins; otherwise keywords in the name and description decide.
func locationKind(location *entities.Entity) string {
	if location == nil || location.Location == nil {
		return "default"
	}
	if location.Location.Kind != "" {
		return location.Location.Kind
	}

	combined := strings.ToLower(location.Name + " " + location.Description)
	switch {
	case containsAny(combined, "tavern", "inn", "bar", "pub"):
		return "tavern"
	case containsAny(combined, "dungeon", "cave", "crypt", "tomb", "prison"):
		return "dungeon"
	case containsAny(combined, "market", "bazaar", "shop", "square"):
		return "market"
	case containsAny(combined, "forest", "wood", "grove", "jungle"):
		return "forest"
	}
	return "default"
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
