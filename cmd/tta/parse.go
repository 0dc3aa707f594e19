package main

import (
	"strings"

	"github.com/KirkDiggler/tta-core/internal/entities"
)

var directions = map[string]bool{
	"north": true, "south": true, "east": true, "west": true,
	"up": true, "down": true, "in": true, "out": true,
}

// parseInput turns one line of player text into a structured intent. It is a
// verb-first keyword parser; anything it cannot place becomes an unclear
// intent the router answers with a prompt for clarification.
func parseInput(line string) *entities.Intent {
	raw := strings.TrimSpace(line)
	intent := &entities.Intent{Type: entities.IntentUnclear, OriginalInput: raw}

	words := strings.Fields(strings.ToLower(raw))
	if len(words) == 0 {
		return intent
	}

	verb := words[0]
	rest := words[1:]

	if directions[verb] && len(rest) == 0 {
		intent.Type = entities.IntentMove
		intent.Destination = verb
		return intent
	}

	switch verb {
	case "attack", "hit", "strike", "fight":
		intent.Type = entities.IntentAttack
		intent.TargetName = strings.Join(rest, " ")

	case "cast":
		intent.Type = entities.IntentCastSpell
		intent.AbilityID, intent.TargetName = splitOnAt(rest)

	case "use":
		// the REPL decides ability vs item after a catalogue lookup
		intent.Type = entities.IntentUseAbility
		intent.AbilityID, intent.TargetName = splitOnAt(rest)

	case "go", "move", "walk", "head":
		intent.Type = entities.IntentMove
		intent.Destination = strings.Join(rest, " ")

	case "look", "examine", "l":
		intent.Type = entities.IntentLook

	case "search", "investigate":
		intent.Type = entities.IntentSearch

	case "talk", "speak":
		intent.Type = entities.IntentTalk
		rest = trimLeading(rest, "to", "with")
		intent.TargetName, intent.Dialogue = splitDialogue(rest)

	case "say", "tell", "ask":
		intent.Type = entities.IntentTalk
		intent.Dialogue = strings.Join(rest, " ")

	case "persuade", "convince":
		intent.Type = entities.IntentPersuade
		intent.TargetName = strings.Join(rest, " ")

	case "intimidate", "threaten":
		intent.Type = entities.IntentIntimidate
		intent.TargetName = strings.Join(rest, " ")

	case "deceive", "lie", "bluff":
		intent.Type = entities.IntentDeceive
		intent.TargetName = strings.Join(rest, " ")

	case "take", "grab", "get":
		intent.Type = entities.IntentPickUp
		intent.TargetName = strings.Join(trimLeading(rest, "up"), " ")

	case "pick":
		intent.Type = entities.IntentPickUp
		intent.TargetName = strings.Join(trimLeading(rest, "up"), " ")

	case "drop":
		intent.Type = entities.IntentDrop
		intent.TargetName = strings.Join(rest, " ")

	case "give":
		intent.Type = entities.IntentGive
		intent.ItemID, intent.TargetName = splitOnTo(rest)

	case "rest", "sleep", "camp":
		intent.Type = entities.IntentRest
		intent.RestKind = entities.RestShort
		if len(rest) > 0 && rest[0] == "long" || verb == "sleep" {
			intent.RestKind = entities.RestLong
		}

	case "fork", "branch":
		intent.Type = entities.IntentFork
		intent.ForkName = strings.Join(rest, " ")

	case "wait":
		intent.Type = entities.IntentWait
	}

	return intent
}

// splitOnAt splits "fireball at the goblin" into ("fireball", "the goblin")
func splitOnAt(words []string) (string, string) {
	for i, w := range words {
		if w == "at" || w == "on" {
			return strings.Join(words[:i], " "), strings.Join(words[i+1:], " ")
		}
	}
	return strings.Join(words, " "), ""
}

// splitOnTo splits "potion to dobb" into ("potion", "dobb")
func splitOnTo(words []string) (string, string) {
	for i, w := range words {
		if w == "to" {
			return strings.Join(words[:i], " "), strings.Join(words[i+1:], " ")
		}
	}
	return strings.Join(words, " "), ""
}

// splitDialogue splits "dobb about the road" into ("dobb", "about the road")
func splitDialogue(words []string) (string, string) {
	for i, w := range words {
		if w == "about" {
			return strings.Join(words[:i], " "), strings.Join(words[i+1:], " ")
		}
	}
	return strings.Join(words, " "), ""
}

func trimLeading(words []string, skip ...string) []string {
	for len(words) > 0 {
		matched := false
		for _, s := range skip {
			if words[0] == s {
				words = words[1:]
				matched = true
				break
			}
		}
		if !matched {
			break
		}
	}
	return words
}
