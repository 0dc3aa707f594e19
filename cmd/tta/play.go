package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/tta-core/internal/config"
	"github.com/KirkDiggler/tta-core/internal/entities"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/multiverse"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/quests"
	"github.com/KirkDiggler/tta-core/internal/orchestrators/turn"
	"github.com/KirkDiggler/tta-core/internal/repositories/graph"
	"github.com/KirkDiggler/tta-core/internal/repositories/truth"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start an interactive session in the starter world",
	Long: `Play seeds the starter world and drops you into a prompt. Type what
you want to do ("attack the bandit", "go north", "talk to dobb about the
road") or use slash commands; /help lists them.`,
	RunE: runPlay,
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	seeded, err := a.seeder.Seed(cmd.Context())
	if err != nil {
		return err
	}

	session := &entities.Session{
		ID:         "session_local",
		UniverseID: seeded.UniverseID,
		LocationID: seeded.LocationID,
		ActiveID:   seeded.HeroID,
	}
	session.AddCharacter(seeded.HeroID, true)

	repl := &repl{app: a, session: session}
	return repl.run(cmd.Context())
}

type repl struct {
	app     *app
	session *entities.Session
}

func (r *repl) run(ctx context.Context) error {
	fmt.Println("You wake to market noise and the smell of woodsmoke.")
	r.execute(ctx, &entities.Intent{Type: entities.IntentLook})

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := r.slash(ctx, line); quit {
				return nil
			}
			continue
		}

		intent := parseInput(line)
		r.resolveAbilityName(intent)
		r.execute(ctx, intent)
	}
}

// execute runs one turn and prints the result
func (r *repl) execute(ctx context.Context, intent *entities.Intent) {
	out, err := r.app.turns.ExecuteTurn(ctx, &turn.ExecuteInput{
		Session: r.session,
		Intent:  intent,
	})
	if err != nil {
		fmt.Printf("Something went wrong: %v\n", err)
		return
	}
	r.printResult(out.Result)

	// quests advance off the recorded events
	for _, eventID := range out.Result.EventIDs {
		evt, err := r.app.truthRepo.GetEvent(ctx, &truth.GetEventInput{EventID: eventID})
		if err != nil {
			continue
		}
		adv, err := r.app.quests.AdvanceFromEvent(ctx, &quests.AdvanceInput{
			UniverseID: r.session.UniverseID,
			Event:      evt.Event,
		})
		if err != nil {
			continue
		}
		for _, p := range adv.Progressed {
			if p.QuestCompleted {
				fmt.Printf("[quest complete] %s\n", p.QuestName)
			} else if p.ObjectiveCompleted {
				fmt.Printf("[quest] %s: objective complete\n", p.QuestName)
			}
			if p.UnlockedQuestID != "" {
				if q, err := r.app.truthRepo.GetQuest(ctx, &truth.GetQuestInput{QuestID: p.UnlockedQuestID}); err == nil {
					fmt.Printf("[new quest available] %s\n", q.Quest.Name)
				}
			}
		}
	}
}

func (r *repl) printResult(res *entities.TurnResult) {
	if res == nil || res.Skill == nil {
		return
	}
	sk := res.Skill
	if sk.Description != "" {
		fmt.Println(sk.Description)
	} else if sk.Reason != "" {
		fmt.Println(sk.Reason)
	}
	for _, roll := range res.Rolls {
		marker := ""
		if roll.Critical {
			marker = " (critical)"
		}
		if roll.Fumble {
			marker = " (fumble)"
		}
		fmt.Printf("  %s: %d%+d = %d%s\n",
			roll.Description, roll.Roll, roll.Modifier, roll.Total, marker)
	}
	if sk.Damage > 0 {
		fmt.Printf("  %d %s damage\n", sk.Damage, sk.DamageType)
	}
	if sk.Healing > 0 {
		fmt.Printf("  %d hit points recovered\n", sk.Healing)
	}
	if sk.GMMoveDetail != "" {
		fmt.Println(sk.GMMoveDetail)
	}
}

// resolveAbilityName maps a spoken ability name to its catalogue id, or
// downgrades the intent to item use when nothing matches
func (r *repl) resolveAbilityName(intent *entities.Intent) {
	if intent.Type != entities.IntentCastSpell && intent.Type != entities.IntentUseAbility {
		return
	}
	name := strings.ToLower(intent.AbilityID)
	for _, a := range r.app.library.Abilities() {
		if strings.ToLower(a.Name) == name || a.ID == intent.AbilityID {
			intent.AbilityID = a.ID
			return
		}
	}
	if intent.Type == entities.IntentUseAbility {
		intent.Type = entities.IntentUseItem
		intent.TargetName = intent.AbilityID
		intent.AbilityID = ""
	}
}

func (r *repl) slash(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	cmd := fields[0]
	switch cmd {
	case "/quit", "/exit", "/q":
		fmt.Println("Until next time.")
		return true
	case "/help":
		r.printHelp()
	case "/status":
		r.printStatus(ctx)
	case "/look":
		r.execute(ctx, &entities.Intent{Type: entities.IntentLook})
	case "/inventory", "/i":
		r.printInventory(ctx)
	case "/abilities":
		r.printAbilities(ctx)
	case "/quests":
		r.printQuests(ctx)
	case "/reputation":
		r.printReputation(ctx)
	case "/history":
		r.printHistory(ctx)
	case "/fork":
		r.execute(ctx, &entities.Intent{
			Type:     entities.IntentFork,
			ForkName: strings.Join(fields[1:], " "),
		})
	default:
		fmt.Printf("Unknown command %s; /help lists them.\n", cmd)
	}
	return false
}

func (r *repl) printHelp() {
	fmt.Println(`Actions: attack <target>, cast <ability> at <target>, use <thing>,
go <direction>, look, search, talk to <name> about <topic>, persuade <name>,
take <item>, drop <item>, give <item> to <name>, rest [long], fork [name], wait

Commands:
  /status      hit points, stress, momentum, spell slots
  /inventory   what you carry, wield, and wear
  /abilities   your abilities and what they cost
  /quests      active and available quests
  /reputation  faction standings
  /history     recent events in this timeline
  /fork [name] branch the timeline here
  /quit        leave the game`)
}

func (r *repl) hero(ctx context.Context) *entities.Entity {
	out, err := r.app.multiverse.GetEntity(ctx, &multiverse.GetEntityInput{
		UniverseID: r.session.UniverseID,
		EntityID:   r.session.ActiveID,
	})
	if err != nil {
		return nil
	}
	return out.Entity
}

func (r *repl) printStatus(ctx context.Context) {
	hero := r.hero(ctx)
	if hero == nil || hero.Character == nil {
		fmt.Println("No active character.")
		return
	}
	ch := hero.Character
	fmt.Printf("%s  HP %d/%d  AC %d  level %d\n", hero.Name, ch.HP, ch.HPMax, ch.AC, ch.Level)
	if pool := ch.Resources; pool != nil {
		if pool.Pool != nil {
			fmt.Printf("  stress %d/%d  momentum %d/%d\n",
				pool.Pool.Stress, pool.Pool.StressMax,
				pool.Pool.Momentum, pool.Pool.MomentumMax)
		}
		for level, slot := range pool.SpellSlots {
			fmt.Printf("  level %d slots: %d/%d\n", level, slot.Current, slot.Max)
		}
	}
	for i := range ch.Conditions {
		fmt.Printf("  condition: %s\n", ch.Conditions[i].Condition)
	}
	fmt.Printf("  turn %d, universe %s\n", r.session.TurnCount, r.session.UniverseID)
}

func (r *repl) printInventory(ctx context.Context) {
	rels, err := r.app.graphRepo.ListRelationships(ctx, &graph.ListRelationshipsInput{
		UniverseID: r.session.UniverseID,
		FromID:     r.session.ActiveID,
	})
	if err != nil {
		fmt.Printf("Something went wrong: %v\n", err)
		return
	}
	empty := true
	for _, rel := range rels.Relationships {
		var verb string
		switch rel.Type {
		case entities.RelWields:
			verb = "wielding"
		case entities.RelWears:
			verb = "wearing"
		case entities.RelCarries:
			verb = "carrying"
		default:
			continue
		}
		item, err := r.app.multiverse.GetEntity(ctx, &multiverse.GetEntityInput{
			UniverseID: r.session.UniverseID,
			EntityID:   rel.ToID,
		})
		if err != nil {
			continue
		}
		fmt.Printf("  %s %s\n", verb, item.Entity.Name)
		empty = false
	}
	if empty {
		fmt.Println("You carry nothing.")
	}
}

func (r *repl) printAbilities(ctx context.Context) {
	hero := r.hero(ctx)
	if hero == nil || hero.Character == nil {
		return
	}
	if len(hero.Character.AbilityIDs) == 0 {
		fmt.Println("You have no special abilities.")
		return
	}
	for _, id := range hero.Character.AbilityIDs {
		a, ok := r.app.library.Ability(id)
		if !ok {
			continue
		}
		fmt.Printf("  %s (%s, %s) - %s\n", a.Name, a.Source, a.Mechanism, a.Description)
	}
}

func (r *repl) printQuests(ctx context.Context) {
	for _, status := range []entities.QuestStatus{entities.QuestActive, entities.QuestAvailable} {
		out, err := r.app.quests.ListQuests(ctx, &quests.ListInput{
			UniverseID: r.session.UniverseID,
			Status:     status,
		})
		if err != nil {
			continue
		}
		for _, q := range out.Quests {
			fmt.Printf("  [%s] %s", status, q.Name)
			if obj := q.CurrentObjective(); obj != nil && status == entities.QuestActive {
				fmt.Printf(" (%s %s, %d/%d)", obj.Kind, obj.TargetID, obj.Progress, obj.Required)
			}
			fmt.Println()
		}
	}
}

func (r *repl) printReputation(ctx context.Context) {
	out, err := r.app.quests.Standings(ctx, &quests.StandingsInput{
		UniverseID: r.session.UniverseID,
		EntityID:   r.session.ActiveID,
	})
	if err != nil {
		fmt.Printf("Something went wrong: %v\n", err)
		return
	}
	if len(out.Standings) == 0 {
		fmt.Println("No faction has an opinion of you yet.")
		return
	}
	for _, st := range out.Standings {
		fmt.Printf("  %s: %s (%d)\n", st.FactionName, st.Tier, st.Score)
	}
}

func (r *repl) printHistory(ctx context.Context) {
	out, err := r.app.truthRepo.ListEvents(ctx, &truth.ListEventsInput{
		UniverseID: r.session.UniverseID,
	})
	if err != nil {
		fmt.Printf("Something went wrong: %v\n", err)
		return
	}
	events := out.Events
	if len(events) > 10 {
		events = events[len(events)-10:]
	}
	for _, evt := range events {
		fmt.Printf("  %s  %s\n", evt.Type, evt.Description)
	}
}
