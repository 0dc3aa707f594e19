package turn

import "github.com/KirkDiggler/tta-core/internal/entities"

// ExecuteInput carries one turn: the session it belongs to and the already
// parsed intent. The session is updated in place on location or universe
// changes.
type ExecuteInput struct {
	Session *entities.Session
	Intent  *entities.Intent
	// DC overrides the danger-derived difficulty for social and search
	// checks; zero means derive it
	DC int
}

// ExecuteOutput carries the turn's result
type ExecuteOutput struct {
	Result *entities.TurnResult
}

// turnContext is everything loaded about the world before resolution
type turnContext struct {
	universe      *entities.Universe
	actor         *entities.Entity
	location      *entities.Entity
	present       []*entities.Entity
	inventory     []*entities.Entity
	relationships []*entities.Relationship
	recentEvents  []*entities.Event
}

func (c *turnContext) danger() int {
	if c.location != nil && c.location.Location != nil {
		return c.location.Location.DangerLevel
	}
	return 0
}

func (c *turnContext) exits() map[string]string {
	if c.location != nil && c.location.Location != nil {
		return c.location.Location.Exits
	}
	return nil
}
