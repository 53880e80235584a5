package commands

import (
	"errors"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/pkg/guard"
)

var ErrTickCommandIsNotConstructed = errors.New("TickCommand must be created via NewTickCommand constructor")

// TickCommand asks a pipeline stage to run once for the given simulation tick.
//
// Example:
//
//	cmd := commands.NewTickCommand(clock.Now())
//	if err := planner.Handle(ctx, cmd); err != nil {
//	    return err
//	}
type TickCommand struct {
	tick  kernel.Tick
	guard guard.ConstructorGuard
}

func NewTickCommand(tick kernel.Tick) TickCommand {
	return TickCommand{tick: tick, guard: guard.NewConstructorGuard()}
}

// Tick returns the tick being processed.
func (c TickCommand) Tick() kernel.Tick {
	return c.tick
}

func (c TickCommand) Validate() error {
	return c.guard.Validate(ErrTickCommandIsNotConstructed)
}
