// Package arena plays a placer against a slider and records the episodes.
package arena

import (
	"context"
	"math/rand/v2"

	"github.com/rs/zerolog/log"
	"github.com/sw965/crow2048/agent"
	"github.com/sw965/crow2048/board"
	"github.com/sw965/crow2048/game"
	"github.com/sw965/crow2048/stats"
	"github.com/sw965/crow2048/td"
)

// Play runs one episode to the end and returns its outcome, td.Win when the slider
// reported the victory and td.Lose otherwise.
func Play(st *stats.Statistics, placer, slider agent.Agent) string {
	return PlayFrom(st, board.Board{}, placer, slider)
}

// PlayFrom is Play starting at start. A start with any tile skips the two opening
// placements, so the slider moves first.
func PlayFrom(st *stats.Statistics, start board.Board, placer, slider agent.Agent) string {
	ep := st.OpenEpisode(slider.Name() + ":" + placer.Name())
	ep.SetState(start)
	placer.OpenEpisode("~:" + slider.Name())
	slider.OpenEpisode(placer.Name() + ":~")

	offset := openingSteps(start)
	outcome := td.Lose
	for {
		who := placer
		if board.TurnOf(ep.Steps()+offset) == board.Slider {
			who = slider
		}

		a := who.TakeAction(ep.State())
		if a.Kind == board.NoAction {
			break
		}
		if _, ok := ep.Apply(a); !ok {
			log.Debug().Str("agent", who.Name()).Stringer("action", a).Msg("illegal action")
			break
		}
		if who.CheckForWin(ep.State()) {
			outcome = td.Win
			break
		}
	}

	st.CloseEpisode(outcome)
	slider.CloseEpisode(outcome)
	placer.CloseEpisode(outcome)
	return outcome
}

// Run plays episodes until st is finished. ctx is checked between episodes.
func Run(ctx context.Context, st *stats.Statistics, placer, slider agent.Agent) error {
	return RunFrom(ctx, st, board.Board{}, placer, slider)
}

// RunFrom is Run with every episode starting at start.
func RunFrom(ctx context.Context, st *stats.Statistics, start board.Board, placer, slider agent.Agent) error {
	for !st.IsFinished() {
		if err := ctx.Err(); err != nil {
			return err
		}
		PlayFrom(st, start, placer, slider)
	}
	return nil
}

// openingSteps is the number of steps already behind a start position.
func openingSteps(start board.Board) int {
	if start.EmptyCount() == board.Cells {
		return 0
	}
	return 2
}

// StartState is the engine state of a start position.
func StartState(start board.Board) board.State {
	return board.State{Board: start, Steps: openingSteps(start)}
}

// BaselinePolicy chooses slides uniformly and places a 2-tile nine times as often as
// a 4-tile.
func BaselinePolicy(s board.State, legalActions []board.Action) game.Policy[board.Action] {
	if s.Turn() == board.Slider {
		return game.UniformPolicyFunc(s, legalActions)
	}
	policy := game.Policy[board.Action]{}
	for _, a := range legalActions {
		if a.Rank == 1 {
			policy[a] = 0.9
		} else {
			policy[a] = 0.1
		}
	}
	return policy
}

// GreedyPolicy scores each slide by its merge reward plus one point per empty cell
// it leaves, and keeps BaselinePolicy for placements. Every value is at least 1.
func GreedyPolicy(s board.State, legalActions []board.Action) game.Policy[board.Action] {
	if s.Turn() != board.Slider {
		return BaselinePolicy(s, legalActions)
	}
	policy := game.Policy[board.Action]{}
	for _, a := range legalActions {
		after := s.Board
		reward := a.Apply(&after)
		policy[a] = float32(reward) + float32(after.EmptyCount()) + 1
	}
	return policy
}

// GreedySelectFunc takes the best slide and draws placements at random.
func GreedySelectFunc(policy game.Policy[board.Action], legalActions []board.Action, role board.Role, rng *rand.Rand) board.Action {
	if role == board.Slider {
		return game.MaxSelectFunc(policy, legalActions, role, rng)
	}
	return game.WeightedRandomSelectFunc(policy, legalActions, role, rng)
}

type BaselineActor = game.Actor[board.State, board.Action, board.Role]

func NewRandomBaseline() BaselineActor {
	return BaselineActor{
		Name:       "random",
		PolicyFunc: BaselinePolicy,
		SelectFunc: game.WeightedRandomSelectFunc[board.Action, board.Role],
	}
}

func NewGreedyBaseline() BaselineActor {
	return BaselineActor{
		Name:       "greedy",
		PolicyFunc: GreedyPolicy,
		SelectFunc: GreedySelectFunc,
	}
}

// Baseline plays n games of actor from start in parallel, one worker per rng, and
// returns the final states.
func Baseline(n int, start board.Board, actor BaselineActor, rngs []*rand.Rand) ([]board.State, error) {
	engine := board.NewEngine()
	inits := make([]board.State, n)
	for i := range inits {
		inits[i] = StartState(start)
	}
	return engine.Playouts(inits, actor, rngs)
}
