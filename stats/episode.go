// Package stats records played episodes and reports on the most recent of them.
package stats

import (
	"time"

	"github.com/sw965/crow2048/board"
)

type Clock func() time.Time

// Move is one applied action and the time the agent spent on it.
type Move struct {
	Action  board.Action
	Reward  board.Reward
	Elapsed time.Duration
}

type Episode struct {
	Clock Clock

	state board.Board
	score int
	moves []Move

	openFlag  string
	closeFlag string
	openedAt  time.Time
	closedAt  time.Time
	tick      time.Time
}

func NewEpisode(clock Clock) *Episode {
	if clock == nil {
		clock = time.Now
	}
	return &Episode{Clock: clock}
}

func (e *Episode) Open(flag string) {
	e.openFlag = flag
	e.openedAt = e.Clock()
	e.tick = e.openedAt
}

// Apply applies a to the episode's board and records it with the time elapsed
// since the previous action. An illegal action is not recorded.
func (e *Episode) Apply(a board.Action) (board.Reward, bool) {
	reward := a.Apply(&e.state)
	if reward == board.Illegal {
		return reward, false
	}
	now := e.Clock()
	e.Record(a, reward, now.Sub(e.tick))
	e.tick = now
	return reward, true
}

func (e *Episode) Record(a board.Action, reward board.Reward, elapsed time.Duration) {
	e.score += int(reward)
	e.moves = append(e.moves, Move{Action: a, Reward: reward, Elapsed: elapsed})
}

func (e *Episode) Close(flag string) {
	e.closeFlag = flag
	e.closedAt = e.Clock()
}

// SetState replaces the board, e.g. to continue from a position read with board.ParseBoard.
func (e *Episode) SetState(b board.Board) {
	e.state = b
}

func (e *Episode) State() board.Board {
	return e.state
}

func (e *Episode) Score() int {
	return e.score
}

func (e *Episode) MaxRank() board.Rank {
	return e.state.MaxRank()
}

func (e *Episode) Moves() []Move {
	return e.moves
}

func (e *Episode) Steps() int {
	return len(e.moves)
}

func (e *Episode) StepsOf(kind board.ActionKind) int {
	n := 0
	for _, m := range e.moves {
		if m.Action.Kind == kind {
			n++
		}
	}
	return n
}

// Time is the total time spent by the agents of the episode.
func (e *Episode) Time() time.Duration {
	var d time.Duration
	for _, m := range e.moves {
		d += m.Elapsed
	}
	return d
}

func (e *Episode) TimeOf(kind board.ActionKind) time.Duration {
	var d time.Duration
	for _, m := range e.moves {
		if m.Action.Kind == kind {
			d += m.Elapsed
		}
	}
	return d
}

func (e *Episode) OpenFlag() string {
	return e.openFlag
}

func (e *Episode) CloseFlag() string {
	return e.closeFlag
}

// Duration is the wall time between Open and Close.
func (e *Episode) Duration() time.Duration {
	return e.closedAt.Sub(e.openedAt)
}
