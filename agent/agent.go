// Package agent provides the placers and sliders that take turns on a board.
//
// Every agent is configured with a "name=value name=value ..." argument string.
// name and role are always present.
package agent

import (
	"math/rand/v2"

	"github.com/sw965/crow2048/board"
	"github.com/sw965/crow2048/config"
	"github.com/sw965/omw/mathx/randx"
)

type Agent interface {
	Name() string
	Role() string
	OpenEpisode(flag string)
	CloseEpisode(flag string)
	TakeAction(before board.Board) board.Action
	CheckForWin(b board.Board) bool
}

// Base is the do-nothing agent. Concrete agents embed it and override what they need.
type Base struct {
	Args config.Args
}

// NewBase parses defaults followed by args, so args override the defaults.
func NewBase(defaults, args string) Base {
	return Base{Args: config.Parse("name=unknown role=unknown " + defaults + " " + args)}
}

func (b *Base) Name() string {
	return b.Args.StringOr("name", "unknown")
}

func (b *Base) Role() string {
	return b.Args.StringOr("role", "unknown")
}

func (b *Base) Property(key string) (string, error) {
	return b.Args.String(key)
}

func (b *Base) Notify(msg string) {
	b.Args.Notify(msg)
}

func (b *Base) OpenEpisode(flag string)  {}
func (b *Base) CloseEpisode(flag string) {}

func (b *Base) TakeAction(before board.Board) board.Action {
	return board.Action{}
}

func (b *Base) CheckForWin(board.Board) bool {
	return false
}

// newRand seeds from the "seed" option when given.
func newRand(args config.Args) (*rand.Rand, error) {
	if !args.Has("seed") {
		return randx.NewPCGFromGlobalSeed(), nil
	}
	seed, err := args.Int("seed")
	if err != nil {
		return nil, err
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed))), nil
}
