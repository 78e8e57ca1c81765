package agent

import (
	"math/rand/v2"

	"github.com/sw965/crow2048/board"
	"github.com/sw965/crow2048/game"
)

// RandomPlacer puts a 2-tile (90%) or a 4-tile (10%) on a random empty cell.
type RandomPlacer struct {
	Base
	rng   *rand.Rand
	space [board.Cells]int
}

func NewRandomPlacer(args string) (*RandomPlacer, error) {
	p := &RandomPlacer{Base: NewBase("name=place role=placer", args)}
	rng, err := newRand(p.Args)
	if err != nil {
		return nil, err
	}
	p.rng = rng
	for i := range p.space {
		p.space[i] = i
	}
	return p, nil
}

func (p *RandomPlacer) TakeAction(after board.Board) board.Action {
	p.rng.Shuffle(len(p.space), func(i, j int) {
		p.space[i], p.space[j] = p.space[j], p.space[i]
	})
	for _, pos := range p.space {
		if after.At(pos) != board.Empty {
			continue
		}
		var r board.Rank = 2
		if p.rng.IntN(10) != 0 {
			r = 1
		}
		return board.NewPlace(pos, r)
	}
	return board.Action{}
}

// RandomSlider picks uniformly among the legal slides.
type RandomSlider struct {
	Base
	rng   *rand.Rand
	actor game.Actor[board.Board, board.Direction, board.Role]
}

func NewRandomSlider(args string) (*RandomSlider, error) {
	s := &RandomSlider{Base: NewBase("name=slide role=slider", args)}
	rng, err := newRand(s.Args)
	if err != nil {
		return nil, err
	}
	s.rng = rng
	s.actor = game.NewRandomActor[board.Board, board.Direction, board.Role](s.Name())
	return s, nil
}

func (s *RandomSlider) TakeAction(before board.Board) board.Action {
	legal := before.LegalSlides()
	if len(legal) == 0 {
		return board.Action{}
	}
	policy := s.actor.PolicyFunc(before, legal)
	d := s.actor.SelectFunc(policy, legal, board.Slider, s.rng)
	return board.NewSlide(d)
}
