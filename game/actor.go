package game

import (
	"errors"
	"fmt"
	"github.com/sw965/omw/mathx/randx"
	"math"
	"math/rand/v2"
)

var (
	ErrPolicySizeMismatch     = errors.New("Policyエラー: legalMoves と同じ要素数である必要があります")
	ErrPolicyMissingLegalMove = errors.New("Policyエラー: 全ての合法手を含む必要があります")
	ErrPolicyBadValue         = errors.New("Policyエラー: 値が不正です（負数/NaN/Inf）")
	ErrPolicyZeroSum          = errors.New("Policyエラー: 合計値が0です")

	ErrNilActorFunc = errors.New("Actorエラー: フィールドの関数がnilです")
)

type Policy[M comparable] map[M]float32

func (p Policy[M]) ValidateForLegalMoves(legalMoves []M) error {
	if len(legalMoves) == 0 {
		return ErrEmptyLegalMoves
	}
	if len(p) != len(legalMoves) {
		return fmt.Errorf("%w: policy=%d legalMoves=%d", ErrPolicySizeMismatch, len(p), len(legalMoves))
	}

	var sum float32
	for i, m := range legalMoves {
		v, ok := p[m]
		if !ok {
			return fmt.Errorf("%w: idx=%d move=%v", ErrPolicyMissingLegalMove, i, m)
		}

		f64 := float64(v)
		if v < 0 || math.IsNaN(f64) || math.IsInf(f64, 0) {
			return fmt.Errorf("%w: idx=%d move=%v value=%v", ErrPolicyBadValue, i, m, v)
		}
		sum += v
	}

	if sum == 0 {
		return ErrPolicyZeroSum
	}
	return nil
}

type PolicyFunc[S any, M comparable] func(S, []M) Policy[M]

func UniformPolicyFunc[S any, M comparable](state S, legalMoves []M) Policy[M] {
	n := len(legalMoves)
	if n == 0 {
		panic("BUG: len(legalMoves) == 0 である為、UniformPolicyFuncが実行出来ません")
	}

	p := 1.0 / float32(n)
	policy := Policy[M]{}
	for _, a := range legalMoves {
		policy[a] = p
	}
	return policy
}

// SelectFunc picks a move from a validated policy.
// legalMoves fixes the iteration order, so a seeded rng gives reproducible games.
type SelectFunc[M, A comparable] func(Policy[M], []M, A, *rand.Rand) M

func MaxSelectFunc[M, A comparable](policy Policy[M], legalMoves []M, agent A, rng *rand.Rand) M {
	max := policy[legalMoves[0]]
	moves := []M{legalMoves[0]}

	for _, m := range legalMoves[1:] {
		v := policy[m]
		switch {
		case v > max:
			max = v
			moves = []M{m}
		case v == max:
			moves = append(moves, m)
		}
	}

	move, err := randx.Choice(moves, rng)
	if err != nil {
		panic(fmt.Sprintf("BUG: %v", err))
	}
	return move
}

func WeightedRandomSelectFunc[M, A comparable](policy Policy[M], legalMoves []M, agent A, rng *rand.Rand) M {
	ws := make([]float32, len(legalMoves))
	for i, m := range legalMoves {
		ws[i] = policy[m]
	}

	idx, err := randx.IntByWeight(ws, rng)
	if err != nil {
		panic(fmt.Sprintf("BUG: %v", err))
	}
	return legalMoves[idx]
}

type Actor[S any, M, A comparable] struct {
	Name       string
	PolicyFunc PolicyFunc[S, M]
	SelectFunc SelectFunc[M, A]
}

func NewRandomActor[S any, M, A comparable](name string) Actor[S, M, A] {
	return Actor[S, M, A]{
		Name:       name,
		PolicyFunc: UniformPolicyFunc[S, M],
		SelectFunc: WeightedRandomSelectFunc[M, A],
	}
}

func (a Actor[S, M, A]) Validate() error {
	if a.PolicyFunc == nil {
		return fmt.Errorf("%w: PolicyFunc", ErrNilActorFunc)
	}
	if a.SelectFunc == nil {
		return fmt.Errorf("%w: SelectFunc", ErrNilActorFunc)
	}
	return nil
}
