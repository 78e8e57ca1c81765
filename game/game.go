// Package game provides turn-based playout utilities that are independent of any concrete game.
// Policy consistency validation is centralized in Engine.Playouts.
//
// Package game は具体的なゲームに依存しない、ターン制ゲームのプレイアウト実行ユーティリティを提供します。
// Policy の整合性チェックは Engine.Playouts に集約されています。
package game

import (
	"errors"
	"fmt"
	"github.com/sw965/omw/parallel"
	"math/rand/v2"
)

var (
	ErrEmptySlice = errors.New("空スライスエラー")

	ErrNilLogicFunc  = errors.New("Logicエラー: フィールドの関数がnilです")
	ErrNilEngineFunc = errors.New("Engineエラー: フィールドの関数がnilです")

	ErrEmptyLegalMoves = errors.New("legalMovesエラー: 要素数が0です")
	ErrStepLimit       = errors.New("手数上限エラー: ゲームが終了しません")
	ErrNoProgress      = errors.New("MoveFuncエラー: 状態が変化していません")
)

type LegalMovesFunc[S any, M comparable] func(S) []M
type MoveFunc[S any, M comparable] func(S, M) (S, error)
type EqualFunc[S any] func(S, S) bool
type CurrentAgentFunc[S any, A comparable] func(S) A

type Logic[S any, M, A comparable] struct {
	LegalMovesFunc   LegalMovesFunc[S, M]
	MoveFunc         MoveFunc[S, M]
	EqualFunc        EqualFunc[S]
	CurrentAgentFunc CurrentAgentFunc[S, A]
}

func (l Logic[S, M, A]) Validate() error {
	if l.LegalMovesFunc == nil {
		return fmt.Errorf("%w: LegalMovesFunc", ErrNilLogicFunc)
	}
	if l.MoveFunc == nil {
		return fmt.Errorf("%w: MoveFunc", ErrNilLogicFunc)
	}
	if l.EqualFunc == nil {
		return fmt.Errorf("%w: EqualFunc", ErrNilLogicFunc)
	}
	if l.CurrentAgentFunc == nil {
		return fmt.Errorf("%w: CurrentAgentFunc", ErrNilLogicFunc)
	}
	return nil
}

// ゲームが終了している場合はtrueを返す事を想定。
type IsEndFunc[S any] func(S) (bool, error)

type Engine[S any, M, A comparable] struct {
	Logic     Logic[S, M, A]
	IsEndFunc IsEndFunc[S]
	Agents    []A

	// 1ゲームあたりの手数の上限。0以下ならば無制限。
	StepLimit int
}

func (e Engine[S, M, A]) Validate() error {
	if err := e.Logic.Validate(); err != nil {
		return err
	}

	if e.IsEndFunc == nil {
		return fmt.Errorf("%w: IsEndFunc", ErrNilEngineFunc)
	}

	if len(e.Agents) == 0 {
		return fmt.Errorf("%w: Engine.Agents が空です", ErrEmptySlice)
	}
	return nil
}

func (e Engine[S, M, A]) IsEnd(state S) (bool, error) {
	return e.IsEndFunc(state)
}

// Playout plays one game from init to the end with a single rng.
func (e Engine[S, M, A]) Playout(init S, actor Actor[S, M, A], rng *rand.Rand) (S, error) {
	state := init
	for step := 0; ; step++ {
		if e.StepLimit > 0 && step >= e.StepLimit {
			return state, ErrStepLimit
		}

		isEnd, err := e.IsEnd(state)
		if err != nil {
			return state, err
		}
		if isEnd {
			return state, nil
		}

		legalMoves := e.Logic.LegalMovesFunc(state)
		// policy.ValidateForLegalMovesでもlegalMovesの空チェックをするが、PolicyFuncを安全に呼ぶ為に、ここでもチェックする
		if len(legalMoves) == 0 {
			return state, ErrEmptyLegalMoves
		}
		policy := actor.PolicyFunc(state, legalMoves)

		// 一手毎に、legalMovesがユニークであるかをチェックするのは、計算コストの観点から見送る
		if err := policy.ValidateForLegalMoves(legalMoves); err != nil {
			return state, err
		}

		agent := e.Logic.CurrentAgentFunc(state)
		move := actor.SelectFunc(policy, legalMoves, agent, rng)

		next, err := e.Logic.MoveFunc(state, move)
		if err != nil {
			return state, err
		}
		// 状態が変わらない手を繰り返すと、終局しないまま回り続ける
		if e.Logic.EqualFunc(state, next) {
			return state, fmt.Errorf("%w: move=%v", ErrNoProgress, move)
		}
		state = next
	}
}

// Playouts plays every init to the end. Games are distributed over len(rngs) workers,
// and each worker uses its own rng.
func (e Engine[S, M, A]) Playouts(inits []S, actor Actor[S, M, A], rngs []*rand.Rand) ([]S, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	if err := actor.Validate(); err != nil {
		return nil, err
	}

	p := len(rngs)
	if p == 0 {
		return nil, fmt.Errorf("%w: rngs が空です", ErrEmptySlice)
	}

	n := len(inits)
	finals := make([]S, n)

	err := parallel.For(n, p, func(workerId, idx int) error {
		final, err := e.Playout(inits[idx], actor, rngs[workerId])
		if err != nil {
			return err
		}
		finals[idx] = final
		return nil
	})
	return finals, err
}
