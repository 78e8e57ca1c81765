package game_test

import (
	"errors"
	"github.com/sw965/crow2048/game"
	"math/rand/v2"
	"testing"
)

// 残り数から1か2を引いていき、0になったら終了するゲーム
type countdown struct {
	Rest int
	Turn int
}

func newCountdownEngine() game.Engine[countdown, int, int] {
	return game.Engine[countdown, int, int]{
		Logic: game.Logic[countdown, int, int]{
			LegalMovesFunc: func(s countdown) []int {
				if s.Rest >= 2 {
					return []int{1, 2}
				}
				return []int{1}
			},
			MoveFunc: func(s countdown, m int) (countdown, error) {
				return countdown{Rest: s.Rest - m, Turn: 1 - s.Turn}, nil
			},
			EqualFunc: func(s1, s2 countdown) bool {
				return s1 == s2
			},
			CurrentAgentFunc: func(s countdown) int {
				return s.Turn
			},
		},
		IsEndFunc: func(s countdown) (bool, error) {
			return s.Rest <= 0, nil
		},
		Agents: []int{0, 1},
	}
}

func TestEngineValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*game.Engine[countdown, int, int])
		wantErrIs error
	}{
		{
			name:   "正常",
			modify: func(e *game.Engine[countdown, int, int]) {},
		},
		{
			name:      "異常_LegalMovesFuncがnil",
			modify:    func(e *game.Engine[countdown, int, int]) { e.Logic.LegalMovesFunc = nil },
			wantErrIs: game.ErrNilLogicFunc,
		},
		{
			name:      "異常_IsEndFuncがnil",
			modify:    func(e *game.Engine[countdown, int, int]) { e.IsEndFunc = nil },
			wantErrIs: game.ErrNilEngineFunc,
		},
		{
			name:      "異常_Agentsが空",
			modify:    func(e *game.Engine[countdown, int, int]) { e.Agents = nil },
			wantErrIs: game.ErrEmptySlice,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newCountdownEngine()
			tc.modify(&e)
			err := e.Validate()
			if tc.wantErrIs == nil {
				if err != nil {
					t.Errorf("予期しないエラー: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErrIs) {
				t.Errorf("wantErrIs: %v, got: %v", tc.wantErrIs, err)
			}
		})
	}
}

func TestPlayouts(t *testing.T) {
	e := newCountdownEngine()
	actor := game.NewRandomActor[countdown, int, int]("rand")
	inits := []countdown{{Rest: 10}, {Rest: 3}, {Rest: 1}, {Rest: 0}}
	rngs := []*rand.Rand{rand.New(rand.NewPCG(1, 2)), rand.New(rand.NewPCG(3, 4))}

	finals, err := e.Playouts(inits, actor, rngs)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	for i, final := range finals {
		if final.Rest > 0 || final.Rest < -1 {
			t.Errorf("game %d: 不正な終局 %v", i, final)
		}
	}

	if _, err := e.Playouts(inits, actor, nil); !errors.Is(err, game.ErrEmptySlice) {
		t.Errorf("rngsが空の場合はErrEmptySliceになるべきです: %v", err)
	}
}

func TestPlayoutStepLimit(t *testing.T) {
	e := newCountdownEngine()
	e.StepLimit = 2
	actor := game.NewRandomActor[countdown, int, int]("rand")
	_, err := e.Playout(countdown{Rest: 100}, actor, rand.New(rand.NewPCG(1, 2)))
	if !errors.Is(err, game.ErrStepLimit) {
		t.Errorf("wantErrIs: %v, got: %v", game.ErrStepLimit, err)
	}
}

func TestPolicyValidateForLegalMoves(t *testing.T) {
	tests := []struct {
		name       string
		policy     game.Policy[int]
		legalMoves []int
		wantErrIs  error
	}{
		{name: "正常", policy: game.Policy[int]{1: 0.5, 2: 0.5}, legalMoves: []int{1, 2}},
		{name: "異常_空", policy: game.Policy[int]{}, legalMoves: []int{}, wantErrIs: game.ErrEmptyLegalMoves},
		{name: "異常_要素数不一致", policy: game.Policy[int]{1: 1.0}, legalMoves: []int{1, 2}, wantErrIs: game.ErrPolicySizeMismatch},
		{name: "異常_合法手不足", policy: game.Policy[int]{1: 0.5, 3: 0.5}, legalMoves: []int{1, 2}, wantErrIs: game.ErrPolicyMissingLegalMove},
		{name: "異常_負数", policy: game.Policy[int]{1: -0.5, 2: 0.5}, legalMoves: []int{1, 2}, wantErrIs: game.ErrPolicyBadValue},
		{name: "異常_合計0", policy: game.Policy[int]{1: 0, 2: 0}, legalMoves: []int{1, 2}, wantErrIs: game.ErrPolicyZeroSum},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.policy.ValidateForLegalMoves(tc.legalMoves)
			if tc.wantErrIs == nil {
				if err != nil {
					t.Errorf("予期しないエラー: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErrIs) {
				t.Errorf("wantErrIs: %v, got: %v", tc.wantErrIs, err)
			}
		})
	}
}

func TestMaxSelectFunc(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	policy := game.Policy[string]{"a": 0.1, "b": 0.7, "c": 0.2}
	for i := 0; i < 20; i++ {
		got := game.MaxSelectFunc(policy, []string{"a", "b", "c"}, 0, rng)
		if got != "b" {
			t.Fatalf("want: b, got: %s", got)
		}
	}
}

func TestWeightedRandomSelectFunc(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	policy := game.Policy[string]{"a": 0.0, "b": 1.0}
	for i := 0; i < 20; i++ {
		got := game.WeightedRandomSelectFunc(policy, []string{"a", "b"}, 0, rng)
		if got != "b" {
			t.Fatalf("確率0の手が選ばれました: %s", got)
		}
	}
}

func TestPlayoutNoProgress(t *testing.T) {
	e := newCountdownEngine()
	// 2を引く手だけ残り数を変えない
	e.Logic.MoveFunc = func(s countdown, m int) (countdown, error) {
		if m == 2 {
			return s, nil
		}
		return countdown{Rest: s.Rest - m, Turn: 1 - s.Turn}, nil
	}
	actor := game.Actor[countdown, int, int]{
		Name:       "max",
		PolicyFunc: func(s countdown, legalMoves []int) game.Policy[int] { return game.Policy[int]{1: 0.1, 2: 0.9} },
		SelectFunc: game.MaxSelectFunc[int, int],
	}

	final, err := e.Playout(countdown{Rest: 5}, actor, rand.New(rand.NewPCG(1, 2)))
	if !errors.Is(err, game.ErrNoProgress) {
		t.Fatalf("wantErrIs: %v, got: %v", game.ErrNoProgress, err)
	}
	if final.Rest != 5 {
		t.Errorf("エラー時は最後の状態を返すべきです: %v", final)
	}
}

func TestWeightedRandomSelectFuncDistribution(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	policy := game.Policy[string]{"a": 1, "b": 3}
	const n = 4000
	counts := map[string]int{}
	for i := 0; i < n; i++ {
		counts[game.WeightedRandomSelectFunc(policy, []string{"a", "b"}, 0, rng)]++
	}
	if counts["b"] < n*70/100 || counts["b"] > n*80/100 {
		t.Errorf("bはおよそ75%%で選ばれるべきです: %v", counts)
	}
}
