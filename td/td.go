// Package td trains an N-tuple network online with TD(λ) and per-weight eligibility traces.
package td

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sw965/crow2048/board"
	"github.com/sw965/crow2048/ntuple"
	"gonum.org/v1/gonum/blas/blas32"
)

// Outcome tags handed to CloseEpisode. They are matched by literal equality.
const (
	Win  = "win"
	Lose = "lose"
)

const (
	WinPenalty        float32 = -50000
	OneWinRankReward  float32 = 10000
	NearWinRankReward float32 = 5000
	FinishReward      float32 = 1000
)

var ErrNotRecording = errors.New("TDエラー: エピソードが開始されていません")

type Phase int

const (
	Idle Phase = iota
	Recording
	Finalizing
)

func (p Phase) String() string {
	switch p {
	case Recording:
		return "recording"
	case Finalizing:
		return "finalizing"
	}
	return "idle"
}

type Config struct {
	// 学習率
	Alpha float32
	// 割引率
	Lambda float32
	// 資格トレースの減衰率
	Decay    float32
	Learning bool
}

func NewDefaultConfig() Config {
	return Config{
		Alpha:    0,
		Lambda:   0.9,
		Decay:    0.8,
		Learning: true,
	}
}

// Step is one decision of the slider.
type Step struct {
	State     board.Board
	Action    board.Action
	Reward    board.Reward
	NextState board.Board
	// Stateの評価値
	Value float32
}

type EpisodeReport struct {
	Steps       int
	FinalReward float32
	MeanDanger  float32
}

type Learner struct {
	Config  Config
	Network *ntuple.Network
	Logger  zerolog.Logger

	// ReportEvery updates, the mean absolute TD error is logged. 0 disables it.
	ReportEvery int

	traces     []blas32.Vector
	trajectory []Step
	phase      Phase

	errorSum   float32
	errorCount int
}

func NewLearner(network *ntuple.Network, config Config) *Learner {
	l := &Learner{
		Config:      config,
		Network:     network,
		Logger:      log.Logger,
		ReportEvery: 100,
	}
	l.InitTraces()
	return l
}

// InitTraces allocates one zeroed trace vector per weight table.
// It must be called again whenever the network's tables are replaced.
func (l *Learner) InitTraces() {
	if l.Network.IsEmpty() {
		l.traces = nil
		return
	}
	l.traces = make([]blas32.Vector, len(l.Network.Tables))
	for i, table := range l.Network.Tables {
		n := len(table)
		l.traces[i] = blas32.Vector{N: n, Inc: 1, Data: make([]float32, n)}
	}
}

func (l *Learner) Phase() Phase {
	return l.phase
}

// Trace returns a view of the eligibility trace of table i.
func (l *Learner) Trace(i int) []float32 {
	if i < 0 || i >= len(l.traces) {
		return nil
	}
	return l.traces[i].Data
}

func (l *Learner) Trajectory() []Step {
	return l.trajectory
}

func (l *Learner) ResetTraces() {
	for _, vec := range l.traces {
		clear(vec.Data)
	}
}

func (l *Learner) DecayTraces() {
	for _, vec := range l.traces {
		if vec.N == 0 {
			continue
		}
		blas32.Scal(l.Config.Decay, vec)
	}
}

func (l *Learner) OpenEpisode() {
	l.trajectory = l.trajectory[:0]
	l.ResetTraces()
	l.phase = Recording
}

func (l *Learner) Record(step Step) error {
	if l.phase != Recording {
		return fmt.Errorf("%w: phase=%s", ErrNotRecording, l.phase)
	}
	if !l.Config.Learning {
		return nil
	}
	l.trajectory = append(l.trajectory, step)
	return nil
}

// Advance performs the one-step TD update of the previous decision, using current
// as the state that follows it, and then decays the traces.
// It reports false when there is no previous decision to update.
func (l *Learner) Advance(current board.Board) (float32, bool) {
	if !l.Config.Learning || l.phase != Recording || len(l.trajectory) < 2 {
		return 0, false
	}

	prev := l.trajectory[len(l.trajectory)-2]
	target := float32(prev.Reward) + l.Config.Lambda*l.Network.Evaluate(current)
	tdErr := target - prev.Value

	l.Update(prev.State, tdErr)
	l.DecayTraces()
	l.observe(tdErr)
	return tdErr, true
}

func (l *Learner) observe(tdErr float32) {
	if l.ReportEvery <= 0 {
		return
	}
	l.errorSum += math32.Abs(tdErr)
	l.errorCount++
	if l.errorCount%l.ReportEvery == 0 {
		l.Logger.Info().
			Float32("td_error", l.errorSum/float32(l.ReportEvery)).
			Float32("alpha", l.Config.Alpha).
			Msg("td-summary")
		l.errorSum = 0
		l.errorCount = 0
	}
}

// Update moves the weights of state's features toward tdErr.
// The trace of each touched entry is replaced with 1 before the entry is updated.
func (l *Learner) Update(state board.Board, tdErr float32) {
	if l.Network.IsEmpty() || len(l.traces) == 0 {
		return
	}

	alpha := l.Config.Alpha
	for _, f := range l.Network.UpdateFeatures(state) {
		trace := l.traces[f.Table].Data
		trace[f.Index] = 1.0
		l.Network.Tables[f.Table][f.Index] += alpha * (tdErr * f.Scale) * trace[f.Index]
	}
}

// FinalReward shapes the terminal reward. Reaching the victory is penalized; a lost
// game is rewarded more the closer it got to the victory without reaching it.
func FinalReward(outcome string, final board.Board) float32 {
	switch outcome {
	case Win:
		return WinPenalty
	case Lose:
		count := final.CountRank(board.WinRank)
		switch {
		case count == 1:
			return OneWinRankReward
		case count == 0 && final.MaxRank() >= board.NearWinRank:
			return NearWinRankReward
		}
		return FinishReward
	}
	return 0
}

// CloseEpisode replays the trajectory backward from the terminal reward and discards it.
func (l *Learner) CloseEpisode(outcome string) EpisodeReport {
	defer func() {
		l.trajectory = l.trajectory[:0]
		l.phase = Idle
	}()

	n := len(l.trajectory)
	if !l.Config.Learning || n == 0 {
		return EpisodeReport{}
	}
	l.phase = Finalizing

	last := l.trajectory[n-1]
	final := FinalReward(outcome, last.NextState)

	var dangerSum float32
	for _, step := range l.trajectory {
		dangerSum += step.State.DangerLevel()
	}

	lambda := l.Config.Lambda
	tdErr := final - last.Value
	for i := n - 1; i >= 0; i-- {
		step := l.trajectory[i]
		discounted := tdErr * math32.Pow(lambda, float32(n-1-i))
		l.Update(step.State, discounted)
		if i > 0 {
			tdErr = float32(step.Reward) + lambda*tdErr
		}
	}

	return EpisodeReport{
		Steps:       n,
		FinalReward: final,
		MeanDanger:  dangerSum / float32(n),
	}
}
