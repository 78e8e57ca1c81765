package agent

import (
	"fmt"
	"maps"
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sw965/crow2048/board"
	"github.com/sw965/crow2048/gamelog"
	"github.com/sw965/crow2048/ntuple"
	"github.com/sw965/crow2048/td"
	"github.com/sw965/crow2048/weight"
)

const (
	DefaultPenalty      float32 = 0.7
	DefaultBonus        float32 = 1000
	DefaultRecordEvery          = 10
	DefaultSummaryEvery         = 50

	// 危険度1あたりのペナルティの倍率
	dangerScale float32 = 10000
	// この周期のゲームでは、50手毎にTD誤差を記録に残す
	tdNoteGames = 100
	tdNoteMoves = 50
)

// Summary accumulates the games of one summary window.
type Summary struct {
	First, Last int
	Games       int
	Wins        int
	Steps       int
	DangerSum   float32
}

// AvoidRate is the percentage of games that ended without two 8192-tiles.
func (s Summary) AvoidRate() float32 {
	if s.Games == 0 {
		return 0
	}
	return 100 - float32(s.Wins)/float32(s.Games)*100
}

func (s Summary) MeanSteps() float32 {
	if s.Games == 0 {
		return 0
	}
	return float32(s.Steps) / float32(s.Games)
}

func (s Summary) MeanDanger() float32 {
	if s.Games == 0 {
		return 0
	}
	return s.DangerSum / float32(s.Games)
}

// StrategicSlider slides toward high scores while steering away from the second
// 8192-tile. Moves are scored by the N-tuple network plus a danger penalty and an
// empty cell bonus, and the network is trained with TD(λ) as it plays.
type StrategicSlider struct {
	Base
	Network  *ntuple.Network
	Learner  *td.Learner
	Recorder *gamelog.Recorder
	Logger   zerolog.Logger

	Penalty      float32
	Bonus        float32
	RecordEvery  int
	SummaryEvery int

	games  int
	moves  int
	danger float32

	window Summary
	last   Summary
}

// NewStrategicSlider builds the slider from its options. Weights are allocated by
// init and then replaced by load when both are given.
func NewStrategicSlider(args string) (*StrategicSlider, error) {
	s := &StrategicSlider{
		Base:   NewBase("name=strategic role=slider", args),
		Logger: log.Logger,
	}

	var tables weight.Tables
	if s.Args.Has("init") {
		sizes, err := weight.ParseSizes(s.Args.StringOr("init", ""))
		if err != nil {
			return nil, err
		}
		if tables, err = weight.New(sizes); err != nil {
			return nil, err
		}
	}
	if s.Args.Has("load") {
		var err error
		if tables, err = weight.LoadFile(s.Args.StringOr("load", "")); err != nil {
			return nil, err
		}
	}
	s.Network = ntuple.NewNetwork(tables)

	config, err := s.learnerConfig()
	if err != nil {
		return nil, err
	}
	s.Learner = td.NewLearner(s.Network, config)

	if s.Penalty, err = s.Args.Float32Or("penalty", DefaultPenalty); err != nil {
		return nil, err
	}
	if s.Bonus, err = s.Args.Float32Or("bonus", DefaultBonus); err != nil {
		return nil, err
	}
	if s.RecordEvery, err = s.Args.IntOr("record_every", DefaultRecordEvery); err != nil {
		return nil, err
	}
	if s.SummaryEvery, err = s.Args.IntOr("summary_every", DefaultSummaryEvery); err != nil {
		return nil, err
	}
	s.Recorder = gamelog.New(s.Args.StringOr("record_dir", ""))
	return s, nil
}

func (s *StrategicSlider) learnerConfig() (td.Config, error) {
	config := td.NewDefaultConfig()
	var err error
	if config.Alpha, err = s.Args.Float32Or("alpha", config.Alpha); err != nil {
		return td.Config{}, err
	}
	if config.Lambda, err = s.Args.Float32Or("lambda", config.Lambda); err != nil {
		return td.Config{}, err
	}
	if config.Decay, err = s.Args.Float32Or("decay", config.Decay); err != nil {
		return td.Config{}, err
	}
	config.Learning = s.Args.BoolOr("learning", config.Learning)
	return config, nil
}

// SetLogger replaces the logger of the slider and everything it owns.
func (s *StrategicSlider) SetLogger(logger zerolog.Logger) {
	s.Logger = logger
	s.Learner.Logger = logger
	s.Recorder.Logger = logger
}

func (s *StrategicSlider) Games() int {
	return s.games
}

// LastSummary returns the most recently completed summary window.
func (s *StrategicSlider) LastSummary() Summary {
	return s.last
}

func (s *StrategicSlider) OpenEpisode(flag string) {
	s.games++
	s.moves = 0
	s.danger = 0
	s.Recorder.Begin(s.games)
	s.Learner.OpenEpisode()
}

// ActionValue scores the board left by a slide that earned reward.
func (s *StrategicSlider) ActionValue(after board.Board, reward board.Reward) float32 {
	value := float32(reward)
	if !s.Network.IsEmpty() {
		value += s.Network.Evaluate(after)
	}
	value -= after.DangerLevel() * s.Penalty * dangerScale
	value += float32(after.EmptyCount()) * s.Bonus
	return value
}

// Decide returns the best slide over Up, Right, Down, Left, keeping the first of equal
// values. found is false when no slide was scored, in which case the action is the
// first legal slide, or NoAction when there is none.
func (s *StrategicSlider) Decide(before board.Board) (action board.Action, found bool) {
	var best float32 = -math.MaxFloat32
	for _, d := range board.Directions {
		after := before
		reward := after.Slide(d)
		if reward == board.Illegal {
			continue
		}
		if v := s.ActionValue(after, reward); v > best {
			best = v
			action = board.NewSlide(d)
			found = true
		}
	}
	if found {
		return action, true
	}

	for _, d := range board.Directions {
		after := before
		if after.Slide(d) != board.Illegal {
			return board.NewSlide(d), false
		}
	}
	return board.Action{}, false
}

func (s *StrategicSlider) TakeAction(before board.Board) board.Action {
	s.moves++
	s.danger += before.DangerLevel()
	s.Recorder.Step(s.moves, before)

	action, found := s.Decide(before)
	if !s.Learner.Config.Learning {
		return action
	}

	if found {
		next := before
		reward := action.Apply(&next)
		step := td.Step{
			State:     before,
			Action:    action,
			Reward:    reward,
			NextState: next,
			Value:     s.Network.Evaluate(before),
		}
		if err := s.Learner.Record(step); err != nil {
			s.Logger.Warn().Err(err).Msg("step was not recorded")
		}
	}

	if tdErr, ok := s.Learner.Advance(before); ok && s.games%tdNoteGames == 0 && s.moves%tdNoteMoves == 0 {
		s.Recorder.Notef("[td] error=%f value=%f", tdErr, s.Network.Evaluate(before))
	}
	return action
}

func (s *StrategicSlider) CheckForWin(b board.Board) bool {
	if !b.HasTwoWinRanks() {
		return false
	}
	s.Recorder.Notef("[win] two 8192-tiles on the board")
	s.Recorder.Flush(true)
	return true
}

func (s *StrategicSlider) CloseEpisode(flag string) {
	if s.Learner.Config.Learning {
		report := s.Learner.CloseEpisode(flag)
		if report.Steps > 0 {
			s.Recorder.Notef("[final td] length=%d reward=%f", report.Steps, report.FinalReward)
		}
		s.observe(flag)
	}

	s.Recorder.End(s.moves, flag)
	if s.RecordEvery > 0 && s.games%s.RecordEvery == 0 {
		s.Recorder.Flush(false)
	}
}

func (s *StrategicSlider) observe(flag string) {
	if s.window.Games == 0 {
		s.window.First = s.games
	}
	s.window.Last = s.games
	s.window.Games++
	if flag == td.Win {
		s.window.Wins++
	}
	s.window.Steps += s.moves
	if s.moves > 0 {
		s.window.DangerSum += s.danger / float32(s.moves)
	}

	if s.SummaryEvery <= 0 || s.games%s.SummaryEvery != 0 {
		return
	}
	s.last = s.window
	s.window = Summary{}
	s.Logger.Info().
		Str("games", fmt.Sprintf("%d-%d", s.last.First, s.last.Last)).
		Int("mean_steps", int(s.last.MeanSteps())).
		Float32("avoid_rate", s.last.AvoidRate()).
		Float32("mean_danger", s.last.MeanDanger()).
		Float32("alpha", s.Learner.Config.Alpha).
		Msg("learning-summary")
}

// Frozen returns a slider that plays with a snapshot of the current weights and
// never learns. Later training of s does not reach the snapshot. The copy keeps
// no "save" path and records no games.
func (s *StrategicSlider) Frozen() *StrategicSlider {
	args := maps.Clone(s.Args)
	delete(args, "save")
	delete(args, "record_dir")
	args.Set("learning", "0")

	network := &ntuple.Network{
		Patterns: s.Network.Patterns,
		Tables:   s.Network.Tables.Clone(),
	}
	config := s.Learner.Config
	config.Learning = false

	c := &StrategicSlider{
		Base:         Base{Args: args},
		Network:      network,
		Learner:      td.NewLearner(network, config),
		Recorder:     gamelog.New(""),
		Penalty:      s.Penalty,
		Bonus:        s.Bonus,
		RecordEvery:  s.RecordEvery,
		SummaryEvery: s.SummaryEvery,
	}
	c.SetLogger(s.Logger)
	return c
}

// Close saves the weights to the "save" path when given. A path ending in .json is
// written as JSON.
func (s *StrategicSlider) Close() error {
	if !s.Args.Has("save") {
		return nil
	}
	return s.Network.Tables.SaveFile(s.Args.StringOr("save", ""))
}
