// cmd/train/main.go
package main

import (
	"context"
	"flag"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sw965/crow2048/agent"
	"github.com/sw965/crow2048/arena"
	"github.com/sw965/crow2048/board"
	"github.com/sw965/crow2048/stats"
	"github.com/sw965/crow2048/td"
	"github.com/sw965/omw/mathx/randx"
)

var (
	total    = flag.Int("total", 1000, "Number of games to play")
	block    = flag.Int("block", 0, "Games per statistics report (0=total)")
	limit    = flag.Int("limit", 0, "Games kept for statistics (0=total)")
	slideArg = flag.String("slide", "", `Slider options, e.g. "init=65536,65536,65536,65536 alpha=0.1 save=weights.bin"`)
	placeArg = flag.String("place", "", `Placer options, e.g. "seed=1"`)
	random   = flag.Bool("random", false, "Use the random slider instead of the strategic one")
	baseline = flag.Int("baseline", 0, "Play this many baseline games in parallel first and report them")
	baseKind = flag.String("baseline-actor", "random", "Baseline actor: random or greedy")
	eval     = flag.Int("eval", 0, "Play this many games with a frozen copy of the trained weights")
	boardArg = flag.String("board", "", "Start every game from these 16 tile values, e.g. \"2 2 0 0 0 0 0 0 0 0 0 0 0 0 0 4\"")
	debug    = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	var start board.Board
	if *boardArg != "" {
		var err error
		if start, err = board.ParseBoard(*boardArg); err != nil {
			log.Fatal().Err(err).Msg("bad start board")
		}
		log.Info().Msgf("start board:\n%v", start)
	}

	if *baseline > 0 {
		runBaseline(*baseline, start)
	}

	st, err := stats.New(*total, *block, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("bad statistics size")
	}

	placer, err := agent.NewRandomPlacer(*placeArg)
	if err != nil {
		log.Fatal().Err(err).Msg("bad placer options")
	}

	var slider agent.Agent
	var strategic *agent.StrategicSlider
	if *random {
		if slider, err = agent.NewRandomSlider(*slideArg); err != nil {
			log.Fatal().Err(err).Msg("bad slider options")
		}
	} else {
		// 重みの読み込みに失敗した場合は続行しない
		if strategic, err = agent.NewStrategicSlider(*slideArg); err != nil {
			log.Fatal().Err(err).Msg("could not create the strategic slider")
		}
		slider = strategic
	}

	log.Info().
		Int("total", st.Total()).
		Int("block", st.Block()).
		Int("limit", st.Limit()).
		Str("slider", slider.Name()).
		Str("placer", placer.Name()).
		Msg("training started")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := arena.RunFrom(ctx, st, start, placer, slider); err != nil {
		log.Warn().Err(err).Int("played", st.Count()).Msg("training interrupted")
	}
	st.Show(os.Stdout, true, st.Len())

	if strategic != nil && *eval > 0 && ctx.Err() == nil {
		runEval(ctx, *eval, start, placer, strategic.Frozen())
	}

	if strategic != nil {
		if err := strategic.Close(); err != nil {
			log.Fatal().Err(err).Msg("could not save the weights")
		}
	}
	log.Info().Int("played", st.Count()).Msg("training finished")
}

func runEval(ctx context.Context, n int, start board.Board, placer, slider agent.Agent) {
	st, err := stats.New(n, 0, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("bad evaluation size")
	}
	if err := arena.RunFrom(ctx, st, start, placer, slider); err != nil {
		log.Warn().Err(err).Int("played", st.Count()).Msg("evaluation interrupted")
	}
	log.Info().Int("games", st.Count()).Msg("evaluation finished")
	st.Show(os.Stdout, true, st.Len())
}

func runBaseline(n int, start board.Board) {
	var actor arena.BaselineActor
	switch *baseKind {
	case "random":
		actor = arena.NewRandomBaseline()
	case "greedy":
		actor = arena.NewGreedyBaseline()
	default:
		log.Fatal().Str("baseline-actor", *baseKind).Msg("unknown baseline actor")
	}

	p := runtime.NumCPU()
	rngs := make([]*rand.Rand, p)
	for i := range rngs {
		rngs[i] = randx.NewPCGFromGlobalSeed()
	}

	began := time.Now()
	finals, err := arena.Baseline(n, start, actor, rngs)
	if err != nil {
		log.Fatal().Err(err).Msg("baseline failed")
	}

	st, err := stats.New(n, n, n)
	if err != nil {
		log.Fatal().Err(err).Msg("bad baseline size")
	}
	st.Out = io.Discard
	for _, final := range finals {
		ep := st.OpenEpisode(actor.Name)
		ep.SetState(final.Board)
		ep.Record(board.Action{}, board.Reward(final.Score), 0)
		outcome := td.Lose
		if final.Board.HasTwoWinRanks() {
			outcome = td.Win
		}
		st.CloseEpisode(outcome)
	}
	log.Info().Str("actor", actor.Name).Int("games", n).Dur("elapsed", time.Since(began)).Msg("baseline finished")
	st.Show(os.Stdout, true, n)
}
