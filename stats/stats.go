package stats

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sw965/crow2048/board"
	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/floats"
)

var ErrInvalidSize = errors.New("統計エラー: total >= limit >= block >= 1 である必要があります")

const (
	ProgressWindow = 100
	ProgressLine   = 1000

	// スライドでの合体はMaxRankを超えるランクも作る
	rankSlots = 64
)

type number interface {
	constraints.Integer | constraints.Float
}

func percent[T number](part, whole T) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

func perSecond[T constraints.Integer](n T, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

// TileStat describes the games of a report window whose largest tile had Rank.
type TileStat struct {
	Rank board.Rank
	// Rank以上に到達したゲームの割合(%)
	Reached float64
	// 最大タイルがちょうどRankで終わったゲームの割合(%)
	Ended float64
}

type Report struct {
	Index int
	Games int

	Avg float64
	Max float64

	// 1秒あたりの手数
	Ops      float64
	SlideOps float64
	PlaceOps float64

	Tiles []TileStat
}

// Statistics keeps the most recent limit episodes out of total, and reports every
// block episodes. total >= limit >= block.
type Statistics struct {
	Out   io.Writer
	Clock Clock

	total int
	block int
	limit int
	count int
	data  []*Episode
}

// New returns statistics over total episodes. A zero block or limit defaults to total.
func New(total, block, limit int) (*Statistics, error) {
	if block == 0 {
		block = total
	}
	if limit == 0 {
		limit = total
	}
	if block < 1 || limit < block || total < limit {
		return nil, fmt.Errorf("%w: total=%d limit=%d block=%d", ErrInvalidSize, total, limit, block)
	}
	return &Statistics{
		Out:   os.Stdout,
		Clock: time.Now,
		total: total,
		block: block,
		limit: limit,
		data:  make([]*Episode, 0, limit),
	}, nil
}

func (s *Statistics) Total() int { return s.total }
func (s *Statistics) Block() int { return s.block }
func (s *Statistics) Limit() int { return s.limit }

// Count is the number of episodes opened so far, including evicted ones.
func (s *Statistics) Count() int {
	return s.count
}

// Len is the number of retained episodes.
func (s *Statistics) Len() int {
	return len(s.data)
}

func (s *Statistics) IsFinished() bool {
	return s.count >= s.total
}

func (s *Statistics) At(i int) *Episode {
	return s.data[i]
}

func (s *Statistics) Back() *Episode {
	if len(s.data) == 0 {
		return nil
	}
	return s.data[len(s.data)-1]
}

// OpenEpisode starts a new episode, evicting the oldest once limit is exceeded.
func (s *Statistics) OpenEpisode(flag string) *Episode {
	if s.count >= s.limit && len(s.data) > 0 {
		copy(s.data, s.data[1:])
		s.data[len(s.data)-1] = nil
		s.data = s.data[:len(s.data)-1]
	}
	s.count++

	ep := NewEpisode(s.Clock)
	s.data = append(s.data, ep)
	ep.Open(flag)
	return ep
}

// CloseEpisode closes the current episode. Progress is printed every ProgressWindow
// episodes and a report every block episodes.
func (s *Statistics) CloseEpisode(flag string) {
	ep := s.Back()
	if ep == nil {
		return
	}
	ep.Close(flag)

	if s.count%ProgressWindow == 0 {
		s.Progress(s.Out)
	}
	if s.count%s.block == 0 {
		s.Show(s.Out, true, s.block)
	}
}

// Summary reports on the last window episodes. A window of 0 means block.
func (s *Statistics) Summary(window int) Report {
	if window <= 0 {
		window = s.block
	}
	num := min(window, len(s.data))
	report := Report{Index: s.count, Games: num}
	if num == 0 {
		return report
	}

	scores := make([]float64, num)
	// 最大タイルのランク毎のゲーム数
	hist := make([]float64, rankSlots)
	var steps, slides, places int
	var elapsed, slideTime, placeTime time.Duration

	for i, ep := range s.data[len(s.data)-num:] {
		scores[i] = float64(ep.Score())
		hist[min(int(ep.MaxRank()), rankSlots-1)]++
		steps += ep.Steps()
		slides += ep.StepsOf(board.Slide)
		places += ep.StepsOf(board.Place)
		elapsed += ep.Time()
		slideTime += ep.TimeOf(board.Slide)
		placeTime += ep.TimeOf(board.Place)
	}

	report.Avg = floats.Sum(scores) / float64(num)
	report.Max = floats.Max(scores)
	report.Ops = perSecond(steps, elapsed)
	report.SlideOps = perSecond(slides, slideTime)
	report.PlaceOps = perSecond(places, placeTime)

	for r, n := range hist {
		if n == 0 {
			continue
		}
		report.Tiles = append(report.Tiles, TileStat{
			Rank:    board.Rank(r),
			Reached: percent(floats.Sum(hist[r:]), float64(num)),
			Ended:   percent(n, float64(num)),
		})
	}
	return report
}

// Show writes the report of the last window episodes in the form
//
//	1000	avg = 273901, max = 382324, ops = 241563 (170543|896715)
//		2048	99.5%	(1.1%)
//		4096	98.4%	(4.7%)
//
// The tile lines are written only when tiles is true.
func (s *Statistics) Show(w io.Writer, tiles bool, window int) {
	report := s.Summary(window)
	if report.Games == 0 {
		return
	}

	fmt.Fprintf(w, "%d\tavg = %.0f, max = %.0f, ops = %.0f (%.0f|%.0f)\n",
		report.Index, report.Avg, report.Max, report.Ops, report.SlideOps, report.PlaceOps)
	if !tiles {
		return
	}
	for _, tile := range report.Tiles {
		fmt.Fprintf(w, "\t%d\t%.1f%%\t(%.1f%%)\n", tile.Rank.Value(), tile.Reached, tile.Ended)
	}
	fmt.Fprintln(w)
}

// Progress writes a one line summary of the last ProgressWindow episodes,
// breaking the line every ProgressLine episodes.
func (s *Statistics) Progress(w io.Writer) {
	num := min(ProgressWindow, len(s.data))
	if num == 0 {
		return
	}

	scores := make([]float64, num)
	for i, ep := range s.data[len(s.data)-num:] {
		scores[i] = float64(ep.Score())
	}
	fmt.Fprintf(w, "\rprogress %d/%d (%.1f%%) avg=%.0f max=%.0f",
		s.count, s.total, percent(s.count, s.total), floats.Sum(scores)/float64(num), floats.Max(scores))
	if s.count%ProgressLine == 0 {
		fmt.Fprintln(w)
	}
}
