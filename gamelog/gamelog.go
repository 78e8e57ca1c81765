// Package gamelog keeps a human readable record of each game played by a slider
// and appends it to a log file under a directory.
package gamelog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sw965/crow2048/board"
)

const (
	WinFile    = "win_games.log"
	NormalFile = "normal_games.log"
)

const (
	// 盤面を記録する危険度の閾値
	DangerThreshold float32 = 0.3
	// 256以上
	MilestoneRank board.Rank = 8
	Period                   = 50
)

// Tag reports why a board should be written out after a step line, if at all.
func Tag(move int, danger float32, maxRank board.Rank) (string, bool) {
	switch {
	case danger > DangerThreshold:
		return "[danger]", true
	case maxRank >= MilestoneRank:
		return "[milestone]", true
	case move%Period == 0:
		return "[periodic]", true
	}
	return "", false
}

// Recorder accumulates the text of one game. A Recorder with an empty Dir still
// accumulates, but Flush writes nothing.
type Recorder struct {
	Dir    string
	Logger zerolog.Logger

	buf strings.Builder
}

func New(dir string) *Recorder {
	return &Recorder{Dir: dir, Logger: log.Logger}
}

func (r *Recorder) Enabled() bool {
	return r.Dir != ""
}

func (r *Recorder) Begin(game int) {
	r.buf.Reset()
	fmt.Fprintf(&r.buf, "game %d start\n", game)
}

func (r *Recorder) Step(move int, before board.Board) {
	danger := before.DangerLevel()
	maxRank := before.MaxRank()
	fmt.Fprintf(&r.buf, "move %d: 8192=%d 4096=%d max=2^%d danger=%f\n",
		move, before.CountRank(board.WinRank), before.CountRank(board.NearWinRank), maxRank, danger)

	if tag, ok := Tag(move, danger, maxRank); ok {
		fmt.Fprintf(&r.buf, "%s board:\n%s\n", tag, before)
	}
}

func (r *Recorder) Notef(format string, a ...any) {
	fmt.Fprintf(&r.buf, format, a...)
	r.buf.WriteByte('\n')
}

func (r *Recorder) End(moves int, outcome string) {
	fmt.Fprintf(&r.buf, "game over after %d moves\nresult: %s\n\n", moves, outcome)
}

func (r *Recorder) Text() string {
	return r.buf.String()
}

// Flush appends the current record to the win or the normal log. The record is kept,
// so a won game may be written to both logs. Failures are only logged.
func (r *Recorder) Flush(win bool) {
	if !r.Enabled() {
		return
	}

	name, title := NormalFile, "normal game"
	if win {
		name, title = WinFile, "win game"
	}
	path := filepath.Join(r.Dir, name)

	if err := r.appendTo(path, title); err != nil {
		r.Logger.Warn().Err(err).Str("path", path).Msg("game record was not written")
	}
}

func (r *Recorder) appendTo(path, title string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "=== %s ===\n%s================================\n\n", title, r.buf.String())
	return err
}
