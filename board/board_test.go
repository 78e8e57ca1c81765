package board_test

import (
	"github.com/sw965/crow2048/board"
	"math/rand/v2"
	"testing"
)

func newRandomBoard(rng *rand.Rand) board.Board {
	var b board.Board
	for i := 0; i < board.Cells; i++ {
		// 空きマスが多めになるようにする
		if rng.IntN(3) == 0 {
			continue
		}
		b.Set(i, board.Rank(rng.IntN(int(board.MaxRank))+1))
	}
	return b
}

func TestPlace(t *testing.T) {
	var b board.Board
	if got := b.Place(0, 1); got != 0 {
		t.Errorf("want: 0, got: %d", got)
	}
	if got := b.Place(1, 2); got != 0 {
		t.Errorf("want: 0, got: %d", got)
	}
	if b.At(0) != 1 || b.At(1) != 2 {
		t.Errorf("want: [1 2 ...], got: %v", b)
	}

	tests := []struct {
		name string
		pos  int
		rank board.Rank
	}{
		{name: "異常_占有済み", pos: 0, rank: 1},
		{name: "異常_ランク3", pos: 5, rank: 3},
		{name: "異常_ランク0", pos: 5, rank: 0},
		{name: "異常_範囲外", pos: 16, rank: 1},
		{name: "異常_負の位置", pos: -1, rank: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := b
			if got := b.Place(tc.pos, tc.rank); got != board.Illegal {
				t.Errorf("want: Illegal, got: %d", got)
			}
			if b != before {
				t.Errorf("非合法手で盤面が変化しました: %v", b)
			}
		})
	}
}

func TestSlideLeft(t *testing.T) {
	tests := []struct {
		name       string
		row        [4]board.Rank
		want       [4]board.Rank
		wantReward board.Reward
	}{
		{
			name:       "正常_2と2",
			row:        [4]board.Rank{1, 1, 0, 0},
			want:       [4]board.Rank{2, 0, 0, 0},
			wantReward: 4,
		},
		{
			name:       "正常_4枚同じ",
			row:        [4]board.Rank{1, 1, 1, 1},
			want:       [4]board.Rank{2, 2, 0, 0},
			wantReward: 8,
		},
		{
			name:       "正常_3枚同じ",
			row:        [4]board.Rank{3, 3, 3, 0},
			want:       [4]board.Rank{4, 3, 0, 0},
			wantReward: 16,
		},
		{
			name:       "正常_隙間あり",
			row:        [4]board.Rank{0, 2, 0, 2},
			want:       [4]board.Rank{3, 0, 0, 0},
			wantReward: 8,
		},
		{
			name:       "正常_合体なしの移動",
			row:        [4]board.Rank{0, 1, 0, 2},
			want:       [4]board.Rank{1, 2, 0, 0},
			wantReward: 0,
		},
		{
			name:       "正常_8192の合体",
			row:        [4]board.Rank{12, 12, 0, 0},
			want:       [4]board.Rank{13, 0, 0, 0},
			wantReward: 8192,
		},
		{
			name:       "準正常_動かない",
			row:        [4]board.Rank{1, 2, 3, 4},
			want:       [4]board.Rank{1, 2, 3, 4},
			wantReward: board.Illegal,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var b board.Board
			b[0] = tc.row
			got := b.SlideLeft()
			if got != tc.wantReward {
				t.Errorf("wantReward: %d, got: %d", tc.wantReward, got)
			}
			if b[0] != tc.want {
				t.Errorf("want: %v, got: %v", tc.want, b[0])
			}
		})
	}
}

func TestSlideDirections(t *testing.T) {
	var b board.Board
	// 左の列に2と2を縦に置く
	b[1][0] = 1
	b[2][0] = 1

	tests := []struct {
		name      string
		direction board.Direction
		wantPos   int
	}{
		{name: "正常_上", direction: board.Up, wantPos: 0},
		{name: "正常_下", direction: board.Down, wantPos: 12},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			after := b
			got := after.Slide(tc.direction)
			if got != 4 {
				t.Errorf("wantReward: 4, got: %d", got)
			}
			if after.At(tc.wantPos) != 2 || after.CountRank(board.Empty) != 15 {
				t.Errorf("want: 4 at %d, got:\n%v", tc.wantPos, after)
			}
		})
	}

	var row board.Board
	row[0] = [4]board.Rank{1, 0, 1, 0}
	if got := row.Slide(board.Right); got != 4 || row.At(3) != 2 {
		t.Errorf("右スライド: reward=%d board=\n%v", got, row)
	}
}

func TestSlideIllegalKeepsBoard(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	illegal := 0
	for i := 0; i < 2000; i++ {
		b := newRandomBoard(rng)
		for _, d := range board.Directions {
			after := b
			if after.Slide(d) != board.Illegal {
				if after == b {
					t.Fatalf("合法手なのに盤面が変化していません: %s\n%v", d, b)
				}
				continue
			}
			illegal++
			if after != b {
				t.Fatalf("非合法手で盤面が変化しました: %s\nbefore:\n%vafter:\n%v", d, b, after)
			}
		}
	}
	if illegal == 0 {
		t.Errorf("非合法手のケースが1つもありませんでした")
	}
}

func TestSlideNeverAddsTiles(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 1000; i++ {
		b := newRandomBoard(rng)
		for _, d := range board.Directions {
			after := b
			after.Slide(d)
			if after.EmptyCount() < b.EmptyCount() {
				t.Fatalf("スライドでタイルが増えました: %s\n%v", d, b)
			}
		}
	}
}

func TestTransforms(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	for i := 0; i < 500; i++ {
		b := newRandomBoard(rng)

		if got := b.RotateClockwise().RotateClockwise().RotateClockwise().RotateClockwise(); got != b {
			t.Fatalf("時計回り4回で元に戻りません:\n%v", b)
		}
		if got := b.ReflectHorizontal().ReflectHorizontal(); got != b {
			t.Fatalf("左右反転2回で元に戻りません:\n%v", b)
		}
		if got := b.ReflectVertical().ReflectVertical(); got != b {
			t.Fatalf("上下反転2回で元に戻りません:\n%v", b)
		}
		if got := b.Transpose().Transpose(); got != b {
			t.Fatalf("転置2回で元に戻りません:\n%v", b)
		}
		if got, want := b.RotateClockwise(), b.Transpose().ReflectHorizontal(); got != want {
			t.Fatalf("時計回り != 転置->左右反転:\n%v", b)
		}
		if got := b.RotateClockwise().RotateCounterclockwise(); got != b {
			t.Fatalf("時計回りと反時計回りが逆変換になっていません:\n%v", b)
		}
		if got, want := b.Rotate(2), b.Reverse(); got != want {
			t.Fatalf("Rotate(2) != Reverse:\n%v", b)
		}
		if got, want := b.Rotate(-1), b.RotateCounterclockwise(); got != want {
			t.Fatalf("Rotate(-1) != RotateCounterclockwise:\n%v", b)
		}
	}

	var b board.Board
	b.Set(0, 1)
	if got := b.RotateClockwise(); got.At(3) != 1 {
		t.Errorf("左上のタイルは時計回りで右上に移動するべきです:\n%v", got)
	}
	if got := b.Transpose(); got.At(0) != 1 {
		t.Errorf("転置で対角線上のタイルは動かないはずです:\n%v", got)
	}
	b.Set(1, 2)
	if got := b.Transpose(); got.At(4) != 2 {
		t.Errorf("転置で位置1は位置4に移動するべきです:\n%v", got)
	}
}

func TestHasTwoWinRanks(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  bool
	}{
		{name: "正常_0枚", count: 0, want: false},
		{name: "正常_1枚", count: 1, want: false},
		{name: "正常_2枚", count: 2, want: true},
		{name: "正常_3枚", count: 3, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var b board.Board
			for i := 0; i < tc.count; i++ {
				b.Set(i*5, board.WinRank)
			}
			// 4096は勝利条件に影響しない
			b.Set(15, board.NearWinRank)
			if got := b.HasTwoWinRanks(); got != tc.want {
				t.Errorf("want: %t, got: %t", tc.want, got)
			}
		})
	}
}

func TestDangerLevel(t *testing.T) {
	tests := []struct {
		name string
		win  int
		near int
		want float32
	}{
		{name: "正常_何もなし", win: 0, near: 0, want: 0.0},
		{name: "正常_8192が1枚", win: 1, near: 0, want: 0.0},
		{name: "正常_8192が2枚", win: 2, near: 0, want: 0.0},
		{name: "正常_4096が2枚", win: 0, near: 2, want: 0.0},
		{name: "正常_4096が3枚", win: 0, near: 3, want: 0.4},
		{name: "正常_8192と4096が1枚ずつ", win: 1, near: 1, want: 0.7},
		{name: "正常_8192が2枚と4096が1枚", win: 2, near: 1, want: 0.7},
		{name: "正常_8192が1枚と4096が2枚", win: 1, near: 2, want: 1.0},
		{name: "正常_8192が1枚と4096が3枚", win: 1, near: 3, want: 1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var b board.Board
			pos := 0
			for i := 0; i < tc.win; i++ {
				b.Set(pos, board.WinRank)
				pos++
			}
			for i := 0; i < tc.near; i++ {
				b.Set(pos, board.NearWinRank)
				pos++
			}
			if got := b.DangerLevel(); got != tc.want {
				t.Errorf("want: %v, got: %v", tc.want, got)
			}
		})
	}
}

func TestCountAndMax(t *testing.T) {
	b := board.Board{
		{1, 1, 0, 0},
		{0, 5, 0, 0},
		{0, 0, 11, 0},
		{0, 0, 0, 1},
	}
	if got := b.CountRank(1); got != 3 {
		t.Errorf("CountRank(1) want: 3, got: %d", got)
	}
	if got := b.MaxRank(); got != 11 {
		t.Errorf("MaxRank want: 11, got: %d", got)
	}
	if got := b.EmptyCount(); got != 11 {
		t.Errorf("EmptyCount want: 11, got: %d", got)
	}
}

func TestParseBoard(t *testing.T) {
	b := board.Board{
		{1, 2, 0, 0},
		{0, 13, 0, 0},
		{0, 0, 12, 0},
		{0, 0, 0, 3},
	}
	got, err := board.ParseBoard(b.String())
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if got != b {
		t.Errorf("want:\n%vgot:\n%v", b, got)
	}

	if _, err := board.ParseBoard("2 4 8"); err == nil {
		t.Errorf("タイル数不足でエラーになるべきです")
	}
	if _, err := board.ParseBoard("3 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0"); err == nil {
		t.Errorf("2のべき乗でない値でエラーになるべきです")
	}
}
