// Package weight stores the flat float tables of an N-tuple network and persists them.
//
// The binary layout is a little-endian uint32 table count, followed by each table as a
// uint64 length and that many float32 values.
package weight

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/sw965/omw/encoding/jsonx"
)

var (
	ErrInvalidSize = errors.New("テーブルサイズエラー: 1以上である必要があります")
	ErrOpen        = errors.New("重みファイルを開けません")
	ErrCorrupt     = errors.New("重みファイルが壊れています")
)

var byteOrder = binary.LittleEndian

// これを超えるテーブル数や長さは、壊れたファイルとみなす
const (
	maxTables    = 1 << 10
	maxTableSize = 1 << 28
)

type Table []float32

type Tables []Table

// New creates one zero-filled table per size.
func New(sizes []int) (Tables, error) {
	ts := make(Tables, len(sizes))
	for i, size := range sizes {
		if size <= 0 {
			return nil, fmt.Errorf("%w: index=%d size=%d", ErrInvalidSize, i, size)
		}
		ts[i] = make(Table, size)
	}
	return ts, nil
}

// ParseSizes reads sizes such as "65536,65536". Any non-digit character separates sizes.
func ParseSizes(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	sizes := make([]int, 0, len(fields))
	for _, f := range fields {
		size, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, size)
	}
	return sizes, nil
}

func (ts Tables) Sizes() []int {
	sizes := make([]int, len(ts))
	for i, t := range ts {
		sizes[i] = len(t)
	}
	return sizes
}

// At returns table i, or nil if i is out of range.
func (ts Tables) At(i int) Table {
	if i < 0 || i >= len(ts) {
		return nil
	}
	return ts[i]
}

func (ts Tables) Clone() Tables {
	c := make(Tables, len(ts))
	for i, t := range ts {
		c[i] = append(Table(nil), t...)
	}
	return c
}

func (ts Tables) Write(w io.Writer) error {
	if err := binary.Write(w, byteOrder, uint32(len(ts))); err != nil {
		return err
	}
	for _, t := range ts {
		if err := binary.Write(w, byteOrder, uint64(len(t))); err != nil {
			return err
		}
		if err := binary.Write(w, byteOrder, []float32(t)); err != nil {
			return err
		}
	}
	return nil
}

func Read(r io.Reader) (Tables, error) {
	var n uint32
	if err := binary.Read(r, byteOrder, &n); err != nil {
		return nil, fmt.Errorf("%w: テーブル数: %v", ErrCorrupt, err)
	}

	if n > maxTables {
		return nil, fmt.Errorf("%w: テーブル数が大きすぎます: %d", ErrCorrupt, n)
	}

	ts := make(Tables, n)
	for i := range ts {
		var size uint64
		if err := binary.Read(r, byteOrder, &size); err != nil {
			return nil, fmt.Errorf("%w: テーブル%dの長さ: %v", ErrCorrupt, i, err)
		}
		if size > maxTableSize {
			return nil, fmt.Errorf("%w: テーブル%dの長さが大きすぎます: %d", ErrCorrupt, i, size)
		}
		t := make(Table, size)
		if err := binary.Read(r, byteOrder, []float32(t)); err != nil {
			return nil, fmt.Errorf("%w: テーブル%dの重み: %v", ErrCorrupt, i, err)
		}
		ts[i] = t
	}
	return ts, nil
}

// Load reads the tables stored at path. The file is closed before Load returns.
func Load(path string) (Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	defer f.Close()
	return Read(bufio.NewReader(f))
}

// Save truncates path and writes the tables to it.
func (ts Tables) Save(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOpen, err)
	}

	bw := bufio.NewWriter(f)
	if err := ts.Write(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func LoadJSON(path string) (Tables, error) {
	ts, err := jsonx.Load[Tables](path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	return ts, nil
}

func (ts Tables) SaveJSON(path string) error {
	if err := jsonx.Save[Tables](ts, path); err != nil {
		return fmt.Errorf("%w: %v", ErrOpen, err)
	}
	return nil
}

// IsJSONPath reports whether path is read and written as JSON instead of the binary layout.
func IsJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// LoadFile reads path as JSON when IsJSONPath holds and as the binary layout otherwise.
func LoadFile(path string) (Tables, error) {
	if IsJSONPath(path) {
		return LoadJSON(path)
	}
	return Load(path)
}

// SaveFile is the writing counterpart of LoadFile.
func (ts Tables) SaveFile(path string) error {
	if IsJSONPath(path) {
		return ts.SaveJSON(path)
	}
	return ts.Save(path)
}
