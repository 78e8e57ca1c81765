// Package config holds agent options given as whitespace separated name=value pairs.
package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMissingKey = errors.New("設定エラー: キーが存在しません")
	ErrBadValue   = errors.New("設定エラー: 値を解釈できません")
)

// Args maps an option name to its raw value. Values are parsed on access.
type Args map[string]string

// Parse reads "name=value name=value ...". A token without '=' maps to itself.
// Later pairs override earlier ones.
func Parse(s string) Args {
	args := Args{}
	for _, pair := range strings.Fields(s) {
		args.Notify(pair)
	}
	return args
}

// Notify sets one "name=value" pair.
func (a Args) Notify(pair string) {
	key, value, ok := strings.Cut(pair, "=")
	if !ok {
		value = pair
	}
	a[key] = value
}

func (a Args) Set(key, value string) {
	a[key] = value
}

func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

func (a Args) String(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	return v, nil
}

func (a Args) StringOr(key, def string) string {
	if v, ok := a[key]; ok {
		return v
	}
	return def
}

func (a Args) Float32(key string) (float32, error) {
	v, err := a.String(key)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%s", ErrBadValue, key, v)
	}
	return float32(f), nil
}

func (a Args) Float32Or(key string, def float32) (float32, error) {
	if !a.Has(key) {
		return def, nil
	}
	return a.Float32(key)
}

func (a Args) Int(key string) (int, error) {
	v, err := a.String(key)
	if err != nil {
		return 0, err
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}

	// "1e3" のような表記も受け付けるが、小数部があれば拒否する
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%w: %s=%s", ErrBadValue, key, v)
	}
	return int(f), nil
}

func (a Args) IntOr(key string, def int) (int, error) {
	if !a.Has(key) {
		return def, nil
	}
	return a.Int(key)
}

// Bool accepts "1" and "true" as true. Any other value is false.
func (a Args) Bool(key string) (bool, error) {
	v, err := a.String(key)
	if err != nil {
		return false, err
	}
	return v == "1" || v == "true", nil
}

func (a Args) BoolOr(key string, def bool) bool {
	if !a.Has(key) {
		return def
	}
	v, _ := a.Bool(key)
	return v
}
