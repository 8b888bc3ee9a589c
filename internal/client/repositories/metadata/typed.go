package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Typed helpers. Values are stored as text so the table stays readable
// with the sqlite3 shell. A missing key yields the zero value and ok=false.

func GetString(ctx context.Context, r Repository, key string) (string, bool, error) {
	v, err := r.Get(ctx, key)
	if err != nil || v == nil {
		return "", false, err
	}
	return string(v), true, nil
}

func SetString(ctx context.Context, r Repository, key, value string) error {
	return r.Set(ctx, key, []byte(value))
}

func GetInt(ctx context.Context, r Repository, key string) (int, bool, error) {
	s, ok, err := GetString(ctx, r, key)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, fmt.Errorf("metadata[%s]: %w", key, err)
	}
	return n, true, nil
}

func SetInt(ctx context.Context, r Repository, key string, value int) error {
	return SetString(ctx, r, key, strconv.Itoa(value))
}

func GetBool(ctx context.Context, r Repository, key string) (bool, error) {
	s, ok, err := GetString(ctx, r, key)
	if err != nil || !ok {
		return false, err
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("metadata[%s]: %w", key, err)
	}
	return b, nil
}

func SetBool(ctx context.Context, r Repository, key string, value bool) error {
	return SetString(ctx, r, key, strconv.FormatBool(value))
}

func GetTime(ctx context.Context, r Repository, key string) (time.Time, bool, error) {
	s, ok, err := GetString(ctx, r, key)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("metadata[%s]: %w", key, err)
	}
	return t, true, nil
}

func SetTime(ctx context.Context, r Repository, key string, value time.Time) error {
	return SetString(ctx, r, key, value.UTC().Format(time.RFC3339Nano))
}

func GetJSON(ctx context.Context, r Repository, key string, out any) (bool, error) {
	v, err := r.Get(ctx, key)
	if err != nil || v == nil {
		return false, err
	}
	if err := json.Unmarshal(v, out); err != nil {
		return false, fmt.Errorf("metadata[%s]: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, r Repository, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("metadata[%s]: %w", key, err)
	}
	return r.Set(ctx, key, b)
}

// DeletePrefix removes every key starting with prefix.
func DeletePrefix(ctx context.Context, r Repository, prefix string) error {
	all, err := r.List(ctx)
	if err != nil {
		return err
	}
	for key := range all {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if err := r.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
