package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type question struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
	Answer  int      `json:"answer"`
}

func TestRemember_MissThenHit(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	key := RequestKey("generate_questions", "photosynthesis transcript", 15000, "multiple_choice", "1")

	calls := 0
	compute := func(context.Context) ([]question, error) {
		calls++
		return []question{{Prompt: "What do plants make?", Choices: []string{"sugar", "salt"}, Answer: 0}}, nil
	}

	got, cached, err := Remember(ctx, c, key, compute)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, got, 1)

	again, cached, err := Remember(ctx, c, key, compute)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, got, again)
	assert.Equal(t, 1, calls, "compute should run once")
}

func TestRemember_ComputeErrorNotCached(t *testing.T) {
	c := newTestCache(t)
	boom := errors.New("upstream unavailable")

	_, cached, err := Remember(context.Background(), c, "k", func(context.Context) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, cached)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestRemember_WriteFailureIsNotFatal(t *testing.T) {
	c, err := New("/cache", WithFs(afero.NewReadOnlyFs(afero.NewMemMapFs())))
	require.NoError(t, err)

	calls := 0
	compute := func(context.Context) (map[string]int, error) {
		calls++
		return map[string]int{"pages": 3}, nil
	}

	for i := 0; i < 2; i++ {
		got, cached, err := Remember(context.Background(), c, "ocr", compute)
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Equal(t, map[string]int{"pages": 3}, got)
	}
	assert.Equal(t, 2, calls, "uncacheable results are recomputed")
}

func TestRemember_TypeMismatchRecomputes(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.PutValue("k", "not a list"))

	got, cached, err := Remember(context.Background(), c, "k", func(context.Context) ([]int, error) {
		return []int{1, 2}, nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, []int{1, 2}, got)

	raw, ok := c.Get("k")
	require.True(t, ok)
	var stored []int
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, []int{1, 2}, stored)
}

func TestRemember_PassesContext(t *testing.T) {
	type ctxKey struct{}
	c := newTestCache(t)
	ctx := context.WithValue(context.Background(), ctxKey{}, "request-42")

	got, _, err := Remember(ctx, c, "k", func(ctx context.Context) (string, error) {
		v, _ := ctx.Value(ctxKey{}).(string)
		return v, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "request-42", got)
}
