package redis

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdder struct {
	args []*redis.XAddArgs
}

func (f *fakeAdder) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = append(f.args, a)
	cmd := redis.NewStringCmd(ctx)
	cmd.SetVal("1-0")
	return cmd
}

func TestPublishToStream_StringifiesValues(t *testing.T) {
	f := &fakeAdder{}
	id, err := PublishToStream(context.Background(), f, "s", 1000, map[string]any{
		"s":   "x",
		"i":   42,
		"b":   true,
		"f":   1.5,
		"obj": map[string]int{"a": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "1-0", id)
	require.Len(t, f.args, 1)

	vals := f.args[0].Values.(map[string]any)
	assert.Equal(t, "x", vals["s"])
	assert.Equal(t, "42", vals["i"])
	assert.Equal(t, "true", vals["b"])
	assert.Equal(t, "1.5", vals["f"])
	assert.Equal(t, `{"a":1}`, vals["obj"])
	assert.Equal(t, int64(1000), f.args[0].MaxLen)
	assert.True(t, f.args[0].Approx)
}
