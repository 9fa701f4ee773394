package ringlog

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestMemorySinkEntryCap(t *testing.T) {
	ctx := context.Background()
	sink := NewMemorySink(3, 1024)

	for i := 0; i < 5; i++ {
		require.NoError(t, sink.Append(ctx, fmt.Sprintf("entry-%d", i)))
	}

	entries, err := sink.GetAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"entry-2", "entry-3", "entry-4"}, entries)
}

func TestMemorySinkByteCap(t *testing.T) {
	ctx := context.Background()
	sink := NewMemorySink(100, 30)

	require.NoError(t, sink.Append(ctx, strings.Repeat("a", 20)))
	require.NoError(t, sink.Append(ctx, strings.Repeat("b", 20)))

	entries, err := sink.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, strings.Repeat("b", 20), entries[0])
}

func TestMemorySinkOversizedEntryTruncated(t *testing.T) {
	ctx := context.Background()
	sink := NewMemorySink(10, 16)

	require.NoError(t, sink.Append(ctx, strings.Repeat("x", 64)))

	entries, err := sink.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, entries[0], 16)
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	// 截断点落在多字节字符中间时要回退到边界，不能留下非法 UTF-8
	entry := strings.Repeat("日", 10)
	for max := 1; max < len(entry); max++ {
		got := truncate(entry, max)
		require.LessOrEqual(t, len(got), max)
		require.True(t, utf8.ValidString(got), "max=%d", max)
	}

	require.Equal(t, "abc", truncate("abc", 8))
	require.Equal(t, "ab", truncate("abc", 2))
}

func TestMemorySinkOversizedMultibyteEntry(t *testing.T) {
	ctx := context.Background()
	sink := NewMemorySink(10, 16)

	require.NoError(t, sink.Append(ctx, strings.Repeat("草", 16)))

	entries, err := sink.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.LessOrEqual(t, len(entries[0]), 16)
	require.True(t, utf8.ValidString(entries[0]))
}

func TestMemorySinkClear(t *testing.T) {
	ctx := context.Background()
	sink := NewMemorySink(0, 0)

	require.NoError(t, sink.Append(ctx, "one"))
	require.NoError(t, sink.Clear(ctx))

	entries, err := sink.GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)
}
