package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/comigor/dermachat-go/internal/chat"
)

func msg(id string, role chat.Role, content string) chat.Message {
	return chat.Message{ID: id, Role: role, Content: content, Timestamp: time.Now()}
}

func TestStore_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	s := New(path)

	require.NoError(t, s.Record(ctx, "s1", msg("m1", chat.RoleUser, "acne serum")))
	require.NoError(t, s.Record(ctx, "s2", msg("m2", chat.RoleUser, "other session")))
	require.NoError(t, s.Record(ctx, "s1", msg("m3", chat.RoleAssistant, "Great question!")))
	require.NoError(t, s.Close())

	reopened := New(path)
	defer reopened.Close()

	got := reopened.Transcript(ctx, "s1")
	require.Len(t, got, 2)
	require.Equal(t, "m1", got[0].ID)
	require.Equal(t, chat.RoleUser, got[0].Role)
	require.Equal(t, "Great question!", got[1].Content)
	require.WithinDuration(t, time.Now(), got[1].Timestamp, time.Minute)
}

func TestStore_MemoryFallback(t *testing.T) {
	ctx := context.Background()
	s := New("")

	require.NoError(t, s.Record(ctx, "s1", msg("m1", chat.RoleUser, "hello")))
	require.NoError(t, s.Record(ctx, "s2", msg("m2", chat.RoleUser, "bye")))

	list := s.List(ctx, "s1")
	require.Len(t, list, 1)
	require.Equal(t, "hello", list[0].Content)
	require.Empty(t, s.List(ctx, "missing"))
	require.NoError(t, s.Close())
}

func TestStore_FeedsController(t *testing.T) {
	ctx := context.Background()
	s := New("")
	c := chat.New(nil, chat.WithRecorder(s, "s1"))

	c.BeginReveal("")
	c.Teardown()
	c.Wait()

	require.Len(t, s.List(ctx, "s1"), len(c.Transcript()))
}
