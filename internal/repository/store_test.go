package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-yasmin/internal/database"
	"github.com/iyunix/go-yasmin/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewStore(db)
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	conv, err := s.Create(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, domain.DefaultConversationTitle, conv.Title)

	got, err := s.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)

	_, err = s.Get(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestAppendMessageBumpsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	conv, err := s.Create(ctx, "hello")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	msg, err := s.AppendMessage(ctx, conv.ID, domain.RoleUser, "hi")
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)

	got, err := s.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt), "updated_at should move past created_at")
}

func TestAppendMessageUnknownConversation(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AppendMessage(context.Background(), "missing", domain.RoleUser, "hi")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestListMessagesWindowKeepsNewestInOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	conv, err := s.Create(ctx, "window")
	require.NoError(t, err)

	for _, text := range []string{"1", "2", "3", "4", "5"} {
		_, err := s.AppendMessage(ctx, conv.ID, domain.RoleUser, text)
		require.NoError(t, err)
	}

	all, err := s.ListMessages(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "1", all[0].Content)

	recent, err := s.ListMessages(ctx, conv.ID, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{"3", "4", "5"}, []string{recent[0].Content, recent[1].Content, recent[2].Content})
}

func TestReplaceMessageContentKeepsRow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	conv, err := s.Create(ctx, "regen")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, conv.ID, domain.RoleUser, "q")
	require.NoError(t, err)
	reply, err := s.AppendMessage(ctx, conv.ID, domain.RoleAssistant, "old")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	updated, err := s.ReplaceMessageContent(ctx, reply, "new")
	require.NoError(t, err)
	assert.Equal(t, reply.ID, updated.ID)
	assert.True(t, updated.CreatedAt.After(reply.CreatedAt))

	msgs, err := s.ListMessages(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "new", msgs[1].Content)
	assert.Equal(t, reply.ID, msgs[1].ID)
}

func TestListConversationsMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	first, err := s.Create(ctx, "first")
	require.NoError(t, err)
	second, err := s.Create(ctx, "second")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = s.AppendMessage(ctx, first.ID, domain.RoleUser, "bump")
	require.NoError(t, err)

	list, err := s.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestListConversationsPage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		_, err := s.Create(ctx, "c")
		require.NoError(t, err)
	}

	page, total, err := s.ListConversationsPage(ctx, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 1)

	_, _, err = s.ListConversationsPage(ctx, 0, 0)
	assert.Error(t, err)
}

func TestDeleteCascadesToMessages(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	conv, err := s.Create(ctx, "gone")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, conv.ID, domain.RoleUser, "a")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, conv.ID, domain.RoleAssistant, "b")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, conv.ID))

	_, err = s.Get(ctx, conv.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)
	msgs, err := s.ListMessages(ctx, conv.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.ErrorIs(t, s.Delete(ctx, conv.ID), ErrConversationNotFound)
}

func TestListMessagesByRole(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	conv, err := s.Create(ctx, "audit")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, conv.ID, domain.RoleUser, "q")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, conv.ID, domain.RoleError, "gemini: boom")
	require.NoError(t, err)

	errs, err := s.ListMessagesByRole(ctx, domain.RoleError, 10)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "gemini: boom", errs[0].Content)

	_, err = s.ListMessagesByRole(ctx, domain.Role("system"), 10)
	assert.Error(t, err)
}
