package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-yasmin/internal/database"
	"github.com/iyunix/go-yasmin/internal/domain"
	"github.com/iyunix/go-yasmin/internal/repository"
	"github.com/iyunix/go-yasmin/internal/services/ai"
	chatservice "github.com/iyunix/go-yasmin/internal/services/chat"
)

func newOfflineChatService(t *testing.T) (*ChatService, *repository.Store) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	store := repository.NewStore(db)

	providers, err := ai.NewProviders([]string{ai.ProviderGemini, ai.ProviderDeepseek}, nil)
	require.NoError(t, err)

	svc, err := NewChatService(store, NewAIServiceWithProviders(providers), nil, nil, nil, &NoOpLogger{})
	require.NoError(t, err)
	return svc, store
}

func TestChatServiceOfflineRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOfflineChatService(t)

	res, err := svc.SendMessage(ctx, chatservice.TurnRequest{Message: "مرحبا"})
	require.NoError(t, err)
	assert.True(t, res.Offline)

	conv, err := svc.GetConversation(ctx, res.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "مرحبا", conv.Title)
	require.Len(t, conv.Messages, 2)

	convs, err := svc.ListConversations(ctx)
	require.NoError(t, err)
	assert.Len(t, convs, 1)

	require.NoError(t, svc.DeleteConversation(ctx, res.ConversationID))
	_, err = svc.GetConversation(ctx, res.ConversationID)
	assert.True(t, chatservice.IsType(err, chatservice.ErrTypeNotFound))

	err = svc.DeleteConversation(ctx, res.ConversationID)
	assert.True(t, chatservice.IsType(err, chatservice.ErrTypeNotFound))
}

func TestChatServiceStatusOfflineOnly(t *testing.T) {
	svc, _ := newOfflineChatService(t)

	st := svc.Status()
	assert.True(t, st.OfflineOnly)
	assert.Equal(t, 0, st.ConfiguredCount)
	require.Len(t, st.Providers, 2)
	assert.Equal(t, "gemini", st.Providers[0].Name)
	assert.Equal(t, "gemini-1.5-flash", st.Providers[0].DefaultModel)
}

func TestChatServiceRecentErrors(t *testing.T) {
	ctx := context.Background()
	svc, store := newOfflineChatService(t)

	conv, err := store.Create(ctx, "")
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, conv.ID, domain.RoleError, chatservice.ErrorMarkerPrefix+"timeout")
	require.NoError(t, err)

	msgs, err := svc.RecentErrors(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, conv.ID, msgs[0].ConversationID)
}
