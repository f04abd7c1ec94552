package chat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-yasmin/internal/domain"
	"github.com/iyunix/go-yasmin/internal/services/ai"
)

func TestDefaultOfflineRepliesTableOrder(t *testing.T) {
	o := DefaultOfflineReplies()

	assert.Equal(t, "وعليكم السلام!", o.Match("السلام عليكم ورحمة الله"))
	assert.Equal(t, "بخير، شكراً لك!", o.Match("كيف حالك اليوم"))
	// both keywords present: the earlier table entry wins
	assert.Equal(t, "وعليكم السلام!", o.Match("مرحبا، السلام عليكم"))
	assert.Equal(t, DefaultOfflineReply, o.Match("?"))
}

func TestOfflineRepliesCaseInsensitive(t *testing.T) {
	o := NewOfflineReplies([]OfflineReply{{Keyword: "Hello", Reply: "hi there"}}, "")
	assert.Equal(t, "hi there", o.Match("well HELLO you"))
	assert.Equal(t, DefaultOfflineReply, o.Match("bye"))
}

func TestLoadOfflineReplies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default: "later please"
replies:
  - keyword: "صباح الخير"
    reply: "صباح النور"
  - keyword: ""
    reply: "ignored"
`), 0o600))

	o, err := LoadOfflineReplies(path)
	require.NoError(t, err)
	assert.Equal(t, 1, o.Len())
	assert.Equal(t, "صباح النور", o.Match("صباح الخير يا ياسمين"))
	assert.Equal(t, "later please", o.Match("anything"))

	_, err = LoadOfflineReplies(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t, domain.DefaultConversationTitle, DeriveTitle("   ", 30))
	assert.Equal(t, "قصير", DeriveTitle("  قصير ", 30))
	assert.Equal(t, "abcde...", DeriveTitle("abcdefgh", 5))
	assert.Equal(t, "a b", DeriveTitle("a \n b", 30))
}

func TestTranscriptFromMessagesDropsErrors(t *testing.T) {
	turns := TranscriptFromMessages([]domain.Message{
		{Role: domain.RoleUser, Content: "q"},
		{Role: domain.RoleError, Content: "boom"},
		{Role: domain.RoleAssistant, Content: "a"},
	})
	assert.Equal(t, []ai.Turn{{Role: ai.RoleUser, Content: "q"}, {Role: ai.RoleAssistant, Content: "a"}}, turns)
}

func TestTranscriptFromEntries(t *testing.T) {
	turns, err := TranscriptFromEntries([]TranscriptEntry{
		{Role: "User", Content: " q "},
		{Role: "error", Content: ""},
		{Role: "assistant", Content: "a"},
	})
	require.NoError(t, err)
	assert.Equal(t, []ai.Turn{{Role: ai.RoleUser, Content: "q"}, {Role: ai.RoleAssistant, Content: "a"}}, turns)

	_, err = TranscriptFromEntries([]TranscriptEntry{
		{Role: "user", Content: "q"},
		{Role: "assistant", Content: "   "},
	})
	assert.True(t, IsType(err, ErrTypeValidation))
}

func TestTrimForRegenerate(t *testing.T) {
	user := ai.Turn{Role: ai.RoleUser, Content: "q"}
	assistant := ai.Turn{Role: ai.RoleAssistant, Content: "a"}

	got, ok := trimForRegenerate([]ai.Turn{user, assistant})
	assert.True(t, ok)
	assert.Equal(t, []ai.Turn{user}, got)

	got, ok = trimForRegenerate([]ai.Turn{user})
	assert.True(t, ok)
	assert.Equal(t, []ai.Turn{user}, got)

	_, ok = trimForRegenerate([]ai.Turn{assistant, assistant})
	assert.False(t, ok)

	_, ok = trimForRegenerate(nil)
	assert.False(t, ok)
}
