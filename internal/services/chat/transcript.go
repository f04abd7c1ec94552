// File: internal/services/chat/transcript.go
package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/iyunix/go-yasmin/internal/domain"
	"github.com/iyunix/go-yasmin/internal/services/ai"
)

// TruncateText safely truncates a UTF-8 string to maxLen runes.
func TruncateText(input string, maxLen int) string {
	if input == "" || maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(input) <= maxLen {
		return input
	}

	var b strings.Builder
	count := 0
	for _, r := range input {
		if count >= maxLen {
			break
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}

// DeriveTitle builds a conversation title from the first user message.
func DeriveTitle(text string, maxRunes int) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return domain.DefaultConversationTitle
	}
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	return TruncateText(text, maxRunes) + "..."
}

// TranscriptFromMessages keeps user and assistant messages in order; error
// markers are never sent to a provider.
func TranscriptFromMessages(messages []domain.Message) []ai.Turn {
	turns := make([]ai.Turn, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleUser:
			turns = append(turns, ai.Turn{Role: ai.RoleUser, Content: m.Content})
		case domain.RoleAssistant:
			turns = append(turns, ai.Turn{Role: ai.RoleAssistant, Content: m.Content})
		}
	}
	return turns
}

// TranscriptFromEntries validates a caller-supplied history. Error entries are
// dropped; user and assistant entries must carry content.
func TranscriptFromEntries(entries []TranscriptEntry) ([]ai.Turn, error) {
	turns := make([]ai.Turn, 0, len(entries))
	for i, e := range entries {
		content := strings.TrimSpace(e.Content)
		role := domain.Role(strings.ToLower(e.Role))
		if content == "" && (role == domain.RoleUser || role == domain.RoleAssistant) {
			return nil, NewValidationError("regenerate", fmt.Sprintf("messages[%d] has empty content", i))
		}
		switch role {
		case domain.RoleUser:
			turns = append(turns, ai.Turn{Role: ai.RoleUser, Content: content})
		case domain.RoleAssistant:
			turns = append(turns, ai.Turn{Role: ai.RoleAssistant, Content: content})
		case domain.RoleError:
			continue
		default:
			return nil, NewValidationError("regenerate", fmt.Sprintf("messages[%d] has unknown role %q", i, e.Role))
		}
	}
	return turns, nil
}

// window keeps the most recent limit turns.
func window(turns []ai.Turn, limit int) []ai.Turn {
	if limit > 0 && len(turns) > limit {
		return turns[len(turns)-limit:]
	}
	return turns
}

// trimForRegenerate drops one trailing assistant turn and requires the rest
// to end with a user turn.
func trimForRegenerate(turns []ai.Turn) ([]ai.Turn, bool) {
	if n := len(turns); n > 0 && turns[n-1].Role == ai.RoleAssistant {
		turns = turns[:n-1]
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != ai.RoleUser {
		return nil, false
	}
	return turns, true
}
