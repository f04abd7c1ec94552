package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(name, baseURL string) *Config {
	cfg := DefaultConfig(name)
	cfg.APIKey = "test-key"
	cfg.BaseURL = baseURL
	return cfg
}

var sampleRequest = CompletionRequest{
	Transcript: []Turn{
		{Role: RoleUser, Content: "مرحبا"},
		{Role: RoleAssistant, Content: "أهلاً"},
		{Role: RoleUser, Content: "كيف الطقس؟"},
	},
	SystemPrompt: "be brief",
	Temperature:  0.7,
	MaxTokens:    128,
}

func TestGeminiProviderComplete(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":" مشمس "}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	p := NewGeminiProvider(testConfig(ProviderGemini, srv.URL))
	text, err := p.Complete(context.Background(), sampleRequest)

	require.NoError(t, err)
	assert.Equal(t, "مشمس", text)
	require.Len(t, got.Contents, 3)
	assert.Equal(t, "model", got.Contents[1].Role)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "be brief", got.SystemInstruction.Parts[0].Text)
	assert.Len(t, got.SafetySettings, 4)
}

func TestGeminiProviderSafetyBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
	}))
	defer srv.Close()

	_, err := NewGeminiProvider(testConfig(ProviderGemini, srv.URL)).Complete(context.Background(), sampleRequest)
	assert.Equal(t, ErrTypeSafety, TypeOf(err))
}

func TestGeminiProviderRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)
	}))
	defer srv.Close()

	_, err := NewGeminiProvider(testConfig(ProviderGemini, srv.URL)).Complete(context.Background(), sampleRequest)
	require.Error(t, err)
	assert.Equal(t, ErrTypeRateLimit, TypeOf(err))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGeminiContentsMergesSameRole(t *testing.T) {
	contents := geminiContents([]Turn{
		{Role: RoleUser, Content: "a"},
		{Role: RoleUser, Content: "b"},
		{Role: RoleAssistant, Content: "c"},
	})
	require.Len(t, contents, 2)
	assert.Len(t, contents[0].Parts, 2)
	assert.Equal(t, "model", contents[1].Role)
}

func TestGeminiContentsStartsWithUserTurn(t *testing.T) {
	contents := geminiContents([]Turn{
		{Role: RoleAssistant, Content: "leftover reply"},
		{Role: RoleUser, Content: "q"},
		{Role: RoleAssistant, Content: "a"},
		{Role: RoleUser, Content: "q2"},
	})
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "q", contents[0].Parts[0].Text)
}

func TestHuggingFaceProviderComplete(t *testing.T) {
	var got hfRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/mistralai/Mistral-7B-Instruct-v0.1", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `[{"generated_text":"الجو جميل"}]`)
	}))
	defer srv.Close()

	text, err := NewHuggingFaceProvider(testConfig(ProviderHuggingFace, srv.URL)).Complete(context.Background(), sampleRequest)

	require.NoError(t, err)
	assert.Equal(t, "الجو جميل", text)
	assert.False(t, got.Parameters.ReturnFullText)
	assert.Equal(t, 128, got.Parameters.MaxNewTokens)
	assert.True(t, strings.HasSuffix(got.Inputs, "كيف الطقس؟ [/INST]"))
}

func TestHuggingFaceTemperatureOmittedWhenGreedy(t *testing.T) {
	var params []map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Parameters map[string]interface{} `json:"parameters"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		params = append(params, body.Parameters)
		io.WriteString(w, `[{"generated_text":"ok"}]`)
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider(testConfig(ProviderHuggingFace, srv.URL))
	greedy := sampleRequest
	greedy.Temperature = 0
	_, err := p.Complete(context.Background(), greedy)
	require.NoError(t, err)
	_, err = p.Complete(context.Background(), sampleRequest)
	require.NoError(t, err)

	require.Len(t, params, 2)
	assert.NotContains(t, params[0], "temperature")
	assert.Equal(t, false, params[0]["do_sample"])
	assert.InDelta(t, 0.7, params[1]["temperature"], 0.001)
	assert.Equal(t, true, params[1]["do_sample"])
}

func TestHuggingFaceProviderModelLoading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":"Model is currently loading","estimated_time":20.0}`)
	}))
	defer srv.Close()

	_, err := NewHuggingFaceProvider(testConfig(ProviderHuggingFace, srv.URL)).Complete(context.Background(), sampleRequest)
	require.Error(t, err)
	assert.Equal(t, ErrTypeModel, TypeOf(err))
	assert.Contains(t, err.Error(), "estimated time 20s")
}

func TestInstructPrompt(t *testing.T) {
	prompt := InstructPrompt("sys", []Turn{
		{Role: RoleAssistant, Content: "orphan"},
		{Role: RoleUser, Content: "q1"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "q2"},
	})
	assert.Equal(t, "<s>[INST] <<SYS>>\nsys\n<</SYS>>\n\nq1 [/INST] a1</s><s>[INST] q2 [/INST]", prompt)
}

func TestOpenAIProviderComplete(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "http://localhost:8080", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Yasmin GPT", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"تمام"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	cfg := testConfig(ProviderOpenRouter, srv.URL)
	cfg.Referer = "http://localhost:8080"
	text, err := NewOpenAIProvider(cfg).Complete(context.Background(), sampleRequest)

	require.NoError(t, err)
	assert.Equal(t, "تمام", text)
	assert.Equal(t, "mistralai/mistral-7b-instruct:free", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
}

func TestOpenAIProviderSendsZeroTemperature(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	req := sampleRequest
	req.Temperature = 0
	_, err := NewOpenAIProvider(testConfig(ProviderDeepseek, srv.URL)).Complete(context.Background(), req)
	require.NoError(t, err)

	temperature, ok := body["temperature"]
	require.True(t, ok, "temperature missing from request body")
	assert.InDelta(t, 0, temperature, 1e-6)
}

func TestOpenAIProviderUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"invalid api key","type":"authentication_error"}}`)
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider(testConfig(ProviderDeepseek, srv.URL)).Complete(context.Background(), sampleRequest)
	require.Error(t, err)
	assert.Equal(t, ErrTypeConfig, TypeOf(err))
}

func TestOpenAIProviderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewOpenAIProvider(testConfig(ProviderDeepseek, srv.URL)).Complete(ctx, sampleRequest)
	require.Error(t, err)
	assert.Equal(t, ErrTypeTimeout, TypeOf(err))
}

func TestUnconfiguredProviderFailsFast(t *testing.T) {
	cfg := DefaultConfig(ProviderGemini)
	p := NewGeminiProvider(cfg)
	assert.False(t, p.Configured())

	_, err := p.Complete(context.Background(), sampleRequest)
	assert.Equal(t, ErrTypeConfig, TypeOf(err))
}

func TestNewProviders(t *testing.T) {
	providers, err := NewProviders([]string{ProviderDeepseek, ProviderGemini}, map[string]*Config{
		ProviderGemini: testConfig(ProviderGemini, "http://example.invalid"),
	})
	require.NoError(t, err)
	require.Len(t, providers, 2)
	assert.Equal(t, "deepseek", providers[0].Name())
	assert.False(t, providers[0].Configured())
	assert.Equal(t, "Google Gemini", providers[1].DisplayName())

	_, err = NewProviders([]string{ProviderGemini, ProviderGemini}, nil)
	assert.Error(t, err)

	_, err = NewProviders([]string{"bard"}, nil)
	assert.Error(t, err)
}
