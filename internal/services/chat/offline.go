// File: internal/services/chat/offline.go
package chat

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	OfflineSource         = "offline"
	DefaultOfflineReply   = "أعتذر، لا أستطيع المساعدة الآن. حاول مرة أخرى لاحقًا."
	ErrorMarkerPrefix     = "خطأ في الاتصال بالـ API: "
	noProviderErrorDetail = "No API available."
)

// OfflineReply pairs a keyword with the canned reply used when it appears in a message.
type OfflineReply struct {
	Keyword string `yaml:"keyword"`
	Reply   string `yaml:"reply"`
}

// OfflineReplies is an ordered keyword table; the first matching keyword wins.
type OfflineReplies struct {
	entries  []OfflineReply
	fallback string
}

type offlineFile struct {
	Default string         `yaml:"default"`
	Replies []OfflineReply `yaml:"replies"`
}

func NewOfflineReplies(entries []OfflineReply, fallback string) *OfflineReplies {
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultOfflineReply
	}
	kept := make([]OfflineReply, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Keyword) == "" || strings.TrimSpace(e.Reply) == "" {
			continue
		}
		kept = append(kept, e)
	}
	return &OfflineReplies{entries: kept, fallback: fallback}
}

func DefaultOfflineReplies() *OfflineReplies {
	return NewOfflineReplies([]OfflineReply{
		{Keyword: "السلام عليكم", Reply: "وعليكم السلام!"},
		{Keyword: "كيف حالك", Reply: "بخير، شكراً لك!"},
		{Keyword: "شكرا", Reply: "عفواً!"},
		{Keyword: "مرحبا", Reply: "مرحباً بك! أنا ياسمين، كيف يمكنني مساعدتك؟"},
	}, DefaultOfflineReply)
}

// LoadOfflineReplies reads a YAML table:
//
//	default: "..."
//	replies:
//	  - keyword: "..."
//	    reply: "..."
func LoadOfflineReplies(path string) (*OfflineReplies, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read offline replies: %w", err)
	}
	var file offlineFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse offline replies %s: %w", path, err)
	}
	return NewOfflineReplies(file.Replies, file.Default), nil
}

// Match returns the reply of the first keyword contained in text, case-insensitively.
func (o *OfflineReplies) Match(text string) string {
	lower := strings.ToLower(text)
	for _, e := range o.entries {
		if strings.Contains(lower, strings.ToLower(e.Keyword)) {
			return e.Reply
		}
	}
	return o.fallback
}

func (o *OfflineReplies) Len() int { return len(o.entries) }
