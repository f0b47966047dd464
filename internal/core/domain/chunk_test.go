package domain

import (
	"reflect"
	"testing"
)

func TestCitationsFrom_DedupesBySourceAndPage(t *testing.T) {
	matches := []QueryMatch{
		{ChunkID: "a", Metadata: map[string]string{MetaSourceID: "bookX", MetaPage: "1"}},
		{ChunkID: "b", Metadata: map[string]string{MetaSourceID: "bookX", MetaPage: "2"}},
		{ChunkID: "c", Metadata: map[string]string{MetaSourceID: "bookX", MetaPage: "1"}},
		{ChunkID: "d", Metadata: map[string]string{MetaSourceID: "bookY", MetaPage: "1"}},
	}

	got := CitationsFrom(matches)
	want := []Citation{
		{SourceID: "bookX", Page: "1"},
		{SourceID: "bookX", Page: "2"},
		{SourceID: "bookY", Page: "1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCitationsFrom_SkipsMatchesWithoutSource(t *testing.T) {
	matches := []QueryMatch{
		{ChunkID: "a", Metadata: map[string]string{MetaPage: "1"}},
		{ChunkID: "b", Metadata: nil},
	}
	if got := CitationsFrom(matches); len(got) != 0 {
		t.Errorf("expected no citations, got %v", got)
	}
}

func TestChunk_MetadataAccessors(t *testing.T) {
	c := &Chunk{Metadata: map[string]string{MetaSourceID: "bookX", MetaPage: "7"}}
	if c.SourceID() != "bookX" {
		t.Errorf("expected source bookX, got %s", c.SourceID())
	}
	if c.Page() != "7" {
		t.Errorf("expected page 7, got %s", c.Page())
	}

	empty := &Chunk{}
	if empty.SourceID() != "" || empty.Page() != "" {
		t.Error("expected empty accessors for nil metadata")
	}
}

func TestRecentWindow(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "one"},
		{Role: RoleAssistant, Content: "two"},
		{Role: RoleUser, Content: "three"},
		{Role: RoleAssistant, Content: "four"},
		{Role: RoleUser, Content: "five"},
	}

	window := RecentWindow(messages, 4)
	if len(window) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(window))
	}
	if window[0].Content != "two" || window[3].Content != "five" {
		t.Errorf("expected oldest-first window [two..five], got [%s..%s]", window[0].Content, window[3].Content)
	}

	if got := RecentWindow(messages[:2], 4); len(got) != 2 {
		t.Errorf("expected short history returned whole, got %d messages", len(got))
	}
}

func TestBookID_Stability(t *testing.T) {
	pages := []PageText{{Page: 1, Text: "first"}, {Page: 2, Text: "second"}}

	if BookID(pages) != BookID(pages) {
		t.Error("expected identical content to hash identically")
	}
	if BookID(pages) == BookID([]PageText{{Page: 1, Text: "firstsecond"}}) {
		t.Error("expected page boundaries to affect the hash")
	}
}
