package ahocorasick

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Aho-Corasick TextScanner: every label occurrence in one pass
// Expectation: overlapping and nested labels are all reported with offsets;
// selection happens in the gazetteer package.
// =============================================================================

func TestTextScanner_SinglePattern(t *testing.T) {
	s := NewTextScanner([]string{"Bern"})
	got := s.Scan("Daten der Stadt Bern")
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Pattern)
	assert.Equal(t, 16, got[0].Start)
	assert.Equal(t, 20, got[0].End)
}

func TestTextScanner_NestedPatternsAllReported(t *testing.T) {
	// "Basel" is a prefix of "Basel-Stadt": both must surface.
	s := NewTextScanner([]string{"Basel", "Basel-Stadt"})
	got := s.Scan("Kanton Basel-Stadt")

	text := "Kanton Basel-Stadt"
	found := make(map[string]bool)
	for _, m := range got {
		found[text[m.Start:m.End]] = true
		assert.Equal(t, 7, m.Start)
	}
	assert.True(t, found["Basel"])
	assert.True(t, found["Basel-Stadt"])
}

func TestTextScanner_RepeatedOccurrences(t *testing.T) {
	s := NewTextScanner([]string{"Zug"})
	got := s.Scan("Zug und Zug")
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Start)
	assert.Equal(t, 8, got[1].Start)
}

func TestTextScanner_NoMatch(t *testing.T) {
	s := NewTextScanner([]string{"Genève"})
	assert.Empty(t, s.Scan("hello world"))
	assert.Nil(t, s.Scan(""))
}

func TestTextScanner_CaseSensitive(t *testing.T) {
	s := NewTextScanner([]string{"Luzern"})
	assert.Empty(t, s.Scan("luzern"))
	assert.Len(t, s.Scan("Luzern"), 1)
}

func TestTextScanner_MultibyteOffsets(t *testing.T) {
	s := NewTextScanner([]string{"Zürich"})
	text := "Stadt Zürich"
	got := s.Scan(text)
	require.Len(t, got, 1)
	assert.Equal(t, "Zürich", text[got[0].Start:got[0].End])
}

func TestTextScanner_PatternCount(t *testing.T) {
	s := NewTextScanner([]string{"Aarau", "Olten"})
	assert.Equal(t, 2, s.PatternCount())
	assert.Zero(t, NewTextScanner(nil).PatternCount())
}

func TestBuild_ReturnsPortScanner(t *testing.T) {
	sc := Build([]string{"Chur"})
	assert.Equal(t, 1, sc.PatternCount())
	assert.Len(t, sc.Scan("Chur"), 1)
}

func BenchmarkScan(b *testing.B) {
	labels := make([]string, 0, 500)
	for i := 0; i < 500; i++ {
		labels = append(labels, "Gemeinde"+string(rune('A'+i%26))+string(rune('a'+i/26)))
	}
	s := NewTextScanner(labels)
	text := "Geodaten der GemeindeAa und GemeindeBb im Kanton, Ausgabe 2024"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Scan(text)
	}
}
