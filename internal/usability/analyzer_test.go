package usability

import (
	"strings"
	"testing"

	"vidmind/internal/types"
)

func TestAnalyzeEmptyText(t *testing.T) {
	v := Analyze("", nil, 120)
	if v.Usable {
		t.Error("empty transcript should not be usable")
	}
	if v.Classification != types.ClassSilent {
		t.Errorf("expected silent, got %s", v.Classification)
	}
	if v.Diagnostics["rule"] != "empty_text" {
		t.Errorf("expected empty_text rule, got %v", v.Diagnostics["rule"])
	}
}

func TestAnalyzeWhitespaceOnly(t *testing.T) {
	v := Analyze("   \n\t  ", nil, 60)
	if v.Usable || v.Classification != types.ClassSilent {
		t.Errorf("whitespace transcript should be silent, got usable=%v class=%s", v.Usable, v.Classification)
	}
}

func TestAnalyzeNonSpeechTag(t *testing.T) {
	cases := []string{"[Music]", "[Applause]", "[music playing]"}
	for _, text := range cases {
		v := Analyze(text, nil, 30)
		if v.Usable {
			t.Errorf("%q should not be usable", text)
		}
		if v.Classification != types.ClassMusicOrNoise {
			t.Errorf("%q: expected music_or_noise, got %s", text, v.Classification)
		}
	}
}

func TestAnalyzeBracketedLongTextNotTag(t *testing.T) {
	// Brackets alone do not make a tag; more than two words means speech.
	text := "[so the first thing we do here is open the settings panel]"
	v := Analyze(text, nil, 10)
	if v.Classification == types.ClassMusicOrNoise {
		t.Error("long bracketed sentence should not classify as music_or_noise")
	}
}

func TestAnalyzeLowDensity(t *testing.T) {
	// 10 words over 200 seconds is 0.05 words/sec.
	v := Analyze("one two three four five six seven eight nine ten", nil, 200)
	if v.Usable {
		t.Error("low-density transcript should not be usable")
	}
	if v.Classification != types.ClassNoise {
		t.Errorf("expected noise, got %s", v.Classification)
	}
	if v.Diagnostics["rule"] != "low_density" {
		t.Errorf("expected low_density rule, got %v", v.Diagnostics["rule"])
	}
}

func TestAnalyzeLowDiversity(t *testing.T) {
	// 30 words built from a 4-word vocabulary: ratio 4/30 < 0.3, density fine.
	words := make([]string, 0, 30)
	vocab := []string{"la", "di", "da", "doo"}
	for i := 0; i < 30; i++ {
		words = append(words, vocab[i%len(vocab)])
	}
	v := Analyze(strings.Join(words, " "), nil, 30)
	if v.Usable {
		t.Error("low-diversity transcript should not be usable")
	}
	if v.Diagnostics["rule"] != "low_diversity" {
		t.Errorf("expected low_diversity rule, got %v", v.Diagnostics["rule"])
	}
}

func TestAnalyzeRepeatedPhrases(t *testing.T) {
	// "the quick fox jumps" repeated 10 times inside otherwise varied filler:
	// 40 of 100 words belong to the repeated phrase.
	var b strings.Builder
	filler := []string{
		"alpha", "bravo", "charlie", "delta", "echo", "foxtrot",
	}
	fi := 0
	for i := 0; i < 10; i++ {
		b.WriteString("the quick fox jumps ")
		for j := 0; j < 6; j++ {
			b.WriteString(filler[fi%len(filler)])
			b.WriteString(strings.Repeat("x", fi/len(filler)))
			b.WriteString(" ")
			fi++
		}
	}
	v := Analyze(strings.TrimSpace(b.String()), nil, 200)
	if v.Usable {
		t.Error("repetitive transcript should not be usable")
	}
	if v.Classification != types.ClassNoise {
		t.Errorf("expected noise, got %s", v.Classification)
	}
	if v.Diagnostics["rule"] != "repetition" {
		t.Errorf("expected repetition rule, got %v", v.Diagnostics["rule"])
	}
}

func TestAnalyzeFlaggedSegments(t *testing.T) {
	// Over half the segments are long with almost no words.
	segs := []types.TranscriptSegment{
		{Start: 0, End: 12, Text: "uh"},
		{Start: 12, End: 25, Text: "hm"},
		{Start: 25, End: 40, Text: "so"},
		{Start: 40, End: 45, Text: "and here we actually configure the export settings properly"},
	}
	text := "uh hm so and here we actually configure the export settings " +
		"properly with several different distinct options available today"
	v := Analyze(text, segs, 45)
	if v.Usable {
		t.Error("transcript with mostly degenerate segments should not be usable")
	}
	if v.Diagnostics["rule"] != "flagged_segments" {
		t.Errorf("expected flagged_segments rule, got %v", v.Diagnostics["rule"])
	}
}

func TestAnalyzeInformational(t *testing.T) {
	text := "in this tutorial we walk through installing the toolchain, " +
		"creating a new project, wiring the configuration file, and finally " +
		"running the first build so you can verify everything works end to end"
	segs := []types.TranscriptSegment{
		{Start: 0, End: 8, Text: "in this tutorial we walk through installing the toolchain"},
		{Start: 8, End: 16, Text: "creating a new project, wiring the configuration file"},
		{Start: 16, End: 24, Text: "and finally running the first build so you can verify everything works end to end"},
	}
	v := Analyze(text, segs, 24)
	if !v.Usable {
		t.Errorf("informational speech should be usable, diagnostics=%v", v.Diagnostics)
	}
	if v.Classification != types.ClassInformational {
		t.Errorf("expected informational, got %s", v.Classification)
	}
}

func TestRepeatedPhraseContainment(t *testing.T) {
	// A 3-word phrase nested in a repeating 4-word phrase is deduped, not
	// double counted.
	words := strings.Fields(strings.Repeat("we go there now stop ", 4))
	coverage, kept := repeatedPhraseCoverage(words)
	if kept == 0 {
		t.Fatal("expected surviving repeated phrases")
	}
	if coverage > 1 {
		t.Errorf("coverage must be capped at 1, got %f", coverage)
	}
}

func TestFlaggedSegmentsEmpty(t *testing.T) {
	flagged, total := flaggedSegments(nil)
	if flagged != 0 || total != 0 {
		t.Errorf("expected 0/0, got %d/%d", flagged, total)
	}
}
