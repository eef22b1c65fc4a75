// Package usability classifies a transcript as exploitable speech versus
// silence or noise. The verdict decides the chunking strategy: usable audio
// gets audio-aligned chunks, everything else falls back to dense vision
// windows.
//
// Analyze applies its rules in order and the first match wins. Every verdict
// records which rule fired and the numeric values that triggered it.
package usability

import (
	"strings"

	"vidmind/internal/logging"
	"vidmind/internal/types"
)

// Heuristic thresholds. Tuned against Whisper output on real footage;
// the repetition and diversity rules guard against decoder hallucination
// loops on music and silence.
const (
	minWordsPerSecond = 0.2
	minUniqueRatio    = 0.3
	uniqueRatioMinWC  = 20

	phraseMinLen        = 3
	phraseMaxLen        = 6
	phraseMinRepeats    = 3
	maxRepeatedCoverage = 0.3

	segmentLongDuration   = 10.0
	segmentLongMinWords   = 3
	segmentMinDensity     = 0.1
	maxFlaggedSegmentFrac = 0.5
)

// Analyze derives a usability verdict from the full transcript text, its
// ordered segments, and the total media duration in seconds.
func Analyze(text string, segments []types.TranscriptSegment, duration float64) types.UsabilityVerdict {
	clean := strings.TrimSpace(text)
	words := strings.Fields(clean)
	wordCount := len(words)

	// 1. Silent / empty.
	if clean == "" {
		return verdict(false, types.ClassSilent, map[string]interface{}{
			"rule": "empty_text",
		})
	}

	// 2. Bracketed non-speech tag, e.g. "[Music]" or "[Applause]".
	if strings.HasPrefix(clean, "[") && strings.HasSuffix(clean, "]") && wordCount <= 2 {
		return verdict(false, types.ClassMusicOrNoise, map[string]interface{}{
			"rule":       "non_speech_tag",
			"word_count": wordCount,
		})
	}

	// 3. Density: informational speech runs well above 0.2 words/sec.
	var wps float64
	if duration > 0 {
		wps = float64(wordCount) / duration
	}
	if wps < minWordsPerSecond {
		return verdict(false, types.ClassNoise, map[string]interface{}{
			"rule":             "low_density",
			"words_per_second": wps,
			"word_count":       wordCount,
			"duration":         duration,
		})
	}

	// 4. Diversity: a tiny vocabulary across many words is a hallucination
	// loop, not speech.
	if wordCount > uniqueRatioMinWC {
		ratio := uniqueRatio(words)
		if ratio < minUniqueRatio {
			return verdict(false, types.ClassNoise, map[string]interface{}{
				"rule":         "low_diversity",
				"unique_ratio": ratio,
				"word_count":   wordCount,
			})
		}
	}

	// 5. Repeated phrases covering a large share of the transcript.
	if covered, phrases := repeatedPhraseCoverage(words); covered > maxRepeatedCoverage {
		return verdict(false, types.ClassNoise, map[string]interface{}{
			"rule":             "repetition",
			"covered_ratio":    covered,
			"repeated_phrases": phrases,
		})
	}

	// 6. Per-segment sanity: too many long-but-empty segments.
	if flagged, total := flaggedSegments(segments); total > 0 {
		frac := float64(flagged) / float64(total)
		if frac > maxFlaggedSegmentFrac {
			return verdict(false, types.ClassNoise, map[string]interface{}{
				"rule":           "flagged_segments",
				"flagged":        flagged,
				"total_segments": total,
				"flagged_ratio":  frac,
			})
		}
	}

	// 7. Informational.
	return verdict(true, types.ClassInformational, map[string]interface{}{
		"rule":             "informational",
		"words_per_second": wps,
		"word_count":       wordCount,
	})
}

func verdict(usable bool, class types.AudioClass, diagnostics map[string]interface{}) types.UsabilityVerdict {
	logging.ASRDebug("Usability verdict: usable=%v classification=%s diagnostics=%v", usable, class, diagnostics)
	return types.UsabilityVerdict{
		Usable:         usable,
		Classification: class,
		Diagnostics:    diagnostics,
	}
}

// uniqueRatio is distinct lowercase words over total words.
func uniqueRatio(words []string) float64 {
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[strings.ToLower(w)] = struct{}{}
	}
	return float64(len(seen)) / float64(len(words))
}

// repeatedPhraseCoverage scans phrases of length 3-6 words, keeps those
// repeating at least three times, drops phrases fully contained in a longer
// phrase with an equal or higher count (dedupes nested matches), and returns
// the fraction of all words covered by the survivors plus the survivor count.
func repeatedPhraseCoverage(words []string) (float64, int) {
	if len(words) < phraseMinLen {
		return 0, 0
	}

	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(w)
	}

	type phraseStat struct {
		length int
		count  int
	}
	counts := make(map[string]phraseStat)

	for n := phraseMinLen; n <= phraseMaxLen; n++ {
		for i := 0; i+n <= len(lower); i++ {
			key := strings.Join(lower[i:i+n], " ")
			stat := counts[key]
			stat.length = n
			stat.count++
			counts[key] = stat
		}
	}

	// Keep only phrases repeating enough times.
	type repeated struct {
		phrase string
		length int
		count  int
	}
	var survivors []repeated
	for phrase, stat := range counts {
		if stat.count >= phraseMinRepeats {
			survivors = append(survivors, repeated{phrase: phrase, length: stat.length, count: stat.count})
		}
	}

	// Drop any phrase fully contained in a longer surviving phrase with an
	// equal or higher count.
	coveredWords := 0
	kept := 0
	for _, p := range survivors {
		contained := false
		for _, q := range survivors {
			if q.length <= p.length || q.count < p.count {
				continue
			}
			if strings.Contains(" "+q.phrase+" ", " "+p.phrase+" ") {
				contained = true
				break
			}
		}
		if contained {
			continue
		}
		coveredWords += p.length * p.count
		kept++
	}

	coverage := float64(coveredWords) / float64(len(words))
	if coverage > 1 {
		coverage = 1
	}
	return coverage, kept
}

// flaggedSegments counts segments that are suspiciously long for how little
// they say: duration > 10s with under 3 words, or density below 0.1 words/sec.
func flaggedSegments(segments []types.TranscriptSegment) (flagged, total int) {
	total = len(segments)
	for _, seg := range segments {
		dur := seg.End - seg.Start
		wc := len(strings.Fields(seg.Text))

		if dur > segmentLongDuration && wc < segmentLongMinWords {
			flagged++
			continue
		}
		if dur > 0 && float64(wc)/dur < segmentMinDensity {
			flagged++
		}
	}
	return flagged, total
}
