package usecases

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
)

// ChunkPolicy is the window size and overlap used to split a document, in runes.
type ChunkPolicy struct {
	Size    int
	Overlap int
}

// Validate rejects policies that would not terminate or would repeat whole chunks.
func (p ChunkPolicy) Validate() error {
	if p.Size <= 0 {
		return entities.NewValidationError(fmt.Sprintf("chunk size must be positive, got %d", p.Size), nil)
	}
	if p.Overlap < 0 || p.Overlap >= p.Size {
		return entities.NewValidationError(
			fmt.Sprintf("chunk overlap must be in [0, %d), got %d", p.Size, p.Overlap), nil)
	}
	return nil
}

// PolicySelector picks a ChunkPolicy from the total length of a document.
// Lengths at or above MediumFrom use Medium, at or above LargeFrom use Large.
type PolicySelector struct {
	Small      ChunkPolicy
	Medium     ChunkPolicy
	Large      ChunkPolicy
	MediumFrom int
	LargeFrom  int
}

// DefaultPolicySelector returns the built-in three-tier policy.
func DefaultPolicySelector() PolicySelector {
	return PolicySelector{
		Small:      ChunkPolicy{Size: 300, Overlap: 50},
		Medium:     ChunkPolicy{Size: 500, Overlap: 100},
		Large:      ChunkPolicy{Size: 800, Overlap: 150},
		MediumFrom: 10_000,
		LargeFrom:  50_000,
	}
}

// Validate checks every tier and the ordering of the thresholds.
func (s PolicySelector) Validate() error {
	for _, p := range []ChunkPolicy{s.Small, s.Medium, s.Large} {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	if s.MediumFrom <= 0 || s.LargeFrom <= s.MediumFrom {
		return entities.NewValidationError(
			fmt.Sprintf("chunk thresholds must satisfy 0 < medium (%d) < large (%d)", s.MediumFrom, s.LargeFrom), nil)
	}
	return nil
}

// Select returns the policy for a text of the given length.
func (s PolicySelector) Select(length int) ChunkPolicy {
	switch {
	case length >= s.LargeFrom:
		return s.Large
	case length >= s.MediumFrom:
		return s.Medium
	default:
		return s.Small
	}
}

// SelectChunkPolicy applies the default selector.
func SelectChunkPolicy(length int) ChunkPolicy {
	return DefaultPolicySelector().Select(length)
}

// TextSegment is one chunk of text. Start and End are the rune offsets of the
// window it was cut from; Text is that window with surrounding space trimmed.
type TextSegment struct {
	Text  string
	Start int
	End   int
}

// boundary matchers in descending preference. Each reports whether a cut may
// be placed right after rune i.
var boundaries = []func(r []rune, i int) bool{
	func(r []rune, i int) bool { return r[i] == '\n' && i > 0 && r[i-1] == '\n' },
	func(r []rune, i int) bool { return r[i] == '\n' },
	func(r []rune, i int) bool { return r[i] == '.' || r[i] == '!' || r[i] == '?' },
	func(r []rune, i int) bool { return unicode.IsSpace(r[i]) },
}

// SplitText cuts text into overlapping windows of at most policy.Size runes.
// Each window after the first starts policy.Overlap runes before the previous
// window's end. Blank windows are dropped, and a blank tail after a cut
// ends the split. Invalid policies yield nothing.
func SplitText(text string, policy ChunkPolicy) []TextSegment {
	if policy.Validate() != nil {
		return nil
	}
	runes := []rune(text)
	n := len(runes)

	var segments []TextSegment
	for start := 0; start < n; {
		end := start + policy.Size
		if end >= n {
			end = n
		} else {
			end = breakPoint(runes, start, end, policy)
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			segments = append(segments, TextSegment{Text: piece, Start: start, End: end})
		}
		if end >= n || strings.TrimSpace(string(runes[end:])) == "" {
			break
		}

		next := end - policy.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return segments
}

// breakPoint searches backward from limit for the most preferred boundary.
// Only cuts in the back half of the window and past the overlap are eligible,
// so the next window always moves forward.
func breakPoint(runes []rune, start, limit int, policy ChunkPolicy) int {
	minCut := start + max(policy.Size/2, policy.Overlap+1)
	for _, match := range boundaries {
		for i := limit - 1; i+1 >= minCut; i-- {
			if match(runes, i) {
				return i + 1
			}
		}
	}
	return limit
}
