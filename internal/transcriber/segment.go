package transcriber

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	estimatePerWord = 300 * time.Millisecond
	estimatePerChar = 100 * time.Millisecond
	estimateMinimum = time.Second
)

// EstimateDuration guesses how long text takes to speak when the service gave
// no usable timing: 300ms per whitespace-separated word plus 100ms per
// remaining character, never less than one second.
func EstimateDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	chars := utf8.RuneCountInString(text)
	d := time.Duration(words)*estimatePerWord + time.Duration(chars-words)*estimatePerChar
	return max(d, estimateMinimum)
}

// SegmentBuilder numbers subtitles and keeps their boundaries monotonic.
// It is owned by a single receiving goroutine.
type SegmentBuilder struct {
	nextID  int
	lastEnd time.Duration
}

func NewSegmentBuilder() *SegmentBuilder {
	return &SegmentBuilder{nextID: 1}
}

func (b *SegmentBuilder) LastEnd() time.Duration {
	return b.lastEnd
}

// Build clamps start to the previous end and repairs a non-positive duration
// with EstimateDuration before assigning the next id.
func (b *SegmentBuilder) Build(start, end time.Duration, text string) Subtitle {
	if start < b.lastEnd {
		start = b.lastEnd
	}
	if end <= start {
		end = start + EstimateDuration(text)
	}
	sub := Subtitle{ID: b.nextID, Start: start, End: end, Text: text}
	b.nextID++
	b.lastEnd = end
	return sub
}
