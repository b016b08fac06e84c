package compose

// Timing is one section's allotted span on the narration clock, in seconds.
type Timing struct {
	Start    float64
	Duration float64
}

// End returns the section's end position on the narration clock.
func (t Timing) End() float64 { return t.Start + t.Duration }

// Allocate splits totalSeconds across sections proportionally to their word
// counts. Zero-word sections are floored to one word so every section
// receives screen time. The final timing absorbs rounding so the last end
// always equals totalSeconds.
func Allocate(wordCounts []int, totalSeconds float64) []Timing {
	if len(wordCounts) == 0 || totalSeconds <= 0 {
		return nil
	}
	floored := make([]int, len(wordCounts))
	totalWords := 0
	for i, count := range wordCounts {
		if count < 1 {
			count = 1
		}
		floored[i] = count
		totalWords += count
	}

	timings := make([]Timing, len(floored))
	cursor := 0.0
	for i, count := range floored {
		duration := totalSeconds * float64(count) / float64(totalWords)
		if i == len(floored)-1 {
			duration = totalSeconds - cursor
		}
		timings[i] = Timing{Start: cursor, Duration: duration}
		cursor += duration
	}
	return timings
}
