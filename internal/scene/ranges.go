package scene

// Range is one scene's time span in seconds.
type Range struct {
	Start float64
	End   float64
}

// boundariesToRanges converts boundary frame indices into contiguous time
// ranges. Ranges are gap-free: a cut at frame k closes the previous scene at
// k/fps and opens the next at exactly k/fps; the final scene closes at
// frameCount/fps.
func boundariesToRanges(boundaries []int, frameCount int, fps float64) []Range {
	if len(boundaries) == 0 || fps <= 0 || frameCount <= 0 {
		return nil
	}

	ranges := make([]Range, 0, len(boundaries))
	for i, start := range boundaries {
		endFrame := frameCount
		if i+1 < len(boundaries) {
			endFrame = boundaries[i+1]
		}
		if endFrame <= start {
			continue
		}
		ranges = append(ranges, Range{
			Start: float64(start) / fps,
			End:   float64(endFrame) / fps,
		})
	}
	return ranges
}
