package scene

import (
	"bytes"
	"testing"

	"go.uber.org/zap"
)

const (
	testW = 16
	testH = 9
)

func solidFrame(r, g, b byte) []byte {
	frame := make([]byte, testW*testH*3)
	for i := 0; i < len(frame); i += 3 {
		frame[i] = r
		frame[i+1] = g
		frame[i+2] = b
	}
	return frame
}

func frameStream(frames ...[]byte) *bytes.Reader {
	var buf bytes.Buffer
	for _, f := range frames {
		buf.Write(f)
	}
	return bytes.NewReader(buf.Bytes())
}

func testDetector(t *testing.T, minSceneFrames int) *Detector {
	t.Helper()
	return &Detector{
		threshold:      0.5,
		minSceneFrames: minSceneFrames,
		width:          testW,
		height:         testH,
		logger:         zap.NewNop(),
	}
}

func TestScanBoundaries_HardCut(t *testing.T) {
	d := testDetector(t, 1)

	var frames [][]byte
	for i := 0; i < 30; i++ {
		frames = append(frames, solidFrame(200, 20, 20))
	}
	for i := 0; i < 30; i++ {
		frames = append(frames, solidFrame(20, 20, 200))
	}

	boundaries, err := d.scanBoundaries(frameStream(frames...))
	if err != nil {
		t.Fatalf("scanBoundaries failed: %v", err)
	}

	if len(boundaries) != 2 {
		t.Fatalf("expected 2 boundaries, got %v", boundaries)
	}
	if boundaries[0] != 0 {
		t.Errorf("first boundary must be frame 0, got %d", boundaries[0])
	}
	if boundaries[1] != 30 {
		t.Errorf("cut expected at frame 30, got %d", boundaries[1])
	}
}

func TestScanBoundaries_NoCut(t *testing.T) {
	d := testDetector(t, 1)

	var frames [][]byte
	for i := 0; i < 50; i++ {
		frames = append(frames, solidFrame(100, 100, 100))
	}

	boundaries, err := d.scanBoundaries(frameStream(frames...))
	if err != nil {
		t.Fatalf("scanBoundaries failed: %v", err)
	}
	if len(boundaries) != 1 || boundaries[0] != 0 {
		t.Fatalf("expected only the opening boundary, got %v", boundaries)
	}
}

func TestScanBoundaries_MinSceneFrames(t *testing.T) {
	d := testDetector(t, 10)

	// Three distinct colors, the second lasting only 3 frames. The flicker
	// cut must be suppressed, the later cut kept.
	var frames [][]byte
	for i := 0; i < 20; i++ {
		frames = append(frames, solidFrame(200, 20, 20))
	}
	for i := 0; i < 3; i++ {
		frames = append(frames, solidFrame(20, 200, 20))
	}
	for i := 0; i < 20; i++ {
		frames = append(frames, solidFrame(20, 200, 20))
	}

	boundaries, err := d.scanBoundaries(frameStream(frames...))
	if err != nil {
		t.Fatalf("scanBoundaries failed: %v", err)
	}
	if len(boundaries) != 2 {
		t.Fatalf("expected opening boundary plus one cut, got %v", boundaries)
	}
	if boundaries[1] != 20 {
		t.Errorf("cut expected at frame 20, got %d", boundaries[1])
	}
}

func TestScanBoundaries_EmptyStream(t *testing.T) {
	d := testDetector(t, 1)

	boundaries, err := d.scanBoundaries(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("scanBoundaries failed: %v", err)
	}
	// The opening boundary is synthetic; range conversion handles the
	// zero-frame case.
	if len(boundaries) != 1 {
		t.Fatalf("expected just the opening boundary, got %v", boundaries)
	}
}

func TestCorrelation(t *testing.T) {
	a := histogramRGB(solidFrame(200, 20, 20))
	b := histogramRGB(solidFrame(200, 20, 20))
	if got := correlation(a, b); got < 0.999 {
		t.Errorf("identical frames should correlate at 1, got %f", got)
	}

	c := histogramRGB(solidFrame(20, 20, 200))
	if got := correlation(a, c); got > 0.1 {
		t.Errorf("disjoint histograms should not correlate, got %f", got)
	}
}

func TestHistogramRGB_Mass(t *testing.T) {
	frame := solidFrame(128, 64, 32)
	hist := histogramRGB(frame)

	var total float64
	for _, v := range hist {
		total += v
	}
	if int(total) != testW*testH {
		t.Errorf("histogram mass %d != pixel count %d", int(total), testW*testH)
	}
}

func TestBoundariesToRanges_Contiguity(t *testing.T) {
	ranges := boundariesToRanges([]int{0, 150, 210}, 300, 30.0)
	if len(ranges) != 3 {
		t.Fatalf("expected 3 ranges, got %d", len(ranges))
	}

	if ranges[0].Start != 0 {
		t.Errorf("first range must start at 0, got %f", ranges[0].Start)
	}
	if ranges[2].End != 10.0 {
		t.Errorf("last range must end at frame_count/fps, got %f", ranges[2].End)
	}
	for i := range ranges {
		if ranges[i].End <= ranges[i].Start {
			t.Errorf("range %d is empty: %+v", i, ranges[i])
		}
		if i > 0 && ranges[i].Start != ranges[i-1].End {
			t.Errorf("gap between range %d and %d: %f != %f",
				i-1, i, ranges[i-1].End, ranges[i].Start)
		}
	}
}

func TestBoundariesToRanges_SingleBoundary(t *testing.T) {
	ranges := boundariesToRanges([]int{0}, 300, 30.0)
	if len(ranges) != 1 {
		t.Fatalf("expected 1 range, got %d", len(ranges))
	}
	if ranges[0].Start != 0 || ranges[0].End != 10.0 {
		t.Errorf("whole-video range wrong: %+v", ranges[0])
	}
}

func TestBoundariesToRanges_Degenerate(t *testing.T) {
	if got := boundariesToRanges(nil, 300, 30.0); got != nil {
		t.Errorf("nil boundaries should produce nil ranges, got %v", got)
	}
	if got := boundariesToRanges([]int{0}, 0, 30.0); got != nil {
		t.Errorf("zero frames should produce nil ranges, got %v", got)
	}
	// Boundary past the end yields no empty trailing range.
	ranges := boundariesToRanges([]int{0, 300}, 300, 30.0)
	if len(ranges) != 1 {
		t.Errorf("expected trailing empty range to be skipped, got %v", ranges)
	}
}
