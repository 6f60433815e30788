package scene

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/scene2story/scene2story/internal/media"
	"github.com/scene2story/scene2story/internal/session"
)

type fakeProber struct {
	info *media.ProbeInfo
	err  error
}

func (f *fakeProber) Probe(ctx context.Context, videoPath string) (*media.ProbeInfo, error) {
	return f.info, f.err
}

type fakeDetector struct {
	boundaries []int
	err        error
}

func (f *fakeDetector) DetectBoundaries(ctx context.Context, videoPath string) ([]int, error) {
	return f.boundaries, f.err
}

// fakeWriter writes frame files the way a real backend would, with a
// configurable naming convention and per-scene failures.
type fakeWriter struct {
	pattern   string
	failScene map[int]bool
	calls     int
}

func (f *fakeWriter) ExtractRepresentative(ctx context.Context, videoPath, outputDir string, sceneNumber int, r Range) error {
	f.calls++
	if f.failScene[sceneNumber] {
		return fmt.Errorf("simulated extraction failure for scene %d", sceneNumber)
	}
	name := fmt.Sprintf(f.pattern, sceneNumber)
	return os.WriteFile(filepath.Join(outputDir, name), []byte("jpeg"), 0644)
}

func newSegmenterEnv(t *testing.T, prober VideoProber, detector BoundaryDetector, writer FrameWriter) (*Segmenter, *session.Store, string) {
	t.Helper()
	root := t.TempDir()
	store, err := session.NewStore(root, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return NewSegmenter(prober, detector, writer, store, zap.NewNop()), store, root
}

func tenSecondVideo() *media.ProbeInfo {
	return &media.ProbeInfo{Duration: 10.0, FPS: 30.0, FrameCount: 300, Width: 1280, Height: 720}
}

func TestSegment_TwoScenes(t *testing.T) {
	seg, store, _ := newSegmenterEnv(t,
		&fakeProber{info: tenSecondVideo()},
		&fakeDetector{boundaries: []int{0, 150}},
		&fakeWriter{pattern: "scene_%03d.jpg"},
	)

	meta, err := seg.Segment(context.Background(), "/videos/cut.mp4", "cut test")
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	if meta.TotalScenes != 2 || len(meta.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got total=%d len=%d", meta.TotalScenes, len(meta.Scenes))
	}

	first, second := meta.Scenes[0], meta.Scenes[1]
	if first.SceneNumber != 1 || second.SceneNumber != 2 {
		t.Errorf("scene numbers not contiguous: %d, %d", first.SceneNumber, second.SceneNumber)
	}
	if first.StartTime != 0.0 || first.EndTime != 5.0 {
		t.Errorf("first scene range wrong: [%f, %f]", first.StartTime, first.EndTime)
	}
	if second.StartTime != 5.0 || second.EndTime != 10.0 {
		t.Errorf("second scene range wrong: [%f, %f]", second.StartTime, second.EndTime)
	}
	if first.EndTime != second.StartTime {
		t.Errorf("ranges not gap-free: %f != %f", first.EndTime, second.StartTime)
	}
	for _, sc := range meta.Scenes {
		if sc.Duration != sc.EndTime-sc.StartTime {
			t.Errorf("duration not derived for scene %d", sc.SceneNumber)
		}
		if _, err := os.Stat(sc.FramePath); err != nil {
			t.Errorf("frame missing for scene %d: %v", sc.SceneNumber, err)
		}
	}

	// The persisted record must match what was returned.
	persisted, err := store.Read(meta.SessionPath)
	if err != nil {
		t.Fatalf("reading persisted metadata failed: %v", err)
	}
	if persisted.TotalScenes != 2 {
		t.Errorf("persisted total_scenes = %d", persisted.TotalScenes)
	}
}

func TestSegment_NoBoundaries_SynthesizesWholeVideo(t *testing.T) {
	seg, _, _ := newSegmenterEnv(t,
		&fakeProber{info: tenSecondVideo()},
		&fakeDetector{boundaries: nil},
		&fakeWriter{pattern: "scene_%03d.jpg"},
	)

	meta, err := seg.Segment(context.Background(), "/videos/flat.mp4", "")
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	if len(meta.Scenes) != 1 {
		t.Fatalf("expected exactly one synthesized scene, got %d", len(meta.Scenes))
	}
	sc := meta.Scenes[0]
	if sc.StartTime != 0 || sc.EndTime != 10.0 {
		t.Errorf("synthesized scene must span [0, frame_count/fps], got [%f, %f]",
			sc.StartTime, sc.EndTime)
	}
	if meta.VideoName != "flat" {
		t.Errorf("empty name should fall back to file base, got %q", meta.VideoName)
	}
}

func TestSegment_AlternateFrameNaming(t *testing.T) {
	// Backend writes unpadded names; resolution must fall back to them.
	seg, _, _ := newSegmenterEnv(t,
		&fakeProber{info: tenSecondVideo()},
		&fakeDetector{boundaries: []int{0, 150}},
		&fakeWriter{pattern: "scene_%d.jpg"},
	)

	meta, err := seg.Segment(context.Background(), "/videos/alt.mp4", "alt")
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(meta.Scenes) != 2 {
		t.Fatalf("expected 2 scenes via fallback naming, got %d", len(meta.Scenes))
	}
	if meta.Scenes[0].FrameFilename != "scene_1.jpg" {
		t.Errorf("fallback filename not recorded: %q", meta.Scenes[0].FrameFilename)
	}
}

func TestSegment_MissingFrame_DropsAndRenumbers(t *testing.T) {
	seg, _, _ := newSegmenterEnv(t,
		&fakeProber{info: tenSecondVideo()},
		&fakeDetector{boundaries: []int{0, 100, 200}},
		&fakeWriter{pattern: "scene_%03d.jpg", failScene: map[int]bool{2: true}},
	)

	meta, err := seg.Segment(context.Background(), "/videos/gappy.mp4", "gappy")
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	if meta.TotalScenes != 2 || len(meta.Scenes) != 2 {
		t.Fatalf("expected dropped scene to reduce count to 2, got %d", meta.TotalScenes)
	}
	if meta.Scenes[0].SceneNumber != 1 || meta.Scenes[1].SceneNumber != 2 {
		t.Errorf("survivors must be renumbered contiguously: %d, %d",
			meta.Scenes[0].SceneNumber, meta.Scenes[1].SceneNumber)
	}
	// The survivor after the drop keeps its original time range.
	if meta.Scenes[1].StartTime != 200.0/30.0 {
		t.Errorf("survivor range shifted: %f", meta.Scenes[1].StartTime)
	}
}

func TestSegment_UnreadableVideo_NoSessionLeftBehind(t *testing.T) {
	seg, _, root := newSegmenterEnv(t,
		&fakeProber{err: fmt.Errorf("%w: bad container", media.ErrVideoUnreadable)},
		&fakeDetector{},
		&fakeWriter{pattern: "scene_%03d.jpg"},
	)

	_, err := seg.Segment(context.Background(), "/videos/broken.mp4", "broken")
	if !errors.Is(err, media.ErrVideoUnreadable) {
		t.Fatalf("expected ErrVideoUnreadable, got %v", err)
	}

	entries, readErr := os.ReadDir(root)
	if readErr != nil {
		t.Fatalf("reading root failed: %v", readErr)
	}
	if len(entries) != 0 {
		t.Errorf("partial session left behind: %v", entries)
	}
}

func TestSegment_DetectorError_CleansUpSession(t *testing.T) {
	seg, _, root := newSegmenterEnv(t,
		&fakeProber{info: tenSecondVideo()},
		&fakeDetector{err: errors.New("decode blew up")},
		&fakeWriter{pattern: "scene_%03d.jpg"},
	)

	_, err := seg.Segment(context.Background(), "/videos/explodes.mp4", "explodes")
	if err == nil {
		t.Fatal("expected error from failing detector")
	}

	entries, readErr := os.ReadDir(root)
	if readErr != nil {
		t.Fatalf("reading root failed: %v", readErr)
	}
	if len(entries) != 0 {
		t.Errorf("session directory not cleaned up: %v", entries)
	}
}
