package caption

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/scene2story/scene2story/internal/session"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// Enhancer turns a scene's raw transcript and visual caption into one clean
// storyboard caption. Dialogue wins over the visual description when both
// are present.
type Enhancer struct{}

func NewEnhancer() *Enhancer {
	return &Enhancer{}
}

func cleanText(s string) string {
	s = strings.TrimSpace(s)
	s = whitespaceRE.ReplaceAllString(s, " ")
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Enhance combines the visual caption and transcript for one scene.
// Substantial dialogue becomes the caption; otherwise the visual description
// is used; a scene with neither gets a numbered placeholder.
func (e *Enhancer) Enhance(visualCaption, transcript string, sceneNumber int) string {
	cleanTranscript := cleanText(transcript)
	cleanVisual := cleanText(visualCaption)

	switch {
	case len(cleanTranscript) > 5:
		return cleanTranscript
	case cleanVisual != "":
		return cleanVisual
	default:
		return fmt.Sprintf("Scene %d", sceneNumber)
	}
}

// EnhanceScenes fills enhanced_caption on every scene, leaving the rest of
// each record untouched.
func (e *Enhancer) EnhanceScenes(scenes []session.Scene) []session.Scene {
	enhanced := make([]session.Scene, len(scenes))
	for i, sc := range scenes {
		sc.EnhancedCaption = e.Enhance(sc.Caption, sc.Transcript, sc.SceneNumber)
		enhanced[i] = sc
	}
	return enhanced
}
