package session

// Scene is one detected shot segment. Transcript, caption and enhanced
// caption are filled in by later pipeline stages; ordering and numbering are
// fixed once the scene is created.
type Scene struct {
	SceneNumber     int     `json:"scene_number"`
	StartTime       float64 `json:"start_time"`
	EndTime         float64 `json:"end_time"`
	Duration        float64 `json:"duration"`
	FramePath       string  `json:"frame_path"`
	FrameFilename   string  `json:"frame_filename"`
	Transcript      string  `json:"transcript,omitempty"`
	Caption         string  `json:"caption,omitempty"`
	EnhancedCaption string  `json:"enhanced_caption,omitempty"`
}

// Metadata is the full on-disk record for one processing session. The
// metadata.json file inside SessionPath is the single source of truth; every
// stage that enriches scenes re-persists the whole record through Store.Write.
type Metadata struct {
	VideoPath           string  `json:"video_path"`
	VideoName           string  `json:"video_name"`
	SessionPath         string  `json:"session_path"`
	TotalScenes         int     `json:"total_scenes"`
	ProcessingTimestamp string  `json:"processing_timestamp"`
	Scenes              []Scene `json:"scenes"`
	StoryboardPath      string  `json:"storyboard_path,omitempty"`
}

// Summary is the listing view of a session.
type Summary struct {
	SessionID           string `json:"session_id"`
	VideoName           string `json:"video_name"`
	TotalScenes         int    `json:"total_scenes"`
	ProcessingTimestamp string `json:"processing_timestamp"`
	SessionPath         string `json:"session_path"`
	HasStoryboard       bool   `json:"has_storyboard"`
}
