// Package config loads application configuration from environment variables.
package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port          int    `env:"PORT"            envDefault:"8000"`
	ScenesDir     string `env:"SCENES_DIR"      envDefault:"./scenes"`
	UploadDir     string `env:"UPLOAD_DIR"      envDefault:"./uploads"`
	DBPath        string `env:"DB_PATH"         envDefault:"./scene2story.db"`
	MaxUploadSize int64  `env:"MAX_UPLOAD_SIZE" envDefault:"524288000"`

	SceneThreshold float64 `env:"SCENE_THRESHOLD"  envDefault:"0.5"`
	MinSceneFrames int     `env:"MIN_SCENE_FRAMES" envDefault:"15"`
	DetectWidth    int     `env:"DETECT_WIDTH"     envDefault:"160"`
	DetectHeight   int     `env:"DETECT_HEIGHT"    envDefault:"90"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL"  envDefault:"gpt-4o"`

	WhisperBin   string `env:"WHISPER_BIN"   envDefault:"whisper"`
	WhisperModel string `env:"WHISPER_MODEL" envDefault:"base"`
	YTDLPBin     string `env:"YTDLP_BIN"     envDefault:"yt-dlp"`

	StoryboardMaxWidth int `env:"STORYBOARD_MAX_WIDTH" envDefault:"1200"`

	LogLevel    string   `env:"LOG_LEVEL"    envDefault:"info"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
