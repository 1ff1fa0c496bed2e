package config

import "narrator/internal/chapters"

const (
	defaultConfigPath          = "~/.config/narrator/config.toml"
	defaultContentDir          = "~/narrator/content"
	defaultOutputDir           = "~/narrator/output"
	defaultLogDir              = "~/.local/state/narrator/logs"
	defaultSynthCommand        = "edge-tts-stream"
	defaultSynthVoice          = "zh-CN-YunxiNeural"
	defaultSynthRate           = "-20%"
	defaultSynthVolume         = "+0%"
	defaultSynthPitch          = "+0Hz"
	defaultAudioExtension      = "mp3"
	defaultSynthTimeoutSeconds = 1800
	defaultStopGapMS           = 100
	defaultCharBudget          = -1
	defaultChapterMinChars     = 100
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultNtfyTimeoutSeconds  = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ContentDir: defaultContentDir,
			OutputDir:  defaultOutputDir,
			StateDir:   defaultStateDir(),
			LogDir:     defaultLogDir,
		},
		Synth: Synth{
			Command:        defaultSynthCommand,
			Voice:          defaultSynthVoice,
			Rate:           defaultSynthRate,
			Volume:         defaultSynthVolume,
			Pitch:          defaultSynthPitch,
			AudioExtension: defaultAudioExtension,
			TimeoutSeconds: defaultSynthTimeoutSeconds,
		},
		LRC: LRC{
			StopGapMS:    defaultStopGapMS,
			CharBudget:   defaultCharBudget,
			UseReference: true,
		},
		Chapters: Chapters{
			Pattern:   chapters.DefaultPattern,
			MinChars:  defaultChapterMinChars,
			Encodings: append([]string(nil), chapters.DefaultEncodings...),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeoutSeconds,
		},
	}
}
