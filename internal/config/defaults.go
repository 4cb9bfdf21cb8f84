package config

const (
	defaultStateDir         = "~/.local/share/clipexport"
	defaultLogDir           = "~/.local/share/clipexport/logs"
	defaultLocale           = "en"
	defaultSequenceName     = "processed"
	defaultGapFrames        = 6
	defaultFrameRate        = 30.0
	defaultPadWidth         = 2
	defaultReservedDir      = "original"
	defaultMappingFile      = "clip_mapping.json"
	defaultEncoderKind      = EncoderFFmpeg
	defaultEncoderExtension = ".wav"
	defaultSampleRate       = 48000
	defaultChannels         = 2
	defaultAPIBind          = "127.0.0.1:7489"
	defaultWatchSettleMS    = 750
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Encoder kinds.
const (
	EncoderFFmpeg = "ffmpeg"
	EncoderNone   = "none"
)

// DefaultAudioExtensions lists the output extensions considered during cleanup.
func DefaultAudioExtensions() []string {
	return []string{".wav", ".mp3", ".aac", ".flac", ".m4a", ".ogg"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Export: Export{
			Locale:           defaultLocale,
			SequenceName:     defaultSequenceName,
			DefaultGapFrames: defaultGapFrames,
			DefaultFrameRate: defaultFrameRate,
			ZeroPad:          true,
			PadWidth:         defaultPadWidth,
			AudioExtensions:  DefaultAudioExtensions(),
			ReservedDir:      defaultReservedDir,
			MappingFile:      defaultMappingFile,
		},
		Encoder: Encoder{
			Kind:       defaultEncoderKind,
			Extension:  defaultEncoderExtension,
			SampleRate: defaultSampleRate,
			Channels:   defaultChannels,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Watch: Watch{
			SettleMillis: defaultWatchSettleMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
