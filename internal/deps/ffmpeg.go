package deps

import (
	"context"
	"strings"
)

// FFmpeg describes the encoder binary. It is optional unless ffmpeg is the
// configured encoder.
func FFmpeg(binary string, optional bool) Tool {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return Tool{
		Name:       "FFmpeg",
		Binary:     binary,
		Purpose:    "cuts clips out of the rendered source media",
		Optional:   optional,
		VersionArg: "-version",
	}
}

// CheckFFmpeg resolves and version-probes the ffmpeg binary.
func CheckFFmpeg(ctx context.Context, binary string, optional bool) Status {
	return Check(ctx, FFmpeg(binary, optional))[0]
}
