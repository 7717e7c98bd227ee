package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// executablePath locates the running binary; replaced in tests.
var executablePath = os.Executable

// ResolveFFmpeg reports the ffmpeg binary bilidl will execute.
//
// Lookup order: an explicitly configured binary (which must resolve, there is
// no fallback), then an ffmpeg sitting next to the bilidl executable, then
// "ffmpeg" from PATH.
func ResolveFFmpeg(configured string) Status {
	var anchors []string
	if self, err := executablePath(); err == nil {
		anchors = append(anchors, filepath.Dir(self))
	}
	return resolveTool(Requirement{
		Name:        "FFmpeg",
		Command:     "ffmpeg",
		Description: "Encodes downloaded media to MP3",
	}, configured, anchors)
}

// ResolveFFprobe reports the ffprobe binary used to verify sources. An
// ffprobe next to the resolved ffmpeg wins over PATH so both tools come from
// the same build.
func ResolveFFprobe(configured, ffmpegPath string) Status {
	var anchors []string
	if ffmpegPath = strings.TrimSpace(ffmpegPath); ffmpegPath != "" && filepath.IsAbs(ffmpegPath) {
		anchors = append(anchors, filepath.Dir(ffmpegPath))
	}
	if self, err := executablePath(); err == nil {
		anchors = append(anchors, filepath.Dir(self))
	}
	return resolveTool(Requirement{
		Name:        "FFprobe",
		Command:     "ffprobe",
		Description: "Checks sources for an audio stream before encoding",
		Optional:    true,
	}, configured, anchors)
}

func resolveTool(req Requirement, configured string, anchors []string) Status {
	status := req.status()

	if configured = strings.TrimSpace(configured); configured != "" {
		status.Command = configured
		resolved, err := exec.LookPath(configured)
		if err != nil {
			return status.missing("configured binary %q not found", configured)
		}
		return status.found(resolved)
	}

	name := executableName(status.Command)
	for _, dir := range anchors {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			return status.found(candidate)
		}
	}
	return lookPath(status)
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
