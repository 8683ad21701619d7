package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"voicetrans/internal/transcript"
)

// SampleResult returns a complete, store-eligible transcription result.
func SampleResult(message string) transcript.Result {
	return transcript.Result{
		Message: message,
		AudioInfo: transcript.AudioInfo{
			FileName:          "greeting.mp3",
			FileSize:          2048,
			FileSizeFormatted: "2.00 KB",
			MimeType:          "audio/mpeg",
		},
		AIResponse: &transcript.AIResponse{
			Pinyin:     "nǐ hǎo",
			Chinese:    "你好",
			Vietnamese: "xin chào",
		},
		Model:        "gemini-2.5-flash",
		Timestamp:    "2026-01-02T03:04:05Z",
		HasAudioFile: true,
	}
}

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}
