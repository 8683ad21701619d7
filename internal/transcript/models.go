package transcript

import "strings"

// AudioInfo describes the audio that was transcribed.
type AudioInfo struct {
	FileName          string `json:"fileName"`
	FileSize          int64  `json:"fileSize"`
	FileSizeFormatted string `json:"fileSizeFormatted"`
	MimeType          string `json:"mimeType"`
	URL               string `json:"url"`
}

// AIResponse is the translation triple produced by the model.
type AIResponse struct {
	// Pinyin is the phonetic romanization of the source text.
	Pinyin string `json:"pinyin"`
	// Chinese is the source-script text.
	Chinese string `json:"china"`
	// Vietnamese is the target-language translation.
	Vietnamese string `json:"vietnamese"`
}

// Complete reports whether every field of the triple is present and non-empty.
func (r *AIResponse) Complete() bool {
	if r == nil {
		return false
	}
	return strings.TrimSpace(r.Chinese) != "" &&
		strings.TrimSpace(r.Pinyin) != "" &&
		strings.TrimSpace(r.Vietnamese) != ""
}

// Result is a completed transcription as returned by the service.
type Result struct {
	Message      string      `json:"message"`
	AudioInfo    AudioInfo   `json:"audioInfo"`
	AIResponse   *AIResponse `json:"aiResponse,omitempty"`
	Model        string      `json:"model,omitempty"`
	Timestamp    string      `json:"timestamp"`
	HasAudioFile bool        `json:"hasAudioFile"`
	Error        string      `json:"error,omitempty"`
}

// Storable reports whether the result can be kept in history.
func (r Result) Storable() bool {
	return r.AIResponse.Complete()
}

// Item is a Result persisted in history under a store-unique ID.
type Item struct {
	ID string `json:"id"`
	Result
}

// Valid reports whether a persisted item is well formed: it needs a non-empty
// ID and a complete AI response.
func (i Item) Valid() bool {
	return strings.TrimSpace(i.ID) != "" && i.AIResponse.Complete()
}
