package transfer

import "github.com/dmitrijs2005/gophjournal/internal/models"

// ExportVersion is informational; imports do not gate on it.
const ExportVersion = 2

// Import sources reported in ImportResult.Source.
const (
	SourceNative   = "native"
	SourceDayOne   = "dayone"
	SourceMarkdown = "markdown"
)

// Envelope is the top level of a native export file.
type Envelope struct {
	ExportedAt string        `json:"exported_at"`
	Version    int           `json:"version"`
	Entries    []ExportEntry `json:"entries"`
}

// ExportEntry is one entry with its media inlined.
type ExportEntry struct {
	ID        int64             `json:"id,omitempty"`
	CreatedAt string            `json:"createdAt"`
	UpdatedAt string            `json:"updatedAt,omitempty"`
	Text      string            `json:"text"`
	Tags      []string          `json:"tags,omitempty"`
	Starred   bool              `json:"starred,omitempty"`
	PromptID  string            `json:"promptId,omitempty"`
	AIInsight *models.AIInsight `json:"aiInsight,omitempty"`
	Images    []ExportImage     `json:"images,omitempty"`
	Audio     *ExportMedia      `json:"audio,omitempty"`
	Video     *ExportMedia      `json:"video,omitempty"`
}

// ExportMedia is an inlined audio or video attachment.
type ExportMedia struct {
	MimeType string  `json:"mimeType"`
	Duration float64 `json:"duration"`
	Size     int64   `json:"size"`
	Base64   string  `json:"base64"`
}

// ExportImage is an inlined image attachment.
type ExportImage struct {
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	Base64   string `json:"base64"`
}

// dayOneEntry is one row of a Day One JSON export.
type dayOneEntry struct {
	CreationDate string   `json:"creationDate"`
	ModifiedDate string   `json:"modifiedDate"`
	Text         string   `json:"text"`
	Tags         []string `json:"tags"`
	Starred      *bool    `json:"starred"`
}

// ImportResult is what an import reports back.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   int
	Source   string
}
