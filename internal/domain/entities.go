package domain

import "time"

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
	FormatText Format = "text"
)

// Document is a file that has been ingested into a session.
type Document struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Format   Format    `json:"format"`
	Chunks   int       `json:"chunks"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Section is one extracted unit of a document: a PDF page, a CSV row or the
// whole text of a plain file. Number is 1-based for pages and rows, 0 otherwise.
type Section struct {
	Number int
	Text   string
}

type Chunk struct {
	ID      string `json:"id"`
	DocID   string `json:"doc_id"`
	Source  string `json:"source"`
	Text    string `json:"text"`
	Offset  int    `json:"offset"`
	Section int    `json:"section"`
	Seq     int    `json:"seq"`
	Size    int    `json:"size"`
	Overlap int    `json:"overlap"`
}

type IndexEntry struct {
	Chunk     Chunk
	Embedding []float32
	Metadata  map[string]string
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

type ConversationTurn struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

// History is the ordered conversation of one session.
type History []ConversationTurn

func (h *History) Append(turn ConversationTurn) {
	*h = append(*h, turn)
}

func (h History) Len() int {
	return len(h)
}
