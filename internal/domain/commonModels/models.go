package commonModels

type DocType string

var TXT DocType = "TXT"
var MARKDOWN DocType = "MARKDOWN"
var PDF DocType = "PDF"
var OFFICE DocType = "OFFICE"
var ERR DocType = "ERROR"

type Document struct {
	Id         string  `json:"source_doc_id"`
	Text       string  `json:"text"`
	SourcePath string  `json:"source_path"`
	Format     DocType `json:"format"`
}

// DocChunk is the unit of retrieval. Ordinal is its position in the whole
// ingestion run and breaks score ties at search time.
type DocChunk struct {
	ChunkId       string `json:"chunk_id"`
	ParentDocId   string `json:"source_doc_id"`
	SourcePath    string `json:"source_path"`
	Text          string `json:"content"`
	SequenceIndex int    `json:"chunk_order"`
	Ordinal       int    `json:"ordinal"`
}

type ScoredChunk struct {
	Chunk DocChunk `json:"chunk"`
	Score float32  `json:"score"`
}

// RetrievalResult is ordered by score, highest first.
type RetrievalResult []ScoredChunk

func (r RetrievalResult) Texts() []string {
	texts := make([]string, len(r))
	for i, sc := range r {
		texts[i] = sc.Chunk.Text
	}
	return texts
}

type PipelineState string

const (
	Idle       PipelineState = "Idle"
	Embedding  PipelineState = "Embedding"
	Retrieving PipelineState = "Retrieving"
	Prompting  PipelineState = "Prompting"
	Generating PipelineState = "Generating"

	IngestLoad    PipelineState = "Load"
	IngestSplit   PipelineState = "Split"
	IngestEmbed   PipelineState = "Embed"
	IngestPersist PipelineState = "Persist"
)
