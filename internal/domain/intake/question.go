package intake

// QuestionConfig is one unit of work for downstream question answering.
type QuestionConfig struct {
	QuestionText             string `json:"QuestionText"`
	QuestionTextForEmbedding string `json:"QuestionTextForEmbedding,omitempty"`
	SystemMessage            string `json:"SystemMessage,omitempty"`
	// PageRange is a single page "N" or an inclusive range "N-M".
	PageRange         string   `json:"PageRange,omitempty"`
	ChunkSize         *int     `json:"ChunkSize,omitempty"`
	QuestionID        string   `json:"questionId,omitempty"`
	TopN              *int     `json:"topN,omitempty"`
	BoundingBoxReturn string   `json:"boundingBoxReturn,omitempty"`
	LookupValues      []string `json:"lookupValues,omitempty"`
	IsLookUp          bool     `json:"IsLookUp"`
}

// EmbeddingText is the text used for similarity search.
func (q QuestionConfig) EmbeddingText() string {
	if q.QuestionTextForEmbedding != "" {
		return q.QuestionTextForEmbedding
	}
	return q.QuestionText
}

// MatterTypeConfig groups the questions declared for one matter type.
type MatterTypeConfig struct {
	Questions []QuestionConfig `json:"questions"`
}
