package entity

// ExcerptLength caps the original content echoed back to callers.
const ExcerptLength = 500

// PromptSpec is the instruction pair sent to the generation service.
type PromptSpec struct {
	SystemInstruction string
	UserInstruction   string
	Temperature       float32
}

// Excerpt is a bounded view of the article a result was generated from.
type Excerpt struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

type GenerationResult struct {
	ActionKind ActionKind `json:"actionKind"`
	Original   Excerpt    `json:"original"`
	Result     string     `json:"result"`
}

type TranslationResult struct {
	Original    Article `json:"original"`
	Translation string  `json:"translation"`
}

// NewExcerpt keeps the first ExcerptLength characters of the content and
// always marks the cut with an ellipsis.
func NewExcerpt(article *Article) Excerpt {
	content := []rune(article.Content)
	if len(content) > ExcerptLength {
		content = content[:ExcerptLength]
	}
	return Excerpt{
		Title:   article.Title,
		Content: string(content) + "...",
		Date:    article.Date,
	}
}

func NewGenerationResult(kind ActionKind, article *Article, result string) *GenerationResult {
	return &GenerationResult{
		ActionKind: kind,
		Original:   NewExcerpt(article),
		Result:     result,
	}
}
