package index

import (
	"strings"
	"text/template"
)

var promptTemplate = template.Must(template.New("prompt").Parse(`You are an assistant for question-answering tasks.
Use the following retrieved context to answer the question.
If you don't know the answer, say you don't know.
Keep the answer concise (max 3 sentences).

Question: {{.Question}}
Context:
{{range $i, $p := .Passages}}{{if $i}}

{{end}}{{$p.Content}}{{end}}

Answer:
`))

// BuildPrompt renders the question-answering prompt for an external
// language model from a question and its retrieved passages.
func BuildPrompt(question string, passages []Passage) (string, error) {
	var b strings.Builder
	err := promptTemplate.Execute(&b, struct {
		Question string
		Passages []Passage
	}{
		Question: strings.TrimSpace(question),
		Passages: passages,
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
