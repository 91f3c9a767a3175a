package models

import "fmt"

const (
	ContextSeparator  = "\n\n"
	APIKeyPlaceholder = "SUA_CHAVE_API_AQUI"
	SeparatorWidth    = 50
)

// Prompt templates use go template syntax; both expose the context and question inputs.
var (
	PromptTemplatePT = `
Você é um assistente especializado em responder perguntas com base em documentos.
Responda à pergunta do usuário utilizando somente as informações do contexto abaixo.
Se a resposta não estiver no contexto, diga "Com base nos documentos fornecidos, não encontrei uma resposta para essa pergunta."

Contexto:
{{.context}}

Pergunta:
{{.question}}

Resposta:
`

	PromptTemplateEN = `
You are an assistant specialized in answering questions based on documents.
Answer the user's question using only the information in the context below.
If the answer is not in the context, say "Based on the provided documents, I found no answer to this question."

Context:
{{.context}}

Question:
{{.question}}

Answer:
`
)

// Messages holds the user facing strings of the interactive loop
type Messages struct {
	Ready string
	// ExitHint is a format string receiving ExitKeyword
	ExitHint    string
	Prompt      string
	ExitKeyword string
	Farewell    string
	Searching   string
	AnswerTitle string
	SourceTitle string
	ErrorPrefix string
	Restarting  string
	Template    string
}

var locales = map[string]Messages{
	"pt": {
		Ready:       "✅ Agente de IA pronto! Faça suas perguntas sobre o documento.",
		ExitHint:    `   Digite "%s" a qualquer momento para encerrar o programa.`,
		Prompt:      "Sua pergunta: ",
		ExitKeyword: "sair",
		Farewell:    "Encerrando o programa. Até mais!",
		Searching:   "Buscando a resposta...",
		AnswerTitle: "Resposta do Agente:",
		SourceTitle: "Fontes:",
		ErrorPrefix: "Ocorreu um erro:",
		Restarting:  "Reiniciando o loop de perguntas.",
		Template:    PromptTemplatePT,
	},
	"en": {
		Ready:       "✅ AI agent ready! Ask your questions about the document.",
		ExitHint:    `   Type "%s" at any time to quit.`,
		Prompt:      "Your question: ",
		ExitKeyword: "exit",
		Farewell:    "Shutting down. See you!",
		Searching:   "Searching for the answer...",
		AnswerTitle: "Agent answer:",
		SourceTitle: "Sources:",
		ErrorPrefix: "An error occurred:",
		Restarting:  "Restarting the question loop.",
		Template:    PromptTemplateEN,
	},
}

// MessagesFor returns the strings for locale, falling back to Portuguese
func MessagesFor(locale string) Messages {
	if m, ok := locales[locale]; ok {
		return m
	}
	return locales["pt"]
}

// Hint renders ExitHint with the active exit keyword
func (m Messages) Hint() string {
	return fmt.Sprintf(m.ExitHint, m.ExitKeyword)
}
