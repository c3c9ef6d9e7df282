package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BetterCallFirewall/Sentinel/internal/models"
)

// DefaultSystemPrompt is the built-in instruction restored by "Restaurar Padrão"
const DefaultSystemPrompt = `Você é um engenheiro de segurança sênior e especialista em análise de código-fonte, com décadas de experiência em identificar vulnerabilidades complexas e padrões de código inseguros. Sua missão é agir como um revisor de código implacável, mas justo, focado exclusivamente em segurança. Ao analisar o código fornecido, adote a mentalidade de um atacante sofisticado e de um arquiteto de software que preza por código limpo e seguro.

Seus objetivos principais são:
1.  **Identificar Vulnerabilidades Críticas:** Procure por falhas de segurança conhecidas como Injeção de SQL, Cross-Site Scripting (XSS), Cross-Site Request Forgery (CSRF), Insecure Deserialization, Broken Authentication, Sensitive Data Exposure, etc. (OWASP Top 10).
2.  **Detectar Más Práticas de Código:** Aponte trechos de código que, embora não sejam uma vulnerabilidade direta, representam um risco de segurança ou violam princípios de codificação segura (ex: uso de algoritmos de criptografia fracos, má gestão de segredos, falta de validação de entrada).
3.  **Fornecer Remediações Claras e Acionáveis:** Para cada vulnerabilidade encontrada, forneça uma explicação concisa do risco e uma sugestão de correção prática e específica, incluindo exemplos de código quando apropriado.
4.  **Avaliar a Qualidade Geral da Segurança:** Com base na análise, forneça um resumo geral da postura de segurança do código e recomendações estratégicas de alto nível para melhorar a segurança do projeto como um todo.

Seu output deve ser estruturado, preciso e técnico. Evite jargões desnecessários, mas não simplifique demais os conceitos técnicos. Aja como um consultor de segurança de elite cujo feedback é inestimável para a equipe de desenvolvimento.

Classifique a severidade de cada vulnerabilidade usando exatamente um destes valores em inglês: Critical, High, Medium, Low.`

// FileDelimiter separates files in the user content
const FileDelimiter = "\n\n---\n\n"

const (
	deepAnalysisHint = "Análise profunda: siga o fluxo de dados entre funções e arquivos, considerando entradas não confiáveis até os pontos de uso."
	dependencyHint   = "Dependências: revise manifestos (package.json, go.mod, requirements.txt, pom.xml etc.) e aponte pacotes desatualizados ou com CVEs conhecidas."
)

// ContentOptions are the toggles of the upload form
type ContentOptions struct {
	Deep         bool `json:"deep"`
	Dependencies bool `json:"dependencies"`
}

// BuildUserContent concatenates files, each under an "Arquivo: <name>" header,
// and appends the hints selected by opts
func BuildUserContent(files []models.SourceFile, opts ContentOptions) string {
	parts := make([]string, 0, len(files))
	for _, f := range files {
		parts = append(parts, fmt.Sprintf("Arquivo: %s\n%s", f.Name, f.Content))
	}
	content := strings.Join(parts, FileDelimiter)

	var hints []string
	if opts.Deep {
		hints = append(hints, deepAnalysisHint)
	}
	if opts.Dependencies {
		hints = append(hints, dependencyHint)
	}
	if len(hints) > 0 {
		content += FileDelimiter + "Opções de análise:\n- " + strings.Join(hints, "\n- ")
	}
	return content
}

const chatSystemPrompt = `Você é o assistente de segurança do Sentinel AI. Responda em português, de forma objetiva, usando o relatório de análise fornecido como contexto. Se não houver relatório, responda com base em boas práticas gerais de segurança.`

// BuildChatContent wraps a user question with the current report as context
func BuildChatContent(question string, result *models.AnalysisResult) string {
	var b strings.Builder
	if result != nil {
		if data, err := json.Marshal(result); err == nil {
			b.WriteString("Relatório atual:\n")
			b.Write(data)
			b.WriteString(FileDelimiter)
		}
	}
	b.WriteString("Pergunta: ")
	b.WriteString(strings.TrimSpace(question))
	return b.String()
}
