package analysis

import (
	"errors"

	"github.com/BetterCallFirewall/Sentinel/internal/llm"
)

var (
	ErrMissingAPIKey      = errors.New("api key is not configured")
	ErrNoFiles            = errors.New("no files to analyze")
	ErrReadFiles          = errors.New("failed to read files")
	ErrAnalysisInProgress = errors.New("an analysis is already in progress")
)

// Messages shown to the user for each error kind
const (
	MsgMissingAPIKey      = "Chave de API não configurada. Adicione sua chave do Google Gemini em Configurações."
	MsgReadFiles          = "Não foi possível ler os arquivos enviados."
	MsgInvalidAPIKey      = "A chave de API é inválida ou foi rejeitada. Verifique-a em Configurações."
	MsgAnalysisInProgress = "Uma análise já está em andamento."
	MsgAnalysisFailed     = "Não foi possível obter a análise. Tente novamente."
)

// UserMessage maps an error to the text shown in the dashboard
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingAPIKey):
		return MsgMissingAPIKey
	case errors.Is(err, ErrReadFiles):
		return MsgReadFiles
	case errors.Is(err, llm.ErrInvalidAPIKey):
		return MsgInvalidAPIKey
	case errors.Is(err, ErrAnalysisInProgress):
		return MsgAnalysisInProgress
	default:
		return MsgAnalysisFailed
	}
}
