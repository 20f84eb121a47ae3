package service

import (
	"strings"

	"github.com/omeshsingh/bnsp/models"
)

const analysisTemplate = `You are an expert legal assistant for Indian Police Officers.
Your task is to analyze a crime description and suggest the most appropriate BNS sections based ONLY on the provided legal texts.
Provide a step-by-step reasoning for each section you suggest.

CRIME DESCRIPTION:
{description}

RELEVANT LEGAL TEXTS:
{context}

ANALYSIS:`

const synthesisTemplate = `What is the crime associated with Indian Penal Code (IPC) Section {ipc_section}? Provide a short, concise description (e.g., 'Punishment for murder').`

const mappingTemplate = `You are an expert legal assistant for Indian Police Officers.
Your task is to map an IPC (Indian Penal Code) section to the most relevant BNS (Bharatiya Nyaya Sanhita) section(s).
Use the provided IPC section number and its description to find the best-matching BNS section(s) from the legal texts provided as context.
Provide a step-by-step reasoning for your mapping.

IPC SECTION: {ipc_section}
DESCRIPTION: {description}

RELEVANT BNS LEGAL TEXTS (CONTEXT):
{context}

ANALYSIS:`

// Placeholders are substituted in a single pass, so user text containing "{context}" stays literal.

func renderAnalysisPrompt(description string, docs []models.SectionMetadata) string {
	return strings.NewReplacer(
		"{description}", description,
		"{context}", joinContext(docs),
	).Replace(analysisTemplate)
}

func renderSynthesisPrompt(ipcSection string) string {
	return strings.NewReplacer("{ipc_section}", ipcSection).Replace(synthesisTemplate)
}

func renderMappingPrompt(ipcSection, description string, docs []models.SectionMetadata) string {
	return strings.NewReplacer(
		"{ipc_section}", ipcSection,
		"{description}", description,
		"{context}", joinContext(docs),
	).Replace(mappingTemplate)
}

func joinContext(docs []models.SectionMetadata) string {
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.PageContent
	}
	return strings.Join(parts, "\n\n")
}
