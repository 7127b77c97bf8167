package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"riskeval/internal/models"
)

// Renderer produces the Markdown evaluation report delivered to analysts.
// Degraded stages are marked explicitly so a reader can tell substituted
// fallback content from real analysis.
type Renderer struct {
	outputDir string
}

func NewRenderer(outputDir string) *Renderer {
	return &Renderer{outputDir: outputDir}
}

// Render builds the full Markdown document for a finished evaluation.
func (r *Renderer) Render(record *models.EvaluationRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Reporte de Evaluación Financiera\n\n")
	fmt.Fprintf(&b, "**Empresa:** %s\n\n", record.CompanyName)
	fmt.Fprintf(&b, "**Sector:** %s\n\n", record.Sector)
	fmt.Fprintf(&b, "**Fecha:** %s\n\n", record.CreatedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "**Sesión:** `%s`\n\n", record.SessionID)

	fmt.Fprintf(&b, "## Calificación General\n\n")
	fmt.Fprintf(&b, "- **Nivel de riesgo:** %s\n", record.OverallRiskLevel)
	fmt.Fprintf(&b, "- **Puntuación:** %d / 100\n\n", record.OverallScore)

	if record.ExecutiveSummary != "" {
		fmt.Fprintf(&b, "## Resumen Ejecutivo\n\n%s\n\n", record.ExecutiveSummary)
	}

	for _, cat := range models.Categories() {
		sr, ok := record.Stage(cat)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", cat.Title())
		if sr.Degraded() {
			b.WriteString("> ⚠️ Análisis degradado: contenido sustituido por valores neutros.\n\n")
		}
		renderPayload(&b, sr.Payload)
	}

	r.renderApprover(&b, record.ApproverProfile)

	return b.String()
}

// Write renders the record and saves it under the configured output directory
// using the conventional file name. It returns the written path.
func (r *Renderer) Write(record *models.EvaluationRecord) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(r.outputDir, FileName(record.CompanyName, record.CreatedAt))
	if err := os.WriteFile(path, []byte(r.Render(record)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func (r *Renderer) renderApprover(b *strings.Builder, profile models.ApproverProfile) {
	fmt.Fprintf(b, "## Perfil de Aprobador Requerido\n\n")
	fmt.Fprintf(b, "| Campo | Valor |\n|---|---|\n")
	fmt.Fprintf(b, "| Perfil | %s |\n", profile.Profile)
	fmt.Fprintf(b, "| Experiencia mínima | %s |\n", profile.MinExperience)
	fmt.Fprintf(b, "| Especialidad | %s |\n", profile.Specialty)
	fmt.Fprintf(b, "| Autoridad de aprobación | %s |\n", profile.Authority)
	fmt.Fprintf(b, "| Supervisión | %s |\n\n", profile.Supervision)
}

// renderPayload flattens the stage payload into readable Markdown. String
// fields become paragraphs, lists become bullet points and nested objects
// become fenced JSON so numeric ratio tables stay legible.
func renderPayload(b *strings.Builder, payload map[string]interface{}) {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch v := payload[key].(type) {
		case string:
			fmt.Fprintf(b, "**%s:** %s\n\n", fieldTitle(key), v)
		case []interface{}:
			if len(v) == 0 {
				continue
			}
			fmt.Fprintf(b, "**%s:**\n\n", fieldTitle(key))
			for _, item := range v {
				fmt.Fprintf(b, "- %v\n", item)
			}
			b.WriteString("\n")
		case map[string]interface{}:
			if len(v) == 0 {
				continue
			}
			fmt.Fprintf(b, "**%s:**\n\n", fieldTitle(key))
			pretty, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				continue
			}
			fmt.Fprintf(b, "```json\n%s\n```\n\n", pretty)
		default:
			fmt.Fprintf(b, "**%s:** %v\n\n", fieldTitle(key), v)
		}
	}
}

func fieldTitle(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileName builds the conventional report file name for a company and
// timestamp, with unsafe characters stripped from the company portion.
func FileName(companyName string, ts time.Time) string {
	safe := unsafeFileChars.ReplaceAllString(strings.ReplaceAll(companyName, " ", "_"), "")
	if safe == "" {
		safe = "Empresa"
	}
	return fmt.Sprintf("Reporte_Financiero_%s_%s.md", safe, ts.Format("20060102_150405"))
}
