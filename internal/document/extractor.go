package document

import (
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	stderrors "riskeval/internal/common/errors"
)

// maxDocumentBytes caps how much of an uploaded document is read. Financial
// statements relevant to the analysis fit comfortably under this limit.
const maxDocumentBytes = 2 << 20

// financialSections are the statement headings scanned for when classifying
// a document. Matching is case-insensitive and accent-tolerant where the
// heading commonly appears without diacritics.
var financialSections = map[string]*regexp.Regexp{
	"balance_general":      regexp.MustCompile(`(?i)balance\s+general|estado\s+de\s+situaci[oó]n\s+financiera`),
	"estado_resultados":    regexp.MustCompile(`(?i)estado\s+de\s+resultados|p[eé]rdidas\s+y\s+ganancias`),
	"flujo_efectivo":       regexp.MustCompile(`(?i)flujo\s+de\s+efectivo|flujos?\s+de\s+caja`),
	"ratios_financieros":   regexp.MustCompile(`(?i)ratios?\s+financieros?|indicadores\s+financieros`),
	"notas_estados":        regexp.MustCompile(`(?i)notas\s+a\s+los\s+estados\s+financieros`),
	"informe_auditoria":    regexp.MustCompile(`(?i)informe\s+de\s+auditor[ií]a|dictamen\s+del\s+auditor`),
	"patrimonio":           regexp.MustCompile(`(?i)estado\s+de\s+cambios\s+en\s+el\s+patrimonio`),
	"ingresos_financieros": regexp.MustCompile(`(?i)ingresos\s+(operacionales|financieros)|ventas\s+netas`),
}

// Document is the extracted, analysis-ready view of an uploaded file.
type Document struct {
	Text     string   `json:"text"`
	Sections []string `json:"sections"`
	Chars    int      `json:"chars"`
}

// Extractor turns raw uploads into plain text suitable for prompt assembly.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the upload and validates that it carries usable text. It
// returns UNREADABLE_DOCUMENT when the content is empty, not valid UTF-8, or
// contains no printable characters.
func (e *Extractor) Extract(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxDocumentBytes))
	if err != nil {
		return nil, stderrors.NewUnreadableDocumentError("failed to read document content: " + err.Error())
	}

	if !utf8.Valid(raw) {
		return nil, stderrors.NewUnreadableDocumentError("document is not valid UTF-8 text")
	}

	text := normalize(string(raw))
	if text == "" {
		return nil, stderrors.NewUnreadableDocumentError("document contains no readable text")
	}

	return &Document{
		Text:     text,
		Sections: detectSections(text),
		Chars:    len(text),
	}, nil
}

// FromText wraps already-decoded text, applying the same validation as
// Extract. API callers that submit inline text instead of a file use this.
func (e *Extractor) FromText(text string) (*Document, error) {
	return e.Extract(strings.NewReader(text))
}

// normalize collapses whitespace noise typical of text dumped out of PDF
// converters: repeated blank lines, trailing spaces, form feeds.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\f", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// detectSections reports which financial statement headings appear in the
// text, in a stable order.
func detectSections(text string) []string {
	found := make([]string, 0, len(financialSections))
	for _, name := range sectionOrder {
		if financialSections[name].MatchString(text) {
			found = append(found, name)
		}
	}
	return found
}

var sectionOrder = []string{
	"balance_general",
	"estado_resultados",
	"flujo_efectivo",
	"patrimonio",
	"ratios_financieros",
	"notas_estados",
	"informe_auditoria",
	"ingresos_financieros",
}
