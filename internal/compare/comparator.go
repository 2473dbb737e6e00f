// Package compare produces a page-wise structured diff of two PDF documents.
package compare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"docportal/internal/domain"
	"docportal/internal/extract"
	"docportal/internal/providers"
)

// NoChange marks a page without differences.
const NoChange = "NO CHANGE"

// Row is one page of the comparison.
type Row struct {
	Page    string `json:"Page"`
	Changes string `json:"Changes"`
}

// UnmarshalJSON accepts the page as a string or a number.
func (r *Row) UnmarshalJSON(data []byte) error {
	var raw struct {
		Page    json.RawMessage `json:"Page"`
		Changes string          `json:"Changes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Changes = raw.Changes
	r.Page = ""
	if len(raw.Page) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Page, &s); err == nil {
		r.Page = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.Page, &n); err != nil {
		return fmt.Errorf("field Page must be a string or number, got %s", raw.Page)
	}
	r.Page = n.String()
	return nil
}

const formatInstructions = `Return only a JSON array. Each element is an object with exactly these string fields:
  "Page": the page number the change was found on
  "Changes": a description of the differences on that page, or "NO CHANGE"
Example: [{"Page": "1", "Changes": "NO CHANGE"}, {"Page": "2", "Changes": "Payment term changed from 30 to 45 days"}]`

const comparisonSystem = `You will be provided with the content of two PDF documents, a reference and an actual version.
1. Compare the content of the two documents.
2. Identify the differences and note the page number where each occurs.
3. Report the comparison page by page.
4. If a page has no change, report it as "NO CHANGE".`

const comparisonUser = `Input documents:
{documents}

{format_instructions}`

const repairUser = `The output below does not satisfy the required format.

Error: {error}

Required format:
{format_instructions}

Output:
{output}

Return only the corrected JSON.`

// Comparator asks the model for a page-wise diff and parses it into rows.
type Comparator struct {
	model     providers.ChatModel
	extractor *extract.Registry
	compare   prompt.ChatTemplate
	repair    prompt.ChatTemplate
	logger    *slog.Logger
}

func NewComparator(model providers.ChatModel, extractor *extract.Registry, logger *slog.Logger) *Comparator {
	return &Comparator{
		model:     model,
		extractor: extractor,
		compare: prompt.FromMessages(schema.FString,
			schema.SystemMessage(comparisonSystem),
			schema.UserMessage(comparisonUser),
		),
		repair: prompt.FromMessages(schema.FString,
			schema.UserMessage(repairUser),
		),
		logger: logger,
	}
}

// CompareFiles extracts both files and compares their text.
func (c *Comparator) CompareFiles(ctx context.Context, pair Pair) ([]Row, error) {
	reference, err := c.extractor.Extract(ctx, pair.Reference)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference: %w", err)
	}
	actual, err := c.extractor.Extract(ctx, pair.Actual)
	if err != nil {
		return nil, fmt.Errorf("failed to read actual: %w", err)
	}
	return c.Compare(ctx, reference, actual)
}

// Compare returns the page-wise differences between two document texts. An
// unparsable answer gets one repair attempt before ErrResponseFormat.
func (c *Comparator) Compare(ctx context.Context, reference, actual string) ([]Row, error) {
	msgs, err := c.compare.Format(ctx, map[string]any{
		"documents":           CombineDocuments(reference, actual),
		"format_instructions": formatInstructions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to format comparison prompt: %w", err)
	}

	resp, err := c.model.Generate(ctx, msgs)
	if err != nil {
		return nil, domain.Wrap(domain.ErrProvider, err, "compare documents")
	}

	output := content(resp)
	rows, parseErr := ParseRows(output)
	if parseErr == nil {
		return rows, nil
	}
	c.logger.Warn("comparison output rejected, repairing", "error", parseErr)

	msgs, err = c.repair.Format(ctx, map[string]any{
		"error":               parseErr.Error(),
		"format_instructions": formatInstructions,
		"output":              output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to format repair prompt: %w", err)
	}
	resp, err = c.model.Generate(ctx, msgs)
	if err != nil {
		return nil, domain.Wrap(domain.ErrProvider, err, "repair comparison output")
	}

	rows, err = ParseRows(content(resp))
	if err != nil {
		c.logger.Error("comparison output unusable after repair", "error", err)
		return nil, domain.Wrap(domain.ErrResponseFormat, err, "comparison output")
	}
	return rows, nil
}

// CombineDocuments labels and joins the two texts for the prompt.
func CombineDocuments(reference, actual string) string {
	var buf strings.Builder
	buf.WriteString("Reference document:\n<<<\n")
	buf.WriteString(reference)
	buf.WriteString("\n>>>\n\nActual document:\n<<<\n")
	buf.WriteString(actual)
	buf.WriteString("\n>>>")
	return buf.String()
}

// ParseRows decodes a JSON array of rows, tolerating a surrounding markdown
// code fence.
func ParseRows(output string) ([]Row, error) {
	text := stripFence(output)
	if text == "" {
		return nil, errors.New("output is empty")
	}

	var rows []Row
	if err := json.Unmarshal([]byte(text), &rows); err != nil {
		return nil, fmt.Errorf("output is not a JSON array of rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("output has no rows")
	}
	for i, r := range rows {
		if strings.TrimSpace(r.Page) == "" {
			return nil, fmt.Errorf("row %d has no Page", i)
		}
		if strings.TrimSpace(r.Changes) == "" {
			return nil, fmt.Errorf("row %d has no Changes", i)
		}
	}
	return rows, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func content(m *schema.Message) string {
	if m == nil {
		return ""
	}
	return m.Content
}
