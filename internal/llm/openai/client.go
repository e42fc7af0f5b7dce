package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mfcosta/listings-tracker/internal/llm"
)

// ExtractText implements the OCR half of llm.DocumentExtractor using a
// vision chat/completions call. The document travels as a data-URI
// attachment; the model is told to transcribe, not to write.
func (c *Client) ExtractText(ctx context.Context, req llm.ExtractRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.ocr.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"uri_len", len(req.DocumentDataURI),
		"filename", req.FilenameHint,
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildOCRSystemPrompt()},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": "Extract all text from the attached document."},
				{"type": "image_url", "image_url": map[string]any{"url": req.DocumentDataURI}},
			}},
		},
	}

	content, err := c.chat(ctx, rid, body)
	if err != nil {
		c.log.Error("llm.ocr.failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}

	c.log.Info("llm.ocr.ok",
		"req_id", rid,
		"text_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// ExtractProperties implements the structured half of llm.DocumentExtractor.
// The response is sanitized record by record, then validated against the
// envelope schema before it is trusted.
func (c *Client) ExtractProperties(ctx context.Context, req llm.ExtractRequest) (llm.PropertiesEnvelope, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"uri_len", len(req.DocumentDataURI),
		"filename", req.FilenameHint,
	)

	schema := llm.BuildPropertiesJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildExtractionSystemPrompt()},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": llm.BuildExtractionUserPrompt(req.FilenameHint) +
					"\n\nReturn ONLY JSON that matches the provided schema."},
				{"type": "image_url", "image_url": map[string]any{"url": req.DocumentDataURI}},
			}},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	content, err := c.chat(ctx, rid, body)
	if err != nil {
		c.log.Error("llm.extract.failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.PropertiesEnvelope{}, nil, err
	}
	rawContent := []byte(content)

	cleaned, notes, err := llm.SanitizeEnvelope(rawContent, c.log)
	if err != nil {
		c.log.Error("llm.extract.sanitize_failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.PropertiesEnvelope{}, rawContent, fmt.Errorf("sanitize response: %w: %w", llm.ErrMalformedResponse, err)
	}
	if len(notes) > 0 {
		c.log.Warn("llm.extract.sanitize_applied", "req_id", rid, "notes", len(notes))
	}

	if err := llm.ValidateEnvelope(cleaned); err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(cleaned),
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.PropertiesEnvelope{}, cleaned, fmt.Errorf("schema validation failed: %w: %w", llm.ErrMalformedResponse, err)
	}

	var out llm.PropertiesEnvelope
	if err := json.Unmarshal(cleaned, &out); err != nil {
		c.log.Error("llm.extract.unmarshal_failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.PropertiesEnvelope{}, cleaned, fmt.Errorf("unmarshal envelope: %w: %w", llm.ErrMalformedResponse, err)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"properties", len(out.Properties),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, cleaned, nil
}

// chat posts a chat/completions body and returns the first choice's
// trimmed content.
func (c *Client) chat(ctx context.Context, rid string, body map[string]any) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	raw, err := llm.PostJSON(ctx, c.httpClient, rid, endpoint, body, headers, c.log)
	if err != nil {
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
