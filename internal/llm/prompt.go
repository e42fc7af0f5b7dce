package llm

import "strings"

// BuildOCRSystemPrompt instructs the model to transcribe, not to write.
// Recall fidelity matters more than fluency here, so the rules are blunt.
func BuildOCRSystemPrompt() string {
	return strings.Join([]string{
		"You are an OCR engine.",
		"Extract ALL text from the document verbatim, preserving its structure (line breaks, tables, headings).",
		"Do not summarize, translate, or rephrase anything.",
		"Do not invent content for unreadable regions; skip them.",
		"Return the extracted text only, with no commentary.",
	}, " ")
}

// BuildExtractionSystemPrompt composes the multi-listing extraction
// instruction. The document may hold any number of listings; each becomes
// one object in the 'properties' array.
func BuildExtractionSystemPrompt() string {
	return strings.Join([]string{
		"You are an expert real estate data extraction specialist with OCR capabilities.",
		"You will receive a document (PDF, DOCX, or image) that may contain one or more property listings.",
		"First perform OCR if the document is an image or a scan, then identify EACH distinct property listed.",
		"For each property extract: broker/company name, agency name, property/development name, unit number,",
		"number of bedrooms, bathrooms, suites and lavabos (washrooms without shower),",
		"private area in square meters, total area in square meters, price, payment terms,",
		"additional features, property type (HOUSE, APARTMENT, LOT, OTHER),",
		"status (AVAILABLE, NEW_THIS_WEEK, CHANGED, SOLD_THIS_WEEK, SOLD_THIS_MONTH),",
		"categories (FRONT, SIDE, REAR, FURNISHED, STAGED, SEA_VIEW),",
		"broker contact (phone, email), photo gallery link, extra material link, full address, and neighborhood.",
		"Populate every field you can determine; omit fields that are not present in the document.",
		"Never output null and never guess values that are not visible.",
		"Return ONLY a single JSON object with a 'properties' key holding an array of property objects,",
		"matching the provided JSON Schema. If no properties are found, return an empty array.",
	}, " ")
}

// BuildExtractionUserPrompt packages the filename hint. The document itself
// travels as an attachment, not inline.
func BuildExtractionUserPrompt(filenameHint string) string {
	var b strings.Builder
	if f := strings.TrimSpace(filenameHint); f != "" {
		b.WriteString("Filename: ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString("The document is attached. Extract all property listings it contains.")
	return b.String()
}
