package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mfcosta/listings-tracker/internal/entity"
)

// Service renders a record list into the formats the team shares with
// clients: XLSX, CSV, a Word-compatible HTML document, and raw JSON.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// column headers, in the order the team's spreadsheets use
var headers = []string{
	"Corretor", "Imobiliária", "Empreendimento", "Número", "Tipo", "Categorias", "Status",
	"Quartos", "Banheiros", "Suítes", "Lavabos",
	"Área Privativa (m²)", "Área Total (m²)", "Preço", "Condições de Pagamento",
	"Características Adicionais", "Tags", "Endereço", "Bairro", "Contato do Corretor",
	"Link de Fotos", "Link Material Extra",
}

func recordCells(r entity.PropertyRecord) []string {
	totalArea := ""
	if r.TotalAreaSqm != nil {
		totalArea = trimFloat(*r.TotalAreaSqm)
	}
	cats := make([]string, len(r.Categories))
	for i, c := range r.Categories {
		cats[i] = string(c)
	}
	return []string{
		r.BrokerName,
		r.AgencyName,
		r.PropertyName,
		r.UnitNumber,
		string(r.PropertyType),
		strings.Join(cats, ", "),
		string(r.Status),
		fmt.Sprintf("%d", r.Bedrooms),
		fmt.Sprintf("%d", r.Bathrooms),
		fmt.Sprintf("%d", r.Suites),
		fmt.Sprintf("%d", r.Lavabos),
		trimFloat(r.AreaSqm),
		totalArea,
		trimFloat(r.Price),
		r.PaymentTerms,
		r.AdditionalInfo,
		strings.Join(r.Tags, ", "),
		r.Address,
		r.Neighborhood,
		r.BrokerContact,
		r.PhotoLink,
		r.ExtraMaterialLink,
	}
}

// ExportXLSX returns a single-sheet workbook of the records.
func (s *Service) ExportXLSX(tableName string, records []entity.PropertyRecord) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Imóveis"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for row, r := range records {
		for col, v := range recordCells(r) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"table", tableName,
		"records", len(records),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// ExportCSV writes the same columns as the spreadsheet, UTF-8 BOM first so
// Excel opens the accents correctly.
func (s *Service) ExportCSV(records []entity.PropertyRecord) []byte {
	var b strings.Builder
	b.WriteString("\uFEFF") // BOM so Excel detects UTF-8

	escaped := make([]string, len(headers))
	for i, h := range headers {
		escaped[i] = escapeCSVCell(h)
	}
	b.WriteString(strings.Join(escaped, ","))
	b.WriteString("\n")

	for _, r := range records {
		cells := recordCells(r)
		for i, c := range cells {
			cells[i] = escapeCSVCell(c)
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// ExportWord produces the HTML-in-a-.doc document Word opens as a table.
func (s *Service) ExportWord(tableName string, records []entity.PropertyRecord) []byte {
	var b strings.Builder
	b.WriteString(`<html xmlns:o='urn:schemas-microsoft-com:office:office' xmlns:w='urn:schemas-microsoft-com:office:word' xmlns='http://www.w3.org/TR/REC-html40'>`)
	b.WriteString(`<head><meta charset='utf-8'><title>`)
	b.WriteString(htmlEscape(tableName))
	b.WriteString(`</title></head><body><h1>`)
	b.WriteString(htmlEscape(tableName))
	b.WriteString(`</h1><table border="1" style="border-collapse: collapse; width: 100%;"><thead><tr>`)
	for _, h := range headers {
		b.WriteString(`<th style="padding: 8px;">`)
		b.WriteString(htmlEscape(h))
		b.WriteString(`</th>`)
	}
	b.WriteString(`</tr></thead><tbody>`)
	for _, r := range records {
		b.WriteString(`<tr>`)
		for _, c := range recordCells(r) {
			b.WriteString(`<td style="padding: 8px;">`)
			b.WriteString(htmlEscape(c))
			b.WriteString(`</td>`)
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table></body></html>`)
	return []byte(b.String())
}

// ExportJSON returns the records as indented JSON.
func (s *Service) ExportJSON(records []entity.PropertyRecord) ([]byte, error) {
	return json.MarshalIndent(records, "", "  ")
}

func escapeCSVCell(cell string) string {
	if strings.ContainsAny(cell, ",\"\n") {
		return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
	}
	return cell
}

func htmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
