package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mfcosta/listings-tracker/constants"
	"github.com/mfcosta/listings-tracker/internal/entity"
)

func sampleRecords() []entity.PropertyRecord {
	total := 120.0
	return []entity.PropertyRecord{
		{
			ID:           "abc-0",
			BrokerName:   "Maria Souza",
			AgencyName:   "Mar Azul",
			PropertyName: `Ed. "Farol", Torre A`,
			Bedrooms:     3,
			Bathrooms:    2,
			AreaSqm:      88.5,
			TotalAreaSqm: &total,
			Price:        520000,
			PaymentTerms: "entrada + 36x",
			PropertyType: constants.Apartment,
			Status:       constants.StatusAvailable,
			Categories:   []constants.PropertyCategory{constants.SeaView},
			Neighborhood: "Centro",
			Tags:         []string{"Centro", "Mar Azul"},
		},
	}
}

func TestExportCSV(t *testing.T) {
	s := NewService(nil)
	out := string(s.ExportCSV(sampleRecords()))

	// BOM first so Excel detects UTF-8
	require.True(t, strings.HasPrefix(out, "\uFEFF"))

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "\uFEFFCorretor,"))

	// a cell with comma and quotes is escaped, not split
	assert.Contains(t, lines[1], `"Ed. ""Farol"", Torre A"`)
	assert.Contains(t, lines[1], "88.5")
	assert.Contains(t, lines[1], "520000")
}

func TestExportXLSX(t *testing.T) {
	s := NewService(nil)
	data, err := s.ExportXLSX("Minha Tabela", sampleRecords())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Imóveis")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Corretor", rows[0][0])
	assert.Equal(t, "Maria Souza", rows[1][0])
	assert.Equal(t, `Ed. "Farol", Torre A`, rows[1][2])
}

func TestExportWord(t *testing.T) {
	s := NewService(nil)
	out := string(s.ExportWord("Tabela & Cia", sampleRecords()))

	assert.Contains(t, out, "<h1>Tabela &amp; Cia</h1>")
	assert.Contains(t, out, "Ed. &quot;Farol&quot;, Torre A")
	assert.Contains(t, out, "schemas-microsoft-com:office:word")
}

func TestExportJSON(t *testing.T) {
	s := NewService(nil)
	out, err := s.ExportJSON(sampleRecords())
	require.NoError(t, err)
	assert.Contains(t, string(out), `"property_name"`)
}

func TestTrimFloat(t *testing.T) {
	assert.Equal(t, "88.5", trimFloat(88.5))
	assert.Equal(t, "520000", trimFloat(520000))
	assert.Equal(t, "72.25", trimFloat(72.25))
	assert.Equal(t, "0", trimFloat(0))
}
