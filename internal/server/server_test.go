package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfcosta/listings-tracker/constants"
	"github.com/mfcosta/listings-tracker/internal/entity"
	"github.com/mfcosta/listings-tracker/internal/export"
	"github.com/mfcosta/listings-tracker/internal/extract"
	"github.com/mfcosta/listings-tracker/internal/llm"
	"github.com/mfcosta/listings-tracker/internal/merge"
	"github.com/mfcosta/listings-tracker/internal/repository"
)

const testDoc = "data:image/png;base64,aGVsbG8="

type scriptedExtractor struct {
	env  llm.PropertiesEnvelope
	err  error
	text string
}

func (s *scriptedExtractor) ExtractText(context.Context, llm.ExtractRequest) (string, error) {
	return s.text, nil
}

func (s *scriptedExtractor) ExtractProperties(context.Context, llm.ExtractRequest) (llm.PropertiesEnvelope, []byte, error) {
	return s.env, nil, s.err
}

func newTestServer(t *testing.T, extractor llm.DocumentExtractor) (*httptest.Server, repository.TableRepository) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	srv := New(
		repo, repo,
		extract.NewOrchestrator(extractor, 0, nil),
		merge.NewCommitter(repo, nil),
		export.NewService(nil),
		nil,
	)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, repo
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestImportFlow(t *testing.T) {
	extractor := &scriptedExtractor{env: llm.PropertiesEnvelope{Properties: []llm.PropertyFields{{
		BrokerName:   "Maria Souza",
		PropertyName: "Ed. Farol",
		PaymentTerms: "à vista",
		Price:        350000,
		AreaSqm:      72,
		Bedrooms:     2,
		PropertyType: "APARTAMENTO",
		Neighborhood: "Centro",
	}}}}
	ts, _ := newTestServer(t, extractor)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/tables", map[string]string{
		"owner_id": "owner-1", "name": "Minha Tabela",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tableID := body["id"].(string)

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/imports", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sessionID := body["session_id"].(string)

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/imports/"+sessionID+"/extract", map[string]string{
		"document_data_uri": testDoc, "filename": "tabela.png",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "STAGED", body["state"])
	assert.Len(t, body["candidates"], 1)

	// tweak one field during review
	resp, _ = doJSON(t, http.MethodPatch,
		fmt.Sprintf("%s/api/imports/%s/candidates/0", ts.URL, sessionID),
		map[string]string{"field": "price", "value": "380000"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/imports/"+sessionID+"/commit",
		map[string]string{"table_id": tableID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["committed"])

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/tables/"+tableID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	records := body["records"].([]any)
	require.Len(t, records, 1)
	first := records[0].(map[string]any)
	assert.Equal(t, float64(380000), first["price"])
	assert.Contains(t, first["tags"], "Centro")

	// the session is gone after commit
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/imports/"+sessionID+"/commit",
		map[string]string{"table_id": tableID})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestImportValidationBlocksCommit(t *testing.T) {
	extractor := &scriptedExtractor{env: llm.PropertiesEnvelope{Properties: []llm.PropertyFields{{
		PropertyName: "Sem Corretor",
		Price:        100000,
		AreaSqm:      50,
		PaymentTerms: "à vista",
	}}}}
	ts, _ := newTestServer(t, extractor)

	_, body := doJSON(t, http.MethodPost, ts.URL+"/api/tables", map[string]string{
		"owner_id": "owner-1", "name": "T",
	})
	tableID := body["id"].(string)

	_, body = doJSON(t, http.MethodPost, ts.URL+"/api/imports", nil)
	sessionID := body["session_id"].(string)

	doJSON(t, http.MethodPost, ts.URL+"/api/imports/"+sessionID+"/extract", map[string]string{
		"document_data_uri": testDoc, "filename": "x.png",
	})

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/imports/"+sessionID+"/commit",
		map[string]string{"table_id": tableID})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION", errObj["code"])

	// fix the missing field and retry on the same session
	doJSON(t, http.MethodPatch,
		fmt.Sprintf("%s/api/imports/%s/candidates/0", ts.URL, sessionID),
		map[string]string{"field": "broker_name", "value": "Maria Souza"})

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/imports/"+sessionID+"/commit",
		map[string]string{"table_id": tableID})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUpdateRecordRecomputesTags(t *testing.T) {
	ts, repo := newTestServer(t, &scriptedExtractor{})

	ctx := context.Background()
	table, err := repo.Create(ctx, "owner-1", "T")
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, table.ID, []entity.PropertyRecord{{
		ID:           "r1",
		BrokerName:   "Maria Souza",
		PropertyName: "Ed. Farol",
		PaymentTerms: "à vista",
		Price:        350000,
		AreaSqm:      72,
		PropertyType: constants.Apartment,
		Status:       constants.StatusAvailable,
		Neighborhood: "Centro",
		Tags:         []string{"Centro", "APARTMENT", "AVAILABLE"},
	}}))

	// edit the neighborhood; the body carries the stale tag list
	resp, body := doJSON(t, http.MethodPut,
		ts.URL+"/api/tables/"+table.ID+"/records/r1", map[string]any{
			"broker_name": "Maria Souza", "property_name": "Ed. Farol",
			"payment_terms": "à vista", "price": 350000, "area_sqm": 72,
			"property_type": "APARTMENT", "status": "AVAILABLE",
			"neighborhood": "Praia Brava",
			"tags":         []string{"Centro", "APARTMENT", "AVAILABLE"},
		})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["tags"], "Praia Brava")

	got, err := repo.Get(ctx, table.ID)
	require.NoError(t, err)
	require.Len(t, got.Records, 1)
	assert.Contains(t, got.Records[0].Tags, "Praia Brava")
	assert.Contains(t, got.Records[0].Tags, "APARTMENT")
}

func TestImportEmptyFallsBackToOCRText(t *testing.T) {
	extractor := &scriptedExtractor{text: "Ed. Farol\nApto 301 - R$ 350.000"}
	ts, _ := newTestServer(t, extractor)

	_, body := doJSON(t, http.MethodPost, ts.URL+"/api/imports", nil)
	sessionID := body["session_id"].(string)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/imports/"+sessionID+"/extract", map[string]string{
		"document_data_uri": testDoc, "filename": "x.png",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["empty"])
	assert.Contains(t, body["raw_text"], "Ed. Farol")
}

func TestInvalidDocumentRejectedBeforeExtraction(t *testing.T) {
	ts, _ := newTestServer(t, &scriptedExtractor{})

	_, body := doJSON(t, http.MethodPost, ts.URL+"/api/imports", nil)
	sessionID := body["session_id"].(string)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/imports/"+sessionID+"/extract", map[string]string{
		"document_data_uri": "data:video/mp4;base64,AAAA", "filename": "x.mp4",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "INVALID_INPUT", errObj["code"])
}

func TestShareFlow(t *testing.T) {
	ts, repo := newTestServer(t, &scriptedExtractor{})

	table, err := repo.Create(context.Background(), "owner-1", "T")
	require.NoError(t, err)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/tables/"+table.ID+"/share", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	shareID := body["share_id"].(string)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/shares/"+shareID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, shareID, body["id"])
}

func TestExportEndpoint(t *testing.T) {
	ts, repo := newTestServer(t, &scriptedExtractor{})
	table, err := repo.Create(context.Background(), "owner-1", "Minha Tabela")
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/api/tables/" + table.ID + "/export?format=csv")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Minha Tabela.csv")

	resp2, err := http.Get(ts.URL + "/api/tables/" + table.ID + "/export?format=vhs")
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}
