package services

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"voice-campaign-api/application/ports/inbound"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/domain"
	"voice-campaign-api/infrastructure/adapters"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestIngestor(t *testing.T) (*customerIngestor, string) {
	t.Helper()
	logger := adapters.NewNopLogger()
	ingestor := NewCustomerIngestor(logger, map[inbound.SpreadsheetFormat]outbound.SpreadsheetDecoderPort{
		inbound.CSVFormat:  adapters.NewCSVDecoder(),
		inbound.TSVFormat:  adapters.NewTSVDecoder(),
		inbound.XLSXFormat: adapters.NewXLSXDecoder(logger),
	}, 1<<20).(*customerIngestor)
	ingestor.tempDir = t.TempDir()
	return ingestor, ingestor.tempDir
}

func assertBufferReleased(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary upload buffer was not removed")
}

func workbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for r, row := range rows {
		for c, value := range row {
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", name, value))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestCustomerIngestor_XLSX(t *testing.T) {
	ingestor, dir := newTestIngestor(t)
	content := workbook(t, [][]interface{}{
		{"name", "phone"},
		{"Ayşe", "+905551112233"},
		{"Mehmet", "+905559998877"},
	})

	records, err := ingestor.Ingest(context.Background(), inbound.IngestCustomersParams{
		FileName: "customers.xlsx",
		Body:     bytes.NewReader(content),
	})
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, domain.CustomerRecord{Index: 0, Name: "Ayşe", Phone: "+905551112233", Attributes: map[string]string{}}, records[0])
	assert.Equal(t, domain.CustomerRecord{Index: 1, Name: "Mehmet", Phone: "+905559998877", Attributes: map[string]string{}}, records[1])
	assertBufferReleased(t, dir)
}

func TestCustomerIngestor_CSVWithLocaleColumnsAndAttributes(t *testing.T) {
	ingestor, dir := newTestIngestor(t)
	body := "\xEF\xBB\xBFAd,Telefon,Şehir\n" +
		"Ayşe,+90 555 111 22 33,İstanbul\n" +
		",,\n" +
		"Mehmet,+905559998877,\n"

	records, err := ingestor.Ingest(context.Background(), inbound.IngestCustomersParams{
		FileName: "musteriler.csv",
		Body:     strings.NewReader(body),
	})
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "+90 555 111 22 33", records[0].Phone, "ingestion does not normalize numbers")
	assert.Equal(t, map[string]string{"Şehir": "İstanbul"}, records[0].Attributes)
	assert.Equal(t, 1, records[1].Index)
	assert.Empty(t, records[1].Attributes)
	assertBufferReleased(t, dir)
}

func TestCustomerIngestor_TSV(t *testing.T) {
	ingestor, _ := newTestIngestor(t)

	records, err := ingestor.Ingest(context.Background(), inbound.IngestCustomersParams{
		FileName: "export.txt",
		Format:   inbound.TSVFormat,
		Body:     strings.NewReader("İSİM\tPHONE NUMBER\nAyşe\t+905551112233\n"),
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Ayşe", records[0].Name)
}

func TestCustomerIngestor_MissingColumns(t *testing.T) {
	uploads := map[string]string{
		"missing phone": "name,email\nAyşe,a@example.com\n",
		"missing name":  "phone\n+905551112233\n",
		"empty":         "\n\n",
	}
	for name, body := range uploads {
		t.Run(name, func(t *testing.T) {
			ingestor, dir := newTestIngestor(t)
			records, err := ingestor.Ingest(context.Background(), inbound.IngestCustomersParams{
				FileName: "customers.csv",
				Body:     strings.NewReader(body),
			})
			assert.True(t, domain.IsKind(err, domain.SchemaErrorKind), "got %v", err)
			assert.Nil(t, records)
			assertBufferReleased(t, dir)
		})
	}
}

func TestCustomerIngestor_MissingColumnsInWorkbook(t *testing.T) {
	ingestor, dir := newTestIngestor(t)
	content := workbook(t, [][]interface{}{{"name", "city"}, {"Ayşe", "Ankara"}})

	records, err := ingestor.Ingest(context.Background(), inbound.IngestCustomersParams{FileName: "c.xlsx", Body: bytes.NewReader(content)})
	assert.True(t, domain.IsKind(err, domain.SchemaErrorKind))
	assert.Nil(t, records)
	assertBufferReleased(t, dir)
}

func TestCustomerIngestor_ParseError(t *testing.T) {
	ingestor, dir := newTestIngestor(t)

	_, err := ingestor.Ingest(context.Background(), inbound.IngestCustomersParams{
		FileName: "customers.csv",
		Body:     strings.NewReader("name,phone\n\"Ayşe,+905551112233\n"),
	})
	assert.True(t, domain.IsKind(err, domain.ParseErrorKind), "got %v", err)
	assertBufferReleased(t, dir)
}

func TestCustomerIngestor_FormatErrors(t *testing.T) {
	cases := []inbound.IngestCustomersParams{
		{FileName: "legacy.xls", Body: strings.NewReader("x")},
		{FileName: "notes.pdf", Body: strings.NewReader("x")},
		{FileName: "customers.xlsx", Body: strings.NewReader("name,phone\nA,+905551112233\n")},
		{FileName: "customers.bin", Format: "parquet", Body: strings.NewReader("x")},
	}
	for _, params := range cases {
		t.Run(params.FileName, func(t *testing.T) {
			ingestor, dir := newTestIngestor(t)
			_, err := ingestor.Ingest(context.Background(), params)
			assert.True(t, domain.IsKind(err, domain.FormatErrorKind), "got %v", err)
			assert.True(t, domain.IsValidation(err))
			assertBufferReleased(t, dir)
		})
	}
}

func TestCustomerIngestor_RowMissingValues(t *testing.T) {
	ingestor, dir := newTestIngestor(t)

	_, err := ingestor.Ingest(context.Background(), inbound.IngestCustomersParams{
		FileName: "customers.csv",
		Body:     strings.NewReader("name,phone\nAyşe,\n"),
	})
	assert.True(t, domain.IsKind(err, domain.ValidationErrorKind))
	assert.Contains(t, err.Error(), "row 2")
	assertBufferReleased(t, dir)
}

func TestCustomerIngestor_UploadTooLarge(t *testing.T) {
	ingestor, dir := newTestIngestor(t)
	ingestor.maxBytes = 8

	_, err := ingestor.Ingest(context.Background(), inbound.IngestCustomersParams{
		FileName: "customers.csv",
		Body:     strings.NewReader("name,phone\nAyşe,+905551112233\n"),
	})
	assert.True(t, domain.IsKind(err, domain.ValidationErrorKind))
	assertBufferReleased(t, dir)
}
