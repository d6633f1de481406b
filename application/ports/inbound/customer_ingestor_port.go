package inbound

import (
	"context"
	"io"
	"voice-campaign-api/domain"
)

type SpreadsheetFormat string

const (
	CSVFormat  SpreadsheetFormat = "csv"
	TSVFormat  SpreadsheetFormat = "tsv"
	XLSXFormat SpreadsheetFormat = "xlsx"
)

type IngestCustomersParams struct {
	FileName string
	Format   SpreadsheetFormat
	Body     io.Reader
}

type CustomerIngestorPort interface {
	Ingest(ctx context.Context, params IngestCustomersParams) ([]domain.CustomerRecord, error)
}
