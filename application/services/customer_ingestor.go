package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"voice-campaign-api/application/ports/inbound"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/domain"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const ingestOp = "ingest customers"

var (
	nameColumnAliases  = []string{"name", "full name", "fullname", "customer", "customer name", "ad", "ad soyad", "adı", "adi", "isim", "müşteri", "musteri"}
	phoneColumnAliases = []string{"phone", "phone number", "phone_number", "mobile", "telephone", "tel", "telefon", "telefon numarası", "telefon no", "gsm", "cep", "cep telefonu"}
)

var extensionFormats = map[string]inbound.SpreadsheetFormat{
	".csv":  inbound.CSVFormat,
	".tsv":  inbound.TSVFormat,
	".tab":  inbound.TSVFormat,
	".xlsx": inbound.XLSXFormat,
}

type customerIngestor struct {
	logger   outbound.LoggerPort
	decoders map[inbound.SpreadsheetFormat]outbound.SpreadsheetDecoderPort
	maxBytes int64
	tempDir  string
}

func NewCustomerIngestor(logger outbound.LoggerPort, decoders map[inbound.SpreadsheetFormat]outbound.SpreadsheetDecoderPort,
	maxBytes int64) inbound.CustomerIngestorPort {
	return &customerIngestor{
		logger:   logger,
		decoders: decoders,
		maxBytes: maxBytes,
	}
}

func (s *customerIngestor) Ingest(ctx context.Context, params inbound.IngestCustomersParams) ([]domain.CustomerRecord, error) {
	format, err := s.resolveFormat(params)
	if err != nil {
		return nil, err
	}
	decoder, ok := s.decoders[format]
	if !ok {
		return nil, domain.NewFormatError(ingestOp, "no decoder registered for %q", format)
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.NewCancelledError(ingestOp, err)
	}

	file, err := s.spool(params.Body)
	if err != nil {
		return nil, err
	}
	defer func(file *os.File) {
		err := file.Close()
		if err != nil {
			s.logger.Error(err, "Failed to close customer upload buffer")
		}
		err = os.Remove(file.Name())
		if err != nil {
			s.logger.Error(err, "Failed to remove customer upload buffer")
		}
	}(file)

	rows, err := decoder.Decode(file)
	if err != nil {
		s.logger.WarnWithFields("Customer upload could not be decoded", map[string]interface{}{
			"file":   params.FileName,
			"format": format,
			"error":  err.Error(),
		})
		return nil, err
	}

	records, err := s.toRecords(rows)
	if err != nil {
		return nil, err
	}

	s.logger.InfoWithFields("Customers ingested", map[string]interface{}{
		"file":    params.FileName,
		"format":  format,
		"records": len(records),
	})
	return records, nil
}

func (s *customerIngestor) resolveFormat(params inbound.IngestCustomersParams) (inbound.SpreadsheetFormat, error) {
	if params.Format != "" {
		format := inbound.SpreadsheetFormat(strings.ToLower(string(params.Format)))
		if _, ok := s.decoders[format]; !ok {
			return "", domain.NewFormatError(ingestOp, "unsupported format %q", params.Format)
		}
		return format, nil
	}

	ext := strings.ToLower(filepath.Ext(params.FileName))
	if ext == ".xls" {
		return "", domain.NewFormatError(ingestOp, "legacy .xls workbooks are not supported, save the file as .xlsx or .csv")
	}
	format, ok := extensionFormats[ext]
	if !ok {
		return "", domain.NewFormatError(ingestOp, "unsupported file extension %q", ext)
	}
	return format, nil
}

// spool copies the upload into a temporary file so decoders can seek it.
// The caller owns closing and removing the file.
func (s *customerIngestor) spool(body io.Reader) (*os.File, error) {
	if body == nil {
		return nil, domain.NewValidationError(ingestOp, "empty upload")
	}

	file, err := os.CreateTemp(s.tempDir, "customers-*")
	if err != nil {
		s.logger.Error(err, "Failed to create customer upload buffer")
		return nil, domain.NewParseError(ingestOp, err, "failed to buffer upload")
	}

	cleanup := func() {
		_ = file.Close()
		_ = os.Remove(file.Name())
	}

	reader := body
	if s.maxBytes > 0 {
		reader = io.LimitReader(body, s.maxBytes+1)
	}
	written, err := io.Copy(file, reader)
	if err != nil {
		cleanup()
		return nil, domain.NewParseError(ingestOp, err, "failed to read upload")
	}
	if s.maxBytes > 0 && written > s.maxBytes {
		cleanup()
		return nil, domain.NewValidationError(ingestOp, "upload exceeds %d bytes", s.maxBytes)
	}
	if written == 0 {
		cleanup()
		return nil, domain.NewValidationError(ingestOp, "empty upload")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, domain.NewParseError(ingestOp, err, "failed to rewind upload")
	}
	return file, nil
}

func (s *customerIngestor) toRecords(rows [][]string) ([]domain.CustomerRecord, error) {
	headerAt := -1
	for i, row := range rows {
		if !isBlankRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, domain.NewSchemaError(ingestOp, "spreadsheet has no header row")
	}

	header := rows[headerAt]
	nameCol, phoneCol := -1, -1
	for i, column := range header {
		switch {
		case nameCol < 0 && matchesColumn(column, nameColumnAliases):
			nameCol = i
		case phoneCol < 0 && matchesColumn(column, phoneColumnAliases):
			phoneCol = i
		}
	}

	var missing []string
	if nameCol < 0 {
		missing = append(missing, "name")
	}
	if phoneCol < 0 {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return nil, domain.NewSchemaError(ingestOp, "required column(s) missing: %s", strings.Join(missing, ", "))
	}

	records := make([]domain.CustomerRecord, 0, len(rows)-headerAt-1)
	for rowNumber := headerAt + 1; rowNumber < len(rows); rowNumber++ {
		row := rows[rowNumber]
		if isBlankRow(row) {
			continue
		}

		name := strings.TrimSpace(cell(row, nameCol))
		phone := strings.TrimSpace(cell(row, phoneCol))
		if name == "" || phone == "" {
			return nil, domain.NewValidationError(ingestOp, "row %d must have a non-empty name and phone", rowNumber+1)
		}

		attributes := make(map[string]string)
		for i, column := range header {
			key := strings.TrimSpace(column)
			if i == nameCol || i == phoneCol || key == "" {
				continue
			}
			if value := strings.TrimSpace(cell(row, i)); value != "" {
				attributes[key] = value
			}
		}

		records = append(records, domain.CustomerRecord{
			Index:      len(records),
			Name:       name,
			Phone:      phone,
			Attributes: attributes,
		})
	}

	return records, nil
}

func matchesColumn(column string, aliases []string) bool {
	column = strings.Join(strings.Fields(column), " ")
	candidates := []string{
		cases.Lower(language.Und).String(column),
		cases.Lower(language.Turkish).String(column),
	}
	for _, candidate := range candidates {
		for _, alias := range aliases {
			if candidate == alias {
				return true
			}
		}
	}
	return false
}

func cell(row []string, index int) string {
	if index < len(row) {
		return row[index]
	}
	return ""
}

func isBlankRow(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
