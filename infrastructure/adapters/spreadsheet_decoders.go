package adapters

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/domain"

	"github.com/xuri/excelize/v2"
)

const decodeOp = "decode spreadsheet"

var (
	zipMagic = []byte("PK\x03\x04")
	utf8BOM  = []byte("\xEF\xBB\xBF")
)

type delimitedDecoder struct {
	delimiter rune
}

func NewCSVDecoder() outbound.SpreadsheetDecoderPort {
	return &delimitedDecoder{delimiter: ','}
}

func NewTSVDecoder() outbound.SpreadsheetDecoderPort {
	return &delimitedDecoder{delimiter: '\t'}
}

func (d *delimitedDecoder) Decode(file *os.File) ([][]string, error) {
	reader := bufio.NewReader(file)
	head, _ := reader.Peek(len(zipMagic))
	if bytes.Equal(head, zipMagic) {
		return nil, domain.NewFormatError(decodeOp, "content is a sheet workbook, not delimited text")
	}
	if bom, _ := reader.Peek(len(utf8BOM)); bytes.Equal(bom, utf8BOM) {
		_, _ = reader.Discard(len(utf8BOM))
	}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = d.delimiter
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewParseError(decodeOp, err, "malformed delimited content")
		}
		rows = append(rows, record)
	}
	return rows, nil
}

type xlsxDecoder struct {
	logger outbound.LoggerPort
}

func NewXLSXDecoder(logger outbound.LoggerPort) outbound.SpreadsheetDecoderPort {
	return &xlsxDecoder{logger: logger}
}

// Decode reads the first sheet of the workbook.
func (d *xlsxDecoder) Decode(file *os.File) ([][]string, error) {
	head := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(file, head); err != nil || !bytes.Equal(head, zipMagic) {
		return nil, domain.NewFormatError(decodeOp, "content is not an xlsx workbook")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, domain.NewParseError(decodeOp, err, "failed to rewind upload")
	}

	workbook, err := excelize.OpenReader(file)
	if err != nil {
		return nil, domain.NewParseError(decodeOp, err, "unreadable workbook")
	}
	defer func(workbook *excelize.File) {
		err := workbook.Close()
		if err != nil {
			d.logger.Error(err, "Failed to close workbook")
		}
	}(workbook)

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.NewParseError(decodeOp, nil, "workbook has no sheets")
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, domain.NewParseError(decodeOp, err, "failed to read sheet %q", sheets[0])
	}
	return rows, nil
}
