package outbound

import "os"

// SpreadsheetDecoderPort reads every row of a spooled upload, header row
// first.
type SpreadsheetDecoderPort interface {
	Decode(file *os.File) ([][]string, error)
}
