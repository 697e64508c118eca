package parser

import "errors"

// Excel and PDF are declared in the upload data model but their parsers are
// deliberate extension points: uploads of these types pass intake and fail
// at parse time with an explicit signal instead of being silently skipped.

// ErrExcelNotImplemented is returned for xls/xlsx uploads.
var ErrExcelNotImplemented = errors.New("excel parsing is not yet implemented")

// ErrPDFNotImplemented is returned for pdf uploads.
var ErrPDFNotImplemented = errors.New("pdf parsing is not yet implemented")

func ParseExcel(_ []byte) (*Table, error) {
	return nil, ErrExcelNotImplemented
}

func ParsePDF(_ []byte) (*Table, error) {
	return nil, ErrPDFNotImplemented
}
