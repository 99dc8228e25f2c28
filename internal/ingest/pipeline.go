// Package ingest turns raw spreadsheet/CSV exports into validated spend
// records: flexible date parsing, header reconciliation, provider and
// environment normalization, and per-row validation.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"cloudspend/internal/core"
)

// ErrWorkbookUnparseable is the hard ingestion failure: the buffer cannot be
// interpreted as a workbook at all. Per-row problems never produce it.
var ErrWorkbookUnparseable = errors.New("workbook unparseable")

// Options tune a single ingestion call.
type Options struct {
	// DefaultProvider overrides filename/sheet-name detection for source
	// files already known to be single-provider.
	DefaultProvider core.Provider
	// CollectRejections records a per-row reason for every skipped row.
	// The accepted set and rejected count are unaffected either way.
	CollectRejections bool
}

// Rejection describes one skipped row. Row is the 1-based spreadsheet row
// number including the header.
type Rejection struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result is the outcome of a structurally successful ingestion.
type Result struct {
	Records    []core.SpendRecord
	Rejected   int
	Rejections []Rejection
}

type sheetData struct {
	Name string
	Rows [][]string
}

// ParseSpreadsheet ingests a workbook or CSV buffer. Sheets and rows are
// processed in file order; invalid rows are silently dropped and counted.
// The only error returned is ErrWorkbookUnparseable (wrapped).
func ParseSpreadsheet(buf []byte, fileName string, opts Options) (Result, error) {
	sheets, err := readWorkbook(buf, fileName)
	if err != nil {
		return Result{}, err
	}

	res := Result{Records: make([]core.SpendRecord, 0)}
	batch := uuid.NewString()[:8]

	for si, sh := range sheets {
		if len(sh.Rows) < 2 {
			continue
		}
		detected := opts.DefaultProvider
		if detected == "" {
			detected, _ = core.DetectProvider(fileName + sh.Name)
		}
		header := sh.Rows[0]
		ctx := rowContext{SheetIndex: si, DetectedProvider: detected, BatchToken: batch}

		for ri, cells := range sh.Rows[1:] {
			if emptyCells(cells) {
				continue
			}
			rec, err := buildRecord(zipRow(header, cells), ri, ctx)
			if err != nil {
				res.Rejected++
				if opts.CollectRejections {
					res.Rejections = append(res.Rejections, Rejection{
						Sheet:  sh.Name,
						Row:    ri + 2,
						Reason: err.Error(),
					})
				}
				continue
			}
			res.Records = append(res.Records, rec)
		}
	}
	return res, nil
}

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

func readWorkbook(buf []byte, fileName string) ([]sheetData, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrWorkbookUnparseable)
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return readCSV(buf)
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return readXLSX(buf)
	default:
		if bytes.HasPrefix(buf, zipMagic) {
			return readXLSX(buf)
		}
		return readCSV(buf)
	}
}

func readXLSX(buf []byte) ([]sheetData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkbookUnparseable, err)
	}
	defer f.Close()

	var sheets []sheetData
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %s: %v", ErrWorkbookUnparseable, name, err)
		}
		sheets = append(sheets, sheetData{Name: name, Rows: rows})
	}
	return sheets, nil
}

// readCSV presents a CSV buffer as a single-sheet workbook. The synthetic
// sheet name matches what spreadsheet libraries assign to converted CSVs, so
// provider detection sees the same context either way.
func readCSV(buf []byte) ([]sheetData, error) {
	r := csv.NewReader(bytes.NewReader(buf))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkbookUnparseable, err)
	}
	return []sheetData{{Name: "Sheet1", Rows: rows}}, nil
}
