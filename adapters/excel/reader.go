package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"liftbot/domain/abtest"
	"liftbot/domain/core"

	"github.com/xuri/excelize/v2"
)

// Required dataset columns, one row per store/experiment observation.
var requiredColumns = []string{
	"experimento",
	"tienda_id",
	"region",
	"tipo_tienda",
	"usuarios",
	"conversiones",
	"revenue",
	"conversion_rate",
}

// DataReader reads the A/B-testing dataset from CSV or XLSX files.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader for the given path; the format is picked
// from the file extension.
func NewDataReader(filePath string) *DataReader {
	fileType := "csv"
	if strings.ToLower(filepath.Ext(filePath)) == ".xlsx" {
		fileType = "xlsx"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadData loads and validates all records. Malformed input (missing columns,
// unparseable numbers, conversions exceeding users) is fatal.
func (r *DataReader) ReadData() ([]abtest.Record, error) {
	log.Printf("[DataReader] Reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, core.NewDataFormatError("dataset file not found: " + r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "xlsx":
		rows, err = r.readXLSXRows()
	default:
		rows, err = r.readCSVRows()
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, core.NewDataFormatError("dataset has no data rows")
	}

	cols, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]abtest.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRecord(row, cols, i)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}

	log.Printf("[DataReader] Loaded %d records", len(records))
	return records, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, core.NewDataFormatError("open dataset: " + err.Error())
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, core.NewDataFormatError("parse csv: " + err.Error())
	}
	return rows, nil
}

func (r *DataReader) readXLSXRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, core.NewDataFormatError("open xlsx: " + err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.NewDataFormatError("xlsx file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, core.NewDataFormatError("read xlsx rows: " + err.Error())
	}
	return rows, nil
}

// columnIndex validates the header and maps column name to position.
func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, core.NewDataFormatError("missing required columns: " + strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRecord(row []string, cols map[string]int, rowIdx int) (abtest.Record, error) {
	cell := func(name string) string {
		i := cols[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	users, err := strconv.Atoi(cell("usuarios"))
	if err != nil || users < 0 {
		return abtest.Record{}, core.NewDataFormatError("invalid usuarios value: " + cell("usuarios"))
	}
	conversions, err := strconv.Atoi(cell("conversiones"))
	if err != nil || conversions < 0 {
		return abtest.Record{}, core.NewDataFormatError("invalid conversiones value: " + cell("conversiones"))
	}
	if conversions > users {
		return abtest.Record{}, core.NewDataFormatError(
			fmt.Sprintf("conversiones (%d) exceed usuarios (%d)", conversions, users))
	}
	revenue, err := strconv.ParseFloat(cell("revenue"), 64)
	if err != nil || revenue < 0 {
		return abtest.Record{}, core.NewDataFormatError("invalid revenue value: " + cell("revenue"))
	}
	rate, err := strconv.ParseFloat(cell("conversion_rate"), 64)
	if err != nil || rate < 0 {
		return abtest.Record{}, core.NewDataFormatError("invalid conversion_rate value: " + cell("conversion_rate"))
	}

	rec := abtest.Record{
		Experiment:     cell("experimento"),
		StoreID:        cell("tienda_id"),
		Region:         cell("region"),
		StoreType:      cell("tipo_tienda"),
		Users:          users,
		Conversions:    conversions,
		Revenue:        revenue,
		ConversionRate: rate, // trusted as given, never recomputed
	}
	if rec.Experiment == "" || rec.StoreID == "" {
		return abtest.Record{}, core.NewDataFormatError("experimento and tienda_id must not be empty")
	}
	rec.ID = core.NewRecordID(rec.Experiment, rec.StoreID, rowIdx)
	rec.Description = abtest.Describe(rec)
	return rec, nil
}
