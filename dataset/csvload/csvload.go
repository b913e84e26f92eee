// Package csvload reads collision feature tables from CSV (and XLSX)
// files into collision.Dataset values.
//
// GEOID and City are read as strings. Every other column is parsed as
// float64; empty, "NA" and "NaN" cells, as well as cells that do not
// parse, become NaN and are treated as missing downstream.
package csvload

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/collisionforest/collision"
	"github.com/YuminosukeSato/collisionforest/pkg/errors"
	"github.com/YuminosukeSato/collisionforest/pkg/log"
)

// MissingValues are the cell contents read as missing.
var MissingValues = []string{"", "NA", "NaN", "nan", "<nil>"}

func loadOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.Float),
		dataframe.WithTypes(map[string]series.Type{
			collision.IDColumn:   series.String,
			collision.CityColumn: series.String,
		}),
		dataframe.NaNValues(MissingValues),
	}
}

// ReadDataset parses CSV from r into a dataset labeled name.
func ReadDataset(name string, r io.Reader) (*collision.Dataset, error) {
	df := dataframe.ReadCSV(r, loadOptions()...)
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "read dataset %s", name)
	}
	return fromDataFrame(name, df)
}

// ReadFile opens path and reads it as CSV, or as the first sheet of a
// workbook when the extension is .xlsx.
func ReadFile(name, path string) (*collision.Dataset, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(name, path, "")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %s", name)
	}
	defer f.Close()
	return ReadDataset(name, f)
}

// ReadXLSX reads one sheet of a workbook. An empty sheet name selects the
// first sheet.
func ReadXLSX(name, path, sheet string) (*collision.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open workbook %s", path)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.NewValueError("ReadXLSX", "workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheet)
	}
	if len(rows) == 0 {
		return nil, errors.NewValueError("ReadXLSX", "sheet "+sheet+" is empty")
	}

	// GetRows trims trailing empty cells; pad every row to the header width.
	width := len(rows[0])
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row[:width]
	}

	df := dataframe.LoadRecords(rows, loadOptions()...)
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "read dataset %s", name)
	}
	return fromDataFrame(name, df)
}

func fromDataFrame(name string, df dataframe.DataFrame) (*collision.Dataset, error) {
	var hasID, hasCity bool
	var columns []string
	for _, c := range df.Names() {
		switch c {
		case collision.IDColumn:
			hasID = true
		case collision.CityColumn:
			hasCity = true
		default:
			columns = append(columns, c)
		}
	}
	if !hasID || !hasCity {
		return nil, errors.NewValueError("ReadDataset",
			"dataset "+name+" must have "+collision.IDColumn+" and "+collision.CityColumn+" columns")
	}

	ids := missingAsEmpty(df.Col(collision.IDColumn).Records())
	cities := missingAsEmpty(df.Col(collision.CityColumn).Records())
	values := make([][]float64, len(columns))
	for j, c := range columns {
		values[j] = df.Col(c).Float()
	}

	ds := collision.NewDataset(name, columns)
	row := make([]float64, len(columns))
	missing := 0
	for i := 0; i < df.Nrow(); i++ {
		for j := range columns {
			row[j] = values[j][i]
			if math.IsNaN(row[j]) {
				missing++
			}
		}
		if err := ds.AddRow(ids[i], cities[i], row); err != nil {
			return nil, err
		}
	}

	log.GetLoggerWithName("dataset.csvload").Debug("Dataset loaded",
		log.DatasetKey, name,
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, len(ds.FeatureColumns()),
		"missing_cells", missing,
	)
	return ds, nil
}

// missingAsEmpty maps gota's NaN string marker back to "".
func missingAsEmpty(recs []string) []string {
	for i, r := range recs {
		if r == "NaN" {
			recs[i] = ""
		}
	}
	return recs
}
