package testutil

import (
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/trezcool/gremuiv/core"
)

// NopLogger discards all output. Fatal panics so a test cannot silently
// pass through a fatal log call.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Enable(bool)                       {}
func (NopLogger) Debug(string, ...interface{})      {}
func (NopLogger) Info(string, ...interface{})       {}
func (NopLogger) Warn(string, ...interface{})       {}
func (NopLogger) Error(string, ...interface{})      {}
func (NopLogger) Fatal(msg string, _ ...interface{}) { panic(msg) }

// Cell is one value to set when building a workbook fixture.
type Cell struct {
	Sheet, Axis, Value string
}

// WriteWorkbook builds a workbook with the given sheets (in order; the
// first replaces the default sheet) and saves it at path.
func WriteWorkbook(t *testing.T, path string, sheets []string, cells []Cell) {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, name := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("WriteWorkbook() failed: %v", err)
			}
			continue
		}
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("WriteWorkbook() failed: %v", err)
		}
	}
	for _, c := range cells {
		if err := f.SetCellValue(c.Sheet, c.Axis, c.Value); err != nil {
			t.Fatalf("WriteWorkbook() failed: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("WriteWorkbook() failed: %v", err)
	}
}
