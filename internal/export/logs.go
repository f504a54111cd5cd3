package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/agenthands/modelhub/internal/core/model"
)

const (
	LogsSheet     = "Extraction Logs"
	ContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxCellLength = 32000
)

var logHeaders = []string{
	"Created At",
	"Status",
	"Models",
	"Transcription Size",
	"Duration (ms)",
	"Audio Source",
	"Error",
	"Metadata",
	"Response",
}

// LogsXLSX renders extraction logs as a single sheet workbook.
func LogsXLSX(logs []model.ExtractionLog) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LogsSheet); err != nil {
		return nil, err
	}

	for i, h := range logHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(LogsSheet, cell, h)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(LogsSheet, 1, 1, style)
	}

	for i, l := range logs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(LogsSheet, cell, v)
		}

		names := make([]string, 0, len(l.ModelsUsed))
		for _, m := range l.ModelsUsed {
			names = append(names, m.Name)
		}

		write(1, l.CreatedAt.UTC().Format(time.RFC3339))
		write(2, string(l.Status))
		write(3, strings.Join(names, ", "))
		write(4, l.TranscriptionSize)
		write(5, l.DurationMs)
		write(6, l.AudioSource)
		write(7, l.ErrorMessage)
		write(8, jsonCell(l.Metadata))
		write(9, jsonCell(l.Response))
	}

	_ = f.SetColWidth(LogsSheet, "A", "A", 22)
	_ = f.SetColWidth(LogsSheet, "B", "B", 10)
	_ = f.SetColWidth(LogsSheet, "C", "C", 36)
	_ = f.SetColWidth(LogsSheet, "D", "E", 16)
	_ = f.SetColWidth(LogsSheet, "F", "F", 24)
	_ = f.SetColWidth(LogsSheet, "G", "I", 60)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// jsonCell keeps within the Excel cell limit.
func jsonCell(v map[string]any) string {
	if len(v) == 0 {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	if len(b) > maxCellLength {
		return string(b[:maxCellLength])
	}
	return string(b)
}
