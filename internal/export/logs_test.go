package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/agenthands/modelhub/internal/core/model"
)

func TestLogsXLSX(t *testing.T) {
	logs := []model.ExtractionLog{
		{
			CreatedAt:         time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			Status:            model.StatusSuccess,
			ModelsUsed:        []model.ModelRef{{Name: "sentiment"}, {Name: "compliance"}},
			TranscriptionSize: 120,
			DurationMs:        840,
			AudioSource:       "call.wav",
			Response:          map[string]any{"sentiment": "positive"},
		},
		{
			CreatedAt:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
			Status:       model.StatusError,
			ErrorMessage: "model \"compliance\" failed after 3 attempts",
		},
	}

	data, err := LogsXLSX(logs)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(LogsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, logHeaders, rows[0])
	assert.Equal(t, "2024-03-01T10:00:00Z", rows[1][0])
	assert.Equal(t, "success", rows[1][1])
	assert.Equal(t, "sentiment, compliance", rows[1][2])
	assert.Equal(t, "120", rows[1][3])
	assert.Equal(t, "840", rows[1][4])
	assert.Equal(t, `{"sentiment":"positive"}`, rows[1][8])
	assert.Equal(t, "error", rows[2][1])
	assert.Contains(t, rows[2][6], "failed after 3 attempts")
}

func TestLogsXLSXEmpty(t *testing.T) {
	data, err := LogsXLSX(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(LogsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
