// pkg/writer/csv_test.go
package writer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roadscope/accidents-pipeline/pkg/table"
)

func TestWriteToProducesHeaderAndRows(t *testing.T) {
	tbl, err := table.New([]string{"Latitude", "Severity", "City"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]table.Value{
		table.Number(39.865), table.Number(2), table.String("Dayton"),
	}))
	require.NoError(t, tbl.AppendRow([]table.Value{
		table.Number(40.1), table.Number(4), table.String("Columbus"),
	}))

	w, err := NewCSVWriter(zap.NewNop())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, w.WriteTo(&buf, tbl))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Latitude,Severity,City", lines[0])
	assert.Equal(t, "39.865,2,Dayton", lines[1])
	assert.Equal(t, "40.1,4,Columbus", lines[2])
}

func TestWriteToQuotesCommas(t *testing.T) {
	tbl, err := table.New([]string{"City"})
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]table.Value{table.String("Dayton, OH")}))

	w, err := NewCSVWriter(zap.NewNop())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, w.WriteTo(&buf, tbl))
	assert.Contains(t, buf.String(), `"Dayton, OH"`)
}

func TestWriteRejectsBadPath(t *testing.T) {
	tbl, err := table.New([]string{"a"})
	require.NoError(t, err)

	w, err := NewCSVWriter(zap.NewNop())
	require.NoError(t, err)

	err = w.Write("/nonexistent-dir/out.csv", tbl)
	assert.Error(t, err)
}

func TestNewCSVWriterRequiresLogger(t *testing.T) {
	_, err := NewCSVWriter(nil)
	assert.Error(t, err)
}
