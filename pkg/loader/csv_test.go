// pkg/loader/csv_test.go
package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReadInfersCellTypes(t *testing.T) {
	input := strings.Join([]string{
		"ID,Severity,Start_Lat,Traffic_Signal,City",
		"A-1,2,39.865,True,Dayton",
		"A-2,3,,False,",
	}, "\n")

	l, err := NewCSVLoader(zap.NewNop())
	require.NoError(t, err)

	tbl, err := l.Read(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, []string{"ID", "Severity", "Start_Lat", "Traffic_Signal", "City"}, tbl.Columns())

	v, _ := tbl.Value(0, "ID")
	s, ok := v.Str()
	require.True(t, ok)
	assert.Equal(t, "A-1", s)

	v, _ = tbl.Value(0, "Severity")
	f, ok := v.Num()
	require.True(t, ok)
	assert.Equal(t, 2.0, f)

	v, _ = tbl.Value(0, "Traffic_Signal")
	b, ok := v.BoolVal()
	require.True(t, ok)
	assert.True(t, b)

	// Empty cells become null
	v, _ = tbl.Value(1, "Start_Lat")
	assert.True(t, v.IsNull())
	v, _ = tbl.Value(1, "City")
	assert.True(t, v.IsNull())
}

func TestReadRejectsEmptyInput(t *testing.T) {
	l, err := NewCSVLoader(zap.NewNop())
	require.NoError(t, err)

	_, err = l.Read(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadRejectsRaggedRecords(t *testing.T) {
	input := "a,b\n1,2,3\n"

	l, err := NewCSVLoader(zap.NewNop())
	require.NoError(t, err)

	_, err = l.Read(strings.NewReader(input))
	assert.Error(t, err)
}

func TestLoadMissingFileIsFatal(t *testing.T) {
	l, err := NewCSVLoader(zap.NewNop())
	require.NoError(t, err)

	_, err = l.Load(filepath.Join(t.TempDir(), "does-not-exist.csv"))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	content := "ID,Severity\nA-1,2\nA-2,4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	l, err := NewCSVLoader(zap.NewNop())
	require.NoError(t, err)

	tbl, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, 2, tbl.NumCols())
}

func TestNewCSVLoaderRequiresLogger(t *testing.T) {
	_, err := NewCSVLoader(nil)
	assert.Error(t, err)
}
