package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain consumes row and error channels and returns all rows.
func drain(t *testing.T, rowCh <-chan []string, errCh <-chan error) [][]string {
	t.Helper()

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	require.NoError(t, <-errCh)
	return rows
}

func TestStreamCSV_SemicolonDefault(t *testing.T) {
	input := "GKZ;GEMEINDENAME\n10101;Eisenstadt\n10201;Rust\n"

	var header []string
	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})

	rows := drain(t, rowCh, errCh)
	header = <-headerCh

	assert.Equal(t, []string{"GKZ", "GEMEINDENAME"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"10101", "Eisenstadt"}, rows[0])
	assert.Equal(t, []string{"10201", "Rust"}, rows[1])
}

func TestStreamCSV_QuotedFields(t *testing.T) {
	input := "SKZ;STRASSENNAME\n\"1\";\"Doktor-Karl-Renner-Ring\"\n"

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{HasHeader: true})
	rows := drain(t, rowCh, errCh)

	require.Len(t, rows, 1)
	assert.Equal(t, "Doktor-Karl-Renner-Ring", rows[0][1])
}

func TestStreamCSV_CustomDelimiter(t *testing.T) {
	input := "a,b\n1,2\n"

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{Delimiter: ','})
	rows := drain(t, rowCh, errCh)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "2"}, rows[1])
}

func TestStreamCSV_TrimSpace(t *testing.T) {
	input := "x; y \n 1 ;2\n"

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{TrimSpace: true})
	rows := drain(t, rowCh, errCh)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "2"}, rows[1])
}

func TestStreamCSV_VariableFieldCounts(t *testing.T) {
	input := "a;b;c\n1;2\n1;2;3;4\n"

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{HasHeader: true})
	rows := drain(t, rowCh, errCh)

	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 2)
	assert.Len(t, rows[1], 4)
}

func TestStreamCSV_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a;b\n1;2\n"), CSVOptions{})
	for range rowCh {
	}
	assert.Error(t, <-errCh)
}
