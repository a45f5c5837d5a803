package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// batchSize is the Graph JSON batching maximum.
const batchSize = 20

// Table is one Excel table: a header row plus its data rows.
type Table struct {
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

type rangeValues struct {
	Address string  `json:"address"`
	Values  [][]any `json:"values"`
}

func (s *Service) fetchRange(ctx context.Context, accessToken, path string) (*rangeValues, error) {
	raw, err := s.client.Get(ctx, path, accessToken)
	if err != nil {
		return nil, err
	}

	var parsed rangeValues
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, "drive decode range")
	}
	return &parsed, nil
}

// TableData reads the named table of a workbook: header row and data body are
// fetched concurrently, and a failure of either fails the whole read.
func (s *Service) TableData(ctx context.Context, accessToken string, loc Location, tableName string) (*Table, error) {
	base := loc.ItemPath() + "/workbook/tables/" + url.PathEscape(tableName)

	var (
		wg        sync.WaitGroup
		header    *rangeValues
		body      *rangeValues
		headerErr error
		bodyErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		header, headerErr = s.fetchRange(ctx, accessToken, base+"/headerRowRange?$select=values")
	}()
	go func() {
		defer wg.Done()
		body, bodyErr = s.fetchRange(ctx, accessToken, base+"/dataBodyRange?$select=values")
	}()
	wg.Wait()

	if headerErr != nil {
		return nil, headerErr
	}
	if bodyErr != nil {
		return nil, bodyErr
	}

	table := &Table{Headers: []string{}, Rows: [][]any{}}
	if len(header.Values) > 0 {
		for _, cell := range header.Values[0] {
			table.Headers = append(table.Headers, fmt.Sprintf("%v", cell))
		}
	}
	if body.Values != nil {
		table.Rows = body.Values
	}
	return table, nil
}

// ColorGrid is a worksheet used range with per-cell fill colors, row-major and
// congruent with Values.
type ColorGrid struct {
	Address string     `json:"address"`
	Values  [][]any    `json:"values"`
	Colors  [][]string `json:"colors"`
}

// UsedRangeWithColors reads a worksheet's used range and enriches every cell
// with its fill color via batched format requests.
func (s *Service) UsedRangeWithColors(ctx context.Context, accessToken string, loc Location, sheetName string) (*ColorGrid, error) {
	sheetPath := loc.ItemPath() + "/workbook/worksheets/" + url.PathEscape(sheetName)

	used, err := s.fetchRange(ctx, accessToken, sheetPath+"/usedRange?$select=address,values")
	if err != nil {
		return nil, err
	}

	grid := &ColorGrid{Address: used.Address, Values: used.Values, Colors: [][]string{}}
	if len(used.Values) == 0 {
		return grid, nil
	}

	startCol, startRow, err := rangeStart(used.Address)
	if err != nil {
		return nil, err
	}

	cells := make([]string, 0, len(used.Values)*len(used.Values[0]))
	for r := range used.Values {
		for c := range used.Values[r] {
			cells = append(cells, columnLetters(startCol+c)+strconv.Itoa(startRow+r))
		}
	}

	colors, err := s.fetchFillColors(ctx, accessToken, sheetPath, cells)
	if err != nil {
		return nil, err
	}

	i := 0
	for r := range used.Values {
		row := make([]string, len(used.Values[r]))
		for c := range used.Values[r] {
			row[c] = colors[i]
			i++
		}
		grid.Colors = append(grid.Colors, row)
	}
	return grid, nil
}

type batchRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	URL    string `json:"url"`
}

type batchResponse struct {
	Responses []struct {
		ID     string `json:"id"`
		Status int    `json:"status"`
		Body   struct {
			Color string `json:"color"`
		} `json:"body"`
	} `json:"responses"`
}

// fetchFillColors resolves the fill color of each cell through Graph's $batch
// endpoint. Ids run 1..N across the whole cell list so chunks merge back
// positionally; a failed sub-request leaves its cell empty.
func (s *Service) fetchFillColors(ctx context.Context, accessToken, sheetPath string, cells []string) ([]string, error) {
	colors := make([]string, len(cells))

	for offset := 0; offset < len(cells); offset += batchSize {
		end := offset + batchSize
		if end > len(cells) {
			end = len(cells)
		}

		requests := make([]batchRequest, 0, end-offset)
		for i := offset; i < end; i++ {
			requests = append(requests, batchRequest{
				ID:     strconv.Itoa(i + 1),
				Method: http.MethodGet,
				URL:    fmt.Sprintf("%s/range(address='%s')/format/fill?$select=color", sheetPath, cells[i]),
			})
		}

		raw, err := s.client.Do(ctx, http.MethodPost, "/$batch", accessToken, map[string]any{"requests": requests})
		if err != nil {
			return nil, err
		}

		var parsed batchResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, errors.Wrap(err, "drive decode batch response")
		}

		for _, resp := range parsed.Responses {
			id, err := strconv.Atoi(resp.ID)
			if err != nil || id < 1 || id > len(cells) {
				continue
			}
			if resp.Status == http.StatusOK {
				colors[id-1] = resp.Body.Color
			}
		}
	}
	return colors, nil
}

// columnLetters converts a 1-based column number to its spreadsheet letters:
// 1 is A, 26 is Z, 27 is AA, 702 is ZZ.
func columnLetters(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// rangeStart parses the top-left cell of a range address such as
// "Sheet1!B2:D10" into its 1-based column and row.
func rangeStart(address string) (col, row int, err error) {
	ref := address
	if idx := strings.LastIndex(ref, "!"); idx >= 0 {
		ref = ref[idx+1:]
	}
	if idx := strings.Index(ref, ":"); idx >= 0 {
		ref = ref[:idx]
	}

	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A'+1)
		i++
	}
	if col == 0 || i == len(ref) {
		return 0, 0, fmt.Errorf("drive: malformed range address %q", address)
	}

	row, err = strconv.Atoi(ref[i:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("drive: malformed range address %q", address)
	}
	return col, row, nil
}
