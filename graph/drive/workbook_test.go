package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nverhoeven/taskpilot/graph"
	"github.com/nverhoeven/taskpilot/internal/kvstore"
)

type testGraphConfig struct {
	baseURL string
}

func (c testGraphConfig) GetMicrosoftClientID() string     { return "client-id" }
func (c testGraphConfig) GetMicrosoftClientSecret() string { return "client-secret" }
func (c testGraphConfig) GetMicrosoftRedirectURI() string  { return "http://localhost/callback" }
func (c testGraphConfig) GetMicrosoftScopes() string       { return "Files.Read" }
func (c testGraphConfig) GetMicrosoftAuthURL() string      { return c.baseURL + "/authorize" }
func (c testGraphConfig) GetMicrosoftTokenURL() string     { return c.baseURL + "/token" }
func (c testGraphConfig) GetMicrosoftIssuer() string       { return c.baseURL }
func (c testGraphConfig) GetGraphBaseURL() string          { return c.baseURL }

func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewService(graph.New(testGraphConfig{baseURL: srv.URL}), kvstore.NewInMemoryStore())
}

func TestColumnLetters(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "A"},
		{2, "B"},
		{26, "Z"},
		{27, "AA"},
		{28, "AB"},
		{52, "AZ"},
		{53, "BA"},
		{702, "ZZ"},
		{703, "AAA"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, columnLetters(tc.n), "column %d", tc.n)
	}
}

func TestRangeStart(t *testing.T) {
	col, row, err := rangeStart("Sheet1!B2:D10")
	require.NoError(t, err)
	require.Equal(t, 2, col)
	require.Equal(t, 2, row)

	col, row, err = rangeStart("AA10")
	require.NoError(t, err)
	require.Equal(t, 27, col)
	require.Equal(t, 10, row)

	_, _, err = rangeStart("Sheet1!")
	require.Error(t, err)
}

func TestTableData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /me/drive/items/item-1/workbook/tables/Table1/headerRowRange", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values":[["Name","Amount"]]}`))
	})
	mux.HandleFunc("GET /me/drive/items/item-1/workbook/tables/Table1/dataBodyRange", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values":[["Widgets",3],["Gadgets",5]]}`))
	})

	svc := newTestService(t, mux)

	table, err := svc.TableData(context.Background(), "token-1", Location{FileID: "item-1"}, "Table1")
	require.NoError(t, err)
	require.Equal(t, []string{"Name", "Amount"}, table.Headers)
	require.Len(t, table.Rows, 2)
	require.Equal(t, "Widgets", table.Rows[0][0])
}

func TestTableDataFailsWhole(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /me/drive/items/item-1/workbook/tables/Table1/headerRowRange", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values":[["Name"]]}`))
	})
	mux.HandleFunc("GET /me/drive/items/item-1/workbook/tables/Table1/dataBodyRange", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"ItemNotFound"}}`))
	})

	svc := newTestService(t, mux)

	_, err := svc.TableData(context.Background(), "token-1", Location{FileID: "item-1"}, "Table1")
	require.Error(t, err)
}

func TestTableDataSharedLocation(t *testing.T) {
	var hit atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /drives/drive-9/items/item-1/workbook/tables/Table1/headerRowRange", func(w http.ResponseWriter, r *http.Request) {
		hit.Store(true)
		w.Write([]byte(`{"values":[["Name"]]}`))
	})
	mux.HandleFunc("GET /drives/drive-9/items/item-1/workbook/tables/Table1/dataBodyRange", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values":null}`))
	})

	svc := newTestService(t, mux)

	table, err := svc.TableData(context.Background(), "token-1", Location{FileID: "item-1", DriveID: "drive-9", Shared: true}, "Table1")
	require.NoError(t, err)
	require.True(t, hit.Load())
	require.Empty(t, table.Rows)
	require.NotNil(t, table.Rows)
}

func TestUsedRangeWithColors(t *testing.T) {
	var batchCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /me/drive/items/item-1/workbook/worksheets/Sheet1/usedRange", func(w http.ResponseWriter, r *http.Request) {
		// 15 rows by 2 columns forces two batch chunks for 30 cells.
		values := make([][]any, 15)
		for i := range values {
			values[i] = []any{fmt.Sprintf("r%d", i), i}
		}
		resp := map[string]any{"address": "Sheet1!A1:B15", "values": values}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})
	mux.HandleFunc("POST /$batch", func(w http.ResponseWriter, r *http.Request) {
		batchCalls.Add(1)

		var payload struct {
			Requests []batchRequest `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.LessOrEqual(t, len(payload.Requests), batchSize)

		responses := make([]map[string]any, 0, len(payload.Requests))
		for _, req := range payload.Requests {
			responses = append(responses, map[string]any{
				"id":     req.ID,
				"status": 200,
				"body":   map[string]string{"color": "#FF" + req.ID},
			})
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"responses": responses}))
	})

	svc := newTestService(t, mux)

	grid, err := svc.UsedRangeWithColors(context.Background(), "token-1", Location{FileID: "item-1"}, "Sheet1")
	require.NoError(t, err)
	require.Equal(t, int32(2), batchCalls.Load())
	require.Len(t, grid.Colors, 15)
	require.Len(t, grid.Colors[0], 2)

	// ids run 1..N row-major, so cell (0,0) got id 1 and cell (14,1) id 30
	require.Equal(t, "#FF1", grid.Colors[0][0])
	require.Equal(t, "#FF30", grid.Colors[14][1])
}

func TestUsedRangeWithColorsEmptySheet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /me/drive/items/item-1/workbook/worksheets/Sheet1/usedRange", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address":"Sheet1!A1","values":[]}`))
	})

	svc := newTestService(t, mux)

	grid, err := svc.UsedRangeWithColors(context.Background(), "token-1", Location{FileID: "item-1"}, "Sheet1")
	require.NoError(t, err)
	require.Empty(t, grid.Colors)
}
