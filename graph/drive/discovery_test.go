package drive

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/nverhoeven/taskpilot/internal/errors"
)

func TestFindViaSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /me/drive/root/search(q='budget.xlsx')", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[
			{"id":"folder-1","name":"budget.xlsx","folder":{"childCount":1},"parentReference":{"driveId":"d1"}},
			{"id":"file-1","name":"Budget.xlsx","parentReference":{"driveId":"d1","path":"/drive/root:/Documents"}}
		]}`))
	})

	svc := newTestService(t, mux)

	loc, err := svc.Find(context.Background(), "token-1", "user-1", "budget.xlsx")
	require.NoError(t, err)
	require.Equal(t, "file-1", loc.FileID)
	require.Equal(t, "d1", loc.DriveID)
	require.False(t, loc.Shared)
}

func TestFindCachesLocation(t *testing.T) {
	var searches atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /me/drive/root/search(q='budget.xlsx')", func(w http.ResponseWriter, r *http.Request) {
		searches.Add(1)
		w.Write([]byte(`{"value":[{"id":"file-1","name":"budget.xlsx","parentReference":{"driveId":"d1"}}]}`))
	})

	svc := newTestService(t, mux)

	_, err := svc.Find(context.Background(), "token-1", "user-1", "budget.xlsx")
	require.NoError(t, err)
	_, err = svc.Find(context.Background(), "token-1", "user-1", "budget.xlsx")
	require.NoError(t, err)
	require.Equal(t, int32(1), searches.Load())

	svc.Forget("user-1", "budget.xlsx")
	_, err = svc.Find(context.Background(), "token-1", "user-1", "budget.xlsx")
	require.NoError(t, err)
	require.Equal(t, int32(2), searches.Load())
}

func TestFindWalksOwnDrive(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /me/drive/root/search(q='budget.xlsx')", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[]}`))
	})
	mux.HandleFunc("GET /me/drive/root/children", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[
			{"id":"folder-1","name":"Finance","folder":{"childCount":2},"parentReference":{"driveId":"d1"}},
			{"id":"file-0","name":"notes.txt","parentReference":{"driveId":"d1"}}
		]}`))
	})
	mux.HandleFunc("GET /me/drive/items/folder-1/children", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[{"id":"file-1","name":"budget.xlsx","parentReference":{"driveId":"d1","path":"/drive/root:/Finance"}}]}`))
	})

	svc := newTestService(t, mux)

	loc, err := svc.Find(context.Background(), "token-1", "user-1", "budget.xlsx")
	require.NoError(t, err)
	require.Equal(t, "file-1", loc.FileID)
	require.False(t, loc.Shared)
}

func TestFindViaSharedWithMe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /me/drive/root/search(q='budget.xlsx')", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[]}`))
	})
	mux.HandleFunc("GET /me/drive/root/children", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[]}`))
	})
	mux.HandleFunc("GET /me/drive/sharedWithMe", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[
			{"id":"local-ref","name":"Shared folder","remoteItem":{"id":"remote-folder","name":"Shared folder","folder":{"childCount":1},"parentReference":{"driveId":"d9"}}}
		]}`))
	})
	mux.HandleFunc("GET /drives/d9/items/remote-folder/children", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[{"id":"remote-file","name":"budget.xlsx","parentReference":{"driveId":"d9"}}]}`))
	})

	svc := newTestService(t, mux)

	loc, err := svc.Find(context.Background(), "token-1", "user-1", "budget.xlsx")
	require.NoError(t, err)
	require.Equal(t, "remote-file", loc.FileID)
	require.Equal(t, "d9", loc.DriveID)
	require.True(t, loc.Shared)
}

func TestFindNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /me/drive/root/search(q='missing.xlsx')", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[]}`))
	})
	mux.HandleFunc("GET /me/drive/root/children", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[]}`))
	})
	mux.HandleFunc("GET /me/drive/sharedWithMe", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[]}`))
	})

	svc := newTestService(t, mux)

	_, err := svc.Find(context.Background(), "token-1", "user-1", "missing.xlsx")
	require.ErrorIs(t, err, apperrors.ErrFileNotFound)
}

func TestFindSearchFailureFallsBack(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /me/drive/root/search(q='budget.xlsx')", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"code":"serviceNotAvailable"}}`))
	})
	mux.HandleFunc("GET /me/drive/root/children", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[{"id":"file-1","name":"budget.xlsx","parentReference":{"driveId":"d1"}}]}`))
	})

	svc := newTestService(t, mux)

	loc, err := svc.Find(context.Background(), "token-1", "user-1", "budget.xlsx")
	require.NoError(t, err)
	require.Equal(t, "file-1", loc.FileID)
}
