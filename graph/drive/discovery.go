// Package drive locates workbook files in OneDrive and reads their Excel
// content through the Graph workbook API.
package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/nverhoeven/taskpilot/graph"
	apperrors "github.com/nverhoeven/taskpilot/internal/errors"
	"github.com/nverhoeven/taskpilot/internal/kvstore"
)

const (
	locationTTL = 24 * time.Hour

	// maxTraversalDepth bounds the folder walk so a pathological drive
	// cannot pin a request.
	maxTraversalDepth = 10
)

type Service struct {
	client *graph.Client
	cache  kvstore.Store
}

func NewService(client *graph.Client, cache kvstore.Store) *Service {
	return &Service{client: client, cache: cache}
}

// Location pins down a discovered file. Shared files live on another user's
// drive and must be addressed through /drives/{driveId}.
type Location struct {
	FileID  string
	DriveID string
	Shared  bool
	Path    string
}

// ItemPath is the Graph resource prefix for the file.
func (l Location) ItemPath() string {
	if l.Shared {
		return "/drives/" + l.DriveID + "/items/" + l.FileID
	}
	return "/me/drive/items/" + l.FileID
}

func locationCacheKey(userID, filename string) string {
	return fmt.Sprintf("drive_location_%s_%s", userID, filename)
}

// Find returns the location of the named file, from cache when possible.
func (s *Service) Find(ctx context.Context, accessToken, userID, filename string) (Location, error) {
	key := locationCacheKey(userID, filename)
	if cached, ok := s.cache.Get(key); ok {
		if loc, ok := cached.(Location); ok {
			return loc, nil
		}
	}

	loc, err := s.discover(ctx, accessToken, filename)
	if err != nil {
		return Location{}, err
	}

	s.cache.Put(key, loc, locationTTL)
	return loc, nil
}

// Forget drops the cached location so the next Find runs a fresh discovery.
// Callers use this when a cached location starts returning errors, typically
// after the file was moved or re-shared.
func (s *Service) Forget(userID, filename string) {
	s.cache.Forget(locationCacheKey(userID, filename))
}

// discover tries three strategies in order: drive search, a bounded walk of
// the user's own drive, then shared items.
func (s *Service) discover(ctx context.Context, accessToken, filename string) (Location, error) {
	if loc, ok, err := s.searchOwnDrive(ctx, accessToken, filename); err != nil {
		return Location{}, err
	} else if ok {
		return loc, nil
	}

	if loc, ok, err := s.walkOwnDrive(ctx, accessToken, filename); err != nil {
		return Location{}, err
	} else if ok {
		return loc, nil
	}

	if loc, ok, err := s.searchShared(ctx, accessToken, filename); err != nil {
		return Location{}, err
	} else if ok {
		return loc, nil
	}

	return Location{}, apperrors.Wrapf(apperrors.ErrFileNotFound, "drive discover %q", filename)
}

type driveItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Folder *struct {
		ChildCount int `json:"childCount"`
	} `json:"folder,omitempty"`
	ParentReference struct {
		DriveID string `json:"driveId"`
		Path    string `json:"path"`
	} `json:"parentReference"`
	RemoteItem *struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Folder *struct {
			ChildCount int `json:"childCount"`
		} `json:"folder,omitempty"`
		ParentReference struct {
			DriveID string `json:"driveId"`
		} `json:"parentReference"`
	} `json:"remoteItem,omitempty"`
}

func (i driveItem) isFolder() bool {
	return i.Folder != nil
}

func (s *Service) listItems(ctx context.Context, accessToken, path string) ([]driveItem, error) {
	raw, err := s.client.Get(ctx, path, accessToken)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Value []driveItem `json:"value"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, "drive decode items")
	}
	return parsed.Value, nil
}

func (s *Service) searchOwnDrive(ctx context.Context, accessToken, filename string) (Location, bool, error) {
	path := fmt.Sprintf("/me/drive/root/search(q='%s')?$select=id,name,parentReference,folder", url.PathEscape(filename))
	items, err := s.listItems(ctx, accessToken, path)
	if err != nil {
		// Search is an optimization; a failure here falls through to the walk.
		log.Warn().Err(err).Str("filename", filename).Msg("drive search failed, falling back to traversal")
		return Location{}, false, nil
	}

	for _, item := range items {
		if strings.EqualFold(item.Name, filename) && !item.isFolder() {
			return Location{
				FileID:  item.ID,
				DriveID: item.ParentReference.DriveID,
				Path:    item.ParentReference.Path,
			}, true, nil
		}
	}
	return Location{}, false, nil
}

func (s *Service) walkOwnDrive(ctx context.Context, accessToken, filename string) (Location, bool, error) {
	type frame struct {
		path  string
		depth int
	}

	visited := make(map[string]struct{})
	stack := []frame{{path: "/me/drive/root/children", depth: 0}}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		items, err := s.listItems(ctx, accessToken, current.path)
		if err != nil {
			return Location{}, false, err
		}

		for _, item := range items {
			if strings.EqualFold(item.Name, filename) && !item.isFolder() {
				return Location{
					FileID:  item.ID,
					DriveID: item.ParentReference.DriveID,
					Path:    item.ParentReference.Path,
				}, true, nil
			}
			if !item.isFolder() || current.depth >= maxTraversalDepth {
				continue
			}
			if _, seen := visited[item.ID]; seen {
				continue
			}
			visited[item.ID] = struct{}{}
			stack = append(stack, frame{
				path:  "/me/drive/items/" + item.ID + "/children",
				depth: current.depth + 1,
			})
		}
	}
	return Location{}, false, nil
}

func (s *Service) searchShared(ctx context.Context, accessToken, filename string) (Location, bool, error) {
	items, err := s.listItems(ctx, accessToken, "/me/drive/sharedWithMe")
	if err != nil {
		return Location{}, false, err
	}

	type frame struct {
		driveID string
		itemID  string
		depth   int
	}
	var folders []frame

	for _, item := range items {
		remote := item.RemoteItem
		if remote == nil {
			continue
		}
		if strings.EqualFold(remote.Name, filename) && remote.Folder == nil {
			return Location{
				FileID:  remote.ID,
				DriveID: remote.ParentReference.DriveID,
				Shared:  true,
			}, true, nil
		}
		if remote.Folder != nil {
			folders = append(folders, frame{driveID: remote.ParentReference.DriveID, itemID: remote.ID, depth: 1})
		}
	}

	visited := make(map[string]struct{})
	for len(folders) > 0 {
		current := folders[len(folders)-1]
		folders = folders[:len(folders)-1]

		children, err := s.listItems(ctx, accessToken, "/drives/"+current.driveID+"/items/"+current.itemID+"/children")
		if err != nil {
			return Location{}, false, err
		}

		for _, child := range children {
			if strings.EqualFold(child.Name, filename) && !child.isFolder() {
				return Location{
					FileID:  child.ID,
					DriveID: current.driveID,
					Shared:  true,
					Path:    child.ParentReference.Path,
				}, true, nil
			}
			if !child.isFolder() || current.depth >= maxTraversalDepth {
				continue
			}
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}
			folders = append(folders, frame{driveID: current.driveID, itemID: child.ID, depth: current.depth + 1})
		}
	}
	return Location{}, false, nil
}
