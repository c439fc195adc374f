package api

import (
	"github.com/dustin/go-humanize"
	"github.com/marmos91/dittoexplorer/pkg/explorer"
	"github.com/marmos91/dittoexplorer/pkg/selection"
	"github.com/marmos91/dittoexplorer/pkg/settings"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
)

// mediaPrefix is the route serving session media handles.
const mediaPrefix = "/media/"

// EntityDTO is the wire form of an entity. Payload bytes are never inlined;
// media is fetched through MediaURL and downloads through the content route.
type EntityDTO struct {
	ID          string `json:"id"`
	ParentID    string `json:"parentId,omitempty"`
	Name        string `json:"name"`
	Kind        string `json:"type"`
	SizeBytes   *int64 `json:"sizeBytes,omitempty"`
	Size        string `json:"size,omitempty"`
	CreatedDate string `json:"createdDate,omitempty"`
	IconHint    string `json:"iconHint,omitempty"`
	MediaURL    string `json:"mediaUrl,omitempty"`
	CoverRef    string `json:"coverRef,omitempty"`
	IsTrashed   bool   `json:"isTrashed"`
	IsContainer bool   `json:"isContainer"`
}

func toEntityDTO(e vfs.Entity) EntityDTO {
	dto := EntityDTO{
		ID:          e.ID,
		ParentID:    e.ParentID,
		Name:        e.Name,
		Kind:        string(e.Kind),
		SizeBytes:   e.SizeBytes,
		CreatedDate: e.CreatedDate,
		IconHint:    e.IconHint,
		CoverRef:    e.CoverRef,
		IsTrashed:   e.IsTrashed,
		IsContainer: e.IsContainer(),
	}
	if e.SizeBytes != nil && *e.SizeBytes >= 0 {
		dto.Size = humanize.Bytes(uint64(*e.SizeBytes))
	}
	if e.MediaRef != "" {
		dto.MediaURL = mediaPrefix + e.MediaRef.String()
	}
	return dto
}

func toEntityDTOs(entities []vfs.Entity) []EntityDTO {
	out := make([]EntityDTO, len(entities))
	for i, e := range entities {
		out[i] = toEntityDTO(e)
	}
	return out
}

// SessionResponse is the session state plus the current listing.
type SessionResponse struct {
	explorer.State
	Items []EntityDTO `json:"items"`
}

// UsageResponse reports drive usage.
type UsageResponse struct {
	DriveID       string  `json:"driveId"`
	UsedBytes     int64   `json:"usedBytes"`
	CapacityBytes int64   `json:"capacityBytes"`
	Used          string  `json:"used"`
	Capacity      string  `json:"capacity"`
	Percent       float64 `json:"percent"`
}

func toUsageResponse(driveID string, used, capacity int64) UsageResponse {
	resp := UsageResponse{
		DriveID:       driveID,
		UsedBytes:     used,
		CapacityBytes: capacity,
		Used:          humanize.Bytes(uint64(max(used, 0))),
		Capacity:      humanize.Bytes(uint64(max(capacity, 0))),
	}
	if capacity > 0 {
		resp.Percent = float64(used) / float64(capacity) * 100
	}
	return resp
}

// UploadResponse summarises an upload.
type UploadResponse struct {
	Created  []EntityDTO     `json:"created"`
	TopLevel []EntityDTO     `json:"topLevel"`
	Failed   int             `json:"failed"`
	Bytes    string          `json:"bytes"`
	State    SessionResponse `json:"state"`
}

// SettingsResponse is the application settings without the lock PIN.
type SettingsResponse struct {
	Theme             settings.Theme `json:"theme"`
	CustomBackgrounds []string       `json:"customBackgrounds"`
	User              *UserDTO       `json:"user,omitempty"`
}

// UserDTO is the configured user account minus its PIN.
type UserDTO struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
}

func toSettingsResponse(cfg settings.AppConfig) SettingsResponse {
	resp := SettingsResponse{
		Theme:             cfg.Theme,
		CustomBackgrounds: cfg.CustomBackgrounds,
	}
	if resp.CustomBackgrounds == nil {
		resp.CustomBackgrounds = []string{}
	}
	if cfg.User != nil {
		resp.User = &UserDTO{
			Handle:      cfg.User.Handle,
			DisplayName: cfg.User.DisplayName,
			Avatar:      cfg.User.Avatar,
		}
	}
	return resp
}

// Request bodies.

type navigateRequest struct {
	ID string `json:"id" binding:"required"`
}

type clickRequest struct {
	ID     string   `json:"id"`
	Toggle bool     `json:"toggle"`
	IDs    []string `json:"ids"`
}

type marqueeRequest struct {
	Point selection.Point        `json:"point"`
	Items []selection.ItemBounds `json:"items"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type moveRequest struct {
	IDs    []string `json:"ids" binding:"required,min=1"`
	Target string   `json:"target" binding:"required"`
}

type coverRequest struct {
	CoverRef string `json:"coverRef"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type sortRequest struct {
	Key       string `json:"key" binding:"required"`
	Direction string `json:"direction"`
}

type backgroundRequest struct {
	URL string `json:"url" binding:"required"`
}

type pinRequest struct {
	Current string `json:"current" binding:"required"`
	New     string `json:"new" binding:"required"`
	Confirm string `json:"confirm" binding:"required"`
}
