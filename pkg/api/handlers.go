package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/marmos91/dittoexplorer/internal/logger"
	"github.com/marmos91/dittoexplorer/pkg/explorer"
	"github.com/marmos91/dittoexplorer/pkg/media"
	"github.com/marmos91/dittoexplorer/pkg/metrics"
	"github.com/marmos91/dittoexplorer/pkg/settings"
	"github.com/marmos91/dittoexplorer/pkg/vfs"
)

// Handlers holds the HTTP handlers of one session.
type Handlers struct {
	session        *explorer.Session
	maxUploadBytes int64
	metrics        metrics.HTTPMetrics
	started        time.Time
}

// NewHandlers creates the handlers for session.
func NewHandlers(session *explorer.Session, maxUploadBytes int64, m metrics.HTTPMetrics) *Handlers {
	return &Handlers{
		session:        session,
		maxUploadBytes: maxUploadBytes,
		metrics:        m,
		started:        time.Now(),
	}
}

// bind decodes a JSON body, reporting failures as bad requests.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, badRequest(err))
		return false
	}
	return true
}

func (h *Handlers) sessionResponse() SessionResponse {
	return SessionResponse{
		State: h.session.State(),
		Items: toEntityDTOs(h.session.Listing()),
	}
}

// respondState answers with the session state after a mutation.
func (h *Handlers) respondState(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessionResponse())
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"session":  h.session.ID(),
		"entities": h.session.Model().Snapshot().Len(),
		"uptime":   time.Since(h.started).Truncate(time.Second).String(),
	})
}

// GetSession handles GET /api/v1/session
func (h *Handlers) GetSession(c *gin.Context) {
	h.respondState(c)
}

// GetListing handles GET /api/v1/listing
func (h *Handlers) GetListing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": toEntityDTOs(h.session.Listing())})
}

// SetSearch handles PUT /api/v1/search
func (h *Handlers) SetSearch(c *gin.Context) {
	var req searchRequest
	if !bind(c, &req) {
		return
	}
	h.session.SetSearch(req.Query)
	h.respondState(c)
}

// SetSort handles PUT /api/v1/sort
func (h *Handlers) SetSort(c *gin.Context) {
	var req sortRequest
	if !bind(c, &req) {
		return
	}

	key, err := vfs.ParseSortKey(req.Key)
	if err != nil {
		respondError(c, badRequest(err))
		return
	}
	dir := vfs.Ascending
	if req.Direction != "" {
		if dir, err = vfs.ParseSortDirection(req.Direction); err != nil {
			respondError(c, badRequest(err))
			return
		}
	}

	if err := h.session.SetSort(vfs.SortConfig{Key: key, Direction: dir}); err != nil {
		respondError(c, badRequest(err))
		return
	}
	h.respondState(c)
}

// ToggleSort handles POST /api/v1/sort/toggle
func (h *Handlers) ToggleSort(c *gin.Context) {
	h.session.ToggleSortDirection()
	h.respondState(c)
}

// Navigate handles POST /api/v1/navigate
func (h *Handlers) Navigate(c *gin.Context) {
	var req navigateRequest
	if !bind(c, &req) {
		return
	}
	if err := h.session.Navigate(req.ID); err != nil {
		respondError(c, err)
		return
	}
	h.respondState(c)
}

// Back handles POST /api/v1/back
func (h *Handlers) Back(c *gin.Context) {
	h.session.Back()
	h.respondState(c)
}

// Forward handles POST /api/v1/forward
func (h *Handlers) Forward(c *gin.Context) {
	h.session.Forward()
	h.respondState(c)
}

// Up handles POST /api/v1/up
func (h *Handlers) Up(c *gin.Context) {
	h.session.Up()
	h.respondState(c)
}

// Open handles POST /api/v1/open
//
// Containers are navigated into; media leaves come back as a preview.
func (h *Handlers) Open(c *gin.Context) {
	var req navigateRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.session.OpenItem(req.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{
		"navigated": res.Navigated,
		"state":     h.sessionResponse(),
	}
	if res.Preview != nil {
		body["preview"] = toEntityDTO(*res.Preview)
	}
	c.JSON(http.StatusOK, body)
}

// NewTab handles POST /api/v1/tabs
func (h *Handlers) NewTab(c *gin.Context) {
	tab := h.session.NewTab()
	c.JSON(http.StatusCreated, gin.H{
		"tab":   tab,
		"state": h.sessionResponse(),
	})
}

// CloseTab handles DELETE /api/v1/tabs/:id
func (h *Handlers) CloseTab(c *gin.Context) {
	if err := h.session.CloseTab(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	h.respondState(c)
}

// ActivateTab handles POST /api/v1/tabs/:id/activate
func (h *Handlers) ActivateTab(c *gin.Context) {
	if err := h.session.ActivateTab(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	h.respondState(c)
}

// Select handles POST /api/v1/select
//
// A body with "ids" replaces the selection; otherwise "id" is clicked, with
// "toggle" for ctrl/meta clicks.
func (h *Handlers) Select(c *gin.Context) {
	var req clickRequest
	if !bind(c, &req) {
		return
	}
	switch {
	case req.IDs != nil:
		h.session.Select(req.IDs)
	case req.ID != "":
		h.session.Click(req.ID, req.Toggle)
	default:
		respondError(c, badRequest(errors.New("id or ids is required")))
		return
	}
	h.respondState(c)
}

// ClearSelection handles POST /api/v1/selection/clear
func (h *Handlers) ClearSelection(c *gin.Context) {
	h.session.ClearSelection()
	h.respondState(c)
}

// BeginMarquee handles POST /api/v1/marquee/begin
func (h *Handlers) BeginMarquee(c *gin.Context) {
	var req marqueeRequest
	if !bind(c, &req) {
		return
	}
	h.session.BeginMarquee(req.Point)
	h.respondState(c)
}

// UpdateMarquee handles POST /api/v1/marquee/update
func (h *Handlers) UpdateMarquee(c *gin.Context) {
	var req marqueeRequest
	if !bind(c, &req) {
		return
	}
	ids := h.session.UpdateMarquee(req.Point, req.Items)
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"selection": ids})
}

// EndMarquee handles POST /api/v1/marquee/end
func (h *Handlers) EndMarquee(c *gin.Context) {
	h.session.EndMarquee()
	h.respondState(c)
}

// Cut handles POST /api/v1/cut
func (h *Handlers) Cut(c *gin.Context) {
	if err := h.session.Cut(); err != nil {
		respondError(c, err)
		return
	}
	h.respondState(c)
}

// Copy handles POST /api/v1/copy
func (h *Handlers) Copy(c *gin.Context) {
	if err := h.session.Copy(); err != nil {
		respondError(c, err)
		return
	}
	h.respondState(c)
}

// Paste handles POST /api/v1/paste
func (h *Handlers) Paste(c *gin.Context) {
	pasted, err := h.session.Paste()
	if err != nil && len(pasted) == 0 {
		respondError(c, err)
		return
	}
	if err != nil {
		logger.Warn("Paste partially failed: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{
		"pasted": toEntityDTOs(pasted),
		"state":  h.sessionResponse(),
	})
}

// NewFolder handles POST /api/v1/folders
func (h *Handlers) NewFolder(c *gin.Context) {
	folder, err := h.session.NewFolder()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"entity": toEntityDTO(folder),
		"state":  h.sessionResponse(),
	})
}

// BeginRename handles POST /api/v1/rename
func (h *Handlers) BeginRename(c *gin.Context) {
	id, err := h.session.BeginRename()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"renaming": id})
}

// CancelRename handles POST /api/v1/rename/cancel
func (h *Handlers) CancelRename(c *gin.Context) {
	h.session.CancelRename()
	h.respondState(c)
}

// GetEntity handles GET /api/v1/entities/:id
func (h *Handlers) GetEntity(c *gin.Context) {
	e, err := h.session.Entity(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEntityDTO(e))
}

// RenameEntity handles PATCH /api/v1/entities/:id
func (h *Handlers) RenameEntity(c *gin.Context) {
	var req renameRequest
	if !bind(c, &req) {
		return
	}
	e, err := h.session.Rename(c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEntityDTO(e))
}

// GetBreadcrumbs handles GET /api/v1/entities/:id/breadcrumbs
func (h *Handlers) GetBreadcrumbs(c *gin.Context) {
	id := c.Param("id")
	if id != vfs.TrashID {
		if _, err := h.session.Entity(id); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"breadcrumbs": h.session.Breadcrumbs(id)})
}

// GetContent handles GET /api/v1/entities/:id/content
//
// The payload is sent as an attachment named after the entity.
func (h *Handlers) GetContent(c *gin.Context) {
	content, err := h.session.Content(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", content.Name))
	c.Data(http.StatusOK, content.ContentType, content.Data)
}

// SetCover handles POST /api/v1/entities/:id/cover
func (h *Handlers) SetCover(c *gin.Context) {
	var req coverRequest
	if !bind(c, &req) {
		return
	}
	e, err := h.session.SetCover(c.Param("id"), req.CoverRef)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEntityDTO(e))
}

// Move handles POST /api/v1/move
func (h *Handlers) Move(c *gin.Context) {
	var req moveRequest
	if !bind(c, &req) {
		return
	}
	moved, err := h.session.Drop(req.IDs, req.Target)
	if err != nil && len(moved) == 0 {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"moved": toEntityDTOs(moved),
		"state": h.sessionResponse(),
	})
}

// GetDriveUsage handles GET /api/v1/drives/:id/usage
func (h *Handlers) GetDriveUsage(c *gin.Context) {
	id := c.Param("id")
	used, capacity, err := h.session.DriveUsage(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUsageResponse(id, used, capacity))
}

// RequestDelete handles POST /api/v1/delete
func (h *Handlers) RequestDelete(c *gin.Context) {
	pending, err := h.session.RequestDelete()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending})
}

// RequestEmptyTrash handles POST /api/v1/empty-trash
func (h *Handlers) RequestEmptyTrash(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pending": h.session.RequestEmptyTrash()})
}

// Confirm handles POST /api/v1/confirm
func (h *Handlers) Confirm(c *gin.Context) {
	ids, err := h.session.ConfirmPending()
	if err != nil && len(ids) == 0 {
		respondError(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"affected": ids,
		"state":    h.sessionResponse(),
	})
}

// Cancel handles POST /api/v1/cancel
func (h *Handlers) Cancel(c *gin.Context) {
	h.session.CancelPending()
	h.respondState(c)
}

// Restore handles POST /api/v1/restore
func (h *Handlers) Restore(c *gin.Context) {
	restored, err := h.session.Restore()
	if err != nil && len(restored) == 0 {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restored": toEntityDTOs(restored),
		"state":    h.sessionResponse(),
	})
}

// Upload handles POST /api/v1/upload
//
// Every multipart file part becomes one import entry; the form field name
// carries its path relative to the target, so dropped folders keep their
// structure. An optional "target" form value drops onto another folder.
func (h *Handlers) Upload(c *gin.Context) {
	if c.Request.ContentLength > h.maxUploadBytes {
		h.respondTooLarge(c)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	mr, err := c.Request.MultipartReader()
	if err != nil {
		respondError(c, badRequest(err))
		return
	}
	up, err := readUpload(mr)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondTooLarge(c)
			return
		}
		respondError(c, badRequest(err))
		return
	}
	if len(up.entries) == 0 {
		respondError(c, badRequest(errors.New("no files in upload")))
		return
	}
	total := up.total
	h.metrics.RecordUploadBytes(total)

	var res vfs.ImportResult
	if up.target != "" {
		res, err = h.session.DropFiles(c.Request.Context(), up.target, up.entries)
	} else {
		res, err = h.session.Upload(c.Request.Context(), up.entries)
	}
	if err != nil && len(res.Created) == 0 {
		respondError(c, err)
		return
	}
	if err != nil {
		logger.Warn("Upload partially failed: %v", err)
	}

	logger.Info("Imported %d entities (%s, %d failed)", len(res.Created), humanize.Bytes(uint64(total)), res.Failed)
	c.JSON(http.StatusCreated, UploadResponse{
		Created:  toEntityDTOs(res.Created),
		TopLevel: toEntityDTOs(res.TopLevel),
		Failed:   res.Failed,
		Bytes:    humanize.Bytes(uint64(total)),
		State:    h.sessionResponse(),
	})
}

func (h *Handlers) respondTooLarge(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorResponse{
		Error: fmt.Sprintf("upload exceeds %s", humanize.Bytes(uint64(h.maxUploadBytes))),
		Code:  "TooLarge",
	})
}

type upload struct {
	entries []vfs.ImportEntry
	total   int64
	target  string
}

// readUpload reads the parts of a multipart upload in request order. File
// parts become import entries; the "target" field selects a drop folder.
func readUpload(mr *multipart.Reader) (upload, error) {
	var up upload
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return up, nil
		}
		if err != nil {
			return upload{}, err
		}

		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return upload{}, fmt.Errorf("read %s: %w", part.FormName(), err)
		}

		filename := part.FileName()
		if filename == "" {
			if part.FormName() == "target" {
				up.target = strings.TrimSpace(string(data))
			}
			continue
		}
		up.entries = append(up.entries, vfs.ImportEntry{
			Path:        entryPath(part.FormName(), filename),
			ContentType: part.Header.Get("Content-Type"),
			Data:        data,
		})
		up.total += int64(len(data))
	}
}

// entryPath picks the relative path of an uploaded file: the field name when
// it names a path ending in the file name, the file name otherwise.
func entryPath(field, filename string) string {
	field = strings.Trim(field, "/")
	if field == "" || field == "file" || field == "files" {
		return filename
	}
	if strings.HasSuffix(field, "/"+filename) || field == filename {
		return field
	}
	return field + "/" + filename
}

// GetMedia handles GET /media/*handle
func (h *Handlers) GetMedia(c *gin.Context) {
	handle := media.Handle(strings.TrimPrefix(c.Param("handle"), "/"))
	data, contentType, ok := h.session.Media(handle)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: "media not found", Code: "NotFound"})
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, contentType, data)
}

// GetSettings handles GET /api/v1/settings
func (h *Handlers) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, toSettingsResponse(h.session.Settings()))
}

// SetTheme handles PUT /api/v1/settings/theme
func (h *Handlers) SetTheme(c *gin.Context) {
	var theme settings.Theme
	if !bind(c, &theme) {
		return
	}
	cfg, err := h.session.SetTheme(c.Request.Context(), theme)
	h.respondSettings(c, cfg, err)
}

// AddBackground handles POST /api/v1/settings/backgrounds
func (h *Handlers) AddBackground(c *gin.Context) {
	var req backgroundRequest
	if !bind(c, &req) {
		return
	}
	cfg, err := h.session.AddBackground(c.Request.Context(), req.URL)
	h.respondSettings(c, cfg, err)
}

// RemoveBackground handles DELETE /api/v1/settings/backgrounds
func (h *Handlers) RemoveBackground(c *gin.Context) {
	var req backgroundRequest
	if !bind(c, &req) {
		return
	}
	cfg, err := h.session.RemoveBackground(c.Request.Context(), req.URL)
	h.respondSettings(c, cfg, err)
}

// SetUser handles PUT /api/v1/settings/user
func (h *Handlers) SetUser(c *gin.Context) {
	var u settings.UserAccount
	if !bind(c, &u) {
		return
	}
	cfg, err := h.session.SetUser(c.Request.Context(), u)
	h.respondSettings(c, cfg, err)
}

// ChangePin handles PUT /api/v1/settings/user/pin
func (h *Handlers) ChangePin(c *gin.Context) {
	var req pinRequest
	if !bind(c, &req) {
		return
	}
	cfg, err := h.session.ChangePin(c.Request.Context(), req.Current, req.New, req.Confirm)
	h.respondSettings(c, cfg, err)
}

// respondSettings answers with the settings. A failed save is reported but
// the in-memory change stands.
func (h *Handlers) respondSettings(c *gin.Context, cfg settings.AppConfig, err error) {
	if err != nil {
		if status, _ := statusFor(err); status != http.StatusInternalServerError {
			respondError(c, err)
			return
		}
		respondError(c, fmt.Errorf("save settings: %w", err))
		return
	}
	c.JSON(http.StatusOK, toSettingsResponse(cfg))
}
