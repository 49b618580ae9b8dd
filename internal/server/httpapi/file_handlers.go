package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bloomdrive/bloomdrive/internal/common"
	"github.com/bloomdrive/bloomdrive/internal/filetype"
	"github.com/bloomdrive/bloomdrive/internal/imaging"
	"github.com/bloomdrive/bloomdrive/internal/server/authz"
	"github.com/bloomdrive/bloomdrive/internal/server/models"
	filesrepo "github.com/bloomdrive/bloomdrive/internal/server/repositories/files"
	"github.com/gin-gonic/gin"
)

// maxUploadBytes caps a single upload request body.
const maxUploadBytes = 500 * 1024 * 1024

// Thumbnail clamps. Anything larger than 300px defeats the point of a
// thumbnail; quality outside 20..95 is either garbage or wasted bytes.
const (
	thumbMaxDimension     = 300
	thumbMinDimension     = 16
	thumbMinQuality       = 20
	thumbMaxQuality       = 95
	thumbDefaultQuality   = 60
	thumbDefaultDimension = 300
)

type renameRequest struct {
	Name string `json:"name"`
}

type shareRequest struct {
	Emails []string `json:"emails"`
}

func (s *Server) handleListFiles(c *gin.Context) {
	user := s.mustCurrentUser(c)

	opts := filesrepo.ListOptions{
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
	}
	if types := c.Query("types"); types != "" {
		opts.Types = strings.Split(types, ",")
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			s.writeError(c, fmt.Errorf("invalid limit %q: %w", limit, common.ErrorValidation))
			return
		}
		opts.Limit = n
	}

	listed, err := s.files.List(c.Request.Context(), user, opts)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if listed == nil {
		listed = []*models.File{}
	}

	c.JSON(http.StatusOK, gin.H{"files": listed, "total": len(listed)})
}

func (s *Server) handleUsage(c *gin.Context) {
	summary, err := s.files.Usage(c.Request.Context(), s.mustCurrentUser(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleUpload(c *gin.Context) {
	user := s.mustCurrentUser(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		s.writeError(c, fmt.Errorf("multipart field \"file\" is required: %w", common.ErrorValidation))
		return
	}

	src, err := header.Open()
	if err != nil {
		s.writeError(c, fmt.Errorf("error opening upload: %w", err))
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		s.writeError(c, fmt.Errorf("error reading upload: %w", err))
		return
	}

	file, err := s.files.Upload(c.Request.Context(), user, header.Filename, data)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, file)
}

func (s *Server) handleRename(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, fmt.Errorf("invalid request body: %w", common.ErrorValidation))
		return
	}

	file, err := s.files.Rename(c.Request.Context(), s.mustCurrentUser(c), c.Param("id"), req.Name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *Server) handleShare(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Emails) == 0 {
		s.writeError(c, fmt.Errorf("emails are required: %w", common.ErrorValidation))
		return
	}

	file, err := s.files.Share(c.Request.Context(), s.mustCurrentUser(c), c.Param("id"), req.Emails)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *Server) handleUnshare(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Emails) == 0 {
		s.writeError(c, fmt.Errorf("emails are required: %w", common.ErrorValidation))
		return
	}

	file, err := s.files.Unshare(c.Request.Context(), s.mustCurrentUser(c), c.Param("id"), req.Emails)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *Server) handleLeave(c *gin.Context) {
	if err := s.files.Leave(c.Request.Context(), s.mustCurrentUser(c), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDelete(c *gin.Context) {
	if err := s.files.Delete(c.Request.Context(), s.mustCurrentUser(c), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleView(c *gin.Context) {
	s.serveBlob(c, authz.ActionView)
}

func (s *Server) handleDownload(c *gin.Context) {
	s.serveBlob(c, authz.ActionDownload)
}

// serveBlob streams file bytes either inline (view) or as an attachment
// (download). Responses are revalidated with an ETag derived from the record
// version so an unchanged file costs one 304.
func (s *Server) serveBlob(c *gin.Context, action authz.Action) {
	user := s.mustCurrentUser(c)
	fileID := c.Param("id")

	file, data, err := s.files.Open(c.Request.Context(), user, fileID, action)
	if err != nil {
		s.writeError(c, err)
		return
	}

	etag := blobETag(string(action), file)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "private, must-revalidate")

	if ifNoneMatchHits(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}

	contentType := filetype.ContentType(file.Extension)
	if action == authz.ActionDownload {
		contentType = "application/octet-stream"
		name := file.Name
		if override := c.Query("filename"); override != "" {
			name = override
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	} else {
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.Name))
	}

	c.Data(http.StatusOK, contentType, data)
}

// handleThumbnail renders a downscaled JPEG of an image file. Dimensions and
// quality come from w, h and q query params, clamped to sane bounds.
func (s *Server) handleThumbnail(c *gin.Context) {
	user := s.mustCurrentUser(c)
	fileID := c.Param("id")

	width := clampedIntQuery(c, "width", thumbDefaultDimension, thumbMinDimension, thumbMaxDimension)
	height := clampedIntQuery(c, "height", thumbDefaultDimension, thumbMinDimension, thumbMaxDimension)
	quality := clampedIntQuery(c, "quality", thumbDefaultQuality, thumbMinQuality, thumbMaxQuality)

	file, data, err := s.files.Open(c.Request.Context(), user, fileID, authz.ActionView)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if file.Type != string(filetype.Image) {
		s.writeError(c, fmt.Errorf("thumbnails are only available for images: %w", common.ErrorValidation))
		return
	}

	etag := blobETag(fmt.Sprintf("thumb-%dx%d-%d", width, height, quality), file)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "private, must-revalidate")

	if ifNoneMatchHits(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}

	thumb, err := imaging.Thumbnail(data, width, height, quality)
	if err != nil {
		s.writeError(c, fmt.Errorf("cannot decode image: %w", common.ErrorValidation))
		return
	}

	c.Data(http.StatusOK, "image/jpeg", thumb)
}

func blobETag(mode string, file *models.File) string {
	return fmt.Sprintf("%q", fmt.Sprintf("%s-%s-%d", mode, file.ID, file.UpdatedAt.Unix()))
}

func ifNoneMatchHits(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == etag || candidate == "*" {
			return true
		}
	}
	return false
}

func clampedIntQuery(c *gin.Context, name string, def, min, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
