// Package filetype classifies stored files by extension and maps extensions
// to HTTP content types for inline viewing.
package filetype

import (
	"path/filepath"
	"strings"
)

// Kind is the coarse file category used for dashboards and quota breakdowns.
type Kind string

const (
	Image    Kind = "image"
	Document Kind = "document"
	Video    Kind = "video"
	Audio    Kind = "audio"
	Other    Kind = "other"
)

var kindsByExtension = map[string]Kind{}

func init() {
	register(Document, "pdf", "doc", "docx", "txt", "xls", "xlsx", "csv", "rtf",
		"ods", "ppt", "odp", "md", "html", "htm", "epub", "pages", "fig", "psd",
		"ai", "indd", "xd", "sketch", "afdesign", "afphoto")
	register(Image, "jpg", "jpeg", "png", "gif", "bmp", "svg", "webp")
	register(Video, "mp4", "avi", "mov", "mkv", "webm")
	register(Audio, "mp3", "wav", "ogg", "flac")
}

func register(k Kind, extensions ...string) {
	for _, ext := range extensions {
		kindsByExtension[ext] = k
	}
}

// Detect returns the category and the lower-cased extension (without the dot)
// for a file name. Names without an extension are Other with "".
func Detect(fileName string) (Kind, string) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if ext == "" {
		return Other, ""
	}
	if k, ok := kindsByExtension[ext]; ok {
		return k, ext
	}
	return Other, ext
}

var contentTypes = map[string]string{
	// images
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"bmp":  "image/bmp",
	"ico":  "image/x-icon",
	// documents
	"pdf":  "application/pdf",
	"txt":  "text/plain",
	"md":   "text/markdown",
	"json": "application/json",
	"xml":  "application/xml",
	"csv":  "text/csv",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	// video
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"ogv":  "video/ogg",
	"avi":  "video/avi",
	"mov":  "video/quicktime",
	"wmv":  "video/x-ms-wmv",
	// audio
	"mp3": "audio/mpeg",
	"wav": "audio/wav",
	"aac": "audio/aac",
	"oga": "audio/ogg",
}

// ContentType maps an extension to a MIME type for inline responses,
// falling back to application/octet-stream.
func ContentType(extension string) string {
	if ct, ok := contentTypes[strings.ToLower(extension)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// CleanBaseName trims a proposed new file name and strips the canonical
// extension if the caller accidentally included it, so rename never produces
// "report.pdf.pdf".
func CleanBaseName(name, extension string) string {
	clean := strings.TrimSpace(name)
	if extension == "" {
		return clean
	}
	suffix := "." + strings.ToLower(extension)
	if strings.HasSuffix(strings.ToLower(clean), suffix) {
		clean = clean[:len(clean)-len(suffix)]
	}
	return strings.TrimSpace(clean)
}
