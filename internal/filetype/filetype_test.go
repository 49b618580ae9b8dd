package filetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		wantKind Kind
		wantExt  string
	}{
		{"photo.JPG", Image, "jpg"},
		{"report.pdf", Document, "pdf"},
		{"clip.mp4", Video, "mp4"},
		{"song.flac", Audio, "flac"},
		{"archive.tar.gz", Other, "gz"},
		{"noextension", Other, ""},
		{"weird.xyz", Other, "xyz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ext := Detect(tt.name)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType("png"))
	assert.Equal(t, "application/pdf", ContentType("PDF"))
	assert.Equal(t, "application/octet-stream", ContentType("bin"))
	assert.Equal(t, "application/octet-stream", ContentType(""))
}

func TestCleanBaseName(t *testing.T) {
	assert.Equal(t, "report", CleanBaseName("report", "pdf"))
	assert.Equal(t, "report", CleanBaseName("report.pdf", "pdf"))
	assert.Equal(t, "report", CleanBaseName("  report.PDF  ", "pdf"))
	assert.Equal(t, "report.v2", CleanBaseName("report.v2", "pdf"))
	assert.Equal(t, "", CleanBaseName("   ", "pdf"))
	assert.Equal(t, "plain", CleanBaseName(" plain ", ""))
}
