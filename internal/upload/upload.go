// Package upload stores chat attachments and pulls best-effort text out of
// them. Only a small allow-list of types is accepted; extraction failures
// degrade to an empty string, never an error the caller must handle.
package upload

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

// MaxAttachmentSize caps a single chat attachment.
const MaxAttachmentSize = 10 << 20 // 10MB

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".pdf":  true,
	".txt":  true,
}

// Saved describes a stored attachment, in the shape the chat flow passes
// along as side-channel context.
type Saved struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Mimetype string `json:"mimetype"`
	Size     int64  `json:"size"`
}

// IsAllowed reports whether the attachment type is accepted. The MIME type
// is advisory only (proxies sometimes strip it); the extension decides.
func IsAllowed(filename, mimetype string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return false
	}
	switch {
	case mimetype == "", mimetype == "application/octet-stream":
		return true
	case strings.HasPrefix(mimetype, "image/"),
		mimetype == "application/pdf",
		strings.HasPrefix(mimetype, "text/"):
		return true
	}
	return false
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFilename strips any path components and reduces the name to a
// safe character set.
func SanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "attachment"
	}
	return base
}

// Save writes the attachment under dir with a unique prefix and returns its
// metadata. The reader is capped at MaxAttachmentSize plus one byte so
// oversized uploads are detected rather than truncated.
func Save(dir, filename, mimetype string, r io.Reader) (Saved, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Saved{}, fmt.Errorf("creating upload directory: %w", err)
	}

	safe := SanitizeFilename(filename)
	stored := uuid.New().String()[:8] + "_" + safe
	path := filepath.Join(dir, stored)

	f, err := os.Create(path)
	if err != nil {
		return Saved{}, fmt.Errorf("creating attachment file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(r, MaxAttachmentSize+1))
	if err != nil {
		os.Remove(path)
		return Saved{}, fmt.Errorf("writing attachment: %w", err)
	}
	if n > MaxAttachmentSize {
		os.Remove(path)
		return Saved{}, fmt.Errorf("attachment exceeds %d bytes", MaxAttachmentSize)
	}

	return Saved{
		Filename: safe,
		Path:     path,
		Mimetype: mimetype,
		Size:     n,
	}, nil
}

// ExtractText pulls plain text from a stored attachment when the format
// supports it (PDF, plain text). Anything else, or any extraction failure,
// yields "".
func ExtractText(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDFText(path)
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return ""
		}
		return string(data)
	}
	return ""
}

func extractPDFText(path string) string {
	f, r, err := pdf.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return ""
	}
	return buf.String()
}
