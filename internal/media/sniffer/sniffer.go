// Package sniffer classifies chat attachments by their leading bytes.
package sniffer

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
)

type MediaType string

const (
	TypeJPEG MediaType = "jpeg"
	TypePNG  MediaType = "png"
	TypeGIF  MediaType = "gif"
	TypeWEBP MediaType = "webp"
	TypeSVG  MediaType = "svg"
	TypePDF  MediaType = "pdf"
	TypeFile MediaType = "file"
)

// sniffLen matches what http.DetectContentType considers.
const sniffLen = 512

var ErrEmpty = errors.New("empty attachment")

type Result struct {
	Type MediaType
	MIME string
	Ext  string
}

// IsImage reports whether the attachment should be shown inline.
func (r Result) IsImage() bool {
	switch r.Type {
	case TypeJPEG, TypePNG, TypeGIF, TypeWEBP, TypeSVG:
		return true
	}
	return false
}

// Detect reads up to sniffLen bytes from r and classifies them. The bytes it
// consumed are returned so callers can stitch the stream back together.
func Detect(r io.Reader) (Result, []byte, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Result{}, nil, err
	}
	head = head[:n]

	result, err := DetectHead(head)
	return result, head, err
}

func DetectHead(head []byte) (Result, error) {
	if len(head) == 0 {
		return Result{}, ErrEmpty
	}

	switch {
	case isJPEG(head):
		return Result{Type: TypeJPEG, MIME: "image/jpeg", Ext: ".jpg"}, nil
	case isPNG(head):
		return Result{Type: TypePNG, MIME: "image/png", Ext: ".png"}, nil
	case isGIF(head):
		return Result{Type: TypeGIF, MIME: "image/gif", Ext: ".gif"}, nil
	case isWEBP(head):
		return Result{Type: TypeWEBP, MIME: "image/webp", Ext: ".webp"}, nil
	case isSVG(head):
		return Result{Type: TypeSVG, MIME: "image/svg+xml", Ext: ".svg"}, nil
	case bytes.HasPrefix(head, []byte("%PDF-")):
		return Result{Type: TypePDF, MIME: "application/pdf", Ext: ".pdf"}, nil
	}

	contentType := http.DetectContentType(head)
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "application/octet-stream"
	}
	return Result{Type: TypeFile, MIME: mediaType, Ext: extensionFor(mediaType)}, nil
}

func extensionFor(mediaType string) string {
	switch mediaType {
	case "text/plain":
		return ".txt"
	case "application/zip":
		return ".zip"
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return bytes.HasPrefix(head, pngMagic)
}

func isGIF(head []byte) bool {
	return bytes.HasPrefix(head, []byte("GIF87a")) || bytes.HasPrefix(head, []byte("GIF89a"))
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WEBP"))
}

func isSVG(head []byte) bool {
	trimmed := strings.ToLower(strings.TrimSpace(string(head)))
	if strings.HasPrefix(trimmed, "<svg") {
		return true
	}
	return strings.HasPrefix(trimmed, "<?xml") && strings.Contains(trimmed, "<svg")
}
