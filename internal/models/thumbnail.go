package models

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ThumbnailKind tags the variant held by a [Thumbnail].
type ThumbnailKind int

const (
	ThumbnailNone ThumbnailKind = iota
	ThumbnailRemote
	ThumbnailUpload
)

func (k ThumbnailKind) String() string {
	switch k {
	case ThumbnailRemote:
		return "remote"
	case ThumbnailUpload:
		return "upload"
	default:
		return "none"
	}
}

func (k ThumbnailKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ThumbnailKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none", "":
		*k = ThumbnailNone
	case "remote":
		*k = ThumbnailRemote
	case "upload":
		*k = ThumbnailUpload
	default:
		return fmt.Errorf("unknown thumbnail kind %q", text)
	}
	return nil
}

// Thumbnail is either nothing, a remote image URL, or the filename of a local upload.
type Thumbnail struct {
	Kind ThumbnailKind `json:"kind"`
	Ref  string        `json:"ref,omitempty"`
}

// RemoteThumbnail references an image hosted elsewhere, e.g. the recipe API's CDN.
func RemoteThumbnail(rawURL string) Thumbnail {
	if rawURL == "" {
		return Thumbnail{}
	}
	return Thumbnail{Kind: ThumbnailRemote, Ref: rawURL}
}

// UploadThumbnail references a file in the uploads directory. Only the base name is kept.
func UploadThumbnail(filename string) Thumbnail {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return Thumbnail{}
	}
	return Thumbnail{Kind: ThumbnailUpload, Ref: name}
}

// ParseThumbnail classifies a stored or user-supplied reference.
func ParseThumbnail(ref string) Thumbnail {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return Thumbnail{}
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return RemoteThumbnail(ref)
	default:
		return UploadThumbnail(ref)
	}
}

// IsZero reports whether the thumbnail holds nothing.
func (t Thumbnail) IsZero() bool {
	return t.Kind == ThumbnailNone
}

// URL renders the thumbnail as a link. Uploads are served under uploadPrefix.
func (t Thumbnail) URL(uploadPrefix string) string {
	switch t.Kind {
	case ThumbnailRemote:
		return t.Ref
	case ThumbnailUpload:
		return strings.TrimRight(uploadPrefix, "/") + "/" + url.PathEscape(t.Ref)
	default:
		return ""
	}
}
