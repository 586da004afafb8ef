// Package storage keeps uploaded notes files in an object store.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// MaxUploadSize caps a single notes file at 50 MB.
const MaxUploadSize = 50_000_000

var ErrUnsupportedType = errors.New("unsupported file type")

var allowedContentTypes = []string{
	"application/pdf",
	"application/x-pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"",
}

type ObjectStore interface {
	// Put stores body under key and returns the public location of the object.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

func AllowedContentType(contentType string) bool {
	return slices.Contains(allowedContentTypes, contentType)
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9.]`)

// ObjectKey derives a unique stored name from an uploaded file name,
// e.g. "my notes.pdf" becomes "<uuid>-MY-NOTES-[Shared by QuizBlog].PDF".
func ObjectKey(filename string) string {
	return uuid.NewString() + "-" + displayName(filename)
}

func displayName(filename string) string {
	name := strings.ToUpper(path.Base(filename))
	name = strings.Join(strings.Split(name, " "), "-")
	name = unsafeKeyChars.ReplaceAllString(name, "-")
	return strings.ReplaceAll(name, ".", "-[Shared by QuizBlog].")
}

// KeyFromLocation recovers the object key from a location returned by Put.
func KeyFromLocation(location string) string {
	if location == "" {
		return ""
	}
	last := location[strings.LastIndex(location, "/")+1:]
	if key, err := url.PathUnescape(last); err == nil {
		return key
	}
	return last
}
