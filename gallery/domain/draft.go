package domain

import "strings"

// File is the binary part of an upload as selected by the user.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the size of the file in bytes.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// Empty reports whether no file was selected.
func (f File) Empty() bool {
	return f.Data == nil && strings.TrimSpace(f.Name) == ""
}

// UploadDraft is an unvalidated candidate upload. It only lives for the
// duration of one submission attempt and is never persisted.
type UploadDraft struct {
	File        File
	Title       string
	Description string
}
