// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package orchestrator

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DatabaseSuffix is the only file name suffix accepted for upload.
const DatabaseSuffix = ".db"

// File is a candidate database for upload: a declared name plus a way to read it.
type File struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileFromPath refers to a file on disk. The file is opened only at upload time.
func FileFromPath(path string) File {
	return File{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// FileFromBytes wraps in-memory contents under a declared name.
func FileFromBytes(name string, data []byte) File {
	return File{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

func (f File) valid() bool {
	return f.Open != nil && strings.HasSuffix(f.Name, DatabaseSuffix)
}
