// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package audit

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/samber/oops"
)

// DefaultFilePath is the JSONL log used when none is configured.
const DefaultFilePath = "login_events.jsonl"

// CodeFileWriteFailed marks a file sink failure.
const CodeFileWriteFailed = "AUDIT_FILE_WRITE_FAILED"

// FileSink appends redacted events to a JSONL file. The file is opened per
// write with O_APPEND and each record is a single write call, so concurrent
// writers in one or many processes never interleave within a line.
type FileSink struct {
	path string
}

// NewFileSink creates a FileSink for path. An empty path uses DefaultFilePath.
func NewFileSink(path string) *FileSink {
	if path == "" {
		path = DefaultFilePath
	}
	return &FileSink{path: path}
}

// Path returns the target file.
func (s *FileSink) Path() string {
	return s.path
}

// Append writes ev as one line. Parent directories are created as needed.
func (s *FileSink) Append(_ context.Context, ev SafeEvent) error {
	if ev.IsZero() {
		return oops.Code(CodeFileWriteFailed).With("reason", "encode").Errorf("refusing to write unredacted event")
	}

	data, err := ev.MarshalJSON()
	if err != nil {
		return oops.Code(CodeFileWriteFailed).With("reason", "encode").Wrap(err)
	}
	line := append(data, '\n')

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return oops.Code(CodeFileWriteFailed).
				With("path", s.path).
				With("reason", fileReason(err)).
				Wrap(err)
		}
	}

	//nolint:gosec // G304: path comes from operator configuration
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return oops.Code(CodeFileWriteFailed).
			With("path", s.path).
			With("reason", fileReason(err)).
			Wrap(err)
	}

	_, werr := f.Write(line)
	cerr := f.Close()
	if werr != nil {
		return oops.Code(CodeFileWriteFailed).
			With("path", s.path).
			With("reason", fileReason(werr)).
			Wrap(werr)
	}
	if cerr != nil {
		return oops.Code(CodeFileWriteFailed).
			With("path", s.path).
			With("reason", fileReason(cerr)).
			Wrap(cerr)
	}
	return nil
}

// fileReason maps an OS error to a low-cardinality metric label.
func fileReason(err error) string {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return "permission"
	case errors.Is(err, syscall.ENOSPC):
		return "disk_full"
	case errors.Is(err, fs.ErrNotExist):
		return "not_found"
	default:
		return "io"
	}
}
