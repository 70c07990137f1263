package fencepack

import "errors"

var (
	ErrArchiveOpen            = errors.New("fencepack: cannot open archive")
	ErrDecode                 = errors.New("fencepack: invalid UTF-8")
	ErrStructureMismatch      = errors.New("fencepack: line structure mismatch")
	ErrNoContent              = errors.New("fencepack: no content found")
	ErrPathTraversal          = errors.New("fencepack: path traversal")
	ErrInvalidPath            = errors.New("fencepack: invalid path")
	ErrIO                     = errors.New("fencepack: i/o failure")
	ErrLimitExceeded          = errors.New("fencepack: limit exceeded")
	ErrInvalidPayload         = errors.New("fencepack: invalid payload")
	ErrUnsupportedCompression = errors.New("fencepack: unsupported compression")
)
