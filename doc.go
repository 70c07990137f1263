// Package fencepack converts between zip archives of text files and single
// documents that embed those files as labeled code fences.
//
// Two directions are supported:
//
//   - Combine: an archive of text entries is filtered by suffix, each entry is
//     validated (UTF-8 and line-structure consistency) and the survivors are
//     concatenated into one delimited document.
//   - Extract: a document containing fenced code blocks is tokenized back into
//     individual files, which are packed into a new zip archive at their
//     logical paths.
//
// Both directions are pure in-memory transforms. Each call owns its buffers and
// its [Log]; nothing is staged on disk and nothing is shared between calls.
//
// # Document Formats
//
// Combine produces one section per accepted entry:
//
//	<display-name>
//	---
//	<trimmed content>
//	---
//
// Extract understands two fence dialects. A titled block names its path:
//
//	File 1: dir/b.txt
//	```go
//	package b
//	```
//
// A plain block has no header and is written as code_block_<N> with the
// configured extension. The closing fence of the last block may be missing.
//
// # Basic Usage
//
//	res, err := fencepack.CombineArchive(zipBytes, fencepack.WithPolicy(fencepack.PolicyLenient))
//	if err != nil {
//		return err // fencepack.ErrArchiveOpen, fencepack.ErrLimitExceeded
//	}
//	fmt.Print(res.Document)
//	for _, line := range res.Log.Lines() {
//		fmt.Fprintln(os.Stderr, line)
//	}
//
//	ext, err := fencepack.ExtractFromDocument(text)
//	if err != nil {
//		return err
//	}
//	if ext.Empty() {
//		// no content found
//	}
//	os.WriteFile("out.zip", ext.Archive, 0o644)
//
// # Security Considerations
//
// Logical paths are validated before they become archive entries: absolute
// paths and parent-directory segments are rejected with [ErrPathTraversal].
// Archive reads and document decompression are bounded by configurable
// [Limits].
package fencepack
