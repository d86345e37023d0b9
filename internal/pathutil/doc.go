// Package pathutil provides efficient path building utilities for workflow
// document traversal.
//
// The primary type is [PathBuilder], which uses push/pop semantics to build
// dotted diagnostic paths incrementally without allocating intermediate
// strings. This is particularly useful in recursive spec-walking where a
// path is extended on each recursive call but only materialized when
// reporting an issue.
//
// # PathBuilder Usage
//
// Use [Get] to obtain a pooled PathBuilder, and [Put] to return it:
//
//	path := pathutil.Get()
//	defer pathutil.Put(path)
//
//	path.Push("actions")
//	path.PushIndex(0)
//	path.Push("operation")
//	// ... recurse ...
//	path.Pop()
//	path.Pop()
//	path.Pop()
//
//	// Only call String() when needed (e.g., reporting an issue)
//	if hasError {
//	    return fmt.Errorf("error at %s", path.String())
//	}
//
// Array indices are supported via [PathBuilder.PushIndex]:
//
//	path.Push("checkpoints")
//	path.PushIndex(2) // produces "checkpoints[2]"
//
// # Input Path Sanitization
//
// [SanitizePath] validates and cleans a file path supplied by a caller
// before the document loader opens it. It rejects directory traversal
// ("..") and symlinks:
//
//	safe, err := pathutil.SanitizePath(userProvidedPath)
//	if err != nil {
//	    return err // path traversal or symlink detected
//	}
package pathutil
