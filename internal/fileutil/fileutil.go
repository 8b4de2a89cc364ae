// Package fileutil holds the file modes used when writing command output.
package fileutil

import "os"

// OwnerReadWrite is the mode for report files, which may echo request and
// response payloads (owner read/write only).
const OwnerReadWrite os.FileMode = 0o600
