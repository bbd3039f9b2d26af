// Package fileid derives stable document ids for corpus records read from files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

const prefix = "file:"

// FileDocID returns the id of the file at path, relative to the corpus root when root is set.
// Ids do not depend on where the corpus directory is mounted.
func FileDocID(root, path string) string {
	key := filepath.Clean(path)
	if root != "" {
		if rel, err := filepath.Rel(filepath.Clean(root), key); err == nil {
			key = rel
		}
	}
	hash := sha256.Sum256([]byte(filepath.ToSlash(key)))
	return prefix + hex.EncodeToString(hash[:12])
}

// PassageID returns the id of the n-th passage (0-based) cut from the file identified by fileID.
func PassageID(fileID string, n int) string {
	return fmt.Sprintf("%s#%d", fileID, n)
}
