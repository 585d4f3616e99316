package dataset

import (
	"path/filepath"
	"strings"
)

func filepathAbs(path string) (string, error) {
	return filepath.Abs(path)
}

// baseName derives a dataset's display name from its mounted path: the
// file name with its extension stripped, matching the original server's
// use of the relative mount path as the DDS "Dataset { ... } name;" name.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
