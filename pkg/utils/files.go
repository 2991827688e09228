package utils

import (
	"path/filepath"
	"strings"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// InitialDescriptorPath names the initial-canvas descriptor shipped next to a
// reference image: "problems/3.png" → "problems/3.initial.json".
func InitialDescriptorPath(refPath string) string {
	return strings.TrimSuffix(refPath, filepath.Ext(refPath)) + ".initial.json"
}
