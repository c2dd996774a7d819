package utils

import (
	"os"
	"path/filepath"
)

// IRExtension is appended to a source path to name its IR output.
const IRExtension = ".ll"

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

// OutputPath returns where the IR for a source file goes: the absolute
// source path with ".ll" appended (prog.let -> prog.let.ll).
func OutputPath(srcPath string) (string, error) {
	fullPath, _, err := GetPathInfo(srcPath)
	if err != nil {
		return "", err
	}
	return fullPath + IRExtension, nil
}

// WriteFile replaces the contents of path with data.
func WriteFile(path string, data string) error {
	return os.WriteFile(path, []byte(data), 0o644)
}
