// Package media handles asset identity and frame extraction. Media ids are
// content hashes so the same file ingested twice resolves to the same cache
// entries regardless of filename.
package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vidmind/internal/logging"
	"vidmind/internal/types"
)

var audioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".flac": true,
	".ogg": true, ".aac": true, ".wma": true, ".opus": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".mov": true, ".avi": true,
	".webm": true, ".flv": true, ".wmv": true, ".mpeg": true, ".mpg": true,
}

// Identify resolves a path to a media asset: verifies the file exists,
// detects its kind from the extension, and computes the content-hash id.
func Identify(path string) (*types.MediaAsset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, types.E(types.KindIngestion, "identify", fmt.Errorf("cannot access %s: %w", path, err))
	}
	if info.IsDir() {
		return nil, types.E(types.KindIngestion, "identify", fmt.Errorf("%s is a directory", path))
	}

	kind, err := DetectKind(path)
	if err != nil {
		return nil, err
	}

	id, err := HashFile(path)
	if err != nil {
		return nil, types.E(types.KindIngestion, "identify", err)
	}

	logging.Media("Identified %s: kind=%s id=%s", filepath.Base(path), kind, id[:12])
	return &types.MediaAsset{ID: id, Kind: kind, Path: path}, nil
}

// DetectKind classifies a file as audio or video by extension.
func DetectKind(path string) (types.MediaKind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case audioExtensions[ext]:
		return types.MediaKindAudio, nil
	case videoExtensions[ext]:
		return types.MediaKindVideo, nil
	default:
		return "", types.E(types.KindIngestion, "detect_kind",
			fmt.Errorf("unsupported media extension %q", ext))
	}
}

// HashFile returns the hex SHA-256 of the file contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsSupported reports whether the path has a recognized media extension.
func IsSupported(path string) bool {
	_, err := DetectKind(path)
	return err == nil
}
