package glb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pose-studio/internal/scene"
)

// WriteFile writes data to path through a temporary file in the same
// directory and renames it into place, so a failed write never leaves a
// partial file behind.
func WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("glb: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("glb: create temp: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("glb: write %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("glb: sync %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("glb: close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("glb: rename %s: %w", path, err)
	}
	return nil
}

// Load reads and decodes a .glb or self-contained .gltf file.
func Load(path string) (*scene.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("glb: read %s: %w", path, err)
	}
	root, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

// Slug reduces a display name to a file name component: letters, digits,
// '-', '_' and '.', with spaces turned into single dashes. A name with
// nothing usable yields fallback.
func Slug(name, fallback string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, strings.TrimSpace(name))
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '-' }), "-")
	if strings.Trim(s, ".") == "" {
		return fallback
	}
	return s
}
