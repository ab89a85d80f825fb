package modelstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/h2non/filetype"
)

var (
	// ErrTooLarge is returned for uploads over the size cap.
	ErrTooLarge = errors.New("modelstore: file too large")
	// ErrUnsupportedFormat is returned for anything but .glb and .gltf.
	ErrUnsupportedFormat = errors.New("modelstore: unsupported format")
)

// Allowed extensions.
const (
	ExtGLB  = ".glb"
	ExtGLTF = ".gltf"
)

var (
	typeGLB  = filetype.NewType("glb", "model/gltf-binary")
	typeGLTF = filetype.NewType("gltf", "model/gltf+json")
)

func init() {
	filetype.AddMatcher(typeGLB, isGLB)
	filetype.AddMatcher(typeGLTF, isGLTF)
}

// isGLB matches the binary container header: magic then version 2.
func isGLB(buf []byte) bool {
	return len(buf) >= 12 &&
		bytes.Equal(buf[:4], []byte("glTF")) &&
		binary.LittleEndian.Uint32(buf[4:8]) == 2
}

// isGLTF matches a JSON object that declares an asset block near its start.
func isGLTF(buf []byte) bool {
	trimmed := bytes.TrimLeft(buf, " \t\r\n\ufeff")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	head := trimmed
	if len(head) > 4096 {
		head = head[:4096]
	}
	return bytes.Contains(head, []byte(`"asset"`))
}

// Validate checks size, extension and content of an upload.
func (s *Store) Validate(filename string, data []byte) error {
	if int64(len(data)) > s.maxBytes {
		return fmt.Errorf("%w: %s exceeds %s", ErrTooLarge,
			humanize.IBytes(uint64(len(data))), humanize.IBytes(uint64(s.maxBytes)))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ExtGLB && ext != ExtGLTF {
		return fmt.Errorf("%w: %q, expected %s or %s", ErrUnsupportedFormat, ext, ExtGLB, ExtGLTF)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrUnsupportedFormat, filename)
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return fmt.Errorf("modelstore: sniff %s: %w", filename, err)
	}
	if "."+kind.Extension != ext {
		detected := kind.Extension
		if kind == filetype.Unknown {
			detected = "unknown"
		}
		return fmt.Errorf("%w: %s content is %s", ErrUnsupportedFormat, filename, detected)
	}
	return nil
}
