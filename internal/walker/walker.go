// Package walker scans directory trees for shader source and bytecode
// files to pack into an archive.
package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/zeebo/blake3"

	"github.com/TFMV/devarchive/internal/gfx"
)

// WalkOptions contains options for the Walk function.
type WalkOptions struct {
	// ComputeHashes determines whether file digests should be computed.
	ComputeHashes bool
	// FollowSymlinks determines whether symbolic links should be
	// followed.
	FollowSymlinks bool
}

// DefaultWalkOptions returns the default options for Walk.
func DefaultWalkOptions() WalkOptions {
	return WalkOptions{ComputeHashes: true}
}

// ShaderFile is one shader discovered on disk.
type ShaderFile struct {
	Path    string
	Payload []byte
	Hash    []byte
	CI      gfx.ShaderCreateInfo
}

// shaderExtensions maps file extensions to source language. Unknown
// extensions are skipped.
var shaderExtensions = map[string]gfx.ShaderSourceLanguage{
	".hlsl":  gfx.SourceLanguageHLSL,
	".glsl":  gfx.SourceLanguageGLSL,
	".vert":  gfx.SourceLanguageGLSL,
	".frag":  gfx.SourceLanguageGLSL,
	".comp":  gfx.SourceLanguageGLSL,
	".metal": gfx.SourceLanguageMSL,
	".spv":   gfx.SourceLanguageDefault,
}

// stageFromName infers the shader stage from conventional name parts
// such as "foo.vs.hlsl" or "bar.frag".
func stageFromName(name string) gfx.ShaderType {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, ".vs.") || strings.HasSuffix(lower, ".vert"):
		return gfx.ShaderTypeVertex
	case strings.Contains(lower, ".ps.") || strings.Contains(lower, ".fs.") || strings.HasSuffix(lower, ".frag"):
		return gfx.ShaderTypePixel
	case strings.Contains(lower, ".cs.") || strings.HasSuffix(lower, ".comp"):
		return gfx.ShaderTypeCompute
	case strings.Contains(lower, ".gs."):
		return gfx.ShaderTypeGeometry
	default:
		return gfx.ShaderTypeVertex
	}
}

// computeHash calculates the BLAKE3 digest of data.
func computeHash(data []byte) []byte {
	h := blake3.New()
	h.Write(data)
	return h.Sum(nil)
}

// Walk scans root for shader files and returns them in path order.
func Walk(ctx context.Context, root string, options WalkOptions) ([]ShaderFile, error) {
	var shaders []ShaderFile

	err := godirwalk.Walk(root, &godirwalk.Options{
		FollowSymbolicLinks: options.FollowSymlinks,
		Unsorted:            false,
		Callback: func(path string, de *godirwalk.Dirent) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if de.IsDir() {
				return nil
			}
			lang, ok := shaderExtensions[strings.ToLower(filepath.Ext(path))]
			if !ok {
				return nil
			}

			payload, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read shader %s: %w", path, err)
			}
			sf := ShaderFile{
				Path:    path,
				Payload: payload,
				CI: gfx.ShaderCreateInfo{
					ShaderType:     stageFromName(filepath.Base(path)),
					EntryPoint:     "main",
					SourceLanguage: lang,
				},
			}
			if options.ComputeHashes {
				sf.Hash = computeHash(payload)
			}
			shaders = append(shaders, sf)
			return nil
		},
		ErrorCallback: func(_ string, _ error) godirwalk.ErrorAction {
			if ctx.Err() != nil {
				return godirwalk.Halt
			}
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, err
	}
	return shaders, nil
}
