package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-transclude"
	"github.com/alnah/go-transclude/internal/fileutil"
)

// discoverPages finds the HTML pages to build and the site root relative
// sources resolve against: the directory itself, or a file's parent.
func discoverPages(inputPath, outputDir string) (string, []PageToBuild, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return "", nil, err
	}

	if !info.IsDir() {
		if err := validateHTMLExtension(inputPath); err != nil {
			return "", nil, err
		}
		root, err := filepath.Abs(filepath.Dir(inputPath))
		if err != nil {
			return "", nil, err
		}
		page := PageToBuild{
			InputPath:  inputPath,
			OutputPath: resolveOutputPath(inputPath, outputDir, ""),
			Location:   filepath.Base(inputPath),
		}
		if err := checkOutputPath(page); err != nil {
			return "", nil, err
		}
		return root, []PageToBuild{page}, nil
	}

	root, err := filepath.Abs(inputPath)
	if err != nil {
		return "", nil, err
	}

	var pages []PageToBuild
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() {
			if path != inputPath && outputDir != "" && isPathUnder(path, outputDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if !fileutil.IsHTMLFile(path) || strings.HasSuffix(path, outSuffix) {
			return nil
		}
		rel, err := filepath.Rel(inputPath, path)
		if err != nil {
			return err
		}
		page := PageToBuild{
			InputPath:  path,
			OutputPath: resolveOutputPath(path, outputDir, inputPath),
			Location:   filepath.ToSlash(rel),
		}
		if err := checkOutputPath(page); err != nil {
			return err
		}
		pages = append(pages, page)
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	return root, pages, nil
}

// checkOutputPath rejects a page whose output would replace its own source.
func checkOutputPath(p PageToBuild) error {
	in, err := filepath.Abs(p.InputPath)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(p.OutputPath)
	if err != nil {
		return err
	}
	if in == out {
		return fmt.Errorf("%w: %s", ErrOutputIsInput, p.InputPath)
	}
	return nil
}

// resolveOutputPath determines the output path for a page.
func resolveOutputPath(inputPath, outputDir, baseInputDir string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base+outSuffix)
	}

	if baseInputDir == "" && fileutil.IsHTMLFile(outputDir) {
		return outputDir
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			return filepath.Join(outputDir, relPath)
		}
	}

	return filepath.Join(outputDir, filepath.Base(inputPath))
}

// validateHTMLExtension checks that the file has an .html or .htm extension.
func validateHTMLExtension(path string) error {
	if !fileutil.IsHTMLFile(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > transclude.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, transclude.MaxPoolSize)
	}
	return nil
}

// isPathUnder reports whether path is dir or inside it.
func isPathUnder(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
