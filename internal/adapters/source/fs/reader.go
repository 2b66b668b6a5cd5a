// Package fs reads local files and directories for attachment.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
)

const (
	sniffLength  = 512
	maxFileBytes = 8 << 20
	maxParallel  = 8
)

var (
	ErrHidden     = errors.New("hidden file")
	ErrDeniedType = errors.New("unsupported file type")
	ErrBinary     = errors.New("binary content")
	ErrTooLarge   = errors.New("file too large")
	ErrNotRegular = errors.New("not a regular file")
)

// deniedExtensions are formats a text model cannot use.
var deniedExtensions = map[string]bool{}

func init() {
	for _, ext := range []string{
		// images
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".ico", ".tiff", ".webp", ".heic", ".raw", ".psd", ".ai", ".xcf", ".svg",
		// audio and video
		".mp4", ".mkv", ".mov", ".mp3", ".wav", ".flac", ".aac", ".m4a", ".webm", ".avi", ".wmv", ".wma",
		// archives
		".zip", ".tar", ".gz", ".7z", ".rar", ".iso", ".jar", ".tgz", ".bz2", ".xz", ".cab", ".z", ".lz4", ".zst",
		// packages
		".dmg", ".pkg", ".deb", ".rpm", ".msi", ".msix", ".apk", ".war", ".ear",
		// executables and bytecode
		".exe", ".dll", ".so", ".bin", ".o", ".obj", ".pyc", ".pyo", ".pyd", ".class", ".dylib", ".elf", ".wasm", ".node",
		// model weights and data blobs
		".onnx", ".tflite", ".pth", ".h5", ".ckpt", ".pt", ".safetensors", ".parquet", ".arrow", ".npy", ".npz", ".pickle", ".pkl",
		// documents
		".pdf", ".epub", ".mobi", ".djvu", ".docx", ".xlsx", ".pptx", ".odt", ".ods", ".odp", ".doc", ".xls", ".ppt",
		// fonts
		".ttf", ".otf", ".woff", ".woff2", ".eot", ".cur", ".ani",
		// databases and disk images
		".db", ".sqlite", ".sqlite3", ".mdb", ".accdb", ".vdi", ".vmdk", ".qcow2", ".ova", ".img",
		// system metadata
		".ds_store", ".swp", ".journal",
	} {
		deniedExtensions[ext] = true
	}
}

var deniedNames = map[string]bool{"thumbs.db": true}

type Reader struct {
	home func() (string, error)
}

var _ ports.SourceReader = (*Reader)(nil)

func NewReader() *Reader {
	return &Reader{home: os.UserHomeDir}
}

func (r *Reader) IsDir(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	abs, err := r.resolve(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", abs, err)
	}
	return info.IsDir(), nil
}

func (r *Reader) ReadFile(ctx context.Context, path string) (domain.SourceFile, error) {
	if err := ctx.Err(); err != nil {
		return domain.SourceFile{}, err
	}

	abs, err := r.resolve(path)
	if err != nil {
		return domain.SourceFile{}, err
	}
	body, err := readText(abs)
	if err != nil {
		return domain.SourceFile{}, fmt.Errorf("read %s: %w", abs, err)
	}
	return domain.SourceFile{Path: abs, Body: body}, nil
}

// ReadDirectory reads the immediate children of path concurrently. Entries
// that are filtered out are listed in Skipped with a reason; files are
// returned sorted by path.
func (r *Reader) ReadDirectory(ctx context.Context, path string) (domain.DirectoryListing, error) {
	if err := ctx.Err(); err != nil {
		return domain.DirectoryListing{}, err
	}

	abs, err := r.resolve(path)
	if err != nil {
		return domain.DirectoryListing{}, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return domain.DirectoryListing{}, fmt.Errorf("list %s: %w", abs, err)
	}

	var candidates []string
	listing := domain.DirectoryListing{Path: abs}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		candidates = append(candidates, filepath.Join(abs, entry.Name()))
	}

	files := make([]domain.SourceFile, len(candidates))
	reasons := make([]error, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, candidate := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			body, err := readText(candidate)
			if err != nil {
				reasons[i] = err
				return nil
			}
			files[i] = domain.SourceFile{Path: candidate, Body: body}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.DirectoryListing{}, err
	}

	for i, candidate := range candidates {
		if reasons[i] != nil {
			listing.Skipped = append(listing.Skipped, domain.SkippedFile{Path: candidate, Reason: reasons[i].Error()})
			continue
		}
		listing.Files = append(listing.Files, files[i])
	}
	sort.Slice(listing.Files, func(i, j int) bool { return listing.Files[i].Path < listing.Files[j].Path })
	sort.Slice(listing.Skipped, func(i, j int) bool { return listing.Skipped[i].Path < listing.Skipped[j].Path })

	return listing, nil
}

func (r *Reader) resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is empty")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := r.home()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return abs, nil
}

// Eligible reports whether a file name passes the name filters.
func Eligible(name string) error {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(name, "."):
		return ErrHidden
	case deniedNames[lower], deniedExtensions[filepath.Ext(lower)]:
		return ErrDeniedType
	}
	return nil
}

func readText(path string) (string, error) {
	if err := Eligible(filepath.Base(path)); err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", ErrNotRegular
	}
	if info.Size() > maxFileBytes {
		return "", ErrTooLarge
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxFileBytes+1))
	if err != nil {
		return "", err
	}
	if !looksLikeText(raw) {
		return "", ErrBinary
	}

	text, err := decode(raw)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(text, "```", "'''"), nil
}

func looksLikeText(raw []byte) bool {
	head := raw
	if len(head) > sniffLength {
		head = head[:sniffLength]
	}
	if len(head) == 0 {
		return true
	}
	contentType := http.DetectContentType(head)
	return strings.HasPrefix(contentType, "text/") ||
		strings.HasPrefix(contentType, "application/json") ||
		strings.HasPrefix(contentType, "application/xml")
}

// decode reads raw as UTF-8 and falls back to Latin-1, which maps every byte.
func decode(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode latin-1: %w", err)
	}
	return string(decoded), nil
}
