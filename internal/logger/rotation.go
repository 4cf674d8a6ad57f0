package logger

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// RotatingWriter is a writer that rotates log files once they reach maxSize.
// A failed rotation never stops logging: the writer keeps an open file and
// reports the failure through onError.
type RotatingWriter struct {
	mu          sync.Mutex
	filename    string
	maxSize     int64 // bytes
	maxAge      int   // days
	compress    bool
	currentFile *os.File
	currentSize int64
	closed      bool
	now         func() time.Time
	onError     func(error)
}

// NewRotatingWriter creates a new rotating writer
func NewRotatingWriter(filename string, maxSizeMB int, maxAge int, compress bool) (*RotatingWriter, error) {
	return newRotatingWriter(filename, int64(maxSizeMB)*1024*1024, maxAge, compress)
}

func newRotatingWriter(filename string, maxSize int64, maxAge int, compress bool) (*RotatingWriter, error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rw := &RotatingWriter{
		filename: filename,
		maxSize:  maxSize,
		maxAge:   maxAge,
		compress: compress,
		now:      time.Now,
		onError:  reportRotationError,
	}

	if err := rw.open(); err != nil {
		return nil, err
	}

	rw.cleanup()

	return rw, nil
}

func reportRotationError(err error) {
	fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
}

// Write writes data to the log file, rotating first if p would overflow it.
func (w *RotatingWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, os.ErrClosed
	}

	if w.currentFile == nil {
		if err := w.open(); err != nil {
			return 0, err
		}
	}

	if w.currentSize > 0 && w.currentSize+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			w.onError(err)
		}
		if w.currentFile == nil {
			return 0, errors.New("log file unavailable after rotation")
		}
	}

	n, err = w.currentFile.Write(p)
	w.currentSize += int64(n)
	return n, err
}

// Close closes the current log file
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	if w.currentFile == nil {
		return nil
	}
	err := w.currentFile.Close()
	w.currentFile = nil
	return err
}

// open opens w.filename for appending. Callers hold w.mu.
func (w *RotatingWriter) open() error {
	file, err := os.OpenFile(w.filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	w.currentFile = file
	w.currentSize = info.Size()
	return nil
}

// rotate renames the current file with a timestamp suffix and reopens
// w.filename. If the rename fails the original file is reopened. A failed
// compression keeps the uncompressed rotated file. Callers hold w.mu.
func (w *RotatingWriter) rotate() error {
	closeErr := w.currentFile.Close()
	w.currentFile = nil

	rotatedName := fmt.Sprintf("%s.%s", w.filename, w.now().Format("20060102-150405.000000000"))
	renameErr := os.Rename(w.filename, rotatedName)

	if err := w.open(); err != nil {
		return errors.Join(closeErr, renameErr, err)
	}
	if renameErr != nil {
		return errors.Join(closeErr, fmt.Errorf("failed to rename log file: %w", renameErr))
	}

	var compressErr error
	if w.compress {
		if err := compressFile(rotatedName); err != nil {
			compressErr = fmt.Errorf("failed to compress rotated log: %w", err)
		}
	}

	w.cleanup()

	return errors.Join(closeErr, compressErr)
}

// compressFile gzips filename next to itself and removes the original. An
// existing .gz is never overwritten, and a partial one is removed on failure.
func compressFile(filename string) (err error) {
	src, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer src.Close()

	gzName := filename + ".gz"
	dst, err := os.OpenFile(gzName, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(gzName)
		}
	}()

	gzw := gzip.NewWriter(dst)
	if _, err = io.Copy(gzw, src); err != nil {
		gzw.Close()
		dst.Close()
		return err
	}
	if err = gzw.Close(); err != nil {
		dst.Close()
		return err
	}
	if err = dst.Close(); err != nil {
		return err
	}

	src.Close()
	return os.Remove(filename)
}

// cleanup removes rotated files older than maxAge days.
func (w *RotatingWriter) cleanup() {
	if w.maxAge <= 0 {
		return
	}

	dir := filepath.Dir(w.filename)
	base := filepath.Base(w.filename)

	files, err := filepath.Glob(filepath.Join(dir, base+".*"))
	if err != nil {
		return
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}

	var infos []fileInfo
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		infos = append(infos, fileInfo{
			path:    file,
			modTime: info.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].modTime.Before(infos[j].modTime)
	})

	cutoff := w.now().AddDate(0, 0, -w.maxAge)
	for _, info := range infos {
		if !info.modTime.Before(cutoff) {
			break
		}
		os.Remove(info.path)
		if !strings.HasSuffix(info.path, ".gz") {
			os.Remove(info.path + ".gz")
		}
	}
}
