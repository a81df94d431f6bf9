// Package bcfile reads and writes XBeach wave boundary files: JONSWAP
// parameter files and the FILELIST index that sequences them.
package bcfile

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.ngs.io/wave-boundary/internal/domain"
)

// FileListName is the name of the index file written in sequence mode.
const FileListName = "filelist.txt"

// fileListHeader is the first line of a filelist.
const fileListHeader = "FILELIST"

// Keyword names used in JONSWAP files.
var jonswapKeys = map[string]string{
	domain.ParamHm0:      "Hm0",
	domain.ParamTp:       "Tp",
	domain.ParamMainAng:  "mainang",
	domain.ParamGammaJsp: "gammajsp",
	domain.ParamS:        "s",
}

// Entry is one line of a filelist.
type Entry struct {
	Duration float64 // Seconds the bcfile applies for.
	Dbtc     float64 // Boundary condition time step [s].
	BCFile   string  // File name, relative to the filelist.
}

// WriteJonswap writes the record to dir under its generated file name and
// returns the path.
func WriteJonswap(dir string, r *domain.Record) (string, error) {
	var buf bytes.Buffer
	for _, p := range r.Params() {
		fmt.Fprintf(&buf, "%s = %g\n", jonswapKeys[p.Name], p.Value)
	}
	opts := r.Options()
	if opts.Fnyq != nil {
		fmt.Fprintf(&buf, "fnyq = %g\n", *opts.Fnyq)
	}
	if opts.Dfj != nil {
		fmt.Fprintf(&buf, "dfj = %g\n", *opts.Dfj)
	}
	path := filepath.Join(dir, r.FileName())
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// ReadJonswap parses a JONSWAP file into keyword/value pairs.
func ReadJonswap(path string) (map[string]float64, error) {
	//nolint:gosec // G304: path is produced by WriteJonswap or supplied by the caller.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bcfile %s: %w", path, err)
	}
	out := make(map[string]float64)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("%s:%d: expected key = value, got %q", path, line, text)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid value: %w", path, line, err)
		}
		out[strings.TrimSpace(key)] = v
	}
	return out, sc.Err()
}

// WriteFileList writes the FILELIST index to dir and returns its path.
func WriteFileList(dir string, entries []Entry) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(fileListHeader + "\n")
	for _, e := range entries {
		fmt.Fprintf(&buf, "%g %g %s\n", e.Duration, e.Dbtc, e.BCFile)
	}
	path := filepath.Join(dir, FileListName)
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// ReadFileList parses a FILELIST index.
func ReadFileList(path string) ([]Entry, error) {
	//nolint:gosec // G304: path is produced by WriteFileList or supplied by the caller.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read filelist %s: %w", path, err)
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	if !sc.Scan() || strings.TrimSpace(sc.Text()) != fileListHeader {
		return nil, fmt.Errorf("%s: missing %s header", path, fileListHeader)
	}
	entries := make([]Entry, 0)
	for line := 2; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("%s:%d: expected '<duration> <dbtc> <bcfile>', got %q", path, line, sc.Text())
		}
		duration, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid duration: %w", path, line, err)
		}
		dbtc, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid dbtc: %w", path, line, err)
		}
		entries = append(entries, Entry{Duration: duration, Dbtc: dbtc, BCFile: fields[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place, so readers never see a partial file.
func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
