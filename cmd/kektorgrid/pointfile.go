package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/sanonone/kektorgrid/pkg/core/points"
)

// readPoints parses one point per line. Coordinates are separated by
// whitespace or commas; blank lines and '#' comments are skipped.
func readPoints(r io.Reader) (*points.Dense, error) {
	var (
		data []float64
		dims int
		line int
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		row, err := parseVector(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(row) == 0 {
			continue
		}
		if dims == 0 {
			dims = len(row)
		} else if len(row) != dims {
			return nil, fmt.Errorf("line %d: %d coordinates, expected %d", line, len(row), dims)
		}
		data = append(data, row...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if dims == 0 {
		return nil, fmt.Errorf("no points")
	}
	return points.NewDense(data, dims)
}

func readPointsFile(path string) (*points.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readPoints(f)
}

// parseVector parses "1.5, 2 3" into its coordinates.
func parseVector(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseBox parses "x0,y0;x1,y1" into its two corners.
func parseBox(s string) (lo, hi []float64, err error) {
	corners := strings.Split(s, ";")
	if len(corners) != 2 {
		return nil, nil, fmt.Errorf("box must be two corners separated by ';', got %q", s)
	}
	if lo, err = parseVector(corners[0]); err != nil {
		return nil, nil, err
	}
	if hi, err = parseVector(corners[1]); err != nil {
		return nil, nil, err
	}
	return lo, hi, nil
}
