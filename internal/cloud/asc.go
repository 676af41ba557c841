package cloud

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadASC parses a whitespace-separated point cloud text stream. Each
// non-empty line carries "x y z" with optional trailing "intensity" and
// "classification" columns. Lines starting with '#' are skipped.
func ReadASC(r io.Reader) (*Cloud, error) {
	c := New(0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 columns, got %d", lineNo, len(fields))
		}

		var coords [3]float64
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad coordinate %q: %w", lineNo, fields[i], err)
			}
			coords[i] = v
		}

		p := Point{X: coords[0], Y: coords[1], Z: coords[2]}
		if len(fields) > 3 {
			v, err := strconv.ParseUint(fields[3], 10, 8)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad intensity %q: %w", lineNo, fields[3], err)
			}
			p.Intensity = uint8(v)
		}

		idx := c.Append(p)
		if len(fields) > 4 {
			v, err := strconv.ParseUint(fields[4], 10, 8)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad classification %q: %w", lineNo, fields[4], err)
			}
			c.SetClassification(idx, uint8(v))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read point stream: %w", err)
	}

	return c, nil
}

// WriteASC writes the cloud as "x y z intensity classification" lines.
func WriteASC(w io.Writer, c *Cloud) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < c.Len(); i++ {
		p := c.At(i)
		_, err := fmt.Fprintf(bw, "%g %g %g %d %d\n", p.X, p.Y, p.Z, p.Intensity, c.Classification(i))
		if err != nil {
			return fmt.Errorf("write point %d: %w", i, err)
		}
	}
	return bw.Flush()
}
