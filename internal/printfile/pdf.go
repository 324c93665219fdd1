package printfile

import (
	"bytes"
	"compress/zlib"
	"io"
	"regexp"
	"strconv"
	"strings"

	pkgerrors "github.com/printforge/proofroom-backend/pkg/errors"
)

// document holds the raw PDF bytes plus every inflated stream, so name and
// operator scans see compressed content as well.
type document struct {
	segments [][]byte
}

var (
	streamStartRe = regexp.MustCompile(`stream\r?\n`)
	objRe         = regexp.MustCompile(`\d+\s+\d+\s+obj`)

	// Optional content groups carry /Type /OCG and a /Name string; key order
	// inside the dictionary is not fixed.
	ocgNameAfterRe  = regexp.MustCompile(`(?s)/Type\s*/OCG.{0,400}?/Name\s*\(((?:\\.|[^\\)])*)\)`)
	ocgNameBeforeRe = regexp.MustCompile(`(?s)/Name\s*\(((?:\\.|[^\\)])*)\).{0,400}?/Type\s*/OCG`)

	separationRe = regexp.MustCompile(`/Separation\s*/([^\s/\[\]()<>{}%]+)`)

	boxNumRe = `\[\s*(-?[\d.]+)\s+(-?[\d.]+)\s+(-?[\d.]+)\s+(-?[\d.]+)\s*\]`
)

func parseDocument(data []byte) (*document, error) {
	if !objRe.Match(data) {
		return nil, pkgerrors.New(pkgerrors.CodeAnalysis, "document has no PDF objects")
	}

	doc := &document{segments: [][]byte{data}}
	for _, loc := range streamStartRe.FindAllIndex(data, -1) {
		end := bytes.Index(data[loc[1]:], []byte("endstream"))
		if end < 0 {
			continue
		}
		dictStart := loc[0] - 512
		if dictStart < 0 {
			dictStart = 0
		}
		if !bytes.Contains(data[dictStart:loc[0]], []byte("/FlateDecode")) {
			continue
		}
		inflated, err := inflate(data[loc[1] : loc[1]+end])
		if err != nil {
			continue
		}
		doc.segments = append(doc.segments, inflated)
	}
	return doc, nil
}

func inflate(compressed []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(bytes.TrimRight(compressed, "\r\n")))
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(io.LimitReader(r, maxDocumentBytes))
}

func (d *document) layerNames() []string {
	var names []string
	for _, segment := range d.segments {
		for _, re := range []*regexp.Regexp{ocgNameAfterRe, ocgNameBeforeRe} {
			for _, match := range re.FindAllSubmatch(segment, -1) {
				if name := unescapeLiteral(string(match[1])); name != "" {
					names = appendUnique(names, name)
				}
			}
		}
	}
	return names
}

func (d *document) spotColorNames() []string {
	var names []string
	for _, segment := range d.segments {
		for _, match := range separationRe.FindAllSubmatch(segment, -1) {
			colorant := decodeName(string(match[1]))
			if colorant == "" || colorant == "All" || colorant == "None" {
				continue
			}
			names = appendUnique(names, colorant)
		}
	}
	return names
}

// pageBox returns the first /TrimBox or /MediaBox found, in points.
func (d *document) pageBox(key string) (BoundingBox, bool) {
	re := regexp.MustCompile(`/` + key + `\s*` + boxNumRe)
	for _, segment := range d.segments {
		match := re.FindSubmatch(segment)
		if match == nil {
			continue
		}
		coords := make([]float64, 4)
		ok := true
		for i := 0; i < 4; i++ {
			value, err := strconv.ParseFloat(string(match[i+1]), 64)
			if err != nil {
				ok = false
				break
			}
			coords[i] = value
		}
		if !ok {
			continue
		}
		box := BoundingBox{
			MinX: min(coords[0], coords[2]),
			MinY: min(coords[1], coords[3]),
			MaxX: max(coords[0], coords[2]),
			MaxY: max(coords[1], coords[3]),
		}
		if box.Width() <= 0 || box.Height() <= 0 {
			continue
		}
		return box, true
	}
	return BoundingBox{}, false
}

// contourBoundingBox walks content-stream operators and accumulates path
// coordinates drawn while a matching separation color space is selected.
func (d *document) contourBoundingBox(match func(string) bool) (BoundingBox, bool) {
	acc := newBoxAccumulator()
	for _, segment := range d.segments {
		scanContentStream(segment, match, acc)
	}
	return acc.box()
}

type boxAccumulator struct {
	seen bool
	b    BoundingBox
}

func newBoxAccumulator() *boxAccumulator {
	return &boxAccumulator{}
}

func (a *boxAccumulator) add(x, y float64) {
	if !a.seen {
		a.b = BoundingBox{MinX: x, MinY: y, MaxX: x, MaxY: y}
		a.seen = true
		return
	}
	a.b.MinX = min(a.b.MinX, x)
	a.b.MinY = min(a.b.MinY, y)
	a.b.MaxX = max(a.b.MaxX, x)
	a.b.MaxY = max(a.b.MaxY, y)
}

func (a *boxAccumulator) box() (BoundingBox, bool) {
	if !a.seen || a.b.Width() <= 0 || a.b.Height() <= 0 {
		return BoundingBox{}, false
	}
	return a.b, true
}

// scanContentStream tracks the selected color space by resource name and
// feeds path construction operands into the accumulator while it matches.
func scanContentStream(segment []byte, match func(string) bool, acc *boxAccumulator) {
	fields := strings.Fields(string(segment))

	var numbers []float64
	var lastName string
	active := false

	flushPairs := func(count int) {
		if !active || len(numbers) < count {
			numbers = numbers[:0]
			return
		}
		operands := numbers[len(numbers)-count:]
		for i := 0; i+1 < len(operands); i += 2 {
			acc.add(operands[i], operands[i+1])
		}
		numbers = numbers[:0]
	}

	for _, field := range fields {
		if strings.HasPrefix(field, "/") {
			lastName = decodeName(strings.TrimPrefix(field, "/"))
			numbers = numbers[:0]
			continue
		}
		if value, err := strconv.ParseFloat(field, 64); err == nil {
			numbers = append(numbers, value)
			continue
		}

		switch field {
		case "CS", "cs":
			active = match(lastName)
		case "m", "l":
			flushPairs(2)
		case "v", "y":
			flushPairs(4)
		case "c":
			flushPairs(6)
		case "re":
			if active && len(numbers) >= 4 {
				operands := numbers[len(numbers)-4:]
				acc.add(operands[0], operands[1])
				acc.add(operands[0]+operands[2], operands[1]+operands[3])
			}
			numbers = numbers[:0]
		default:
			numbers = numbers[:0]
		}
	}
}

// decodeName expands #xx escapes in a PDF name token.
func decodeName(token string) string {
	if !strings.Contains(token, "#") {
		return token
	}
	var b strings.Builder
	for i := 0; i < len(token); i++ {
		if token[i] == '#' && i+2 < len(token) {
			if value, err := strconv.ParseUint(token[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(value))
				i += 2
				continue
			}
		}
		b.WriteByte(token[i])
	}
	return b.String()
}

// unescapeLiteral handles the common escapes inside a PDF literal string.
func unescapeLiteral(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		if value[i] != '\\' || i+1 >= len(value) {
			b.WriteByte(value[i])
			continue
		}
		i++
		switch value[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(value[i])
		}
	}
	return b.String()
}
