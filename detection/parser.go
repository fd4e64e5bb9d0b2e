package detection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const polygonInts = 8

var bracketReplacer = strings.NewReplacer("[", " ", "]", " ", ",", " ")

// LineError describes a detection line that could not be turned into a Record.
type LineError struct {
	Line   string
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("skipped detection line %q: %s", e.Line, e.Reason)
}

// Parser converts raw detection lines of the form
//
//	<label> <score> [x1,y1,x2,y2,x3,y3,x4,y4]
//
// into Records. The polygon is reduced to its axis-aligned bounding box, so
// vertices may come in any order or rotation.
type Parser struct {
	registry *LabelRegistry
	logger   *zap.SugaredLogger
}

// NewParser returns a parser that interns labels into registry. A nil
// registry gets a fresh one.
func NewParser(registry *LabelRegistry, logger *zap.SugaredLogger) *Parser {
	if registry == nil {
		registry = NewLabelRegistry()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Parser{registry: registry, logger: logger}
}

// Registry returns the label registry the parser writes to.
func (p *Parser) Registry() *LabelRegistry {
	return p.registry
}

// Parse is ParseLine with the rejection logged instead of returned.
func (p *Parser) Parse(line string) (Record, bool) {
	rec, err := p.ParseLine(line)
	if err != nil {
		var lineErr *LineError
		if errors.As(err, &lineErr) {
			p.logger.Warnw("skipped detection line", "line", lineErr.Line, "reason", lineErr.Reason)
		} else {
			p.logger.Warnw("skipped detection line", "error", err)
		}
		return Record{}, false
	}
	return rec, true
}

// ParseLine parses one line. Any failure is returned as a *LineError and the
// registry is left untouched.
func (p *Parser) ParseLine(line string) (Record, error) {
	trimmed := strings.TrimSpace(line)
	reject := func(format string, args ...interface{}) (Record, error) {
		return Record{}, &LineError{Line: trimmed, Reason: fmt.Sprintf(format, args...)}
	}

	fields := strings.Fields(trimmed)
	if len(fields) < 3 {
		return reject("missing label/score/coords")
	}
	label := fields[0]

	score, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return reject("invalid score %q", fields[1])
	}

	coords, err := parsePolygon(strings.Join(fields[2:], " "))
	if err != nil {
		return reject("%v", err)
	}
	if len(coords) != polygonInts {
		return reject("expected %d integers for 4 (x,y) points, got %d -> %v", polygonInts, len(coords), coords)
	}

	rec := Record{
		XMin:  coords[0],
		YMin:  coords[1],
		XMax:  coords[0],
		YMax:  coords[1],
		Score: score,
	}
	for i := 2; i < polygonInts; i += 2 {
		x, y := coords[i], coords[i+1]
		rec.XMin = min(rec.XMin, x)
		rec.XMax = max(rec.XMax, x)
		rec.YMin = min(rec.YMin, y)
		rec.YMax = max(rec.YMax, y)
	}
	rec.ClassID = p.registry.Intern(label)
	return rec, nil
}

// parsePolygon keeps every integer-looking token of the coordinate text and
// silently drops the rest.
func parsePolygon(text string) ([]int, error) {
	var coords []int
	for _, tok := range strings.Fields(bracketReplacer.Replace(text)) {
		if !isIntToken(tok) {
			continue
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, errors.Errorf("coordinate %s out of range", tok)
		}
		coords = append(coords, v)
	}
	return coords, nil
}

func isIntToken(tok string) bool {
	digits := strings.TrimPrefix(tok, "-")
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}
