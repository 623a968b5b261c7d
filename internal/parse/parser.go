// Package parse turns converted slip text into a flat field map. One
// receipt yields either a complete map or a classified error; partial
// results are never emitted.
package parse

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Path naming convention on the slip share:
//
//	\\<server>\SLIP\<facility>\<year>\<month>\<facility><terminal>...<ts>.pdf
//
// The two-digit year lives at a fixed offset into the full path, as does
// the four-character facility code inside the file name. Several document
// batches carry a bad year in their printed date, so the path is the
// authoritative source; do not switch this back to the matched date's year.
const (
	defaultYearOffset   = 26
	defaultObjectOffset = 32
	objectCodeLen       = 4
)

// TextConverter supplies the raw text for a file path.
type TextConverter interface {
	Convert(ctx context.Context, path string) (string, error)
}

// Result is the outcome for one file: a populated field map, or a
// classified failure.
type Result struct {
	Path   string
	Fields map[string]string
	Err    ErrorKind
}

// Failed reports whether the result carries an error classification.
func (r Result) Failed() bool {
	return r.Err != ""
}

type Config struct {
	// YearOffset and ObjectCodeOffset locate the two-digit year and the
	// facility code inside the full file path. Zero values select the
	// production share layout.
	YearOffset       int
	ObjectCodeOffset int
}

// Extractor converts a file and applies the field patterns.
type Extractor struct {
	cfg    Config
	conv   TextConverter
	logger *slog.Logger
}

func NewExtractor(cfg Config, conv TextConverter, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.YearOffset <= 0 {
		cfg.YearOffset = defaultYearOffset
	}
	if cfg.ObjectCodeOffset <= 0 {
		cfg.ObjectCodeOffset = defaultObjectOffset
	}
	return &Extractor{cfg: cfg, conv: conv, logger: logger}
}

// Extract converts path to text, classifies terminal conditions, and runs
// the field patterns. Fields always include file_link, and on success the
// computed date, time, updated and object_code attributes.
func (e *Extractor) Extract(ctx context.Context, path string) Result {
	text, err := e.conv.Convert(ctx, path)
	if err != nil {
		e.logger.Debug("conversion failed", "path", path, "error", err)
		return Result{Path: path, Err: ConversionError}
	}

	if kind := Classify(text); kind != "" {
		return Result{Path: path, Err: kind}
	}

	fields := matchFields(text)
	if fields["pos_id"] == "" {
		return Result{Path: path, Err: PatternMismatch}
	}

	date, err := e.fixedDate(fields["date"], path)
	if err != nil {
		e.logger.Debug("date fixup failed", "path", path, "date", fields["date"], "error", err)
		return Result{Path: path, Err: PatternMismatch}
	}
	hhmm, err := normalizeTime(fields["time"])
	if err != nil {
		e.logger.Debug("time fixup failed", "path", path, "time", fields["time"], "error", err)
		return Result{Path: path, Err: PatternMismatch}
	}

	fields["file_link"] = path
	fields["date"] = date.Format("2006-01-02")
	fields["time"] = hhmm
	fields["updated"] = time.Now().Format("2006-01-02")
	fields["object_code"] = substr(path, e.cfg.ObjectCodeOffset, objectCodeLen)

	return Result{Path: path, Fields: fields}
}

// Classify checks text for known terminal conditions before any field
// extraction is attempted. Empty classification means the text looks like
// a parseable slip.
func Classify(text string) ErrorKind {
	if len(text) < 10 {
		return EmptyOrCorrupt
	}
	for _, kp := range keyPhrases {
		if strings.Contains(text, kp.phrase) {
			return kp.kind
		}
	}
	return ""
}

var (
	dayMonthPattern = regexp.MustCompile(`^(\d{1,2})[-.,\\/ ](\d{2})`)
	timePattern     = regexp.MustCompile(`^(\d{1,2})[-:.,\\/ ](\d{2})`)
)

// fixedDate takes day and month from the matched header date and the
// two-digit year from the path naming convention.
func (e *Extractor) fixedDate(date, path string) (time.Time, error) {
	year := substr(path, e.cfg.YearOffset, 2)
	if len(year) != 2 {
		return time.Time{}, fmt.Errorf("path %q too short for year offset %d", path, e.cfg.YearOffset)
	}
	m := dayMonthPattern.FindStringSubmatch(date)
	if m == nil {
		return time.Time{}, fmt.Errorf("unparseable date %q", date)
	}
	return time.Parse("2.1.06", m[1]+"."+m[2]+"."+year)
}

// normalizeTime renders the matched time string as HH:MM.
func normalizeTime(t string) (string, error) {
	m := timePattern.FindStringSubmatch(t)
	if m == nil {
		return "", fmt.Errorf("unparseable time %q", t)
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if hh > 23 || mm > 59 {
		return "", fmt.Errorf("time %q out of range", t)
	}
	return fmt.Sprintf("%02d:%02d", hh, mm), nil
}

func substr(s string, off, n int) string {
	if off >= len(s) {
		return ""
	}
	if off+n > len(s) {
		return s[off:]
	}
	return s[off : off+n]
}
