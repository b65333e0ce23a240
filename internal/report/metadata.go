package report

import (
	"context"
	"regexp"
	"strconv"

	"github.com/phuslu/log"

	"github.com/a3tai/report-ingest/internal/pdf"
)

var (
	// a capitalised first name followed by an upper-case surname at line start
	identityPattern = regexp.MustCompile(`(?m)^([A-Z][a-z]+) ([A-Z]+)`)

	// captures semester, year and report number in textual order
	periodPattern = regexp.MustCompile(`(?m)^Semester (\d), (\d{4}) - Progress Report (\d)`)
)

// MetadataExtractor finds the student identity and reporting period of a
// document. The first page matching both patterns wins.
type MetadataExtractor struct {
	logger *log.Logger
}

// NewMetadataExtractor creates a new metadata extractor
func NewMetadataExtractor(logger *log.Logger) *MetadataExtractor {
	return &MetadataExtractor{logger: logger}
}

// Extract scans pages in document order and returns the metadata of the
// first page on which both the identity and period patterns match. found is
// false when no page matches. Unreadable pages are logged and skipped; the
// only error returned is the context's.
func (e *MetadataExtractor) Extract(ctx context.Context, doc pdf.Document) (meta Metadata, found bool, err error) {
	for page, pageErr := range doc.Pages() {
		if err := ctx.Err(); err != nil {
			return Metadata{}, false, err
		}
		if pageErr != nil {
			e.skipPage(doc.Path(), pageErr)
			continue
		}

		text, err := page.Text()
		if err != nil {
			e.skipPage(doc.Path(), err)
			continue
		}

		if meta, ok := MatchMetadata(text); ok {
			e.logger.Debug().Str("path", doc.Path()).Int("page", page.Number()).
				Str("student", meta.String()).Msg("metadata matched")
			return meta, true, nil
		}
	}
	return Metadata{}, false, nil
}

func (e *MetadataExtractor) skipPage(path string, err error) {
	e.logger.Warn().Str("path", path).Err(err).Msg("skipping page during metadata extraction")
}

// MatchMetadata applies the identity then the period pattern to one page's
// text. Both must match for ok to be true.
func MatchMetadata(text string) (Metadata, bool) {
	name := identityPattern.FindStringSubmatch(text)
	if name == nil {
		return Metadata{}, false
	}

	period := periodPattern.FindStringSubmatch(text)
	if period == nil {
		return Metadata{}, false
	}

	nums := make([]int, 0, 3)
	for _, s := range period[1:] {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Metadata{}, false
		}
		nums = append(nums, n)
	}

	return Metadata{
		Firstname: name[1],
		Surname:   name[2],
		Semester:  nums[0],
		Year:      nums[1],
		Report:    nums[2],
	}, true
}
