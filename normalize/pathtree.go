package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var dateSegmentRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// pathTreeExtractor handles sources that bundle XML/HTML documents in tar
// archives whose member paths encode the metadata: a YYYY-MM-DD segment,
// preceded by the document id, domain and section segments.
func pathTreeExtractor() Extractor {
	return Extractor{
		Accept: isTarPath,
		Extract: func(path string, emit EmitFunc) error {
			idx := 0
			return eachTarMember(path, func(name string, payload []byte) {
				var text string
				switch {
				case hasSuffixFold(name, ".xml"):
					text = xmlText(payload)
				case hasSuffixFold(name, ".html"), hasSuffixFold(name, ".htm"):
					text = htmlText(payload)
				default:
					return
				}
				if text == "" {
					return
				}

				meta := pathMeta(name)
				if meta.ID == "" {
					meta.ID = memberName(path) + ":" + strconv.Itoa(idx)
				}
				meta.Text = text
				emit(path, meta)
				idx++
			})
		},
	}
}

// pathMeta derives id, date and title from the member path segments at
// fixed offsets before the date-shaped segment.
func pathMeta(name string) DocFields {
	parts := strings.Split(strings.Trim(name, "/"), "/")

	dateIdx := -1
	for i, part := range parts {
		if dateSegmentRE.MatchString(part) {
			dateIdx = i
			break
		}
	}
	if dateIdx < 0 {
		return DocFields{}
	}

	var docID, domain, section string
	if dateIdx > 0 {
		docID = parts[dateIdx-1]
	}
	if dateIdx > 1 {
		domain = parts[dateIdx-2]
	}
	if dateIdx > 2 {
		section = parts[dateIdx-3]
	}

	var titleParts []string
	for _, p := range []string{section, domain, docID} {
		if p != "" {
			titleParts = append(titleParts, p)
		}
	}

	return DocFields{
		ID:    docID,
		Title: strings.Join(titleParts, " "),
		Date:  parts[dateIdx],
	}
}

// xmlText extracts the concatenated text nodes of an XML payload, ignoring
// markup. Unparseable payloads yield "".
func xmlText(payload []byte) string {
	fields, ok := parseStructuredXML(payload)
	if !ok {
		return ""
	}
	return fields.Text
}
