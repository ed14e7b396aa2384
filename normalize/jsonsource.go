package normalize

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Synonym keys probed in generic JSON exports, spanning the naming
// conventions of the upstream publishers. Compared after lowercasing and
// stripping "-"/"_" separators.
var (
	jsonTextKeys  = keySet("texte", "text", "contenu", "content", "body", "resume", "summary", "abstract", "expose")
	jsonTitleKeys = keySet("titre", "title", "libelle", "nom", "objet", "reference")
	jsonIDKeys    = keySet("id", "ideli", "idelioralias", "cid", "idtexte", "nor", "num", "identifier")
	jsonURLKeys   = keySet("url", "lien", "link", "permalink", "uri")
	jsonDateKeys  = keySet("date", "datedebut", "datefin", "datepublication", "datemaj", "datemiseajour")
)

// jsonKeyDepth bounds how deep nested objects are probed for synonym keys.
const jsonKeyDepth = 6

// Container keys tried, in order, when a top-level JSON object wraps its
// record list.
var jsonContainerKeys = []string{"records", "results", "items", "data"}

func keySet(keys ...string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[foldKey(k)] = true
	}
	return set
}

func foldKey(k string) string {
	k = strings.ToLower(k)
	k = strings.ReplaceAll(k, "-", "")
	return strings.ReplaceAll(k, "_", "")
}

// jsonExtractor handles already-structured JSON, JSON-Lines and zip
// bundles of either. Normalization here is a field remapping step.
func jsonExtractor() Extractor {
	return Extractor{
		Accept: func(path string) bool {
			return hasSuffixFold(path, ".json") || hasSuffixFold(path, ".jsonl") || hasSuffixFold(path, ".zip")
		},
		Extract: extractJSON,
	}
}

func extractJSON(path string, emit EmitFunc) error {
	if hasSuffixFold(path, ".zip") {
		return eachZipMember(path, func(name string, payload []byte) {
			if !hasSuffixFold(name, ".json") && !hasSuffixFold(name, ".jsonl") {
				return
			}
			for _, obj := range jsonObjects(payload, hasSuffixFold(name, ".jsonl")) {
				emit(path, remapJSON(obj))
			}
		})
	}

	if hasSuffixFold(path, ".jsonl") {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 16<<20)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var obj map[string]any
			if err := json.Unmarshal([]byte(line), &obj); err != nil {
				continue
			}
			emit(path, remapJSON(obj))
		}
		return scanner.Err()
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, obj := range jsonObjects(payload, false) {
		emit(path, remapJSON(obj))
	}
	return nil
}

// jsonObjects decodes a payload into its record objects: a list yields its
// object elements, an object yields the first recognized container list or
// itself. Unparseable payloads yield nothing.
func jsonObjects(payload []byte, jsonLines bool) []map[string]any {
	if jsonLines {
		var objs []map[string]any
		for _, line := range strings.Split(string(payload), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			var obj map[string]any
			if err := json.Unmarshal([]byte(line), &obj); err != nil {
				continue
			}
			objs = append(objs, obj)
		}
		return objs
	}

	var data any
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil
	}

	switch v := data.(type) {
	case []any:
		var objs []map[string]any
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				objs = append(objs, obj)
			}
		}
		return objs
	case map[string]any:
		for _, key := range jsonContainerKeys {
			list, ok := v[key].([]any)
			if !ok {
				continue
			}
			var objs []map[string]any
			for _, item := range list {
				if obj, ok := item.(map[string]any); ok {
					objs = append(objs, obj)
				}
			}
			return objs
		}
		return []map[string]any{v}
	default:
		return nil
	}
}

// remapJSON populates canonical fields by probing synonym keys at shallow
// nesting depth.
func remapJSON(obj map[string]any) DocFields {
	return DocFields{
		ID:    firstValue(obj, jsonIDKeys),
		Title: firstValue(obj, jsonTitleKeys),
		URL:   firstValue(obj, jsonURLKeys),
		Date:  firstValue(obj, jsonDateKeys),
		Text:  joinValues(obj, jsonTextKeys),
	}
}

// collectValues gathers scalar values under any matching key, walking
// nested objects and lists down to jsonKeyDepth.
func collectValues(obj any, keys map[string]bool) []string {
	var out []string

	type frame struct {
		node  any
		depth int
	}
	stack := []frame{{obj, 0}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.depth > jsonKeyDepth {
			continue
		}

		switch node := top.node.(type) {
		case map[string]any:
			// Sorted keys keep the walk order, and therefore the
			// normalized output, deterministic across runs.
			names := make([]string, 0, len(node))
			for k := range node {
				names = append(names, k)
			}
			sort.Strings(names)
			for _, k := range names {
				v := node[k]
				if keys[foldKey(k)] {
					if s, ok := scalarString(v); ok {
						out = append(out, s)
					} else if list, ok := v.([]any); ok {
						for _, item := range list {
							if s, ok := scalarString(item); ok {
								out = append(out, s)
							}
						}
					}
				}
				switch v.(type) {
				case map[string]any, []any:
					stack = append(stack, frame{v, top.depth + 1})
				}
			}
		case []any:
			for _, v := range node {
				switch v.(type) {
				case map[string]any, []any:
					stack = append(stack, frame{v, top.depth + 1})
				}
			}
		}
	}
	return out
}

func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return trimFloat(s), true
	default:
		return "", false
	}
}

// trimFloat renders JSON numbers without a needless ".0" suffix.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// firstValue returns the first non-empty cleaned value for the key set.
func firstValue(obj any, keys map[string]bool) string {
	for _, v := range collectValues(obj, keys) {
		if cleaned := cleanText(v); cleaned != "" {
			return cleaned
		}
	}
	return ""
}

// joinValues deduplicates all non-empty cleaned values for the key set,
// preserving order, and joins them with newlines.
func joinValues(obj any, keys map[string]bool) string {
	seen := make(map[string]bool)
	var deduped []string
	for _, v := range collectValues(obj, keys) {
		cleaned := cleanText(v)
		if cleaned == "" || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		deduped = append(deduped, cleaned)
	}
	return strings.Join(deduped, "\n")
}
