package inventory

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Tag is an immutable (namespace, key, value) triple. Namespace and value
// are optional; key is always present. A tag converts losslessly between
// its delimited string form "namespace/key=value", its structured form, and
// its nested mapping form {namespace: {key: [values]}}.
type Tag struct {
	Namespace *string
	Key       string
	Value     *string
}

// NewTag builds a structured tag. Empty namespace and value arguments mean
// absent, which matches how tags are written in the short string forms
// ("key", "key=value", "namespace/key").
func NewTag(namespace, key, value string) Tag {
	t := Tag{Key: key}
	if namespace != "" {
		t.Namespace = &namespace
	}
	if value != "" {
		t.Value = &value
	}
	return t
}

// Equal compares two tags by their (namespace, key, value) tuple.
func (t Tag) Equal(o Tag) bool {
	return equalOptString(t.Namespace, o.Namespace) && t.Key == o.Key && equalOptString(t.Value, o.Value)
}

// tagReserved is the exact character set percent-encoded in the tag wire
// format. External clients depend on this set; do not extend or shrink it.
const tagReserved = `/=%\{}'()!@#$^&+:|`

func tagEscapeByte(c byte) bool {
	if strings.IndexByte(tagReserved, c) >= 0 {
		return true
	}
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func tagEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if tagEscapeByte(c) {
			fmt.Fprintf(&b, "%%%02X", c)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func tagUnescape(input, segment string) (string, error) {
	out, err := url.PathUnescape(segment)
	if err != nil {
		return "", &ParseError{Input: input, Reason: err.Error()}
	}
	return out, nil
}

// String renders the tag in its delimited wire form with each segment
// independently percent-encoded.
func (t Tag) String() string {
	var b strings.Builder
	if t.Namespace != nil {
		b.WriteString(tagEscape(*t.Namespace))
		b.WriteByte('/')
	}
	b.WriteString(tagEscape(t.Key))
	if t.Value != nil {
		b.WriteByte('=')
		b.WriteString(tagEscape(*t.Value))
	}
	return b.String()
}

// ParseTag decodes a delimited tag string. Delimiters inside segments are
// always percent-encoded, so the first raw "/" and "=" split the string.
func ParseTag(s string) (Tag, error) {
	rest := s

	var nsRaw *string
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		ns := rest[:i]
		nsRaw = &ns
		rest = rest[i+1:]
	}

	var valRaw *string
	if i := strings.IndexByte(rest, '='); i >= 0 {
		val := rest[i+1:]
		valRaw = &val
		rest = rest[:i]
	}

	if rest == "" {
		return Tag{}, &ParseError{Input: s, Reason: "no key segment"}
	}

	key, err := tagUnescape(s, rest)
	if err != nil {
		return Tag{}, err
	}

	tag := Tag{Key: key}
	if nsRaw != nil {
		ns, err := tagUnescape(s, *nsRaw)
		if err != nil {
			return Tag{}, err
		}
		tag.Namespace = &ns
	}
	if valRaw != nil {
		val, err := tagUnescape(s, *valRaw)
		if err != nil {
			return Tag{}, err
		}
		tag.Value = &val
	}

	return tag, nil
}

// Nested renders a single tag in the nested mapping form. A tag without a
// value yields an empty value list, not an absent key; a tag without a
// namespace nests under the empty namespace.
func (t Tag) Nested() map[string]map[string][]string {
	ns := ""
	if t.Namespace != nil {
		ns = *t.Namespace
	}
	values := []string{}
	if t.Value != nil {
		values = append(values, *t.Value)
	}
	return map[string]map[string][]string{ns: {t.Key: values}}
}

// TagsFromNested flattens a nested mapping into structured tags. A key with
// an empty value list yields exactly one tag with an absent value. The
// output is ordered by namespace then key so the flattening is stable.
func TagsFromNested(doc map[string]map[string][]string) []Tag {
	tags := []Tag{}

	namespaces := make([]string, 0, len(doc))
	for ns := range doc {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	for _, ns := range namespaces {
		keys := make([]string, 0, len(doc[ns]))
		for key := range doc[ns] {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			values := doc[ns][key]
			if len(values) == 0 {
				tags = append(tags, NewTag(ns, key, ""))
				continue
			}
			for _, value := range values {
				tags = append(tags, NewTag(ns, key, value))
			}
		}
	}

	return tags
}

// NestedFromTags folds many tags into one nested mapping. Later tags for
// the same (namespace, key) append to that key's value list; values
// accumulate, they are not overwritten.
func NestedFromTags(tags []Tag) map[string]map[string][]string {
	out := map[string]map[string][]string{}
	for _, t := range tags {
		ns := ""
		if t.Namespace != nil {
			ns = *t.Namespace
		}
		if out[ns] == nil {
			out[ns] = map[string][]string{}
		}
		if out[ns][t.Key] == nil {
			out[ns][t.Key] = []string{}
		}
		if t.Value != nil {
			out[ns][t.Key] = append(out[ns][t.Key], *t.Value)
		}
	}
	return out
}

// TagRecord is the wire form of a tag in host payloads.
type TagRecord struct {
	Namespace *string `json:"namespace"`
	Key       string  `json:"key"`
	Value     *string `json:"value"`
}

// TagsFromRecords converts wire records into structured tags, preserving
// input order. A nil record list yields an empty sequence.
func TagsFromRecords(records []TagRecord) []Tag {
	tags := make([]Tag, 0, len(records))
	for _, r := range records {
		tags = append(tags, Tag{Namespace: r.Namespace, Key: r.Key, Value: r.Value})
	}
	return tags
}

func equalOptString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
