package resume

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/resume-builder/internal/types"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// CurrentSchemaVersion is the document format written by Migrate
const CurrentSchemaVersion = 2

type migration struct {
	version int
	name    string
	apply   func(data []byte) ([]byte, error)
}

// migrations run in order; each one lifts a document to its version
var migrations = []migration{
	{version: 1, name: "list-shaped sections", apply: migrateListShapes},
	{version: 2, name: "work experience ids", apply: migrateEntryIDs},
}

// Migrate brings stored document JSON up to CurrentSchemaVersion.
// Running it on an already migrated document returns it unchanged.
func Migrate(data []byte) ([]byte, error) {
	if !gjson.ValidBytes(data) {
		return nil, &DecodeError{Message: "document is not valid JSON"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &DecodeError{Message: "document must be a JSON object"}
	}

	version := int(root.Get(types.KeySchemaVersion).Int())
	if version >= CurrentSchemaVersion {
		return data, nil
	}

	var err error
	for _, m := range migrations {
		if version >= m.version {
			continue
		}
		data, err = m.apply(data)
		if err != nil {
			return nil, &DecodeError{Message: fmt.Sprintf("migration %d (%s) failed", m.version, m.name), Cause: err}
		}
		version = m.version
	}

	data, err = sjson.SetBytes(data, types.KeySchemaVersion, version)
	if err != nil {
		return nil, &DecodeError{Message: "failed to write schema version", Cause: err}
	}
	return data, nil
}

// Decode migrates stored JSON and decodes it. Empty input yields a new document.
func Decode(data []byte) (*types.ResumeDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return New(), nil
	}

	migrated, err := Migrate(trimmed)
	if err != nil {
		return nil, err
	}

	var doc types.ResumeDocument
	if err := json.Unmarshal(migrated, &doc); err != nil {
		return nil, &DecodeError{Message: "document does not match the resume model", Cause: err}
	}
	syncSequence(&doc)
	return &doc, nil
}

// syncSequence keeps IDSeq at or above every issued id so later ids stay unique
func syncSequence(doc *types.ResumeDocument) {
	for _, entry := range doc.WorkExperience {
		if n := entrySeq(entry.ID); n > doc.IDSeq {
			doc.IDSeq = n
		}
	}
}

func migrateListShapes(data []byte) ([]byte, error) {
	for _, section := range []string{types.SectionSocialMediaAndLinks, types.SectionLanguages, types.SectionWorkExperience} {
		value := gjson.GetBytes(data, section)
		if !value.Exists() || value.Type == gjson.Null {
			continue
		}
		normalized, err := NormalizeSection(section, []byte(value.Raw))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", section, err)
		}
		data, err = sjson.SetRawBytes(data, section, normalized)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", section, err)
		}
	}
	return data, nil
}

// migrateEntryIDs gives every work experience entry a unique string id
func migrateEntryIDs(data []byte) ([]byte, error) {
	entries := gjson.GetBytes(data, types.SectionWorkExperience)
	if !entries.IsArray() {
		return data, nil
	}

	seq := int(gjson.GetBytes(data, types.KeyIDSeq).Int())
	for _, entry := range entries.Array() {
		if n := entrySeq(entry.Get("id").String()); n > seq {
			seq = n
		}
	}

	var err error
	seen := make(map[string]bool)
	for i, entry := range entries.Array() {
		idResult := entry.Get("id")
		id := ""
		if idResult.Type == gjson.String || idResult.Type == gjson.Number {
			id = strings.TrimSpace(idResult.String())
		}
		if id == "" || seen[id] {
			seq++
			id = EntryIDPrefix + fmt.Sprint(seq)
		}
		seen[id] = true

		if idResult.Type != gjson.String || idResult.String() != id {
			data, err = sjson.SetBytes(data, fmt.Sprintf("%s.%d.id", types.SectionWorkExperience, i), id)
			if err != nil {
				return nil, err
			}
		}
	}

	return sjson.SetBytes(data, types.KeyIDSeq, seq)
}

// NormalizeSection rewrites legacy shapes of a single section value into the current model:
// social links stored as an object, languages stored as plain strings and responsibilities
// stored as plain strings. Values already in the current shape are returned unchanged.
func NormalizeSection(section string, value []byte) ([]byte, error) {
	if !gjson.ValidBytes(value) {
		return nil, fmt.Errorf("section %s is not valid JSON", section)
	}
	parsed := gjson.ParseBytes(value)

	switch section {
	case types.SectionSocialMediaAndLinks:
		if parsed.IsObject() {
			return linksFromObject(parsed)
		}
	case types.SectionLanguages:
		if parsed.IsArray() {
			return mapArray(parsed, languageFromString)
		}
		if parsed.Type == gjson.String {
			return json.Marshal([]types.Language{{Language: parsed.String()}})
		}
	case types.SectionWorkExperience:
		if parsed.IsArray() {
			return mapArray(parsed, normalizeEntry)
		}
		if parsed.IsObject() {
			return normalizeEntry(parsed)
		}
	}
	return value, nil
}

// linksFromObject turns {"linkedin": "...", "portfolio": "..."} into labelled links, keeping key order
func linksFromObject(obj gjson.Result) ([]byte, error) {
	links := []types.SocialLink{}
	obj.ForEach(func(key, value gjson.Result) bool {
		url := strings.TrimSpace(value.String())
		if url != "" {
			links = append(links, types.SocialLink{Label: key.String(), URL: url})
		}
		return true
	})
	return json.Marshal(links)
}

func languageFromString(item gjson.Result) ([]byte, error) {
	if item.Type == gjson.String {
		return json.Marshal(types.Language{Language: item.String()})
	}
	return []byte(item.Raw), nil
}

func normalizeEntry(entry gjson.Result) ([]byte, error) {
	if !entry.IsObject() {
		return []byte(entry.Raw), nil
	}
	resps := entry.Get("responsibilities")
	var lifted []byte
	var err error
	switch {
	case resps.IsArray():
		lifted, err = mapArray(resps, responsibilityFromString)
	case resps.Type == gjson.String:
		lifted, err = json.Marshal([]types.Responsibility{{Text: resps.String()}})
	default:
		return []byte(entry.Raw), nil
	}
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes([]byte(entry.Raw), "responsibilities", lifted)
}

func responsibilityFromString(item gjson.Result) ([]byte, error) {
	if item.Type == gjson.String {
		return json.Marshal(types.Responsibility{Text: item.String()})
	}
	return []byte(item.Raw), nil
}

func mapArray(arr gjson.Result, fn func(gjson.Result) ([]byte, error)) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range arr.Array() {
		out, err := fn(item)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(out)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
