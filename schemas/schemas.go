// Package schemas embeds the JSON Schemas that collaborator payloads are checked against.
package schemas

import _ "embed"

// Resume is the schema of a ResumeDocument, including the legacy shapes migration accepts
//
//go:embed resume.schema.json
var Resume string

// Analysis is the schema of an AnalysisResult
//
//go:embed analysis.schema.json
var Analysis string
