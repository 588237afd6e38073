// Package constants provides shared constants used throughout the leadrecon
// codebase: output file names, file permissions and report formatting.
package constants

// Output file names. Both are resolved relative to the directory of the
// running executable and are not configurable.
const (
	// DedupedFileName receives the deduplicated leads as indented JSON
	DedupedFileName = "leads_deduped.json"

	// ChangelogFileName receives the rendered per-record changelog
	ChangelogFileName = "changelog.txt"
)

// File permission constants define standard Unix file permissions
const (
	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Formatting constants
const (
	// JSONIndent is the indentation used for JSON output
	JSONIndent = "  "

	// ChangeMarker separates successive values of a field in the changelog
	ChangeMarker = " ==> "

	// FieldSeparator separates a field name from its value in the changelog
	FieldSeparator = ": "
)
