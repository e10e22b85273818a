// Package sidecar implements the // EXTRA_INFO: protocol: an optional
// trailing JSON comment that carries cross-invocation state between the
// toolchain driver and this post-processor (a name-mangling mapping,
// metadce's exports/unusedExports/unusedImports, or minifyGlobals's set of
// already-known global renames).
//
// Grounded on how github.com/robfig/soy/template's registry decodes its own
// side-channel metadata: a plain encoding/json.Unmarshal into a narrow,
// purpose-built struct rather than a general-purpose dynamic map.
package sidecar

import (
	"encoding/json"
	"fmt"
	"strings"
)

const marker = "// EXTRA_INFO:"

// ExtraInfo is the sidecar payload. Every field is optional; callers read
// only the fields their pass needs and must not assume the others are
// populated.
type ExtraInfo struct {
	// Mapping (used by applyImportAndExportNameChanges) maps an original
	// import/export name to its already-decided replacement.
	Mapping map[string]string `json:"mapping,omitempty"`

	// Exports (used by emitDCEGraph) names additional JS-side exports to add
	// to the graph as export nodes; UnusedExports/UnusedImports (used by
	// applyDCEGraphRemovals) are metadce's verdicts on which imports/exports
	// are dead.
	Exports        []string `json:"exports,omitempty"`
	UnusedExports  []string `json:"unusedExports,omitempty"`
	UnusedImports  []string `json:"unusedImports,omitempty"`

	// Globals (used by minifyLocals/minifyGlobals) maps a global name to
	// its already-minified replacement, so repeated invocations across a
	// multi-file build stay consistent with each other.
	Globals map[string]string `json:"globals,omitempty"`
}

// Split separates source text from a trailing EXTRA_INFO comment, if
// present. It looks for the last occurrence of the marker and treats
// everything after it, to end of input, as the JSON payload; everything
// before it (trimmed of one trailing newline) is the program text to parse.
//
// Returns ok == false when no marker is present, in which case source is
// returned unchanged and info is the zero value.
func Split(text string) (source string, info ExtraInfo, ok bool, err error) {
	idx := strings.LastIndex(text, marker)
	if idx < 0 {
		return text, ExtraInfo{}, false, nil
	}
	source = strings.TrimSuffix(text[:idx], "\n")
	payload := strings.TrimSpace(text[idx+len(marker):])
	if payload == "" {
		return source, ExtraInfo{}, true, nil
	}
	if err := json.Unmarshal([]byte(payload), &info); err != nil {
		return source, ExtraInfo{}, true, fmt.Errorf("sidecar: invalid EXTRA_INFO payload: %w", err)
	}
	return source, info, true, nil
}

// Format renders info back into a "// EXTRA_INFO:<json>" suffix line, the
// form minifyGlobals appends to its output so a later invocation (e.g. over
// a sibling file sharing the same global namespace) can stay consistent.
func Format(info ExtraInfo) (string, error) {
	b, err := json.Marshal(info)
	if err != nil {
		return "", err
	}
	return marker + string(b), nil
}
