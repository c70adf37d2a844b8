// Package manifest reads, edits and renders npm package.json documents.
//
// Edits go through gjson/sjson so key order and fields the publisher does not
// own survive untouched; output is normalized to 2-space indentation.
package manifest
