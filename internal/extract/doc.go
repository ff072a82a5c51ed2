// Package extract turns spec markdown into a typed section tree.
//
// Extraction runs in two passes. Classify labels every line (heading,
// checkbox, bullet, table row, fence, text); the section parsers then locate
// subsections by number ("### 2.2 Components") or title and read records
// from them using per-kind field tables.
//
// Metadata is found by label anywhere in the document:
//
//	**Spec ID**: spec-001
//	**Created**: 2025-01-01
//	**Updated**: 2025-01-01
//	**Status**: draft
//
// All four labels are required. Records carry cross-references in a
// "**Links to**:" annotation; they are collected as plain identifiers and
// never resolved.
package extract
