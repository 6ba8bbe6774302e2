// Package params models an editable configuration as a tree of tagged nodes.
//
// Every field of the configuration is one of four kinds:
//
//   - [Null]: an absent or stripped value
//   - [Scalar]: a bool, number or string leaf
//   - [Vector]: a list of numbers, treated as a single leaf
//   - [Group]: a nested mapping of field name to node
//
// Trees are decoded from JSON, built from typed structs with [FromStruct], and
// combined with [Merge], which recurses through groups and overwrites leaves.
// Fields are addressed with dotted paths such as "styleMap.imageData".
package params
