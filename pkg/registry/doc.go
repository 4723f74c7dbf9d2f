// Package registry reads a Wally registry snapshot into memory.
//
// A snapshot is a directory tree: each top-level directory is a domain
// (publisher scope) and each file inside it is the complete version history
// of one package. Package files are not JSON documents; they are JSON
// objects written back to back with no separator, each opening with the
// key "package":
//
//	{"package":{"name":"roblox/roact","version":"1.4.0",...},"dependencies":{}}
//	{"package":{"name":"roblox/roact","version":"1.4.1",...},"dependencies":{}}
//
// [ParseEntries] splits such a file on that opening sequence and flattens
// every entry into a [Record]: the fields wallyup consumes (name, version,
// registry, realm) are typed, and every leaf is also kept as an ordered
// (path, value) list so nothing in the entry is lost.
//
// [Load] walks a snapshot directory and builds an [Index], which answers
// [Index.Lookup] for a domain and package name. Entries keep the order in
// which they appear in the file; callers must not assume version order.
//
// Registry-level metadata files (config.json and friends) and hidden
// entries such as .git are ignored.
package registry
