// Package filestore persists the library collections as flat binary files.
//
// Each collection lives in its own file inside the data directory (books.dat,
// students.dat, issues.dat) as a sequence of fixed-size little-endian records.
// Append adds one record at the end of the file and syncs it. RewriteAll writes
// the complete new content to a temporary file in the same directory, syncs it
// and renames it over the original, so a crash leaves either the old or the new
// content on disk and never a mix of both.
//
// A missing file is read as an empty collection. A file whose length is not a
// multiple of the record size is reported as recordstore.ErrCorruptCollection.
package filestore
