// Package textutil provides text helpers shared by the story ingestion code.
//
// The primary use cases are:
//   - Decoding uploaded bytes into UTF-8 text, honouring UTF-8 and UTF-16
//     byte-order marks and normalizing to NFC
//   - Collapsing runs of whitespace left behind after token removal
//   - Rune-safe truncation for issue summaries with length limits
package textutil
