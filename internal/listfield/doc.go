// Package listfield parses, deduplicates and filters delimited list values.
//
// A list value is a single string such as "News;Sport; news;;Weather" that
// holds an ordered sequence of tokens joined by a separator. Decoding trims
// every part and drops empty ones; encoding joins the tokens back.
//
// Tokens compare case-insensitively using Unicode case folding, while the
// first occurrence of a token keeps its original spelling.
//
// # Basic Usage
//
//	tokens := listfield.Decode("A;B;a", listfield.DefaultSeparator)
//	kept, dups := listfield.Dedupe(tokens)     // [A B], [a]
//	kept, removed := listfield.Resolve(tokens, forbidden)
//	value := listfield.Encode(kept, listfield.DefaultSeparator)
package listfield
