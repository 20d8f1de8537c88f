// Package index is the downstream side of the pipeline: it makes extracted
// text searchable for question answering.
//
// The pipeline only needs the Indexer interface. LocalIndex implements it
// with a lexical index in a SQLite file next to the state database:
// text is split into overlapping chunks (5000 runes, 200 overlap, breaking
// at paragraphs, then lines, then words), chunk terms are stemmed with the
// English Snowball stemmer, and Retrieve ranks chunks by TF-IDF.
//
// BuildPrompt turns retrieved passages into a prompt for an external model.
package index
