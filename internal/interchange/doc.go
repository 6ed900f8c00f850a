// Package interchange reads and writes scheduling models as XML.
//
// A Document is the complete portable form of a session: every interval,
// sequence, and state function declaration, every posted constraint in
// posting order, the objective, and the lowered primitive program. The
// format is lossless both ways: FromSession captures a session without
// dropping anything, and Document.Session rebuilds an equivalent session
// whose own capture is structurally equal to the original document.
//
// Output is deterministic. Declarations keep their session order,
// constraints keep their posting order, and the encoder writes a stable
// indented layout, so encoded documents are directly comparable and safe
// for golden files.
package interchange
