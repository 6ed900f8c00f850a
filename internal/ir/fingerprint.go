package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/text/unicode/norm"
)

// domainProgram is the domain prefix for program fingerprints. The
// version suffix enables future encoding migration.
const domainProgram = "schedkit/program/v1"

// Fingerprint computes a content-addressed identity for the program:
// SHA-256 over domain + 0x00 + a canonical byte encoding. Programs built
// from equal models in the same order fingerprint equally, so the run log
// can group runs of the same model.
//
// The null separator prevents domain/data boundary ambiguity.
func (p *Program) Fingerprint() string {
	h := sha256.New()
	io.WriteString(h, domainProgram)
	h.Write([]byte{0x00})
	writeCanonical(h, p)
	return hex.EncodeToString(h.Sum(nil))
}

// writeCanonical streams a deterministic encoding of the program. Every
// field of every variant is written; names participate so renames change
// the fingerprint. Names are NFC normalized first, so two spellings of
// the same composed character hash alike.
func writeCanonical(w io.Writer, p *Program) {
	fmt.Fprintf(w, "h%d;", p.Horizon)
	for _, v := range p.Vars {
		fmt.Fprintf(w, "v%d,%q,%d,%d;", v.ID, norm.NFC.String(v.Name), v.Lo, v.Hi)
	}
	for _, c := range p.Constraints {
		switch x := c.(type) {
		case Comparison:
			fmt.Fprintf(w, "c%d,%d,%d,%d;", x.A, x.Op, x.B, x.K)
		case Clause:
			fmt.Fprintf(w, "l")
			for _, lit := range x.Lits {
				fmt.Fprintf(w, "%d,%t,", lit.Var, lit.Neg)
			}
			fmt.Fprintf(w, ";")
		case Reified:
			fmt.Fprintf(w, "r%d,%d,%d,%d,%d;", x.Bool, x.C.A, x.C.Op, x.C.B, x.C.K)
		case LinearSum:
			fmt.Fprintf(w, "s")
			for i, id := range x.Vars {
				fmt.Fprintf(w, "%d*%d,", x.Coeffs[i], id)
			}
			fmt.Fprintf(w, "%d,%d;", x.Op, x.K)
		case MinMax:
			fmt.Fprintf(w, "m%t,%d", x.IsMax, x.Target)
			for _, id := range x.Vars {
				fmt.Fprintf(w, ",%d", id)
			}
			fmt.Fprintf(w, ";")
		case Table:
			fmt.Fprintf(w, "t")
			for _, id := range x.Vars {
				fmt.Fprintf(w, "%d,", id)
			}
			for _, row := range x.Rows {
				fmt.Fprintf(w, "|")
				for _, v := range row {
					fmt.Fprintf(w, "%d,", v)
				}
			}
			fmt.Fprintf(w, ";")
		}
	}
	if p.Objective != nil {
		fmt.Fprintf(w, "o%d,%t;", p.Objective.Var, p.Objective.Maximize)
	}
}
