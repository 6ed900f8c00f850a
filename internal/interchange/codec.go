package interchange

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Encode writes doc to w as indented XML with a standard header. The
// layout is deterministic, so equal documents encode to equal bytes.
func Encode(w io.Writer, doc *Document) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("interchange: encode: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Decode reads one document from r.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("interchange: decode: %w", err)
	}
	// Drop the parsed root name so decoded documents compare equal to
	// captured ones.
	doc.XMLName = xml.Name{}
	return &doc, nil
}

// Ints is a whitespace-separated integer list held in one element.
type Ints []int

// MarshalXML writes the list as space-joined text.
func (xs Ints) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	parts := make([]string, len(xs))
	for i, v := range xs {
		parts[i] = strconv.Itoa(v)
	}
	return e.EncodeElement(strings.Join(parts, " "), start)
}

// UnmarshalXML parses space-joined text; an empty element decodes to nil.
func (xs *Ints) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		*xs = nil
		return nil
	}
	out := make(Ints, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("interchange: element %s: bad integer %q", start.Name.Local, f)
		}
		out[i] = v
	}
	*xs = out
	return nil
}

// MarshalXML writes each constraint under its own element name, in
// posting order. An empty list emits nothing.
func (l ConstraintList) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if len(l.Items) == 0 {
		return nil
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, rec := range l.Items {
		elem := xml.StartElement{Name: xml.Name{Local: rec.constraintElem()}}
		if err := e.EncodeElement(rec, elem); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// UnmarshalXML reads child elements in order, dispatching on the element
// name. Unknown elements are an error rather than being skipped.
func (l *ConstraintList) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			rec, err := decodeConstraintRec(d, t)
			if err != nil {
				return err
			}
			l.Items = append(l.Items, rec)
		case xml.EndElement:
			return nil
		}
	}
}

func decodeConstraintRec(d *xml.Decoder, se xml.StartElement) (ConstraintRec, error) {
	switch se.Name.Local {
	case "precedence":
		return decodeRec[Precedence](d, se)
	case "span":
		return decodeRec[Span](d, se)
	case "alternative":
		return decodeRec[Alternative](d, se)
	case "synchronize":
		return decodeRec[Synchronize](d, se)
	case "sequence_no_overlap":
		return decodeRec[SeqNoOverlap](d, se)
	case "position":
		return decodeRec[Position](d, se)
	case "overlap":
		return decodeRec[Overlap](d, se)
	case "no_overlap":
		return decodeRec[NoOverlap](d, se)
	case "chain":
		return decodeRec[Chain](d, se)
	case "cumul_bound":
		return decodeRec[CumulBound](d, se)
	case "always_in":
		return decodeRec[AlwaysIn](d, se)
	case "cumulative":
		return decodeRec[Cumulative](d, se)
	case "forbidden":
		return decodeRec[Forbidden](d, se)
	case "presence":
		return decodeRec[Presence](d, se)
	case "time_bound":
		return decodeRec[TimeBound](d, se)
	case "time_window":
		return decodeRec[TimeWindow](d, se)
	case "state_use":
		return decodeRec[StateUse](d, se)
	case "compare":
		return decodeRec[Compare](d, se)
	default:
		return nil, fmt.Errorf("interchange: unknown constraint element %q", se.Name.Local)
	}
}

// MarshalXML writes each primitive under its own element name, in
// program order. An empty list emits nothing.
func (l PrimitiveList) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if len(l.Items) == 0 {
		return nil
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, rec := range l.Items {
		elem := xml.StartElement{Name: xml.Name{Local: rec.primitiveElem()}}
		if err := e.EncodeElement(rec, elem); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// UnmarshalXML reads child elements in order, dispatching on the element
// name.
func (l *PrimitiveList) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			rec, err := decodePrimitiveRec(d, t)
			if err != nil {
				return err
			}
			l.Items = append(l.Items, rec)
		case xml.EndElement:
			return nil
		}
	}
}

func decodePrimitiveRec(d *xml.Decoder, se xml.StartElement) (PrimitiveRec, error) {
	switch se.Name.Local {
	case "comparison":
		return decodeRec[Comparison](d, se)
	case "clause":
		return decodeRec[Clause](d, se)
	case "reified":
		return decodeRec[Reified](d, se)
	case "linear":
		return decodeRec[LinearSum](d, se)
	case "minmax":
		return decodeRec[MinMax](d, se)
	case "table":
		return decodeRec[Table](d, se)
	default:
		return nil, fmt.Errorf("interchange: unknown primitive element %q", se.Name.Local)
	}
}

func decodeRec[T any](d *xml.Decoder, se xml.StartElement) (T, error) {
	var rec T
	err := d.DecodeElement(&rec, &se)
	return rec, err
}
