package server

import (
	"bytes"
	"encoding/json"

	"aspd/internal/asp"
	"aspd/internal/session"
)

func transportError(msg string) error {
	return session.NewError(session.TransportError, msg)
}

func parseSymbol(text string) (asp.Symbol, error) {
	sym, err := asp.ParseTerm(text)
	if err != nil {
		return asp.Symbol{}, session.WrapError(session.TransportError, err, "Could not parse symbol data")
	}
	return sym, nil
}

// decodeParts reads {"name": ["arg", ...], ...}. Parts are grounded in the
// order of the object keys.
func decodeParts(data []byte) ([]asp.Part, error) {
	errParts := transportError("Could not parse parts data")
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, errParts
	}
	var parts []asp.Part
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errParts
		}
		var args []string
		if err := dec.Decode(&args); err != nil {
			return nil, errParts
		}
		part := asp.Part{Name: tok.(string)}
		for _, a := range args {
			sym, err := parseSymbol(a)
			if err != nil {
				return nil, err
			}
			part.Args = append(part.Args, sym)
		}
		parts = append(parts, part)
	}
	if tok, err := dec.Token(); err != nil || tok != json.Delim('}') {
		return nil, errParts
	}
	return parts, nil
}

var truthValues = map[string]asp.TruthValue{
	"True":  asp.TruthTrue,
	"False": asp.TruthFalse,
	"Free":  asp.TruthFree,
}

func decodeAssignment(data []byte) (asp.Symbol, asp.TruthValue, error) {
	errAssignment := transportError("Could not parse assignment data")
	var body struct {
		Literal    *string `json:"literal"`
		TruthValue *string `json:"truth_value"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Literal == nil || body.TruthValue == nil {
		return asp.Symbol{}, 0, errAssignment
	}
	tv, ok := truthValues[*body.TruthValue]
	if !ok {
		return asp.Symbol{}, 0, errAssignment
	}
	sym, err := parseSymbol(*body.Literal)
	if err != nil {
		return asp.Symbol{}, 0, err
	}
	return sym, tv, nil
}

func decodeSymbol(data []byte) (asp.Symbol, error) {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return asp.Symbol{}, transportError("Could not parse symbol data")
	}
	return parseSymbol(text)
}

// decodeAssumptions reads [["symbol", sign], ...].
func decodeAssumptions(data []byte) ([]session.Assumption, error) {
	errAssumptions := transportError("Could not parse assumptions data")
	var pairs [][]json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, errAssumptions
	}
	out := make([]session.Assumption, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) < 2 {
			return nil, errAssumptions
		}
		var text string
		var sign bool
		if json.Unmarshal(pair[0], &text) != nil || json.Unmarshal(pair[1], &sign) != nil {
			return nil, errAssumptions
		}
		sym, err := parseSymbol(text)
		if err != nil {
			return nil, err
		}
		out = append(out, session.Assumption{Symbol: sym, Sign: sign})
	}
	return out, nil
}
