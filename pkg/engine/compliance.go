package engine

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FrameworkControls lists the control IDs a finding maps to in one framework.
type FrameworkControls struct {
	Framework string
	Controls  []string
}

// Compliance is a framework mapping that keeps the order frameworks appear
// in the source document.
type Compliance []FrameworkControls

// UnmarshalJSON reads a JSON object of framework name to control list.
// Anything that is not an object decodes to an empty mapping; a framework
// whose value is a single string is treated as a one-element list.
func (c *Compliance) UnmarshalJSON(data []byte) error {
	*c = nil
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		*c = append(*c, FrameworkControls{Framework: name, Controls: controlList(raw)})
	}
	return nil
}

// MarshalJSON writes the mapping back as an object in source order.
func (c Compliance) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fc := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fc.Framework)
		if err != nil {
			return nil, err
		}
		controls := fc.Controls
		if controls == nil {
			controls = []string{}
		}
		val, err := json.Marshal(controls)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func controlList(raw json.RawMessage) []string {
	var list []interface{}
	if err := json.Unmarshal(raw, &list); err == nil {
		var out []string
		for _, v := range list {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}

// Controls returns the control list for a framework.
func (c Compliance) Controls(framework string) []string {
	for _, fc := range c {
		if fc.Framework == framework {
			return fc.Controls
		}
	}
	return nil
}

// Frameworks returns framework names in source order.
func (c Compliance) Frameworks() []string {
	out := make([]string, 0, len(c))
	for _, fc := range c {
		out = append(out, fc.Framework)
	}
	return out
}

// PrimaryControl picks the first control of the first framework in
// precedence that has any controls, or def when none do.
func PrimaryControl(c Compliance, precedence []string, def string) string {
	for _, fw := range precedence {
		if controls := c.Controls(fw); len(controls) > 0 {
			return controls[0]
		}
	}
	return def
}

// FrameworkList joins the first max framework names with ", ".
func FrameworkList(c Compliance, max int) string {
	names := c.Frameworks()
	if max >= 0 && len(names) > max {
		names = names[:max]
	}
	return strings.Join(names, ", ")
}
