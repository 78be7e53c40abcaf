package engine

import (
	"encoding/json"
	"reflect"
	"testing"
)

const sampleCompliance = `{
	"CIS-2.0": ["1.10"],
	"NIST-800-53-Revision-5": ["ac_2", "ac_3"],
	"ISO27001-2013": ["A.9.2"],
	"NIST-CSF-2.0": ["PR.AA-01"],
	"SOC2": ["cc_6_1"],
	"PCI-4.0": ["8.4.2"]
}`

func TestComplianceKeepsSourceOrder(t *testing.T) {
	var c Compliance
	if err := json.Unmarshal([]byte(sampleCompliance), &c); err != nil {
		t.Fatal(err)
	}

	want := []string{"CIS-2.0", "NIST-800-53-Revision-5", "ISO27001-2013", "NIST-CSF-2.0", "SOC2", "PCI-4.0"}
	if got := c.Frameworks(); !reflect.DeepEqual(got, want) {
		t.Errorf("frameworks out of order: %v", got)
	}

	if got := FrameworkList(c, 5); got != "CIS-2.0, NIST-800-53-Revision-5, ISO27001-2013, NIST-CSF-2.0, SOC2" {
		t.Errorf("unexpected framework list %q", got)
	}

	out, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	var again Compliance
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(again, c) {
		t.Errorf("re-encoding changed the mapping: %s", out)
	}
}

func TestPrimaryControlPrecedence(t *testing.T) {
	m := DefaultRiskModel()
	cases := []struct {
		name string
		json string
		want string
	}{
		{"csf 2.0 wins", sampleCompliance, "PR.AA-01"},
		{"rev5 before rev4", `{"NIST-800-53-Revision-4":["sc_7"],"NIST-800-53-Revision-5":["ac_2"]}`, "ac_2"},
		{"empty list skipped", `{"NIST-CSF-2.0":[],"NIST-CSF-1.1":["PR.AC-4"]}`, "PR.AC-4"},
		{"single string", `{"NIST-800-53-Revision-4":"ia_2"}`, "ia_2"},
		{"no nist", `{"CIS-2.0":["1.10"]}`, "SC-7"},
		{"not an object", `["NIST-CSF-2.0"]`, "SC-7"},
	}

	for _, c := range cases {
		var comp Compliance
		if err := json.Unmarshal([]byte(c.json), &comp); err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got := PrimaryControl(comp, m.FrameworkPrecedence, m.DefaultControl); got != c.want {
			t.Errorf("%s: got %q, want %q", c.name, got, c.want)
		}
	}
}

func TestFrameworkListShort(t *testing.T) {
	var c Compliance
	if err := json.Unmarshal([]byte(`{"A":["1"],"B":["2"]}`), &c); err != nil {
		t.Fatal(err)
	}
	if got := FrameworkList(c, 5); got != "A, B" {
		t.Errorf("got %q", got)
	}
	if got := FrameworkList(nil, 5); got != "" {
		t.Errorf("expected empty list, got %q", got)
	}
}
