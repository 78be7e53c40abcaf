package engine

import (
	"testing"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/tags"
)

func TestInferService(t *testing.T) {
	m := DefaultRiskModel()

	cases := []struct {
		id      string
		service string
		class   string
	}{
		{"arn:aws:iam::123456789012:role/deployer", "IAM", ClassSensitive},
		{"arn:aws:s3:::customer-exports", "Storage", ClassHighlySensitive},
		{"arn:aws:rds:us-east-1:123456789012:db:orders", "Database", ClassHighlySensitive},
		{"arn:aws:ec2:us-east-1:123456789012:instance/i-0abc", "Compute", ClassInternal},
		{"arn:aws:lambda:us-east-1:123456789012:function:resize", "Lambda", ClassInternal},
		{"arn:aws:vpc:us-east-1:123456789012:subnet/subnet-1", "Networking", ClassSensitive},
		{"zzz-unmatched", unknownService, ClassInternal},
	}

	for _, c := range cases {
		svc, class := m.InferService(c.id)
		if svc != c.service || class != c.class {
			t.Errorf("InferService(%q) = %s/%s, want %s/%s", c.id, svc, class, c.service, c.class)
		}
	}
}

func TestInferServiceFirstRuleWins(t *testing.T) {
	m := DefaultRiskModel()
	// Both the IAM ("role") and Storage ("bucket") keyword sets match.
	svc, _ := m.InferService("bucket-role-binding")
	if svc != "IAM" {
		t.Errorf("expected earlier rule to win, got %s", svc)
	}
}

func TestResolveDefaultsWithoutTags(t *testing.T) {
	m := DefaultRiskModel()
	r := NewResolver(&m, nil)

	f, err := DecodeFinding(rawFinding(t, findingSpec{
		severity: SeverityHigh,
		check:    "s3_bucket_versioning_enabled",
		uid:      "arn:aws:s3:::logs-archive",
		name:     "logs-archive",
		rtype:    "AwsS3Bucket",
	}))
	if err != nil {
		t.Fatal(err)
	}

	ctx := r.Resolve(&f, f.Resources[0])
	want := ResourceContext{
		Service:           "Storage",
		Classification:    ClassHighlySensitive,
		IsPublic:          false,
		IsActive:          true,
		SoftDeleteEnabled: true,
		RetentionDays:     30,
	}
	if ctx != want {
		t.Errorf("got %+v, want %+v", ctx, want)
	}
}

func TestResolveAppliesTagOverrides(t *testing.T) {
	m := DefaultRiskModel()
	catalog := tags.Normalize(map[string][]string{
		"orders-db": {
			"{data_classification: public}",
			"{public_network_access: Enabled}",
			"{publicly_accessible: false}",
			"{soft_delete_enabled: false}",
			"{retention_days: 7}",
		},
	})
	r := NewResolver(&m, catalog)

	f, err := DecodeFinding(rawFinding(t, findingSpec{
		severity: SeverityMedium,
		check:    "rds_instance_backup_enabled",
		uid:      "arn:aws:rds:us-east-1:123:db:orders-db",
		name:     "orders-db",
		rtype:    "AwsRdsDbInstance",
	}))
	if err != nil {
		t.Fatal(err)
	}

	ctx := r.Resolve(&f, f.Resources[0])
	if ctx.Classification != ClassPublic {
		t.Errorf("expected classification Public, got %q", ctx.Classification)
	}
	if !ctx.IsPublic {
		t.Error("a later false public tag must not downgrade an earlier true one")
	}
	if ctx.SoftDeleteEnabled {
		t.Error("expected soft delete to be disabled")
	}
	if ctx.RetentionDays != 7 {
		t.Errorf("expected retention 7, got %d", ctx.RetentionDays)
	}
	if !ctx.IsActive {
		t.Error("expected resource to stay active")
	}
}

func TestResolveInactiveSignals(t *testing.T) {
	m := DefaultRiskModel()

	cases := []struct {
		name  string
		tags  []string
		state string
	}{
		{"status disabled", []string{"status: Disabled"}, ""},
		{"status stopped", []string{"status: stopped"}, ""},
		{"status boolean false", []string{"status: false"}, ""},
		{"account disabled", []string{"account_enabled: false"}, ""},
		{"account zero", []string{"account_enabled: 0"}, ""},
		{"terminated instance", nil, "terminated"},
		{"stopped instance", nil, "Stopped"},
	}

	for _, c := range cases {
		catalog := tags.Normalize(map[string][]string{"worker": c.tags})
		r := NewResolver(&m, catalog)
		f, err := DecodeFinding(rawFinding(t, findingSpec{
			check: "ec2_instance_imdsv2_enabled",
			uid:   "arn:aws:ec2:us-east-1:123:instance/i-1",
			name:  "worker",
			state: c.state,
		}))
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if ctx := r.Resolve(&f, f.Resources[0]); ctx.IsActive {
			t.Errorf("%s: expected resource to be inactive", c.name)
		}
	}
}

func TestResolveStatusEnabledStaysActive(t *testing.T) {
	m := DefaultRiskModel()
	catalog := tags.Normalize(map[string][]string{"worker": {"status: Running", "account_enabled: true"}})
	r := NewResolver(&m, catalog)

	f, err := DecodeFinding(rawFinding(t, findingSpec{check: "x", uid: "i-1", name: "worker"}))
	if err != nil {
		t.Fatal(err)
	}
	if ctx := r.Resolve(&f, f.Resources[0]); !ctx.IsActive {
		t.Error("expected resource to stay active")
	}
}

func TestResolveInternetExposedCategory(t *testing.T) {
	m := DefaultRiskModel()
	r := NewResolver(&m, nil)

	f, err := DecodeFinding(rawFinding(t, findingSpec{
		check:      "ec2_instance_port_ssh_exposed_to_internet",
		uid:        "arn:aws:ec2:us-east-1:123:instance/i-2",
		name:       "bastion",
		categories: []string{"trust-boundaries", "internet-exposed"},
	}))
	if err != nil {
		t.Fatal(err)
	}
	if ctx := r.Resolve(&f, f.Resources[0]); !ctx.IsPublic {
		t.Error("expected internet-exposed finding to mark the resource public")
	}
}

func TestResolveSpellingVariantsGiveSameContext(t *testing.T) {
	m := DefaultRiskModel()
	catalog := tags.Normalize(map[string][]string{
		"Prod Data-Lake": {"data_classification: highly_sensitive", "retention: 3"},
	})
	r := NewResolver(&m, catalog)

	var contexts []ResourceContext
	for _, name := range []string{"Prod Data-Lake", "prod data_lake", "PROD DATA-LAKE", "prod_data-lake"} {
		f, err := DecodeFinding(rawFinding(t, findingSpec{check: "x", uid: "arn:aws:s3:::lake", name: name}))
		if err != nil {
			t.Fatal(err)
		}
		contexts = append(contexts, r.Resolve(&f, f.Resources[0]))
	}

	for i, ctx := range contexts {
		if ctx != contexts[0] {
			t.Errorf("spelling %d resolved to %+v, want %+v", i, ctx, contexts[0])
		}
	}
	if contexts[0].RetentionDays != 3 || contexts[0].Classification != ClassHighlySensitive {
		t.Errorf("expected tags to apply, got %+v", contexts[0])
	}
}

func TestResolveFallsBackToTypeAndService(t *testing.T) {
	m := DefaultRiskModel()
	catalog := tags.Normalize(map[string][]string{
		"storage": {"retention: 90"},
	})
	r := NewResolver(&m, catalog)

	f, err := DecodeFinding(rawFinding(t, findingSpec{check: "x", uid: "arn:aws:s3:::unnamed", name: "unnamed"}))
	if err != nil {
		t.Fatal(err)
	}
	if ctx := r.Resolve(&f, f.Resources[0]); ctx.RetentionDays != 90 {
		t.Errorf("expected service-level tags to apply, got %d", ctx.RetentionDays)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	m := DefaultRiskModel()
	catalog := tags.Normalize(map[string][]string{
		"api": {"public: yes", "data_classification: Sensitive"},
	})
	r := NewResolver(&m, catalog)

	f, err := DecodeFinding(rawFinding(t, findingSpec{check: "x", uid: "arn:aws:apigateway:us-east-1::/restapis/1", name: "api"}))
	if err != nil {
		t.Fatal(err)
	}

	first := r.Resolve(&f, f.Resources[0])
	for i := 0; i < 20; i++ {
		if got := r.Resolve(&f, f.Resources[0]); got != first {
			t.Fatalf("run %d: %+v != %+v", i, got, first)
		}
	}
}

func TestResourceNameRootAccount(t *testing.T) {
	r := Resource{UID: "arn:aws:iam::123456789012:<root_account>", Name: "<root_account>"}
	if got := ResourceName(r); got != "Root Account" {
		t.Errorf("expected Root Account, got %q", got)
	}
	if got := ResourceName(Resource{UID: "u", Name: "n"}); got != "n" {
		t.Errorf("expected name passthrough, got %q", got)
	}
}

func TestCanonicalClassification(t *testing.T) {
	m := DefaultRiskModel()
	cases := map[string]string{
		"highly_sensitive": ClassHighlySensitive,
		"HIGHLY SENSITIVE": ClassHighlySensitive,
		"sensitive":        ClassSensitive,
		"public":           ClassPublic,
		"confidential":     "Confidential",
	}
	for in, want := range cases {
		if got := m.CanonicalClassification(in); got != want {
			t.Errorf("CanonicalClassification(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalClassificationPicksSameTierEveryTime(t *testing.T) {
	m := DefaultRiskModel()
	m.LossMagnitude["top_secret"] = 1000000
	m.LossMagnitude["Top Secret"] = 2000000

	for i := 0; i < 50; i++ {
		if got := m.CanonicalClassification("top-secret"); got != "Top Secret" {
			t.Fatalf("iteration %d: got %q, want %q", i, got, "Top Secret")
		}
	}
}
