package engine

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/logger"
	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/tags"
)

const (
	unknownService     = "unknown"
	rootAccountMarker  = "<root_account>"
	rootAccountName    = "Root Account"
	internetExposedTag = "internet-exposed"
)

var (
	inactiveStatuses = map[string]bool{
		"disabled": true, "deleted": true, "failed": true, "inactive": true, "stopped": true,
	}
	inactiveStates = map[string]bool{
		"stopped": true, "terminated": true, "deleted": true, "failed": true,
	}
)

// ResourceContext is the merged view of one finding's resource.
type ResourceContext struct {
	Service           string `json:"service"`
	Classification    string `json:"classification"`
	IsPublic          bool   `json:"is_public"`
	IsActive          bool   `json:"is_active"`
	SoftDeleteEnabled bool   `json:"soft_delete"`
	RetentionDays     int    `json:"retention_days"`
}

// Resolver derives a ResourceContext from a finding and the inventory tags.
// It only reads the catalog, so one Resolver can serve many goroutines.
type Resolver struct {
	model   *RiskModel
	catalog *tags.Catalog
}

// NewResolver binds a model and tag catalog. A nil catalog behaves as empty.
func NewResolver(model *RiskModel, catalog *tags.Catalog) *Resolver {
	if catalog == nil {
		catalog = tags.NewCatalog()
	}
	return &Resolver{model: model, catalog: catalog}
}

// ResourceName returns the display name of the resource, renaming root-account resources.
func ResourceName(r Resource) string {
	if strings.Contains(r.UID, rootAccountMarker) {
		return rootAccountName
	}
	return r.Name
}

// InferService matches the lower-cased identifier against the ordered rules.
// The first rule with any keyword present wins.
func (m *RiskModel) InferService(identifier string) (service, classification string) {
	id := strings.ToLower(identifier)
	for _, rule := range m.Services {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(id, strings.ToLower(kw)) {
				class := rule.Classification
				if class == "" {
					class = m.DefaultClassification
				}
				return rule.Service, class
			}
		}
	}
	return unknownService, m.DefaultClassification
}

// Candidates lists the catalog keys to probe, in priority order.
func Candidates(name, resourceType, service string) []string {
	out := tags.LookupKeys(name)
	t := strings.ToLower(resourceType)
	t = strings.ReplaceAll(t, "aws", "")
	t = strings.ReplaceAll(t, "azure", "")
	out = append(out, strings.TrimSpace(t), strings.ToLower(service))
	return out
}

// Resolve builds the context for the finding's primary resource.
func (r *Resolver) Resolve(f *Finding, res Resource) ResourceContext {
	service, class := r.model.InferService(res.UID)
	ctx := ResourceContext{
		Service:           service,
		Classification:    class,
		IsPublic:          false,
		IsActive:          true,
		SoftDeleteEnabled: true,
		RetentionDays:     r.model.DefaultRetentionDays,
	}

	if t, key, ok := r.catalog.Lookup(Candidates(ResourceName(res), res.Type, service)...); ok {
		logger.Debugf("tags for %s matched catalog key %q", res.UID, key)
		r.applyTags(&ctx, t)
	}

	for _, c := range f.Categories() {
		if c == internetExposedTag {
			ctx.IsPublic = true
		}
	}

	if inactiveStates[strings.ToLower(res.State())] {
		ctx.IsActive = false
	}

	return ctx
}

// applyTags scans tags in their source order. Each key is handled by the
// first rule it matches. A public flag, once true, stays true.
func (r *Resolver) applyTags(ctx *ResourceContext, t *tags.Tags) {
	for _, key := range t.Keys() {
		v, _ := t.Get(key)
		compact := strings.ReplaceAll(key, "_", "")

		switch {
		case strings.Contains(compact, "dataclassification"):
			if v.Kind == tags.KindString && v.Str != "" {
				ctx.Classification = r.model.CanonicalClassification(v.Str)
			}
		case strings.Contains(compact, "public"):
			if v.Kind == tags.KindBool && v.Bool {
				ctx.IsPublic = true
			}
		case strings.Contains(compact, "status"):
			if isDisabled(v) {
				ctx.IsActive = false
			}
		case strings.Contains(compact, "accountenabled"):
			if v.Kind != tags.KindString && v.IsFalsy() {
				ctx.IsActive = false
			}
		case strings.Contains(compact, "softdelete"):
			if v.Kind == tags.KindBool {
				ctx.SoftDeleteEnabled = v.Bool
			}
		case strings.Contains(compact, "retention"):
			if v.Kind == tags.KindInt {
				ctx.RetentionDays = v.Int
			}
		}
	}
}

func isDisabled(v tags.Value) bool {
	switch v.Kind {
	case tags.KindBool:
		return !v.Bool
	case tags.KindString:
		return inactiveStatuses[strings.ToLower(v.Str)]
	}
	return false
}

// CanonicalClassification title-cases a tag value and snaps it onto a known
// tier when it names one, so "highly_sensitive" reads as "Highly Sensitive".
func (m *RiskModel) CanonicalClassification(raw string) string {
	titled := cases.Title(language.English).String(strings.TrimSpace(raw))
	want := compactWords(titled)
	for _, known := range []string{ClassHighlySensitive, ClassSensitive, ClassInternal, ClassPublic} {
		if compactWords(known) == want {
			return known
		}
	}
	for _, known := range sortedKeys(m.LossMagnitude) {
		if compactWords(known) == want {
			return known
		}
	}
	return titled
}

func compactWords(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
