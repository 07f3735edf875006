package beatmap

import "testing"

func typePtr(t Type) *Type { return &t }

func hasAdvisory(advisories []Advisory, code AdvisoryCode) bool {
	for _, a := range advisories {
		if a.Code == code {
			return true
		}
	}
	return false
}

func TestResolveNoRecordUserTypeModelAgrees(t *testing.T) {
	res := Resolve(nil, typePtr(TypeStream), map[Type]float64{TypeStream: 0.9}, true)

	if res.CatalogType != TypeStream || res.RecommendationType != TypeStream {
		t.Fatalf("Resolve() catalog = %q rec = %q", res.CatalogType, res.RecommendationType)
	}
	if res.Write == nil || res.Write.Mode != WriteOverwrite || res.Write.DeterminedType != TypeStream {
		t.Fatalf("Resolve() write = %#v", res.Write)
	}
	if res.Review != nil {
		t.Fatalf("Resolve() review = %#v, want none", res.Review)
	}
	if !hasAdvisory(res.Advisories, AdvisoryUserAsserted) {
		t.Fatalf("Resolve() advisories = %#v, want user_asserted", res.Advisories)
	}
}

func TestResolveUserModelMismatch(t *testing.T) {
	res := Resolve(nil, typePtr(TypeJump), map[Type]float64{TypeTech: 0.8}, true)

	if res.CatalogType != TypeJump {
		t.Fatalf("Resolve() catalog = %q, want jump", res.CatalogType)
	}
	if res.ModelType != TypeTech {
		t.Fatalf("Resolve() model type = %q, want tech", res.ModelType)
	}
	if res.Review == nil || res.Review.Reason != ReasonUserModelMismatch {
		t.Fatalf("Resolve() review = %#v, want user_model_mismatch", res.Review)
	}
	if !hasAdvisory(res.Advisories, AdvisoryTypeMismatch) {
		t.Fatalf("Resolve() advisories = %#v, want type_mismatch", res.Advisories)
	}
}

func TestResolveModelFailedWithUserType(t *testing.T) {
	res := Resolve(nil, typePtr(TypeJump), nil, false)

	if res.RecommendationType != TypeJump {
		t.Fatalf("Resolve() rec = %q, want jump", res.RecommendationType)
	}
	if res.Write == nil || res.Write.Mode != WriteOverwrite || res.Write.DeterminedType != TypeJump {
		t.Fatalf("Resolve() write = %#v", res.Write)
	}
	if res.Review == nil || res.Review.Reason != ReasonModelFailedUserType {
		t.Fatalf("Resolve() review = %#v, want model_failed_user_specified", res.Review)
	}
	if !hasAdvisory(res.Advisories, AdvisoryModelFailed) {
		t.Fatalf("Resolve() advisories = %#v, want model_failed", res.Advisories)
	}
}

func TestResolveModelFailedNoUserType(t *testing.T) {
	res := Resolve(nil, nil, nil, false)

	if res.CatalogType != TypeOthers {
		t.Fatalf("Resolve() catalog = %q, want others", res.CatalogType)
	}
	if res.Review == nil || res.Review.Reason != ReasonModelFailedNoUserType {
		t.Fatalf("Resolve() review = %#v, want model_failed_no_user_type", res.Review)
	}
	if !hasAdvisory(res.Advisories, AdvisoryModelFailedProvisionalOthers) {
		t.Fatalf("Resolve() advisories = %#v", res.Advisories)
	}
}

func TestResolveAmbiguousModelNoUserType(t *testing.T) {
	res := Resolve(nil, nil, map[Type]float64{TypeStream: 0.4, TypeJump: 0.3}, true)

	if res.CatalogType != TypeOthers {
		t.Fatalf("Resolve() catalog = %q, want others", res.CatalogType)
	}
	if res.Review == nil || res.Review.Reason != ReasonModelAmbiguous {
		t.Fatalf("Resolve() review = %#v, want model_ambiguous", res.Review)
	}
	if len(res.Advisories) != 0 {
		t.Fatalf("Resolve() advisories = %#v, want none", res.Advisories)
	}
}

func TestResolveConfidentModelNoUserType(t *testing.T) {
	res := Resolve(nil, nil, map[Type]float64{TypeAlt: 0.72}, true)

	if res.CatalogType != TypeAlt || res.RecommendationType != TypeAlt {
		t.Fatalf("Resolve() catalog = %q rec = %q", res.CatalogType, res.RecommendationType)
	}
	if res.Review != nil {
		t.Fatalf("Resolve() review = %#v, want none", res.Review)
	}
}

func TestResolveManualLockNeverOverwritesType(t *testing.T) {
	existing := &AnalysisState{DeterminedType: TypeTech, IsAutoTyped: false}

	res := Resolve(existing, typePtr(TypeStream), map[Type]float64{TypeStream: 0.95}, true)

	if res.CatalogType != TypeTech {
		t.Fatalf("Resolve() catalog = %q, want tech (manual lock)", res.CatalogType)
	}
	if res.RecommendationType != TypeStream {
		t.Fatalf("Resolve() rec = %q, want stream", res.RecommendationType)
	}
	if res.Write == nil || res.Write.Mode != WriteProbabilitiesOnly {
		t.Fatalf("Resolve() write = %#v, want probabilities-only", res.Write)
	}
	if res.Review != nil {
		t.Fatalf("Resolve() review = %#v, manual rows never enqueue review", res.Review)
	}
	if !hasAdvisory(res.Advisories, AdvisoryManualLocked) {
		t.Fatalf("Resolve() advisories = %#v, want manual_classification_locked", res.Advisories)
	}
}

func TestResolveManualLockNoUserType(t *testing.T) {
	existing := &AnalysisState{DeterminedType: TypeAlt, IsAutoTyped: false}

	res := Resolve(existing, nil, map[Type]float64{TypeJump: 0.9}, true)

	if res.RecommendationType != TypeAlt {
		t.Fatalf("Resolve() rec = %q, want alt", res.RecommendationType)
	}
	if len(res.Advisories) != 0 {
		t.Fatalf("Resolve() advisories = %#v, want none", res.Advisories)
	}
}

func TestResolveManualLockModelFailedWritesNothing(t *testing.T) {
	existing := &AnalysisState{DeterminedType: TypeAlt, IsAutoTyped: false}

	res := Resolve(existing, nil, nil, false)

	if res.Write != nil {
		t.Fatalf("Resolve() write = %#v, want nil when model failed on locked row", res.Write)
	}
	if res.Review != nil {
		t.Fatalf("Resolve() review = %#v, want none", res.Review)
	}
}

func TestResolveExistingAutoTypedBehavesLikeNoRecord(t *testing.T) {
	existing := &AnalysisState{DeterminedType: TypeJump, IsAutoTyped: true}

	res := Resolve(existing, nil, map[Type]float64{TypeTech: 0.6}, true)

	if res.CatalogType != TypeTech {
		t.Fatalf("Resolve() catalog = %q, want tech", res.CatalogType)
	}
	if res.Write == nil || res.Write.Mode != WriteOverwrite {
		t.Fatalf("Resolve() write = %#v, want overwrite", res.Write)
	}
}
