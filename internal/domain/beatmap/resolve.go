package beatmap

// ReviewReason is the closed set of codes a resolution can enqueue a pending
// human review with.
type ReviewReason string

const (
	ReasonUserModelMismatch     ReviewReason = "user_model_mismatch"
	ReasonModelFailedUserType   ReviewReason = "model_failed_user_specified"
	ReasonModelFailedNoUserType ReviewReason = "model_failed_no_user_type"
	ReasonModelAmbiguous        ReviewReason = "model_ambiguous"
)

// AdvisoryCode identifies a message the command layer should surface to the
// submitter. Rendering is the chat layer's job; the resolver only decides
// which advisories apply and with which types.
type AdvisoryCode string

const (
	// AdvisoryUserAsserted confirms the submitter's own classification took
	// effect on the catalog.
	AdvisoryUserAsserted AdvisoryCode = "user_asserted"
	// AdvisoryTypeMismatch flags a disagreement between the submitter and the
	// model; the difference was recorded.
	AdvisoryTypeMismatch AdvisoryCode = "type_mismatch"
	// AdvisoryModelFailed reports that the classification service failed
	// while the submitter supplied a type.
	AdvisoryModelFailed AdvisoryCode = "model_failed"
	// AdvisoryModelFailedProvisionalOthers reports a failed model run with no
	// user type, leaving the beatmap provisionally classified as others.
	AdvisoryModelFailedProvisionalOthers AdvisoryCode = "model_failed_provisional_others"
	// AdvisoryManualLocked tells the submitter an administrator fixed the
	// classification; their label was recorded but the catalog is unchanged.
	AdvisoryManualLocked AdvisoryCode = "manual_classification_locked"
)

type Advisory struct {
	Code        AdvisoryCode
	UserType    Type
	ModelType   Type
	CatalogType Type
}

// WriteMode selects what the persistence gateway may touch on the analysis row.
type WriteMode int

const (
	// WriteOverwrite replaces determined_type and probabilities and keeps the
	// row auto-typed.
	WriteOverwrite WriteMode = iota + 1
	// WriteProbabilitiesOnly refreshes probabilities and the model run
	// timestamp on a manually classified row, leaving the classification and
	// the auto-typed flag untouched.
	WriteProbabilitiesOnly
)

// AnalysisState is the slice of an existing analysis row the resolver needs.
type AnalysisState struct {
	DeterminedType Type
	IsAutoTyped    bool
}

// AnalysisWrite is the resolver's directive for the analysis row.
type AnalysisWrite struct {
	Mode           WriteMode
	DeterminedType Type
	Probabilities  map[Type]float64
}

// ReviewRequest asks the review-queue router to upsert a pending entry.
type ReviewRequest struct {
	Reason ReviewReason
}

// Resolution is the complete outcome of reconciling the three signals.
type Resolution struct {
	// CatalogType is the catalog's classification after this resolution.
	CatalogType Type
	// RecommendationType is recorded on the recommendation event; it may
	// differ from CatalogType when an administrator has locked the row.
	RecommendationType Type
	// ModelType is the model's verdict derived from the probabilities.
	ModelType Type
	// Write is nil when nothing on the analysis row may change (a manually
	// classified row with no fresh model run).
	Write      *AnalysisWrite
	Review     *ReviewRequest
	Advisories []Advisory
}

// Resolve reconciles the prior classification, the submitter's asserted type
// and the model's normalized probabilities into one decision. Pure function,
// no I/O: existing is nil when no analysis row exists yet, userType is nil
// when the submitter asserted nothing, modelRan distinguishes "model returned
// no signal" from "model call failed".
//
// Invariant: a row with IsAutoTyped=false never has its determined type
// changed here; only the administrator override path may do that.
func Resolve(existing *AnalysisState, userType *Type, probs map[Type]float64, modelRan bool) Resolution {
	modelType := ModelTypeFromProbabilities(probs)

	if existing != nil && !existing.IsAutoTyped {
		return resolveManuallyLocked(existing, userType, probs, modelRan, modelType)
	}
	return resolveAutoTyped(userType, probs, modelRan, modelType)
}

func resolveAutoTyped(userType *Type, probs map[Type]float64, modelRan bool, modelType Type) Resolution {
	res := Resolution{ModelType: modelType}

	if userType != nil {
		res.CatalogType = *userType
		res.RecommendationType = *userType
		res.Advisories = append(res.Advisories, Advisory{
			Code:     AdvisoryUserAsserted,
			UserType: *userType,
		})
		switch {
		case !modelRan:
			res.Review = &ReviewRequest{Reason: ReasonModelFailedUserType}
			res.Advisories = append(res.Advisories, Advisory{
				Code:     AdvisoryModelFailed,
				UserType: *userType,
			})
		case *userType != modelType:
			res.Review = &ReviewRequest{Reason: ReasonUserModelMismatch}
			res.Advisories = append(res.Advisories, Advisory{
				Code:      AdvisoryTypeMismatch,
				UserType:  *userType,
				ModelType: modelType,
			})
		}
	} else {
		res.CatalogType = modelType
		res.RecommendationType = modelType
		switch {
		case !modelRan:
			res.Review = &ReviewRequest{Reason: ReasonModelFailedNoUserType}
			res.Advisories = append(res.Advisories, Advisory{
				Code:        AdvisoryModelFailedProvisionalOthers,
				CatalogType: TypeOthers,
			})
		case modelType == TypeOthers:
			res.Review = &ReviewRequest{Reason: ReasonModelAmbiguous}
		}
	}

	res.Write = &AnalysisWrite{
		Mode:           WriteOverwrite,
		DeterminedType: res.CatalogType,
		Probabilities:  probs,
	}
	return res
}

func resolveManuallyLocked(existing *AnalysisState, userType *Type, probs map[Type]float64, modelRan bool, modelType Type) Resolution {
	res := Resolution{
		CatalogType:        existing.DeterminedType,
		RecommendationType: existing.DeterminedType,
		ModelType:          modelType,
	}

	if userType != nil {
		res.RecommendationType = *userType
		if *userType != existing.DeterminedType {
			res.Advisories = append(res.Advisories, Advisory{
				Code:        AdvisoryManualLocked,
				UserType:    *userType,
				CatalogType: existing.DeterminedType,
			})
		}
	}

	if modelRan {
		res.Write = &AnalysisWrite{
			Mode:          WriteProbabilitiesOnly,
			Probabilities: probs,
		}
	}
	return res
}
