package generator

// StructuralScore holds the individual structural compliance checks.
type StructuralScore struct {
	QuestionLengthOK   bool
	OptionsBalanced    bool
	ExplanationPresent bool
	NovelInBank        bool
}

// ComputeStructuralScore evaluates one question. overlap is its highest
// keyword overlap with questions already in the bank.
func ComputeStructuralScore(q GeneratedQuestion, overlap float64) StructuralScore {
	textLen := len(q.QuestionText)

	shortest, longest := -1, 0
	for _, opt := range q.Options() {
		n := len(opt)
		if shortest < 0 || n < shortest {
			shortest = n
		}
		if n > longest {
			longest = n
		}
	}

	return StructuralScore{
		QuestionLengthOK:   textLen >= 40 && textLen <= 300,
		OptionsBalanced:    shortest > 0 && longest <= 3*shortest,
		ExplanationPresent: len(q.Explanation) >= 20,
		NovelInBank:        overlap <= 0.60,
	}
}

// ComputeQualityScore calculates a composite quality score (0.0-1.0).
//
// Formula: verification_confidence * 0.40 + adversarial_cleanliness * 0.35 + structural * 0.25
func ComputeQualityScore(vr *ValidationResult, ar *AdversarialResult, structural StructuralScore) float64 {
	verificationScore := 0.4
	if vr != nil {
		switch {
		case !vr.Matches:
			verificationScore = 0.0
		case vr.Confidence == "high":
			verificationScore = 1.0
		case vr.Confidence == "medium":
			verificationScore = 0.7
		}
	}

	adversarialScore := 1.0
	if ar != nil {
		switch DetermineAdversarialScore(ar.Challenges) {
		case "ambiguous":
			adversarialScore = 0.0
		case "minor_concern":
			adversarialScore = 0.6
		}
	}

	structuralScore := 0.0
	for _, ok := range []bool{structural.QuestionLengthOK, structural.OptionsBalanced, structural.ExplanationPresent, structural.NovelInBank} {
		if ok {
			structuralScore += 0.25
		}
	}

	return verificationScore*0.40 + adversarialScore*0.35 + structuralScore*0.25
}

// DetermineAdversarialScore returns the adversarial verdict for a set of
// challenges.
func DetermineAdversarialScore(challenges []AdversarialChallenge) string {
	moderate := 0
	for _, c := range challenges {
		switch c.DefenseStrength {
		case "strong":
			return "ambiguous"
		case "moderate":
			moderate++
		}
	}
	if moderate > 0 {
		return "minor_concern"
	}
	return "clean"
}

// ClassifyQuality returns "reject" (< 0.50), "flagged" (0.50-0.70) or
// "passed" (> 0.70).
func ClassifyQuality(score float64) string {
	if score < 0.50 {
		return "reject"
	}
	if score <= 0.70 {
		return "flagged"
	}
	return "passed"
}
