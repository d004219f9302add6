package models

import "time"

const (
	TierFree         = "free"
	TierProfessional = "professional"
	TierEnterprise   = "enterprise"
	TierAffiliate    = "affiliate"
)

type RuleKind string

const (
	RuleAssessmentCompleted RuleKind = "assessment_completed"
	RuleMinPercentage       RuleKind = "min_percentage"
	RuleMinDomainScore      RuleKind = "min_domain_score"
	RuleMinCompletedModules RuleKind = "min_completed_modules"
)

// Rule is one machine-checked requirement of a certification. Message is
// shown to the user when the rule fails.
type Rule struct {
	Kind    RuleKind `json:"kind" yaml:"kind"`
	Domain  string   `json:"domain,omitempty" yaml:"domain,omitempty"`
	Min     float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Message string   `json:"message" yaml:"message"`
}

type CertificationType struct {
	ID              string     `json:"id" yaml:"id"`
	Title           string     `json:"title" yaml:"title"`
	Description     string     `json:"description" yaml:"description"`
	Requirements    []string   `json:"requirements" yaml:"requirements"`
	Rules           []Rule     `json:"-" yaml:"rules"`
	EstimatedTime   string     `json:"estimated_time" yaml:"estimated_time"`
	SkillsValidated []string   `json:"skills_validated" yaml:"skills_validated"`
	AccessTier      string     `json:"access_tier" yaml:"access_tier"`
	IsPremium       bool       `json:"is_premium" yaml:"is_premium"`
	UpdatedAt       *time.Time `json:"updated_at" yaml:"-"`
}

// RequiredTier is the explicit access tier, or professional for premium
// entries and free otherwise.
func (c CertificationType) RequiredTier() string {
	if c.AccessTier != "" {
		return c.AccessTier
	}
	if c.IsPremium {
		return TierProfessional
	}
	return TierFree
}

type Certification struct {
	ID                string     `json:"id"`
	UserID            string     `json:"-"`
	CatalogID         string     `json:"catalog_id"`
	CertificationType string     `json:"certification_type"`
	VerificationCode  string     `json:"verification_code"`
	IssuedAt          time.Time  `json:"issued_at"`
	ExpiresAt         *time.Time `json:"expires_at"`
	IsValid           bool       `json:"is_valid"`
	BadgeURL          *string    `json:"badge_url"`
	SkillsValidated   []string   `json:"skills_validated"`
	AccessTier        string     `json:"access_tier,omitempty"`
}

// VerifiedCertification is the public view behind a verification code.
type VerifiedCertification struct {
	CertificationType string     `json:"certification_type"`
	CatalogID         string     `json:"catalog_id"`
	HolderName        string     `json:"holder_name"`
	IssuedAt          time.Time  `json:"issued_at"`
	ExpiresAt         *time.Time `json:"expires_at"`
	SkillsValidated   []string   `json:"skills_validated"`
	AccessTier        string     `json:"access_tier,omitempty"`
	IsValid           bool       `json:"is_valid"`
}

type VerifyResponse struct {
	Valid         bool                   `json:"valid"`
	Message       string                 `json:"message,omitempty"`
	Certification *VerifiedCertification `json:"certification,omitempty"`
}

const (
	EligibilityIssued               = "issued"
	EligibilityUpgradeRequired      = "upgrade_required"
	EligibilityRequirementsNotMet   = "requirements_not_met"
	EligibilityEligiblePendingIssue = "eligible_pending_issue"
)

type Eligibility struct {
	CatalogID           string         `json:"catalog_id"`
	Status              string         `json:"status"`
	Eligible            bool           `json:"eligible"`
	RequiredTier        string         `json:"required_tier"`
	CurrentTier         string         `json:"current_tier"`
	MissingRequirements []string       `json:"missing_requirements"`
	Certification       *Certification `json:"certification,omitempty"`
}

type ApplyResponse struct {
	Message       string        `json:"message"`
	AlreadyIssued bool          `json:"already_issued"`
	Certification Certification `json:"certification"`
}

type UpgradeRequiredResponse struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	RequiredTier string `json:"required_tier"`
	CurrentTier  string `json:"current_tier"`
}

type RequirementsNotMetResponse struct {
	Message             string   `json:"message"`
	Status              string   `json:"status"`
	MissingRequirements []string `json:"missing_requirements"`
}

type CatalogResponse struct {
	Certifications []CertificationType `json:"certifications"`
	Message        string              `json:"message,omitempty"`
}

type EarnedResponse struct {
	Certifications []Certification `json:"certifications"`
}
