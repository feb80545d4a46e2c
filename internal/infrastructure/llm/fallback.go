package llm

import (
	"context"
	"strings"

	"GuidelineScanner/internal/domain"
	"GuidelineScanner/internal/ports"
)

// FallbackEvidenceStrength is the constant evidence rating reported by the
// heuristic path. It is a placeholder, not a computed judgment: the fallback
// has no basis for grading evidence, so it reports a fixed middle value.
const FallbackEvidenceStrength = "Moderate"

const (
	maxFallbackBullets = 4
	maxFallbackTags    = 5
)

// FallbackEnricher derives summary, tags, and complexity from keyword
// matching over the lowercased title alone. It is fully deterministic, never
// errors, and produces the same output shape as the remote path. It serves
// both as the standalone enricher when no API credential is configured and
// as the per-call substitute when a remote call fails.
type FallbackEnricher struct{}

var _ ports.Enricher = (*FallbackEnricher)(nil)

// NewFallbackEnricher returns the heuristic enricher.
func NewFallbackEnricher() *FallbackEnricher {
	return &FallbackEnricher{}
}

// Ordered tables: first match wins, so broader specialties must come after
// the ones whose keywords they would shadow.
var summarySpecialties = []struct {
	keyword string
	bullet  string
}{
	{"cardiology", "Cardiovascular health guidelines"},
	{"diabetes", "Diabetes management recommendations"},
	{"hypertension", "Blood pressure management protocols"},
	{"infectious", "Infectious disease treatment guidelines"},
	{"pediatric", "Pediatric care recommendations"},
	{"geriatric", "Geriatric care protocols"},
	{"obstetric", "Obstetric and gynecological care"},
	{"emergency", "Emergency medicine protocols"},
	{"oncology", "Cancer treatment guidelines"},
	{"respiratory", "Respiratory care recommendations"},
}

var tagSpecialties = []struct {
	tag      string
	keywords []string
}{
	{"Cardiology", []string{"heart", "cardiac", "cardiovascular", "hypertension", "blood pressure"}},
	{"Endocrinology", []string{"diabetes", "endocrine", "glucose", "insulin", "metabolic"}},
	{"Infectious Disease", []string{"infection", "bacterial", "viral", "antibiotic", "sepsis"}},
	{"Pediatrics", []string{"pediatric", "child", "infant", "neonatal", "adolescent"}},
	{"Geriatrics", []string{"geriatric", "elderly", "aging", "senior"}},
	{"Obstetrics", []string{"pregnancy", "obstetric", "maternal", "fetal", "gynecology"}},
	{"Emergency Medicine", []string{"emergency", "urgent", "acute", "trauma"}},
	{"Oncology", []string{"cancer", "oncology", "tumor", "malignant", "chemotherapy"}},
	{"Respiratory", []string{"respiratory", "lung", "asthma", "copd", "pneumonia"}},
	{"Neurology", []string{"neurological", "brain", "stroke", "seizure", "migraine"}},
}

var tagConditions = []struct {
	keyword string
	tag     string
}{
	{"diabetes", "Diabetes"},
	{"hypertension", "Hypertension"},
	{"asthma", "Asthma"},
	{"depression", "Depression"},
	{"anxiety", "Anxiety"},
	{"arthritis", "Arthritis"},
	{"osteoporosis", "Osteoporosis"},
	{"dementia", "Dementia"},
	{"stroke", "Stroke"},
	{"heart disease", "Heart Disease"},
	{"cancer", "Cancer"},
	{"obesity", "Obesity"},
	{"smoking", "Smoking"},
	{"alcohol", "Alcohol"},
	{"substance abuse", "Substance Abuse"},
}

var tagProcedures = []struct {
	keyword string
	tag     string
}{
	{"screening", "Screening"},
	{"diagnosis", "Diagnosis"},
	{"treatment", "Treatment"},
	{"prevention", "Prevention"},
	{"vaccination", "Vaccination"},
	{"surgery", "Surgery"},
	{"medication", "Medication"},
	{"therapy", "Therapy"},
	{"monitoring", "Monitoring"},
	{"assessment", "Assessment"},
}

// Summarize builds up to four bullet-style statements from title keywords.
func (f *FallbackEnricher) Summarize(_ context.Context, title, _ string) (string, error) {
	lower := strings.ToLower(title)

	var points []string
	for _, s := range summarySpecialties {
		if strings.Contains(lower, s.keyword) {
			points = append(points, "• "+s.bullet)
			break
		}
	}

	if strings.Contains(lower, "treatment") || strings.Contains(lower, "therapy") {
		points = append(points, "• Provides evidence-based treatment recommendations")
	}
	if strings.Contains(lower, "diagnosis") || strings.Contains(lower, "screening") {
		points = append(points, "• Outlines diagnostic and screening protocols")
	}
	if strings.Contains(lower, "prevention") || strings.Contains(lower, "preventive") {
		points = append(points, "• Focuses on preventive care strategies")
	}
	if strings.Contains(lower, "management") {
		points = append(points, "• Comprehensive management approach for healthcare providers")
	}

	if len(points) < 2 {
		points = append(points,
			"• Evidence-based clinical practice guideline",
			"• Designed for healthcare professionals")
	}

	if len(points) > maxFallbackBullets {
		points = points[:maxFallbackBullets]
	}

	return strings.Join(points, "\n"), nil
}

// Tags contributes at most one specialty, one condition, and one procedure
// tag, falling back to a generic pair when nothing matches.
func (f *FallbackEnricher) Tags(_ context.Context, title, _ string) ([]string, error) {
	lower := strings.ToLower(title)

	var tags []string
	for _, s := range tagSpecialties {
		if containsAny(lower, s.keywords) {
			tags = append(tags, s.tag)
			break
		}
	}

	for _, c := range tagConditions {
		if strings.Contains(lower, c.keyword) {
			tags = append(tags, c.tag)
			break
		}
	}

	for _, p := range tagProcedures {
		if strings.Contains(lower, p.keyword) {
			tags = append(tags, p.tag)
			break
		}
	}

	if len(tags) == 0 {
		tags = []string{"Clinical Guidelines", "Evidence-Based"}
	}

	if len(tags) > maxFallbackTags {
		tags = tags[:maxFallbackTags]
	}

	return tags, nil
}

// Complexity classifies the guideline with three independent keyword checks;
// evidence strength is always FallbackEvidenceStrength.
func (f *FallbackEnricher) Complexity(_ context.Context, title, _ string) (domain.ComplexityProfile, error) {
	lower := strings.ToLower(title)

	level := "Intermediate"
	if containsAny(lower, []string{"basic", "primary", "general"}) {
		level = "Basic"
	} else if containsAny(lower, []string{"advanced", "specialist", "complex"}) {
		level = "Advanced"
	}

	audience := "Primary Care"
	switch {
	case containsAny(lower, []string{"pediatric", "child", "infant"}):
		audience = "Pediatricians"
	case containsAny(lower, []string{"geriatric", "elderly"}):
		audience = "Geriatricians"
	case containsAny(lower, []string{"emergency", "urgent"}):
		audience = "Emergency Medicine"
	}

	urgency := "Routine"
	switch {
	case containsAny(lower, []string{"emergency", "urgent", "critical", "severe"}):
		urgency = "Critical"
	case containsAny(lower, []string{"important", "significant"}):
		urgency = "Important"
	}

	return domain.ComplexityProfile{
		Level:            level,
		TargetAudience:   audience,
		ClinicalUrgency:  urgency,
		EvidenceStrength: FallbackEvidenceStrength,
	}, nil
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
