package models

// ChecklistSlot is a static configuration entry describing one required or
// optional document type. The catalog is versioned with the code, not stored
// per project.
type ChecklistSlot struct {
	Code             string   `json:"code"`
	Label            string   `json:"label"`
	Section          Section  `json:"section"`
	Required         bool     `json:"required"`
	SelfEmployedOnly bool     `json:"self_employed_only"`
	MultiFile        bool     `json:"multi_file"`
	AllowedMIMEs     []string `json:"allowed_mimes,omitempty"` // empty = any
}

var pdfOrImage = []string{"application/pdf", "image/jpeg", "image/png"}

// checklistCatalog is the ordered slot set for a loan application.
var checklistCatalog = []ChecklistSlot{
	// Borrower
	{Code: "passport", Label: "Passport Copy", Section: SectionBorrower, Required: true, AllowedMIMEs: pdfOrImage},
	{Code: "visa", Label: "Residence Visa", Section: SectionBorrower, Required: true, AllowedMIMEs: pdfOrImage},
	{Code: "emirates_id", Label: "Emirates ID", Section: SectionBorrower, Required: true, AllowedMIMEs: pdfOrImage},
	{Code: "salary_certificate", Label: "Salary Certificate", Section: SectionBorrower, Required: true, AllowedMIMEs: pdfOrImage},
	{Code: "bank_statements", Label: "Personal Bank Statements (6 months)", Section: SectionBorrower, Required: true, MultiFile: true},
	{Code: "credit_report", Label: "Credit Bureau Report", Section: SectionBorrower, Required: false},

	// Company (self-employed borrowers only)
	{Code: "trade_licence", Label: "Trade Licence", Section: SectionCompany, Required: true, SelfEmployedOnly: true, AllowedMIMEs: pdfOrImage},
	{Code: "moa", Label: "Memorandum of Association", Section: SectionCompany, Required: true, SelfEmployedOnly: true},
	{Code: "company_bank_statements", Label: "Company Bank Statements (12 months)", Section: SectionCompany, Required: true, SelfEmployedOnly: true, MultiFile: true},
	{Code: "audit_report", Label: "Audited Financials", Section: SectionCompany, Required: false, SelfEmployedOnly: true},

	// Asset
	{Code: "title_deed", Label: "Title Deed", Section: SectionAsset, Required: true, AllowedMIMEs: pdfOrImage},
	{Code: "valuation_report", Label: "Valuation Report", Section: SectionAsset, Required: false},

	// Bank
	{Code: "application_form", Label: "Signed Bank Application Form", Section: SectionBank, Required: true},
	{Code: "fol_copy", Label: "Facility Offer Letter", Section: SectionBank, Required: false},

	// Lease
	{Code: "lease_agreements", Label: "Lease Agreements", Section: SectionLease, Required: false, MultiFile: true},
}

// EffectiveSlots returns the ordered checklist for a borrower type: slots
// marked self-employed-only are dropped for salaried borrowers.
func EffectiveSlots(borrowerType BorrowerType) []ChecklistSlot {
	slots := make([]ChecklistSlot, 0, len(checklistCatalog))
	for _, s := range checklistCatalog {
		if s.SelfEmployedOnly && borrowerType != BorrowerSelfEmployed {
			continue
		}
		slots = append(slots, s)
	}
	return slots
}

// RequiredSlots returns only the required subset of the effective checklist.
func RequiredSlots(borrowerType BorrowerType) []ChecklistSlot {
	var slots []ChecklistSlot
	for _, s := range EffectiveSlots(borrowerType) {
		if s.Required {
			slots = append(slots, s)
		}
	}
	return slots
}

// FindSlot looks up a catalog slot by code. The second return is false for
// ad-hoc ("other") document codes that are not part of the catalog.
func FindSlot(code string) (ChecklistSlot, bool) {
	for _, s := range checklistCatalog {
		if s.Code == code {
			return s, true
		}
	}
	return ChecklistSlot{}, false
}
