package models

import "testing"

func TestRequiredSlots_Salaried(t *testing.T) {
	slots := RequiredSlots(BorrowerSalaried)
	if len(slots) != 7 {
		t.Fatalf("salaried required slots = %d, expected 7", len(slots))
	}
	want := []string{
		"passport", "visa", "emirates_id", "salary_certificate",
		"bank_statements", "title_deed", "application_form",
	}
	for i, code := range want {
		if slots[i].Code != code {
			t.Errorf("slot[%d] = %s, expected %s", i, slots[i].Code, code)
		}
	}
}

func TestRequiredSlots_SelfEmployed(t *testing.T) {
	slots := RequiredSlots(BorrowerSelfEmployed)
	if len(slots) != 10 {
		t.Fatalf("self-employed required slots = %d, expected 10", len(slots))
	}
	byCode := map[string]bool{}
	for _, s := range slots {
		byCode[s.Code] = true
	}
	for _, code := range []string{"trade_licence", "moa", "company_bank_statements"} {
		if !byCode[code] {
			t.Errorf("company slot %s missing for self-employed borrower", code)
		}
	}
}

func TestEffectiveSlots_DropsCompanySectionForSalaried(t *testing.T) {
	for _, s := range EffectiveSlots(BorrowerSalaried) {
		if s.SelfEmployedOnly {
			t.Errorf("salaried checklist contains self-employed slot %s", s.Code)
		}
	}
}

func TestFindSlot(t *testing.T) {
	slot, ok := FindSlot("passport")
	if !ok {
		t.Fatal("passport not found in catalog")
	}
	if slot.Section != SectionBorrower || !slot.Required {
		t.Errorf("passport slot = %+v", slot)
	}

	if _, ok := FindSlot("misc_note"); ok {
		t.Error("ad-hoc code misc_note should not resolve to a catalog slot")
	}
}

func TestStageIndex(t *testing.T) {
	if StageNew.Index() != 0 {
		t.Errorf("new index = %d", StageNew.Index())
	}
	if StageClosed.Index() != 6 {
		t.Errorf("closed index = %d", StageClosed.Index())
	}
	if Stage("archived").Index() != -1 {
		t.Error("unknown stage should index to -1")
	}
	if Stage("archived").Valid() {
		t.Error("unknown stage should not be valid")
	}
}

func TestProjectMilestone(t *testing.T) {
	p := &Project{}
	if p.Milestone(StageNew) != nil {
		t.Error("new has no milestone field")
	}
	if p.Milestone(StageClosed) != nil {
		t.Error("closed is tracked via ClosedAt, not a milestone")
	}
	m := p.Milestone(StageSubmitted)
	if m == nil || *m != nil {
		t.Fatal("submitted milestone should resolve to an unset field")
	}
}
