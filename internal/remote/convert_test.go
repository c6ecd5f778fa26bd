package remote

import (
	"encoding/json"
	"testing"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

func TestAccountPayloadAltID(t *testing.T) {
	raw := `{"_id":"acc-9","name":"Dana","email":"dana@example.com","role":"institution"}`

	var p accountPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	acc := p.toModel()
	if acc.ID != "acc-9" {
		t.Errorf("ID = %q, want acc-9", acc.ID)
	}
	if acc.Role != model.RoleInstitution {
		t.Errorf("Role = %q, want institution", acc.Role)
	}
}

func TestAccountPayloadIDWinsOverAltID(t *testing.T) {
	var p accountPayload
	raw := `{"id":"primary","_id":"legacy","email":"x@example.com"}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := p.toModel().ID; got != "primary" {
		t.Errorf("ID = %q, want primary", got)
	}
}

func TestHistoryPayloadEmbeddedPet(t *testing.T) {
	raw := `{
		"_id": "h-1",
		"type": "adoption",
		"status": "completed",
		"pet": {"_id": "p-1", "name": "Rex", "type": "dog", "gender": "MALE"},
		"account": "acc-1"
	}`

	var p historyPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	h := p.toModel()
	if h.ID != "h-1" {
		t.Errorf("ID = %q, want h-1", h.ID)
	}
	if h.AccountID != "acc-1" {
		t.Errorf("AccountID = %q, want acc-1", h.AccountID)
	}
	if h.Pet == nil || h.Pet.ID != "p-1" {
		t.Fatalf("Pet ref = %+v, want id p-1", h.Pet)
	}
	if h.Pet.Obj == nil || h.Pet.Obj.Name != "Rex" {
		t.Errorf("embedded pet = %+v, want Rex", h.Pet.Obj)
	}
}

func TestHistoryPayloadPetByID(t *testing.T) {
	raw := `{"id":"h-2","type":"donation","pet":"p-7","amount":"25.00"}`

	var p historyPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	h := p.toModel()
	if h.Pet == nil || h.Pet.ID != "p-7" {
		t.Fatalf("Pet ref = %+v, want id p-7", h.Pet)
	}
	if h.Pet.Obj != nil {
		t.Errorf("Pet.Obj = %+v, want nil for a bare-id reference", h.Pet.Obj)
	}
	if h.Status != model.HistoryPending {
		t.Errorf("Status = %q, want pending default", h.Status)
	}
}

func TestHistoryPayloadEmbeddedInstitution(t *testing.T) {
	raw := `{
		"id": "h-3",
		"type": "sponsorship",
		"institution": {"id": "inst-1", "name": "Shelter", "email": "s@example.com"}
	}`

	var p historyPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	h := p.toModel()
	if h.Institution == nil || h.Institution.ID != "inst-1" {
		t.Fatalf("Institution ref = %+v, want id inst-1", h.Institution)
	}
	if h.Institution.Obj == nil || h.Institution.Obj.Name != "Shelter" {
		t.Errorf("embedded institution = %+v, want Shelter", h.Institution.Obj)
	}
}

func TestInteractionPayloadUnknownStatus(t *testing.T) {
	raw := `{"_id":"i-1","account":"acc-1","pet":"p-1","status":"requested"}`

	var p interactionPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	in := p.toModel()
	if in.Status != model.StatusViewed {
		t.Errorf("Status = %q, want viewed for unrecognized input", in.Status)
	}
}

func TestHistoryToPayloadRoundTrip(t *testing.T) {
	h := &model.History{
		ID:                "h-4",
		Type:              model.HistoryDonation,
		Status:            model.HistoryCompleted,
		AccountID:         "acc-2",
		Amount:            "10.50",
		ExternalReference: "ext-4",
		Pet:               model.RefByID[model.Pet]("p-9"),
	}

	b, err := json.Marshal(historyToPayload(h))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var p historyPayload
	if err := json.Unmarshal(b, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := p.toModel()
	if got.ExternalReference != "ext-4" {
		t.Errorf("ExternalReference = %q, want ext-4", got.ExternalReference)
	}
	if got.Pet == nil || got.Pet.ID != "p-9" {
		t.Errorf("Pet ref = %+v, want id p-9", got.Pet)
	}
	if got.Amount != "10.50" {
		t.Errorf("Amount = %q, want 10.50", got.Amount)
	}
}
