package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pet-vet-link/internal/router"
)

type testUser struct {
	id    string
	email string
}

var (
	owner = testUser{id: "owner-1", email: "ana@example.com"}
	vet   = testUser{id: "vet-1", email: "vet@clinic.com"}
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	handler, _ := router.NewRouter(router.Options{AuthVerifier: nil})
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_InvitationToLinkage(t *testing.T) {
	ts := newTestServer(t)

	// 1) Tutor crea dos mascotas
	pet1 := createPet(t, ts.URL, owner, map[string]any{
		"name":    "Rex",
		"species": "dog",
		"sex":     "male",
	})
	pet2 := createPet(t, ts.URL, owner, map[string]any{
		"name":    "Mia",
		"species": "cat",
		"sex":     "female",
	})

	// 2) Sin invitaciones: linkage false
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+pet1+"/linkage", owner, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 linkage, got %d body=%s", st, string(body))
		}
		var resp struct {
			HasVet bool `json:"has_vet"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.HasVet {
			t.Fatalf("expected has_vet=false before any invitation")
		}
	}

	// 3) Vet aún no puede ver la mascota
	{
		st, _ := doReq(t, ts.URL, "GET", "/pets/"+pet1, vet, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 before invitation accepted, got %d", st)
		}
	}

	// 4) Tutor invita al vet solo para pet1
	invID := createInvitation(t, ts.URL, owner, map[string]any{
		"vet_name":  "Dr. Silva",
		"vet_email": vet.email,
		"pets": []map[string]any{
			{"pet_id": pet1, "pet_name": "Rex"},
		},
		"message": "por favor",
	})

	// 5) Vet ve su invitación pendente (sin invite_code)
	{
		st, body := doReq(t, ts.URL, "GET", "/me/invitations", vet, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 listing vet invitations, got %d body=%s", st, string(body))
		}
		var items []map[string]any
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 {
			t.Fatalf("expected 1 invitation for vet, got %d", len(items))
		}
		if items[0]["status"] != "pendente" {
			t.Fatalf("expected pendente, got %v", items[0]["status"])
		}
		if code, ok := items[0]["invite_code"]; ok && code != "" {
			t.Fatalf("invite_code must not be exposed to the vet")
		}
	}

	// 6) Otro usuario no puede aceptar (mismatch de email)
	{
		stranger := testUser{id: "stranger-1", email: "stranger@example.com"}
		st, _ := doReq(t, ts.URL, "POST", "/invitations/"+invID+"/accept", stranger, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 accept with wrong email, got %d", st)
		}
	}

	// 7) Vet acepta
	{
		st, body := doReq(t, ts.URL, "POST", "/invitations/"+invID+"/accept", vet, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 accept, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "aceito" {
			t.Fatalf("expected aceito, got %s", resp.Status)
		}
	}

	// 8) Linkage de pet1 ahora true, pet2 sigue false
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+pet1+"/linkage", owner, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 linkage, got %d", st)
		}
		var resp struct {
			HasVet bool `json:"has_vet"`
			Vet    *struct {
				VetEmail string `json:"vet_email"`
			} `json:"vet"`
		}
		_ = json.Unmarshal(body, &resp)
		if !resp.HasVet {
			t.Fatalf("expected has_vet=true after accept, body=%s", string(body))
		}
		if resp.Vet == nil || resp.Vet.VetEmail != vet.email {
			t.Fatalf("expected vet summary with email, body=%s", string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/linkage?pet_ids="+pet1+","+pet2, owner, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 batch linkage, got %d", st)
		}
		var resp map[string]struct {
			HasVet bool `json:"has_vet"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp) != 2 {
			t.Fatalf("expected entry per requested pet, got %#v", resp)
		}
		if !resp[pet1].HasVet || resp[pet2].HasVet {
			t.Fatalf("expected pet1 linked and pet2 not, got %#v", resp)
		}
	}

	// 9) Vet ve a pet1 como paciente y puede leer/escribir
	{
		st, body := doReq(t, ts.URL, "GET", "/me/patients", vet, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 patients, got %d body=%s", st, string(body))
		}
		var items []struct {
			Pet struct {
				ID string `json:"id"`
			} `json:"pet"`
			Permissions []string `json:"permissions"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].Pet.ID != pet1 {
			t.Fatalf("expected pet1 as patient, got %s", string(body))
		}
	}
	{
		st, _ := doReq(t, ts.URL, "GET", "/pets/"+pet1, vet, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get pet by vet, got %d", st)
		}
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/pets/"+pet1+"/events", vet, map[string]any{
			"type":        "VET_VISIT",
			"occurred_at": time.Now().UTC().Format(time.RFC3339),
			"title":       "Consulta",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create event by vet, got %d body=%s", st, string(body))
		}
	}

	// 10) El perfil del vet quedó marcado como veterinario
	{
		st, body := doReq(t, ts.URL, "GET", "/me", vet, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 /me, got %d body=%s", st, string(body))
		}
		var resp struct {
			UserType string `json:"user_type"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.UserType != "veterinario" {
			t.Fatalf("expected user_type=veterinario, got %s", resp.UserType)
		}
	}

	// 11) Tutor cancela: el vet pierde acceso y el linkage vuelve a false
	{
		st, body := doReq(t, ts.URL, "POST", "/invitations/"+invID+"/cancel", owner, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 cancel, got %d body=%s", st, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+pet1+"/linkage", owner, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 linkage after cancel, got %d", st)
		}
		var resp struct {
			HasVet bool `json:"has_vet"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.HasVet {
			t.Fatalf("expected has_vet=false after cancel")
		}
	}
	{
		st, _ := doReq(t, ts.URL, "GET", "/pets/"+pet1, vet, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 get pet after cancel, got %d", st)
		}
	}
}

func TestHTTP_CreateInvitation_ForeignPet_Forbidden(t *testing.T) {
	ts := newTestServer(t)

	petID := createPet(t, ts.URL, owner, map[string]any{
		"name":    "Rex",
		"species": "dog",
	})

	other := testUser{id: "other-1", email: "other@example.com"}
	st, _ := doReq(t, ts.URL, "POST", "/invitations", other, map[string]any{
		"vet_email": "vet@clinic.com",
		"pets":      []map[string]any{{"pet_id": petID}},
	})
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 inviting for a foreign pet, got %d", st)
	}
}

func TestHTTP_GetInvitationByCode(t *testing.T) {
	ts := newTestServer(t)

	petID := createPet(t, ts.URL, owner, map[string]any{
		"name":    "Rex",
		"species": "dog",
	})

	st, body := doReq(t, ts.URL, "POST", "/invitations", owner, map[string]any{
		"vet_email": "vet@clinic.com",
		"pets":      []map[string]any{{"pet_id": petID, "pet_name": "Rex"}},
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create invitation, got %d body=%s", st, string(body))
	}
	var created struct {
		InviteCode string `json:"invite_code"`
	}
	_ = json.Unmarshal(body, &created)
	if created.InviteCode == "" {
		t.Fatalf("expected invite_code for the owner, body=%s", string(body))
	}

	// El lookup por code es la página de aceptación out-of-band
	st, body = doReq(t, ts.URL, "GET", "/invitations/code/"+created.InviteCode, vet, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 get by code, got %d body=%s", st, string(body))
	}

	st, _ = doReq(t, ts.URL, "GET", "/invitations/code/nope", vet, nil)
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown code, got %d", st)
	}
}

func TestHTTP_VoidEvent_ForeignPetPath_NotFound(t *testing.T) {
	ts := newTestServer(t)

	victim := testUser{id: "victim-1", email: "victim@example.com"}
	attacker := testUser{id: "attacker-1", email: "attacker@example.com"}

	victimPet := createPet(t, ts.URL, victim, map[string]any{
		"name":    "Rex",
		"species": "dog",
	})
	attackerPet := createPet(t, ts.URL, attacker, map[string]any{
		"name":    "Loki",
		"species": "cat",
	})

	st, body := doReq(t, ts.URL, "POST", "/pets/"+victimPet+"/events", victim, map[string]any{
		"type":        "VACCINE",
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
		"title":       "Antirrábica",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create event, got %d body=%s", st, string(body))
	}
	var ev struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &ev)

	// Anular un evento ajeno pasando por la mascota propia no puede andar:
	// el evento no pertenece al pet del path.
	st, _ = doReq(t, ts.URL, "POST", "/pets/"+attackerPet+"/events/"+ev.ID+"/void", attacker, nil)
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 voiding via foreign pet path, got %d", st)
	}

	st, body = doReq(t, ts.URL, "GET", "/pets/"+victimPet+"/events", victim, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 list events, got %d", st)
	}
	var items []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	_ = json.Unmarshal(body, &items)
	if len(items) != 1 || items[0].Status != "active" {
		t.Fatalf("expected victim event untouched, body=%s", string(body))
	}

	// Por el path correcto, el dueño sí puede anular.
	st, body = doReq(t, ts.URL, "POST", "/pets/"+victimPet+"/events/"+ev.ID+"/void", victim, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 void by owner, got %d body=%s", st, string(body))
	}
	var voided struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(body, &voided)
	if voided.Status != "voided" {
		t.Fatalf("expected voided, got %s", voided.Status)
	}
}

func TestHTTP_Health_And_Metrics(t *testing.T) {
	ts := newTestServer(t)

	st, _ := doReq(t, ts.URL, "GET", "/health", testUser{}, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", st)
	}

	st, _ = doReq(t, ts.URL, "GET", "/metrics", testUser{}, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 metrics, got %d", st)
	}
}

func createPet(t *testing.T, baseURL string, u testUser, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets", u, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create pet: missing id body=%s", string(body))
	}
	return resp.ID
}

func createInvitation(t *testing.T, baseURL string, u testUser, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/invitations", u, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create invitation, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create invitation: missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path string, u testUser, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if u.id != "" {
		req.Header.Set("X-Debug-User-ID", u.id)
	}
	if u.email != "" {
		req.Header.Set("X-Debug-User-Email", u.email)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
