package models

import (
	"encoding/json"
	"testing"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{"number", `{"id":42}`, "42", false},
		{"string", `{"id":"a1b2"}`, "a1b2", false},
		{"null", `{"id":null}`, "", false},
		{"bool", `{"id":true}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Subscription
			err := json.Unmarshal([]byte(tt.input), &s)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && s.ID != tt.want {
				t.Errorf("id = %q, want %q", s.ID, tt.want)
			}
		})
	}
}

func TestSubscription_DraftDropsID(t *testing.T) {
	s := Subscription{ID: "7", Name: "Netflix", Amount: 499, Currency: "INR", AutoRenew: true}
	data, err := json.Marshal(s.Draft())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := fields["id"]; ok {
		t.Error("draft must not carry an id")
	}
	if fields["name"] != "Netflix" {
		t.Errorf("name = %v", fields["name"])
	}
}

func TestUser_DisplayName(t *testing.T) {
	var nilUser *User
	if nilUser.DisplayName() != "" {
		t.Error("nil user should have empty display name")
	}
	if (&User{Email: "a@b.co"}).DisplayName() != "a@b.co" {
		t.Error("expected email fallback")
	}
	if (&User{Name: "Asha", Email: "a@b.co"}).DisplayName() != "Asha" {
		t.Error("expected name")
	}
}
