package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateJSON(t *testing.T) {
	var payload struct {
		When Date `json:"when"`
	}
	if err := json.Unmarshal([]byte(`{"when":"2026-02-14"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.When.String() != "2026-02-14" {
		t.Fatalf("unexpected date %s", payload.When)
	}
	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"when":"2026-02-14"}` {
		t.Fatalf("unexpected json %s", out)
	}

	if err := json.Unmarshal([]byte(`{"when":"14/02/2026"}`), &payload); err == nil {
		t.Fatalf("expected invalid layout to fail")
	}
}

func TestNewDateTruncates(t *testing.T) {
	loc := time.FixedZone("UTC-6", -6*3600)
	d := NewDate(time.Date(2026, 2, 14, 23, 30, 0, 0, loc))
	if d.String() != "2026-02-14" || d.Location() != time.UTC || d.Hour() != 0 {
		t.Fatalf("unexpected truncation %v", d.Time)
	}
}
