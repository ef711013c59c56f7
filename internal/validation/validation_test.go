package validation

import (
	"strings"
	"testing"
)

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"present", "ath-1", false},
		{"empty", "", true},
		{"whitespace only", "   \t", true},
		{"padded", "  x  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired("athlete_id", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequired(%q) err = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEnum(t *testing.T) {
	allowed := []string{"A", "B", "C"}

	if err := ValidateEnum("priority", "B", allowed); err != nil {
		t.Errorf("valid enum rejected: %v", err)
	}
	err := ValidateEnum("priority", "D", allowed)
	if err == nil {
		t.Fatal("invalid enum accepted")
	}
	if !strings.Contains(err.Message, "A, B, C") {
		t.Errorf("message %q does not list allowed values", err.Message)
	}
}

func TestValidateRange(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{"inside", 75.5, false},
		{"at min", 0, false},
		{"at max", 200, false},
		{"below", -0.1, true},
		{"above", 200.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRange("weight_kg", tt.value, 0, 200)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRange(%v) err = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePositiveInt(t *testing.T) {
	if err := ValidatePositiveInt("ftp_watts", 250); err != nil {
		t.Errorf("positive value rejected: %v", err)
	}
	if err := ValidatePositiveInt("ftp_watts", 0); err == nil {
		t.Error("zero accepted")
	}
	if err := ValidatePositiveInt("ftp_watts", -1); err == nil {
		t.Error("negative accepted")
	}
}

func TestValidateNonNegativeInt(t *testing.T) {
	if err := ValidateNonNegativeInt("actual_tss", 0); err != nil {
		t.Errorf("zero rejected: %v", err)
	}
	if err := ValidateNonNegativeInt("actual_tss", -5); err == nil {
		t.Error("negative accepted")
	}
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid", "2025-06-02", false},
		{"leap day", "2024-02-29", false},
		{"not a leap day", "2025-02-29", true},
		{"wrong layout", "02/06/2025", true},
		{"timestamp", "2025-06-02T10:00:00Z", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDate("start_date", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDate(%q) err = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateULID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid", "01HQXW5P8NVJ7QD3KJF2M4R9TS", false},
		{"lowercase accepted", "01hqxw5p8nvj7qd3kjf2m4r9ts", false},
		{"too short", "01HQXW5P8N", true},
		{"excluded letter", "01HQXW5P8NVJ7QD3KJF2M4R9TI", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateULID("plan_id", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateULID(%q) err = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestCollector(t *testing.T) {
	var c Collector

	if c.HasErrors() {
		t.Error("fresh collector reports errors")
	}

	c.Add(nil)
	if c.HasErrors() {
		t.Error("nil add recorded an error")
	}

	c.Add(ValidateRequired("athlete_id", ""))
	c.Add(ValidateEnum("priority", "Z", []string{"A", "B", "C"}))
	c.Add(ValidateDate("date", "2025-06-02"))

	if !c.HasErrors() {
		t.Fatal("collector missed errors")
	}
	errs := c.Errors()
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2", len(errs))
	}
	if errs[0].Field != "athlete_id" || errs[1].Field != "priority" {
		t.Errorf("unexpected fields: %+v", errs)
	}
}
