package raster

import "testing"

func TestPeriodString(t *testing.T) {
	tests := []struct {
		name   string
		period Period
		want   string
	}{
		{"single month", Period{Scale01, 2024, 6}, "SPEI_01_2024_06"},
		{"seasonal", Period{Scale03, 1997, 11}, "SPEI_03_1997_11"},
		{"annual december", Period{Scale12, 2025, 12}, "SPEI_12_2025_12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.period.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if got := tt.period.FileName(); got != tt.want+".nc" {
				t.Errorf("FileName() = %q, want %q", got, tt.want+".nc")
			}
		})
	}
}

func TestPeriodValidate(t *testing.T) {
	tests := []struct {
		name    string
		period  Period
		wantErr bool
	}{
		{"valid monthly", Period{Scale01, 2024, 6}, false},
		{"valid earliest year", Period{Scale12, 1950, 1}, false},
		{"unsupported scale", Period{Scale("06"), 2024, 6}, true},
		{"empty scale", Period{Scale(""), 2024, 6}, true},
		{"year too early", Period{Scale01, 1949, 6}, true},
		{"year too late", Period{Scale01, 2036, 6}, true},
		{"month zero", Period{Scale01, 2024, 0}, true},
		{"month thirteen", Period{Scale01, 2024, 13}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.period.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("SPEI_03_2024_06")
	if err != nil {
		t.Fatalf("ParsePeriod: %v", err)
	}
	want := Period{Scale03, 2024, 6}
	if p != want {
		t.Errorf("ParsePeriod = %+v, want %+v", p, want)
	}

	for _, key := range []string{
		"",
		"SPEI_03_2024",
		"SPI_03_2024_06",
		"SPEI_07_2024_06",
		"SPEI_03_banana_06",
		"SPEI_03_2024_banana",
		"SPEI_03_2024_00",
	} {
		if _, err := ParsePeriod(key); err == nil {
			t.Errorf("ParsePeriod(%q) succeeded, want error", key)
		}
	}
}

func TestScaleMonths(t *testing.T) {
	if got := Scale03.Months(); got != 3 {
		t.Errorf("Scale03.Months() = %d, want 3", got)
	}
	if got := Scale12.Months(); got != 12 {
		t.Errorf("Scale12.Months() = %d, want 12", got)
	}
}
