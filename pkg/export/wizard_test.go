package export

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWizardConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     WizardConfig
		wantErr bool
	}{
		{"svg", WizardConfig{Format: FormatSVG, OutputPath: "a.svg"}, false},
		{"sqlite", WizardConfig{Format: FormatSQLite, OutputPath: "a.sqlite3"}, false},
		{"unknown format", WizardConfig{Format: "pdf", OutputPath: "a.pdf"}, true},
		{"blank path", WizardConfig{Format: FormatHTML, OutputPath: "  "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultOutputPath(t *testing.T) {
	for format, want := range map[string]string{
		FormatSVG:    "techtree.svg",
		FormatPNG:    "techtree.png",
		FormatHTML:   "techtree.html",
		FormatSQLite: "techtree.sqlite3",
		"":           "techtree.svg",
	} {
		if got := DefaultOutputPath(format); got != want {
			t.Errorf("DefaultOutputPath(%q) = %q, want %q", format, got, want)
		}
	}
}

func TestWizardConfigSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "wizard.json")

	missing, err := LoadWizardConfigFrom(path)
	if err != nil || missing != nil {
		t.Fatalf("missing file = %v, %v", missing, err)
	}

	in := &WizardConfig{Format: FormatSQLite, OutputPath: "/tmp/tree.sqlite3", WithDetails: true}
	if err := SaveWizardConfigTo(in, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := LoadWizardConfigFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *out != *in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadWizardConfigFrom(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestNewWizardDefaults(t *testing.T) {
	w := NewWizard()
	if w.config.Validate() != nil {
		t.Errorf("default wizard config invalid: %+v", w.config)
	}
}
