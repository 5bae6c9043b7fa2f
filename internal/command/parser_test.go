package command

import (
	"testing"

	"teleimage/internal/imagegen"
)

func testRegistry(t *testing.T) *imagegen.Registry {
	t.Helper()
	reg, err := imagegen.NewRegistry(map[string]string{
		"flux":    "provider-3/FLUX.1-dev",
		"imagen3": "provider-4/imagen-3",
	}, "flux")
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func TestParse(t *testing.T) {
	reg := testRegistry(t)
	cases := []struct {
		name     string
		in       string
		model    string
		prompt   string
		explicit bool
	}{
		{"colon form", "imagen3: a cat in a hat ", "provider-4/imagen-3", "a cat in a hat", true},
		{"colon form no space", "imagen3:a cat", "provider-4/imagen-3", "a cat", true},
		{"slash form", "/imagen3 a cat in a hat", "provider-4/imagen-3", "a cat in a hat", true},
		{"slash form with bot suffix", "/imagen3@TeleImageBot  sunset", "provider-4/imagen-3", "sunset", true},
		{"case insensitive", "IMAGEN3: dog", "provider-4/imagen-3", "dog", true},
		{"plain text", "A serene river at dawn", "provider-3/FLUX.1-dev", "A serene river at dawn", false},
		{"unknown colon alias", "note: keep it simple", "provider-3/FLUX.1-dev", "note: keep it simple", false},
		{"unknown slash alias", "/dalle a fox", "provider-3/FLUX.1-dev", "/dalle a fox", false},
		{"colon later in sentence", "a poster saying hello: world", "provider-3/FLUX.1-dev", "a poster saying hello: world", false},
		{"default alias explicit", "/flux neon city", "provider-3/FLUX.1-dev", "neon city", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.in, reg)
			if got.ModelID != tc.model || got.Prompt != tc.prompt || got.Explicit != tc.explicit {
				t.Fatalf("Parse(%q) = %+v", tc.in, got)
			}
		})
	}
}

func TestParse_EmptyPromptAfterAlias(t *testing.T) {
	reg := testRegistry(t)
	for _, in := range []string{"/imagen3   ", "/imagen3", "imagen3:", "imagen3:   \n"} {
		got := Parse(in, reg)
		if !got.Explicit || !got.Empty() {
			t.Fatalf("Parse(%q) should flag an empty prompt, got %+v", in, got)
		}
	}
}

func TestIsHelp(t *testing.T) {
	yes := []string{"/start", "/help", "/start@TeleImageBot", "/HELP me", "  /start"}
	no := []string{"start", "help me draw", "/imagen3 x", "/", "a /help"}
	for _, s := range yes {
		if !IsHelp(s) {
			t.Errorf("IsHelp(%q) = false", s)
		}
	}
	for _, s := range no {
		if IsHelp(s) {
			t.Errorf("IsHelp(%q) = true", s)
		}
	}
}
