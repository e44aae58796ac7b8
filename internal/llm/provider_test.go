package llm

import "testing"

func TestNewClientSelectsProvider(t *testing.T) {
	cases := []struct {
		provider string
		apiKey   string
		wantErr  bool
	}{
		{ProviderOpenAI, "k", false},
		{ProviderAnthropic, "k", false},
		{ProviderGemini, "k", false},
		{ProviderCerebras, "k", false},
		{ProviderMock, "", false},
		{ProviderOpenAI, "", true},
		{ProviderAnthropic, "", true},
		{ProviderGemini, "", true},
		{ProviderCerebras, "", true},
		{"llamafile", "k", true},
	}
	for _, tc := range cases {
		client, err := NewClient(tc.provider, tc.apiKey)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NewClient(%q, %q): expected error", tc.provider, tc.apiKey)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewClient(%q, %q): unexpected error: %v", tc.provider, tc.apiKey, err)
			continue
		}
		if client == nil {
			t.Errorf("NewClient(%q, %q): nil client", tc.provider, tc.apiKey)
		}
	}
}

func TestNewClientCerebrasType(t *testing.T) {
	client, err := NewClient(ProviderCerebras, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := client.(*CerebrasClient); !ok {
		t.Fatalf("expected *CerebrasClient, got %T", client)
	}
}
