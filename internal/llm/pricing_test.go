package llm

import (
	"math"
	"testing"
)

func TestLookupCost_CoversResolvedDefaults(t *testing.T) {
	// Every ID a default configuration can resolve to must be priced.
	resolved := []string{
		DefaultConfig().OpenAI.Model,
		anthropicModels["claude-haiku"],
		anthropicModels["claude-sonnet"],
		geminiModels["gemini-flash"],
	}
	for _, id := range resolved {
		if LookupCost(id) == nil {
			t.Errorf("no pricing for %q", id)
		}
	}
}

func TestLookupCost_StripsOpenRouterPrefix(t *testing.T) {
	direct := LookupCost("gpt-4o-mini")
	prefixed := LookupCost("openai/gpt-4o-mini")
	if direct == nil || prefixed == nil {
		t.Fatal("expected pricing for both forms")
	}
	if *direct != *prefixed {
		t.Errorf("prefixed lookup = %+v, want %+v", *prefixed, *direct)
	}
}

func TestLookupCost_UnknownModel(t *testing.T) {
	if c := LookupCost("not-a-model"); c != nil {
		t.Errorf("expected nil, got %+v", c)
	}
	if c := LookupCost("vendor/not-a-model"); c != nil {
		t.Errorf("expected nil for prefixed unknown, got %+v", c)
	}
}

func TestCost_Arithmetic(t *testing.T) {
	c := ModelCost{InputPerMTok: 2, OutputPerMTok: 8}
	got := c.Cost(500_000, 250_000)
	if math.Abs(got-3.0) > 1e-9 {
		t.Errorf("cost = %f, want 3.0", got)
	}
}
