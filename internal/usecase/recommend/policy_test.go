package recommend

import "testing"

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Policy)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Policy) {}},
		{name: "zero min candidates", mutate: func(p *Policy) { p.MinCandidates = 0 }, wantErr: true},
		{name: "sufficient below min", mutate: func(p *Policy) { p.SufficientCandidates = 0 }, wantErr: true},
		{name: "zero max results", mutate: func(p *Policy) { p.MaxResults = 0 }, wantErr: true},
		{name: "fetch limit below max results", mutate: func(p *Policy) { p.FetchLimit = 2 }, wantErr: true},
		{name: "negative widen steps", mutate: func(p *Policy) { p.WidenSteps = -1 }, wantErr: true},
		{name: "zero widen bands", mutate: func(p *Policy) { p.WidenBands = 0 }, wantErr: true},
		{name: "widening disabled", mutate: func(p *Policy) { p.WidenSteps = 0 }},
		{name: "level outweighs band", mutate: func(p *Policy) { p.Weights.ReadingLevel = 2.5 }, wantErr: true},
		{name: "equal category and band", mutate: func(p *Policy) { p.Weights.Category = 2 }, wantErr: true},
		{name: "negative hint", mutate: func(p *Policy) { p.Weights.Hint = -1 }, wantErr: true},
		{name: "zero hint", mutate: func(p *Policy) { p.Weights.Hint = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWeightsMax(t *testing.T) {
	if got := DefaultPolicy().Weights.Max(); got != 6.5 {
		t.Errorf("Max() = %v, want 6.5", got)
	}
}
