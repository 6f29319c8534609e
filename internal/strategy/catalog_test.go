package strategy

import (
	"math"
	"testing"

	"quant-backtester/internal/errors"
	"quant-backtester/internal/models"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestCatalogComplete(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 14 {
		t.Fatalf("expected 14 strategies, got %d", len(kinds))
	}
	for _, k := range kinds {
		s, err := Get(k)
		if err != nil {
			t.Fatalf("Get(%q): %v", k, err)
		}
		if s.Kind() != k {
			t.Errorf("Get(%q) returned kind %q", k, s.Kind())
		}
		if len(s.Definition().Legs) == 0 {
			t.Errorf("%q has no option legs", k)
		}
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := Get("calendar_spread")
	if !errors.Is(err, errors.ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestLongCallPayoff(t *testing.T) {
	s, _ := Get(LongCall)
	strikes := []float64{100}
	premiums := []float64{5}

	tests := []struct {
		spot float64
		want float64
	}{
		{120, 15},
		{90, -5},
		{105, 0},
		{100, -5},
	}
	for _, tt := range tests {
		got := s.Payoff(tt.spot, strikes, premiums, NoEntryPrice)
		if !almostEqual(got, tt.want) {
			t.Errorf("payoff at spot %.0f = %v, want %v", tt.spot, got, tt.want)
		}
	}

	if !IsUnbounded(s.MaxProfit(strikes, premiums, NoEntryPrice)) {
		t.Error("long call max profit should be unbounded")
	}
	if got := s.MaxLoss(strikes, premiums, NoEntryPrice); !almostEqual(got, 5) {
		t.Errorf("max loss = %v, want 5", got)
	}
	be := s.Breakevens(strikes, premiums, NoEntryPrice)
	if len(be) != 1 || !almostEqual(be[0], 105) {
		t.Errorf("breakevens = %v, want [105]", be)
	}
}

func TestShortPutBounds(t *testing.T) {
	s, _ := Get(ShortPut)
	strikes := []float64{50}
	premiums := []float64{3}

	if got := s.MaxProfit(strikes, premiums, NoEntryPrice); !almostEqual(got, 3) {
		t.Errorf("max profit = %v, want 3", got)
	}
	if got := s.MaxLoss(strikes, premiums, NoEntryPrice); !almostEqual(got, 47) {
		t.Errorf("max loss = %v, want 47", got)
	}
	if got := s.Payoff(0, strikes, premiums, NoEntryPrice); !almostEqual(got, -47) {
		t.Errorf("payoff at zero = %v, want -47", got)
	}
}

func TestBullCallSpread(t *testing.T) {
	s, _ := Get(BullCallSpread)
	strikes := []float64{100, 105}
	premiums := []float64{4, 2}

	// Net debit 2, width 5.
	if got := s.MaxProfit(strikes, premiums, NoEntryPrice); !almostEqual(got, 3) {
		t.Errorf("max profit = %v, want 3", got)
	}
	if got := s.MaxLoss(strikes, premiums, NoEntryPrice); !almostEqual(got, 2) {
		t.Errorf("max loss = %v, want 2", got)
	}
	if got := s.Payoff(110, strikes, premiums, NoEntryPrice); !almostEqual(got, 3) {
		t.Errorf("payoff above both strikes = %v, want 3", got)
	}
	if got := s.Payoff(95, strikes, premiums, NoEntryPrice); !almostEqual(got, -2) {
		t.Errorf("payoff below both strikes = %v, want -2", got)
	}
	be := s.Breakevens(strikes, premiums, NoEntryPrice)
	if len(be) != 1 || !almostEqual(be[0], 102) {
		t.Errorf("breakevens = %v, want [102]", be)
	}
	if !s.IsDebit(premiums) {
		t.Error("bull call spread should be a net debit")
	}
}

func TestBearPutSpread(t *testing.T) {
	s, _ := Get(BearPutSpread)
	// Long put at 100, short put at 95.
	strikes := []float64{100, 95}
	premiums := []float64{4, 2}

	if got := s.MaxProfit(strikes, premiums, NoEntryPrice); !almostEqual(got, 3) {
		t.Errorf("max profit = %v, want 3", got)
	}
	if got := s.Payoff(90, strikes, premiums, NoEntryPrice); !almostEqual(got, 3) {
		t.Errorf("payoff below both strikes = %v, want 3", got)
	}
	if got := s.Payoff(105, strikes, premiums, NoEntryPrice); !almostEqual(got, -2) {
		t.Errorf("payoff above both strikes = %v, want -2", got)
	}
	be := s.Breakevens(strikes, premiums, NoEntryPrice)
	if len(be) != 1 || !almostEqual(be[0], 98) {
		t.Errorf("breakevens = %v, want [98]", be)
	}
}

func TestStraddle(t *testing.T) {
	s, _ := Get(Straddle)
	strikes := []float64{100, 100}
	premiums := []float64{4, 3}

	if got := s.Payoff(100, strikes, premiums, NoEntryPrice); !almostEqual(got, -7) {
		t.Errorf("payoff at strike = %v, want -7", got)
	}
	if got := s.Payoff(115, strikes, premiums, NoEntryPrice); !almostEqual(got, 8) {
		t.Errorf("payoff at 115 = %v, want 8", got)
	}
	be := s.Breakevens(strikes, premiums, NoEntryPrice)
	if len(be) != 2 || !almostEqual(be[0], 93) || !almostEqual(be[1], 107) {
		t.Errorf("breakevens = %v, want [93 107]", be)
	}
}

func TestIronCondor(t *testing.T) {
	s, _ := Get(IronCondor)
	// K1<K2<K3<K4 with equal 5-wide wings.
	strikes := []float64{90, 95, 105, 110}
	premiums := []float64{1, 2, 2, 1}

	// Net credit 2.
	credit := s.NetPremium(premiums)
	if !almostEqual(credit, 2) {
		t.Fatalf("net credit = %v, want 2", credit)
	}
	if got := s.MaxProfit(strikes, premiums, NoEntryPrice); !almostEqual(got, 2) {
		t.Errorf("max profit = %v, want 2", got)
	}
	if got := s.MaxLoss(strikes, premiums, NoEntryPrice); !almostEqual(got, 3) {
		t.Errorf("max loss = %v, want 3", got)
	}
	// Between the short strikes the full credit is kept.
	if got := s.Payoff(100, strikes, premiums, NoEntryPrice); !almostEqual(got, 2) {
		t.Errorf("payoff at 100 = %v, want 2", got)
	}
	// Beyond either wing the loss is capped.
	if got := s.Payoff(80, strikes, premiums, NoEntryPrice); !almostEqual(got, -3) {
		t.Errorf("payoff at 80 = %v, want -3", got)
	}
	if got := s.Payoff(120, strikes, premiums, NoEntryPrice); !almostEqual(got, -3) {
		t.Errorf("payoff at 120 = %v, want -3", got)
	}
	be := s.Breakevens(strikes, premiums, NoEntryPrice)
	if len(be) != 2 || !almostEqual(be[0], 93) || !almostEqual(be[1], 107) {
		t.Errorf("breakevens = %v, want [93 107]", be)
	}
	rr, ok := s.RiskReward(strikes, premiums, NoEntryPrice)
	if !ok || !almostEqual(rr, 1.5) {
		t.Errorf("risk/reward = %v ok=%v, want 1.5 true", rr, ok)
	}
}

func TestButterflySpread(t *testing.T) {
	s, _ := Get(ButterflySpread)
	strikes := []float64{95, 100, 105}
	premiums := []float64{7, 4, 2}

	// Net debit 1.
	if got := s.MaxLoss(strikes, premiums, NoEntryPrice); !almostEqual(got, 1) {
		t.Errorf("max loss = %v, want 1", got)
	}
	if got := s.MaxProfit(strikes, premiums, NoEntryPrice); !almostEqual(got, 4) {
		t.Errorf("max profit = %v, want 4", got)
	}
	if got := s.Payoff(100, strikes, premiums, NoEntryPrice); !almostEqual(got, 4) {
		t.Errorf("payoff at middle = %v, want 4", got)
	}
	if got := s.Payoff(90, strikes, premiums, NoEntryPrice); !almostEqual(got, -1) {
		t.Errorf("payoff below wings = %v, want -1", got)
	}
	if got := s.Payoff(110, strikes, premiums, NoEntryPrice); !almostEqual(got, -1) {
		t.Errorf("payoff above wings = %v, want -1", got)
	}
	// The doubled middle leg dominates the entry cash flow.
	if got := s.NetPremium(premiums); !almostEqual(got, -1) {
		t.Errorf("net premium = %v, want -1", got)
	}
}

func TestCoveredCallWithEntry(t *testing.T) {
	s, _ := Get(CoveredCall)
	strikes := []float64{105}
	premiums := []float64{2}
	entry := 100.0

	if got := s.MaxProfit(strikes, premiums, entry); !almostEqual(got, 7) {
		t.Errorf("max profit = %v, want 7", got)
	}
	if got := s.MaxLoss(strikes, premiums, entry); !almostEqual(got, 98) {
		t.Errorf("max loss = %v, want 98", got)
	}
	if got := s.Payoff(110, strikes, premiums, entry); !almostEqual(got, 7) {
		t.Errorf("payoff above strike = %v, want 7", got)
	}
	if got := s.Payoff(95, strikes, premiums, entry); !almostEqual(got, -3) {
		t.Errorf("payoff at 95 = %v, want -3", got)
	}
	be := s.Breakevens(strikes, premiums, entry)
	if len(be) != 1 || !almostEqual(be[0], 98) {
		t.Errorf("breakevens = %v, want [98]", be)
	}
}

func TestCoveredCallWithoutEntry(t *testing.T) {
	s, _ := Get(CoveredCall)
	strikes := []float64{105}
	premiums := []float64{2}

	// Entry approximated 5% below the strike.
	wantEntry := 105.0 * 0.95
	if got := s.MaxProfit(strikes, premiums, NoEntryPrice); !almostEqual(got, 105-wantEntry+2) {
		t.Errorf("max profit = %v, want %v", got, 105-wantEntry+2)
	}
	be := s.Breakevens(strikes, premiums, NoEntryPrice)
	if len(be) != 1 || !almostEqual(be[0], wantEntry-2) {
		t.Errorf("breakevens = %v, want [%v]", be, wantEntry-2)
	}
}

func TestProtectivePut(t *testing.T) {
	s, _ := Get(ProtectivePut)
	strikes := []float64{95}
	premiums := []float64{2}
	entry := 100.0

	if !IsUnbounded(s.MaxProfit(strikes, premiums, entry)) {
		t.Error("protective put max profit should be unbounded")
	}
	if got := s.MaxLoss(strikes, premiums, entry); !almostEqual(got, 7) {
		t.Errorf("max loss = %v, want 7", got)
	}
	// Downside is floored at the put strike.
	if got := s.Payoff(70, strikes, premiums, entry); !almostEqual(got, -7) {
		t.Errorf("payoff at 70 = %v, want -7", got)
	}
	if got := s.Payoff(110, strikes, premiums, entry); !almostEqual(got, 8) {
		t.Errorf("payoff at 110 = %v, want 8", got)
	}
}

func TestCollar(t *testing.T) {
	s, _ := Get(Collar)
	// Put strike 95, call strike 105.
	strikes := []float64{95, 105}
	premiums := []float64{2, 1.5}
	entry := 100.0

	netCost := 0.5
	if got := s.MaxProfit(strikes, premiums, entry); !almostEqual(got, 105-entry-netCost) {
		t.Errorf("max profit = %v, want %v", got, 105-entry-netCost)
	}
	if got := s.MaxLoss(strikes, premiums, entry); !almostEqual(got, entry-95+netCost) {
		t.Errorf("max loss = %v, want %v", got, entry-95+netCost)
	}
	// Payoff is flat beyond both strikes.
	if got := s.Payoff(120, strikes, premiums, entry); !almostEqual(got, 4.5) {
		t.Errorf("payoff at 120 = %v, want 4.5", got)
	}
	if got := s.Payoff(80, strikes, premiums, entry); !almostEqual(got, -5.5) {
		t.Errorf("payoff at 80 = %v, want -5.5", got)
	}
}

func TestNetPremiumSign(t *testing.T) {
	long, _ := Get(Straddle)
	if long.NetPremium([]float64{4, 3}) >= 0 {
		t.Error("long straddle should be a net debit")
	}
	short, _ := Get(ShortCall)
	if short.NetPremium([]float64{4}) <= 0 {
		t.Error("short call should be a net credit")
	}
}

func TestRiskRewardUndefined(t *testing.T) {
	s, _ := Get(LongCall)
	if _, ok := s.RiskReward([]float64{100}, []float64{5}, NoEntryPrice); ok {
		t.Error("unbounded profit should have undefined risk/reward")
	}
}

func TestResolvedLegExtraction(t *testing.T) {
	legs := []models.ResolvedLeg{
		{Strike: 95, Premium: 1.2},
		{Strike: 105, Premium: 0.8},
	}
	strikes := Strikes(legs)
	premiums := Premiums(legs)
	if strikes[0] != 95 || strikes[1] != 105 {
		t.Errorf("strikes = %v", strikes)
	}
	if premiums[0] != 1.2 || premiums[1] != 0.8 {
		t.Errorf("premiums = %v", premiums)
	}
}
