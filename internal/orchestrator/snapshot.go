package orchestrator

import "solana-revival-scanner/internal/domain"

func tokenPhase(tokens []domain.Token) []domain.PhaseToken {
	out := make([]domain.PhaseToken, len(tokens))
	for i, t := range tokens {
		out[i] = domain.PhaseToken{Address: t.Address, Symbol: t.Symbol, LiquidityUSD: t.LiquidityUSD}
	}
	return out
}

func agedPhase(tokens []domain.AgedToken) []domain.PhaseToken {
	out := make([]domain.PhaseToken, len(tokens))
	for i, t := range tokens {
		out[i] = domain.PhaseToken{Address: t.Address, Symbol: t.Symbol, LiquidityUSD: t.LiquidityUSD}
	}
	return out
}

func enrichedPhase(tokens []domain.EnrichedToken) []domain.PhaseToken {
	out := make([]domain.PhaseToken, len(tokens))
	for i, t := range tokens {
		out[i] = domain.PhaseToken{Address: t.Address, Symbol: t.Symbol, LiquidityUSD: t.LiquidityUSD, Score: t.SocialScore}
	}
	return out
}

// verdictPhase lists passed tokens in verdict order, with symbols from the enriched set.
func verdictPhase(verdicts []domain.SecurityVerdict, enriched []domain.EnrichedToken) []domain.PhaseToken {
	symbols := make(map[string]string, len(enriched))
	for _, t := range enriched {
		symbols[t.Address] = t.Symbol
	}
	out := make([]domain.PhaseToken, 0, len(verdicts))
	for _, v := range verdicts {
		if !v.Passed {
			continue
		}
		symbol := v.Symbol
		if symbol == "" {
			symbol = symbols[v.Address]
		}
		out = append(out, domain.PhaseToken{
			Address:      v.Address,
			Symbol:       symbol,
			LiquidityUSD: v.LiquidityUSD,
			Score:        float64(v.Scan.Score),
		})
	}
	return out
}

func resultPhase(results []*domain.RevivalResult) []domain.PhaseToken {
	out := make([]domain.PhaseToken, len(results))
	for i, r := range results {
		out[i] = domain.PhaseToken{Address: r.Address, Symbol: r.Symbol, LiquidityUSD: r.LiquidityUSD, Score: r.RevivalScore}
	}
	return out
}
