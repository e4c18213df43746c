package tracker

import (
	"math"
	"time"
)

// Breakdown is the scored view of one supplier. Sub-scores are always reported;
// only those with evidence carry weight in Overall.
type Breakdown struct {
	Quality      float64 `json:"quality"`
	OnTime       float64 `json:"on_time"`
	SuccessRate  float64 `json:"success_rate"`
	Satisfaction float64 `json:"satisfaction"`
	Overall      int     `json:"overall"`
	Tier         Tier    `json:"tier"`
}

type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) Scorer {
	return Scorer{cfg: cfg}
}

// Score is pure: the same metrics, incidents and now always give the same result.
// Incidents outside the scoring window are ignored, including as complaints.
// Quality carries weight whenever anything else does, so a new incident can never
// raise Overall.
func (s Scorer) Score(m SupplierMetrics, incidents []Incident, now time.Time) Breakdown {
	quality, recent, complaints := s.quality(incidents, now)
	onTime := s.onTime(m.ShippingDurations)
	success := successRate(m)
	satisfaction := satisfaction(m.TotalOrders, complaints)

	w := s.cfg.Weights
	var total, weight float64
	if m.TotalOrders > 0 || len(m.ShippingDurations) > 0 || recent > 0 {
		total += quality * w.Quality
		weight += w.Quality
	}
	if len(m.ShippingDurations) > 0 {
		total += onTime * w.OnTime
		weight += w.OnTime
	}
	if m.TotalOrders > 0 {
		total += success * w.SuccessRate
		weight += w.SuccessRate
	}
	if m.TotalOrders > 0 || complaints > 0 {
		total += satisfaction * w.Satisfaction
		weight += w.Satisfaction
	}

	overall := 100
	if weight > 0 {
		overall = int(math.Round(clamp(total/weight, 0, 100)))
	}

	return Breakdown{
		Quality:      round2(quality),
		OnTime:       round2(onTime),
		SuccessRate:  round2(success),
		Satisfaction: round2(satisfaction),
		Overall:      overall,
		Tier:         s.TierFor(overall),
	}
}

func (s Scorer) TierFor(score int) Tier {
	switch {
	case score >= 80:
		return TierElite
	case score >= 50:
		return TierGood
	default:
		return TierPoor
	}
}

// quality applies severity penalties scaled by impact/5 and a linear recency decay
// that reaches zero at the scoring window edge. It also counts the in-window
// incidents and, among them, the complaints (quality and communication issues).
func (s Scorer) quality(incidents []Incident, now time.Time) (score float64, recent, complaints int) {
	window := s.cfg.ScoringWindow
	score = 100.0
	for _, inc := range incidents {
		decay := recencyWeight(now.Sub(inc.Timestamp), window)
		if decay == 0 {
			continue
		}
		recent++
		if inc.Type == IncidentQuality || inc.Type == IncidentCommunication {
			complaints++
		}
		score -= s.cfg.SeverityPenalties.of(inc.Severity) * (float64(inc.Impact) / 5.0) * decay
	}
	return clamp(score, 0, 100), recent, complaints
}

func (s Scorer) onTime(durations []float64) float64 {
	if len(durations) == 0 {
		return 100
	}
	onTime := 0
	for _, d := range durations {
		if d <= s.cfg.OnTimeTargetDays {
			onTime++
		}
	}
	return clamp(float64(onTime)/float64(len(durations))*100, 0, 100)
}

func successRate(m SupplierMetrics) float64 {
	if m.TotalOrders == 0 {
		return 100
	}
	return clamp(float64(m.SuccessfulOrders)/float64(m.TotalOrders)*100, 0, 100)
}

func satisfaction(orders, complaints int) float64 {
	if complaints == 0 {
		return 100
	}
	base := orders
	if complaints > base {
		base = complaints
	}
	return clamp(100*(1-float64(complaints)/float64(base)), 0, 100)
}

// recencyWeight is 1 for a brand-new incident and falls linearly to 0 at window.
// Incidents timestamped in the future count fully.
func recencyWeight(age, window time.Duration) float64 {
	if age < 0 {
		return 1
	}
	if age >= window {
		return 0
	}
	return 1 - float64(age)/float64(window)
}

func averageShipping(durations []float64) float64 {
	if len(durations) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range durations {
		sum += d
	}
	return round2(sum / float64(len(durations)))
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
