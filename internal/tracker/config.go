package tracker

import (
	"fmt"
	"time"
)

type Weights struct {
	Quality      float64 `mapstructure:"quality" json:"quality"`
	OnTime       float64 `mapstructure:"on_time" json:"on_time"`
	SuccessRate  float64 `mapstructure:"success_rate" json:"success_rate"`
	Satisfaction float64 `mapstructure:"satisfaction" json:"satisfaction"`
}

func (w Weights) sum() float64 {
	return w.Quality + w.OnTime + w.SuccessRate + w.Satisfaction
}

type Penalties struct {
	Low      float64 `mapstructure:"low" json:"low"`
	Medium   float64 `mapstructure:"medium" json:"medium"`
	High     float64 `mapstructure:"high" json:"high"`
	Critical float64 `mapstructure:"critical" json:"critical"`
}

func (p Penalties) of(s Severity) float64 {
	switch s {
	case SeverityLow:
		return p.Low
	case SeverityMedium:
		return p.Medium
	case SeverityHigh:
		return p.High
	case SeverityCritical:
		return p.Critical
	}
	return 0
}

type Config struct {
	Weights            Weights       `mapstructure:"weights" json:"weights"`
	SeverityPenalties  Penalties     `mapstructure:"severity_penalties" json:"severity_penalties"`
	CriticalScore      int           `mapstructure:"critical_score" json:"critical_score"`
	WatchScore         int           `mapstructure:"watch_score" json:"watch_score"`
	ImpactThreshold    int           `mapstructure:"impact_threshold" json:"impact_threshold"`
	PermanentAfter     int           `mapstructure:"permanent_after" json:"permanent_after"`
	SuspensionDuration time.Duration `mapstructure:"suspension_duration" json:"suspension_duration"`
	ShippingWindow     int           `mapstructure:"shipping_window" json:"shipping_window"`
	OnTimeTargetDays   float64       `mapstructure:"on_time_target_days" json:"on_time_target_days"`
	ScoringWindow      time.Duration `mapstructure:"scoring_window" json:"scoring_window"`
	IncidentRetention  time.Duration `mapstructure:"incident_retention" json:"incident_retention"`
}

func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Quality:      0.35,
			OnTime:       0.25,
			SuccessRate:  0.25,
			Satisfaction: 0.15,
		},
		SeverityPenalties: Penalties{
			Low:      2,
			Medium:   5,
			High:     10,
			Critical: 20,
		},
		CriticalScore:      30,
		WatchScore:         50,
		ImpactThreshold:    8,
		PermanentAfter:     3,
		SuspensionDuration: 30 * 24 * time.Hour,
		ShippingWindow:     100,
		OnTimeTargetDays:   7,
		ScoringWindow:      90 * 24 * time.Hour,
		IncidentRetention:  365 * 24 * time.Hour,
	}
}

func (c Config) Validate() error {
	w := c.Weights
	if w.Quality < 0 || w.OnTime < 0 || w.SuccessRate < 0 || w.Satisfaction < 0 {
		return fmt.Errorf("weights must not be negative")
	}
	if w.sum() <= 0 {
		return fmt.Errorf("weights must sum to a positive value")
	}
	p := c.SeverityPenalties
	if p.Low < 0 || p.Medium < 0 || p.High < 0 || p.Critical < 0 {
		return fmt.Errorf("severity penalties must not be negative")
	}
	if c.CriticalScore < 0 || c.CriticalScore > 100 {
		return fmt.Errorf("critical score %d outside [0,100]", c.CriticalScore)
	}
	if c.WatchScore < c.CriticalScore || c.WatchScore > 100 {
		return fmt.Errorf("watch score %d outside [critical score,100]", c.WatchScore)
	}
	if c.ImpactThreshold < 1 || c.ImpactThreshold > 10 {
		return fmt.Errorf("impact threshold %d outside [1,10]", c.ImpactThreshold)
	}
	if c.PermanentAfter < 1 {
		return fmt.Errorf("permanent_after must be at least 1")
	}
	if c.SuspensionDuration <= 0 {
		return fmt.Errorf("suspension duration must be positive")
	}
	if c.ShippingWindow < 1 {
		return fmt.Errorf("shipping window must hold at least one sample")
	}
	if c.OnTimeTargetDays <= 0 {
		return fmt.Errorf("on-time target must be positive")
	}
	if c.ScoringWindow <= 0 {
		return fmt.Errorf("scoring window must be positive")
	}
	if c.IncidentRetention < c.ScoringWindow {
		return fmt.Errorf("incident retention %s shorter than scoring window %s", c.IncidentRetention, c.ScoringWindow)
	}
	return nil
}
