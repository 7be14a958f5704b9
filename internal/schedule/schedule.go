// Package schedule computes the learning rate a training framework
// would use at a given epoch, from the lr_scheduler section of a run
// configuration. The calculators are pure: no optimizer state, just
// epoch index in, learning rate out.
package schedule

import (
	"fmt"
	"math"

	"inkwell/internal/config"
)

// Schedule yields the learning rate for a 0-based epoch index.
type Schedule interface {
	// LR returns the learning rate in effect during epoch.
	LR(epoch int) float64
}

// StepLR multiplies the base learning rate by Gamma every StepSize
// epochs:
//
//	lr(e) = base * gamma^floor(e/step_size)
type StepLR struct {
	Base     float64
	StepSize int
	Gamma    float64
}

func (s StepLR) LR(epoch int) float64 {
	return s.Base * math.Pow(s.Gamma, float64(epoch/s.StepSize))
}

// ExponentialLR decays every epoch:
//
//	lr(e) = base * gamma^e
type ExponentialLR struct {
	Base  float64
	Gamma float64
}

func (s ExponentialLR) LR(epoch int) float64 {
	return s.Base * math.Pow(s.Gamma, float64(epoch))
}

// CosineAnnealingLR follows a half cosine from the base rate down to a
// floor over StepSize epochs, then holds the floor. The floor reuses
// the gamma knob: floor = base * gamma.
type CosineAnnealingLR struct {
	Base     float64
	StepSize int
	Gamma    float64
}

func (s CosineAnnealingLR) LR(epoch int) float64 {
	floor := s.Base * s.Gamma
	if epoch >= s.StepSize {
		return floor
	}
	progress := float64(epoch) / float64(s.StepSize)
	return floor + (s.Base-floor)*0.5*(1+math.Cos(math.Pi*progress))
}

// FromConfig builds the schedule a configuration describes. The base
// rate comes from the optimizer section, the policy from lr_scheduler.
func FromConfig(cfg *config.Config) (Schedule, error) {
	base := cfg.Optimizer.Args.LR
	args := cfg.LRScheduler.Args

	switch cfg.LRScheduler.Type {
	case "StepLR":
		if args.StepSize <= 0 {
			return nil, fmt.Errorf("StepLR requires a positive step_size, got %d", args.StepSize)
		}
		return StepLR{Base: base, StepSize: args.StepSize, Gamma: args.Gamma}, nil
	case "ExponentialLR":
		return ExponentialLR{Base: base, Gamma: args.Gamma}, nil
	case "CosineAnnealingLR":
		if args.StepSize <= 0 {
			return nil, fmt.Errorf("CosineAnnealingLR requires a positive step_size, got %d", args.StepSize)
		}
		return CosineAnnealingLR{Base: base, StepSize: args.StepSize, Gamma: args.Gamma}, nil
	default:
		return nil, fmt.Errorf("unknown lr_scheduler type: %q", cfg.LRScheduler.Type)
	}
}

// Table returns the learning rate for epochs 0..n-1.
func Table(s Schedule, n int) []float64 {
	out := make([]float64, n)
	for e := range out {
		out[e] = s.LR(e)
	}
	return out
}
