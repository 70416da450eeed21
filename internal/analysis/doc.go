// Package analysis characterizes finished and running simulations.
//
//   - [PowerSpectrum], [DominantFrequency]: spectrum of a per-tick series
//   - [SettleTick]: when the kinetic energy of a pile died down
//   - [DensityProfile]: particle density per horizontal slab
//   - [SeparationExponent]: growth rate of the distance between two runs
//     that start from nearly the same configuration
//
// # Sensitivity
//
// A dense pile is chaotic. A perturbation of gravity far below rounding
// noise of a single tick still separates two runs exponentially:
//
//	lambda, err := analysis.SeparationExponent(build, 600, 1.0/60, 1e-9)
//	if lambda > 0 {
//	    // runs diverge
//	}
package analysis
