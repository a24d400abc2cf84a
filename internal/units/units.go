// Package units holds the physical constants shared across the engine.
// The unit system is nanometers, picoseconds, kilojoules per mole and
// atomic mass units, which makes kJ/mol per amu come out to nm^2/ps^2.
package units

const (
	// Avogadro is particles per mole.
	Avogadro = 6.0221367e23

	// Boltz is the Boltzmann constant in kJ/mol/K.
	Boltz = 1.380658e-23 * Avogadro / 1000.0

	// OneFourPiEps0 is the Coulomb prefactor in kJ/mol * nm / e^2.
	OneFourPiEps0 = 138.935456

	// BarToKJPerNM3 converts bar to kJ/nm^3 for pressure-volume work.
	BarToKJPerNM3 = 1e-25

	// MaxForceNorm is the per-atom force magnitude, in kJ/mol/nm, beyond
	// which a trajectory is considered to be blowing up.
	MaxForceNorm = 50000.0
)
