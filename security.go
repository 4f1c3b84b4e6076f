// Package ginx - Security Levels
//
// This file defines named security parameter sets for blind rotation with
// uniform ternary secrets.
//
// # Classical vs Quantum Security
//
// - STD128: 128-bit classical security
// - STD128Q: 128-bit quantum security (post-quantum resistant)
// - STD192: 192-bit classical security
//
// Each set fixes the ring dimension, ciphertext modulus, gadget base and
// LWE dimension together; changing one of them in isolation changes the
// security level.
//
// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause
package ginx

// SecurityLevel represents the target security level
type SecurityLevel int

const (
	// Security128 provides 128-bit classical security
	Security128 SecurityLevel = 128
	// Security128Q provides 128-bit post-quantum security
	Security128Q SecurityLevel = 1128
	// Security192 provides 192-bit classical security
	Security192 SecurityLevel = 192
)

// SecurityParams defines a complete security parameter specification
type SecurityParams struct {
	// Name is the parameter set identifier
	Name string
	// Security is the target security level
	Security SecurityLevel
	// LogQ is the log2 of the ring modulus
	LogQ int
	// RingDim is the polynomial ring dimension (N)
	RingDim int
	// LWEDim is the LWE dimension (n)
	LWEDim int
	// LogBaseG is the log2 of the gadget decomposition base
	LogBaseG int
	// DigitsG is the number of gadget digits
	DigitsG int
	// FailureProb is the approximate log2 of failure probability
	FailureProb int
}

// Standard security parameter sets for ternary-secret blind rotation.
var (
	// STD128_GINX provides 128-bit classical security.
	// This is the recommended default for most applications.
	STD128_GINX = SecurityParams{
		Name:        "STD128_GINX",
		Security:    Security128,
		LogQ:        27,
		RingDim:     1024,
		LWEDim:      512,
		LogBaseG:    7,
		DigitsG:     4,
		FailureProb: -40,
	}

	// STD128Q_GINX provides 128-bit post-quantum security.
	// Use this for applications requiring quantum resistance.
	STD128Q_GINX = SecurityParams{
		Name:        "STD128Q_GINX",
		Security:    Security128Q,
		LogQ:        58,
		RingDim:     2048,
		LWEDim:      1024,
		LogBaseG:    9,
		DigitsG:     7,
		FailureProb: -50,
	}

	// STD192_GINX provides 192-bit classical security.
	STD192_GINX = SecurityParams{
		Name:        "STD192_GINX",
		Security:    Security192,
		LogQ:        58,
		RingDim:     2048,
		LWEDim:      1024,
		LogBaseG:    7,
		DigitsG:     9,
		FailureProb: -60,
	}
)

// AllSecurityParams returns all available security parameter sets
func AllSecurityParams() []SecurityParams {
	return []SecurityParams{
		STD128_GINX,
		STD128Q_GINX,
		STD192_GINX,
	}
}

// GetSecurityParams returns the SecurityParams for a given name
func GetSecurityParams(name string) (SecurityParams, bool) {
	for _, p := range AllSecurityParams() {
		if p.Name == name {
			return p, true
		}
	}
	return SecurityParams{}, false
}

// ToParametersLiteral converts SecurityParams to a ParametersLiteral. The
// ring modulus is the NTT-friendly prime matching LogQ and RingDim; only
// the moduli of the named sets are known.
func (sp SecurityParams) ToParametersLiteral() ParametersLiteral {
	logN := 0
	for n := sp.RingDim; n > 1; n >>= 1 {
		logN++
	}

	var q uint64
	switch sp.LogQ {
	case 27:
		q = 0x7fff801
	case 58:
		q = 0x3FFFFFFFFFF9001
	default:
		panic("ginx: no known NTT-friendly prime for this modulus size")
	}

	return ParametersLiteral{
		LogN:     logN,
		Q:        q,
		LogBaseG: sp.LogBaseG,
		DigitsG:  sp.DigitsG,
		NLWE:     sp.LWEDim,
		QLWE:     uint64(2 * sp.RingDim),
		Sigma:    3.19,
	}
}
