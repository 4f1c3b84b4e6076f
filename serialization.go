// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package ginx

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/luxfi/lattice/v7/ring"
)

// ========== LWE Key Serialization ==========

// MarshalBinary serializes the LWE secret key to binary format
func (sk *LWEKey) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(sk.Q); err != nil {
		return nil, fmt.Errorf("serialize modulus: %w", err)
	}
	if err := enc.Encode(sk.Value); err != nil {
		return nil, fmt.Errorf("serialize coefficients: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary deserializes the LWE secret key from binary format
func (sk *LWEKey) UnmarshalBinary(data []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&sk.Q); err != nil {
		return fmt.Errorf("deserialize modulus: %w", err)
	}
	if err := dec.Decode(&sk.Value); err != nil {
		return fmt.Errorf("deserialize coefficients: %w", err)
	}
	return nil
}

// ========== LWE Ciphertext Serialization ==========

// MarshalBinary serializes an LWE ciphertext to binary format
func (ct *LWECiphertext) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(ct.B); err != nil {
		return nil, fmt.Errorf("serialize body: %w", err)
	}
	if err := enc.Encode(ct.A); err != nil {
		return nil, fmt.Errorf("serialize mask: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary deserializes an LWE ciphertext from binary format
func (ct *LWECiphertext) UnmarshalBinary(data []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&ct.B); err != nil {
		return fmt.Errorf("deserialize body: %w", err)
	}
	if err := dec.Decode(&ct.A); err != nil {
		return fmt.Errorf("deserialize mask: %w", err)
	}
	return nil
}

// ========== Evaluation Key Serialization ==========

// MarshalBinary serializes a single RGSW evaluation key to binary format
func (ek *EvalKey) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(ek.Value))); err != nil {
		return nil, err
	}
	for i := range ek.Value {
		for c := 0; c < 2; c++ {
			if err := serializePoly(&buf, ek.Value[i][c]); err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", i, c, err)
			}
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary deserializes an RGSW evaluation key from binary format
func (ek *EvalKey) UnmarshalBinary(data []byte) error {
	buf := bytes.NewReader(data)

	var rows uint32
	if err := binary.Read(buf, binary.LittleEndian, &rows); err != nil {
		return err
	}

	ek.Value = make([][2]ring.Poly, rows)
	for i := range ek.Value {
		for c := 0; c < 2; c++ {
			pol, err := deserializePoly(buf)
			if err != nil {
				return fmt.Errorf("row %d col %d: %w", i, c, err)
			}
			ek.Value[i][c] = pol
		}
	}
	return nil
}

// ========== Bootstrapping Key Serialization ==========

// MarshalBinary serializes the full bootstrapping key to binary format
func (ak *AccKey) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(ak.Keys))); err != nil {
		return nil, err
	}

	for i := range ak.Keys {
		for j := 0; j < 2; j++ {
			data, err := ak.Keys[i][j].MarshalBinary()
			if err != nil {
				return nil, fmt.Errorf("slot %d key %d: %w", i, j, err)
			}
			if err := binary.Write(&buf, binary.LittleEndian, uint32(len(data))); err != nil {
				return nil, err
			}
			if _, err := buf.Write(data); err != nil {
				return nil, err
			}
		}
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary deserializes the full bootstrapping key from binary format
func (ak *AccKey) UnmarshalBinary(data []byte) error {
	buf := bytes.NewReader(data)

	var slots uint32
	if err := binary.Read(buf, binary.LittleEndian, &slots); err != nil {
		return err
	}

	ak.Keys = make([][2]*EvalKey, slots)
	for i := range ak.Keys {
		for j := 0; j < 2; j++ {
			var n uint32
			if err := binary.Read(buf, binary.LittleEndian, &n); err != nil {
				return err
			}
			ekData := make([]byte, n)
			if _, err := io.ReadFull(buf, ekData); err != nil {
				return err
			}
			ak.Keys[i][j] = new(EvalKey)
			if err := ak.Keys[i][j].UnmarshalBinary(ekData); err != nil {
				return fmt.Errorf("slot %d key %d: %w", i, j, err)
			}
		}
	}
	return nil
}

// ========== Accumulator Serialization ==========

// MarshalBinary serializes an accumulator ciphertext to binary format
func (ct *Ciphertext) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer

	var ntt uint8
	if ct.IsNTT {
		ntt = 1
	}
	if err := binary.Write(&buf, binary.LittleEndian, ntt); err != nil {
		return nil, err
	}

	if err := serializePoly(&buf, ct.Value[0]); err != nil {
		return nil, fmt.Errorf("serialize mask: %w", err)
	}
	if err := serializePoly(&buf, ct.Value[1]); err != nil {
		return nil, fmt.Errorf("serialize body: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary deserializes an accumulator ciphertext from binary format
func (ct *Ciphertext) UnmarshalBinary(data []byte) error {
	buf := bytes.NewReader(data)

	var ntt uint8
	if err := binary.Read(buf, binary.LittleEndian, &ntt); err != nil {
		return err
	}
	ct.IsNTT = ntt == 1

	var err error
	if ct.Value[0], err = deserializePoly(buf); err != nil {
		return fmt.Errorf("deserialize mask: %w", err)
	}
	if ct.Value[1], err = deserializePoly(buf); err != nil {
		return fmt.Errorf("deserialize body: %w", err)
	}
	return nil
}

// ========== Polynomial Codec ==========

func serializePoly(w io.Writer, poly ring.Poly) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(poly.Coeffs))); err != nil {
		return err
	}

	for _, coeffs := range poly.Coeffs {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(coeffs))); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, coeffs); err != nil {
			return err
		}
	}

	return nil
}

func deserializePoly(r io.Reader) (ring.Poly, error) {
	var numLevels uint32
	if err := binary.Read(r, binary.LittleEndian, &numLevels); err != nil {
		return ring.Poly{}, err
	}

	coeffs := make([][]uint64, numLevels)
	for i := range coeffs {
		var numCoeffs uint32
		if err := binary.Read(r, binary.LittleEndian, &numCoeffs); err != nil {
			return ring.Poly{}, err
		}

		coeffs[i] = make([]uint64, numCoeffs)
		if err := binary.Read(r, binary.LittleEndian, coeffs[i]); err != nil {
			return ring.Poly{}, err
		}
	}

	return ring.Poly{Coeffs: coeffs}, nil
}
