/*
 * codec.go, part of adsga.
 *
 * Copyright 2021 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package gadb

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
	chem "github.com/rmera/adsga"
	v3 "github.com/rmera/adsga/v3"
)

// structure as stored in the database, before compression.
type structPayload struct {
	Symbols []string  `json:"symbols"`
	Tags    []int     `json:"tags"`
	Coords  []float64 `json:"coords"`
	Cell    []float64 `json:"cell,omitempty"`
	PBC     [3]bool   `json:"pbc"`
}

// the encoder and decoder are safe for concurrent EncodeAll/DecodeAll calls.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	decoder, _ = zstd.NewReader(nil)
)

func flatten(M *v3.Matrix) []float64 {
	ret := make([]float64, 0, M.NVecs()*3)
	for i := 0; i < M.NVecs(); i++ {
		v := M.Vec(i)
		ret = append(ret, v[:]...)
	}
	return ret
}

// EncodeStructure serializes S to a zstd-compressed JSON blob.
func EncodeStructure(S *chem.Structure) ([]byte, error) {
	if err := S.Corrupted(); err != nil {
		return nil, err
	}
	p := structPayload{
		Symbols: S.Symbols(),
		Tags:    S.Tags(),
		Coords:  flatten(S.Coords),
		PBC:     S.PBC,
	}
	if S.Cell != nil {
		p.Cell = flatten(S.Cell)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// DecodeStructure is the inverse of EncodeStructure.
func DecodeStructure(blob []byte) (*chem.Structure, error) {
	raw, err := decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress structure: %w", err)
	}
	var p structPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode structure: %w", err)
	}
	if len(p.Tags) != len(p.Symbols) {
		return nil, fmt.Errorf("decode structure: %d tags for %d atoms", len(p.Tags), len(p.Symbols))
	}
	top, err := chem.NewTopology(p.Symbols)
	if err != nil {
		return nil, err
	}
	top.SetTags(p.Tags)
	coords, err := v3.NewMatrix(p.Coords)
	if err != nil {
		return nil, fmt.Errorf("decode structure coordinates: %w", err)
	}
	var cell *v3.Matrix
	if len(p.Cell) > 0 {
		cell, err = v3.NewMatrix(p.Cell)
		if err != nil {
			return nil, fmt.Errorf("decode structure cell: %w", err)
		}
	}
	S, err := chem.NewStructure(top, coords, cell)
	if err != nil {
		return nil, err
	}
	S.PBC = p.PBC
	return S, nil
}
