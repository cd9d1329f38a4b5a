// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// encMode encodes with Core Deterministic Encoding (RFC 8949 §4.2):
// sorted map keys and smallest integer widths, with no
// indefinite-length items. The same logical record always produces
// identical bytes, so stored blobs stay byte-comparable across
// processes and runs.
var encMode cbor.EncMode

// decMode accepts standard CBOR. Unknown fields are ignored, so
// metadata written by a newer depot still decodes under an older one.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: building CBOR encode mode: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("codec: building CBOR decode mode: " + err.Error())
	}
}

// Marshal encodes v deterministically; see encMode.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v, ignoring fields v lacks.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
