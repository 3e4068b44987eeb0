package models

import (
	"encoding/json"

	"github.com/diegofalves/ominideck/pkg/utils"
)

// Flag is a boolean that also accepts the "Y"/"N", "true" and 0/1 spellings
// found in hand-edited documents. It always writes back as a JSON boolean.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Flag(utils.ConvertToBool(v))
	return nil
}

// Seq is an integer that also accepts numeric strings. Anything unparsable
// reads as zero and is repaired by normalization.
type Seq int

func (s *Seq) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n, err := utils.ConvertToInt(v)
	if err != nil {
		n = 0
	}
	*s = Seq(n)
	return nil
}
