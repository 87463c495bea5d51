// Package id provides nanoid-based ID generation for voice core records.
package id

import (
	nanoid "github.com/matoous/go-nanoid/v2"
)

const DefaultLength = 21

const PrefixCall = "call"

func New(prefix string) string {
	id, err := nanoid.New(DefaultLength)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return prefix + "_" + id
}

// NewCall generates a call ID for a newly accepted carrier connection
// (spec §3 Call.ID).
func NewCall() string { return New(PrefixCall) }
