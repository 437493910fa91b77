package nafee3

import (
	"encoding/json"

	"github.com/google/uuid"
)

// profileNamespace seeds deterministic ids for deduplicated bulk loads.
var profileNamespace = uuid.MustParse("6f1c2a3e-8b4d-4c5e-9a7f-2d3b4c5d6e7f")

// IdentifierPolicy issues profile ids. Ids are never derived from mutable
// profile attributes.
type IdentifierPolicy interface {
	NewID() string
	Valid(id string) bool
}

func RandomIdentifierPolicy() IdentifierPolicy {
	return randomIdentifierPolicy{}
}

type randomIdentifierPolicy struct{}

func (randomIdentifierPolicy) NewID() string {
	return uuid.NewString()
}

func (randomIdentifierPolicy) Valid(id string) bool {
	return ValidID(id)
}

// ValidID reports whether id could have been issued as a profile id. Both
// random and deterministic ids are UUIDs, which every vector backend accepts
// as a native point id.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// DeterministicID derives a UUID v5 from the JSON form of a source record.
func DeterministicID(record any) (string, error) {
	bs, err := json.Marshal(record)
	if err != nil {
		return "", err
	}

	return uuid.NewSHA1(profileNamespace, bs).String(), nil
}
