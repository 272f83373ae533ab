// Package installation owns the persisted app parameters of a space and the
// editor assignments derived from them.
package installation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole is returned by ParseRole for unrecognised names.
var ErrUnknownRole = errors.New("installation: unknown space role")

// SpaceRole is the role a space plays for documentation.
type SpaceRole string

const (
	RoleUnset             SpaceRole = ""
	RoleSource            SpaceRole = "source"
	RoleConsumer          SpaceRole = "consumer"
	RoleSourceAndConsumer SpaceRole = "sourceandconsumer"
)

// ParseRole accepts the persisted names and a few spellings used on the
// command line.
func ParseRole(value string) (SpaceRole, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "unset", "null":
		return RoleUnset, nil
	case "source":
		return RoleSource, nil
	case "consumer":
		return RoleConsumer, nil
	case "sourceandconsumer", "source_and_consumer", "source-and-consumer", "both":
		return RoleSourceAndConsumer, nil
	default:
		return RoleUnset, fmt.Errorf("%w %q", ErrUnknownRole, value)
	}
}

// Valid reports whether r is a known role.
func (r SpaceRole) Valid() bool {
	switch r {
	case RoleUnset, RoleSource, RoleConsumer, RoleSourceAndConsumer:
		return true
	}
	return false
}

// HostsDocumentation reports whether the space owns the documentation type.
func (r SpaceRole) HostsDocumentation() bool {
	return r == RoleSource || r == RoleSourceAndConsumer
}

// Consumes reports whether the space shows documentation in its editors.
func (r SpaceRole) Consumes() bool {
	return r == RoleConsumer || r == RoleSourceAndConsumer
}

func (r SpaceRole) MarshalJSON() ([]byte, error) {
	if r == RoleUnset {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

func (r *SpaceRole) UnmarshalJSON(data []byte) error {
	var value *string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	if value == nil {
		*r = RoleUnset
		return nil
	}
	parsed, err := ParseRole(*value)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Parameters is the installation parameters blob. It round-trips verbatim
// through the platform's installation storage.
type Parameters struct {
	SpaceType                 SpaceRole         `json:"spaceType"`
	SourceSpaceID             string            `json:"sourceSpaceId"`
	SourceDeliveryToken       string            `json:"sourceDeliveryToken"`
	SourceConnectionValidated bool              `json:"sourceConnectionValidated"`
	PatternMatches            map[string]string `json:"patternMatches"`
}

type wireParameters struct {
	SpaceType                 SpaceRole         `json:"spaceType"`
	SourceSpaceID             *string           `json:"sourceSpaceId"`
	SourceDeliveryToken       *string           `json:"sourceDeliveryToken"`
	SourceConnectionValidated bool              `json:"sourceConnectionValidated"`
	PatternMatches            map[string]string `json:"patternMatches"`
}

// Default returns the parameters of a fresh installation.
func Default() Parameters {
	return Parameters{PatternMatches: map[string]string{}}
}

// Clone returns a deep copy.
func (p Parameters) Clone() Parameters {
	out := p
	out.PatternMatches = make(map[string]string, len(p.PatternMatches))
	for k, v := range p.PatternMatches {
		out.PatternMatches[k] = v
	}
	return out
}

// ConnectionVerified reports whether documentation may be read. The
// combined role reads locally and is always verified.
func (p Parameters) ConnectionVerified() bool {
	switch p.SpaceType {
	case RoleConsumer:
		return p.SourceConnectionValidated
	case RoleSourceAndConsumer:
		return true
	default:
		return false
	}
}

// HasCredentials reports whether both source credentials are present.
func (p Parameters) HasCredentials() bool {
	return strings.TrimSpace(p.SourceSpaceID) != "" && strings.TrimSpace(p.SourceDeliveryToken) != ""
}

func (p Parameters) MarshalJSON() ([]byte, error) {
	wire := wireParameters{
		SpaceType:                 p.SpaceType,
		SourceSpaceID:             nullable(p.SourceSpaceID),
		SourceDeliveryToken:       nullable(p.SourceDeliveryToken),
		SourceConnectionValidated: p.SourceConnectionValidated,
		PatternMatches:            p.PatternMatches,
	}
	if wire.PatternMatches == nil {
		wire.PatternMatches = map[string]string{}
	}
	return json.Marshal(wire)
}

func (p *Parameters) UnmarshalJSON(data []byte) error {
	var wire wireParameters
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = Parameters{
		SpaceType:                 wire.SpaceType,
		SourceConnectionValidated: wire.SourceConnectionValidated,
		PatternMatches:            wire.PatternMatches,
	}
	if wire.SourceSpaceID != nil {
		p.SourceSpaceID = *wire.SourceSpaceID
	}
	if wire.SourceDeliveryToken != nil {
		p.SourceDeliveryToken = *wire.SourceDeliveryToken
	}
	if p.PatternMatches == nil {
		p.PatternMatches = map[string]string{}
	}
	return nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
