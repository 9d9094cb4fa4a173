package ir

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
)

// Decode reads a JSON scene description.
func Decode(r io.Reader) (*Scene, error) {
	var scene Scene
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&scene); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return &scene, nil
}

// ValidationError reports a broken scene reference or shape.
type ValidationError struct {
	Subject string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("scene validation: %s: %s", e.Subject, e.Reason)
}

// entityIDPattern restricts entity ids to the identifier charset. Ids are
// spliced into generated constraint equations, where "gear-1" would parse
// as a subtraction rather than a name.
var entityIDPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedEntityIDs are words with meaning inside equations.
var reservedEntityIDs = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "goto": true,
	"if": true, "in": true, "local": true, "math": true, "nil": true,
	"not": true, "or": true, "repeat": true, "return": true, "then": true,
	"true": true, "until": true, "while": true,
}

// Validate checks entity id shape and uniqueness and referential integrity
// of motions and constraints. The runtime loader assumes a validated scene.
func (s *Scene) Validate() error {
	ids := make(map[string]bool, len(s.Entities))
	for _, e := range s.Entities {
		if e.ID == "" {
			return &ValidationError{Subject: "entity", Reason: "missing id"}
		}
		if !entityIDPattern.MatchString(e.ID) {
			return &ValidationError{Subject: e.ID,
				Reason: "entity id must start with a letter or underscore and contain only letters, digits, and underscores"}
		}
		if reservedEntityIDs[e.ID] {
			return &ValidationError{Subject: e.ID, Reason: "entity id is a reserved word"}
		}
		if ids[e.ID] {
			return &ValidationError{Subject: e.ID, Reason: "duplicate entity id"}
		}
		ids[e.ID] = true
	}

	for _, m := range s.Motions {
		if !ids[m.Target] {
			return &ValidationError{Subject: m.ID,
				Reason: fmt.Sprintf("motion targets unknown entity %q", m.Target)}
		}
		switch m.Kind {
		case MotionRotation, MotionTranslation, MotionScale:
		default:
			return &ValidationError{Subject: m.ID,
				Reason: fmt.Sprintf("unknown motion kind %q", m.Kind)}
		}
	}

	for _, c := range s.Constraints {
		if !ids[c.A] {
			return &ValidationError{Subject: c.ID,
				Reason: fmt.Sprintf("constraint references unknown entity %q", c.A)}
		}
		needsB := c.Kind == ConstraintDistance ||
			c.Kind == ConstraintParentChild || c.Kind == ConstraintGear
		if needsB && !ids[c.B] {
			return &ValidationError{Subject: c.ID,
				Reason: fmt.Sprintf("constraint references unknown entity %q", c.B)}
		}
		switch c.Kind {
		case ConstraintDistance, ConstraintFixedAxis, ConstraintParentChild, ConstraintGear:
		default:
			return &ValidationError{Subject: c.ID,
				Reason: fmt.Sprintf("unknown constraint kind %q", c.Kind)}
		}
	}

	if s.Timeline != nil && s.Timeline.Duration <= 0 {
		return &ValidationError{Subject: "timeline", Reason: "duration must be positive"}
	}
	return nil
}
