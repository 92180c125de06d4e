// Package validation checks the shape of discovery input before planning.
package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"meshplan/internal/domain"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	mustRegister(validate, "role", func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).Valid()
	})
}

// mustRegister adds a custom tag. A failure is a programming error, and
// without the tag every struct using it would fail validation.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register %q validation: %v", tag, err))
	}
}

// Node validates a single node
func Node(n domain.Node) error {
	if err := validate.Struct(n); err != nil {
		return domain.NewInputError(n.ID, formatValidationError(err).Error())
	}
	return nil
}

// Edge validates a single edge observation
func Edge(e domain.Edge) error {
	if err := validate.Struct(e); err != nil {
		return domain.NewInputError(e.LocalID, fmt.Sprintf("edge %s:%s -> %s:%s: %v",
			e.LocalID, e.LocalInterface, e.RemoteID, e.RemoteInterface, formatValidationError(err)))
	}
	return nil
}

// Snapshot validates every node and edge, rejects duplicate node IDs and
// edges that reference nodes absent from the node list
func Snapshot(nodes []domain.Node, edges []domain.Edge) error {
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if err := Node(n); err != nil {
			return err
		}
		if seen[n.ID] {
			return domain.NewInputError(n.ID, "duplicate node id")
		}
		seen[n.ID] = true
	}

	for _, e := range edges {
		if err := Edge(e); err != nil {
			return err
		}
		if !seen[e.LocalID] {
			return domain.NewInputError(e.LocalID, "edge references unknown local node")
		}
		if !seen[e.RemoteID] {
			return domain.NewInputError(e.RemoteID, "edge references unknown remote node")
		}
	}
	return nil
}

// Struct validates any tagged struct, such as configuration sections
func Struct(v any) error {
	return formatValidationError(validate.Struct(v))
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "role":
			return fmt.Errorf("%s: unknown role %q", field, e.Value())
		case "nefield":
			return fmt.Errorf("%s: must differ from %s", field, e.Param())
		case "ip", "ip|hostname_rfc1123":
			return fmt.Errorf("%s: %q is not a valid address", field, e.Value())
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, e.Param())
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, e.Param())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
