package insights

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const layoutSchemaName = "layout.schema.json"

// LayoutValidator checks placements before they are persisted.
type LayoutValidator interface {
	ValidateLayout(placements []WidgetPlacement) error
}

// SchemaLayoutValidator validates layouts against the embedded JSON schema.
type SchemaLayoutValidator struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

// NewSchemaLayoutValidator builds a validator backed by jsonschema v5.
func NewSchemaLayoutValidator() *SchemaLayoutValidator {
	return &SchemaLayoutValidator{}
}

// ValidateLayout implements LayoutValidator.
func (v *SchemaLayoutValidator) ValidateLayout(placements []WidgetPlacement) error {
	schema, err := v.compiled()
	if err != nil {
		return err
	}
	if placements == nil {
		placements = []WidgetPlacement{}
	}
	data, err := json.Marshal(placements)
	if err != nil {
		return fmt.Errorf("insights: marshal layout: %w", err)
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("insights: normalize layout: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	seen := make(map[string]struct{}, len(placements))
	for _, p := range placements {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: widget %s repeated", ErrInvalidLayout, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.X+p.W > GridColumns {
			return fmt.Errorf("%w: widget %s overflows the grid (x=%d w=%d)", ErrInvalidLayout, p.ID, p.X, p.W)
		}
	}
	return nil
}

func (v *SchemaLayoutValidator) compiled() (*jsonschema.Schema, error) {
	v.once.Do(func() {
		data, err := defaultsFS.ReadFile("defaults/" + layoutSchemaName)
		if err != nil {
			v.err = fmt.Errorf("insights: read layout schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(layoutSchemaName, bytes.NewReader(data)); err != nil {
			v.err = fmt.Errorf("insights: load layout schema: %w", err)
			return
		}
		v.schema, v.err = compiler.Compile(layoutSchemaName)
		if v.err != nil {
			v.err = fmt.Errorf("insights: compile layout schema: %w", v.err)
		}
	})
	return v.schema, v.err
}
