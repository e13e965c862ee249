// Package validation validates typed configuration and request structs
// with go-playground/validator struct tags.
//
//	type Identity struct {
//	    Name string `mapstructure:"name" validate:"required"`
//	    Port int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
//	}
//	err := validation.Validate(id)
//
// Field names in errors come from the mapstructure tag so they match the
// configuration keys an operator has to edit.
package validation
