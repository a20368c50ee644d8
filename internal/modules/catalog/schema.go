package catalog

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// catalogText is the character set allowed in category names and descriptions.
var catalogText = regexp.MustCompile(`^[\w\s,.\-!]+$`)

const catalogTextMessage = "can only contain letters, numbers, whitespace, underscore, comma, period, hyphen, and exclamation mark."

var schemaMessages = map[string]string{
	"Plant.Name.required":              "Name of the plant is required",
	"Plant.Name.min":                   "Name of the plant can't be less than 2 characters",
	"Plant.Name.max":                   "Name of the plant can't exceed 100 characters",
	"Plant.Price.finite":               "Price must be a finite number",
	"Plant.Price.gte":                  "Price can't be negative",
	"Plant.Availability.gte":           "Availability can't be negative",
	"Category.Category.required":       "Category name is required",
	"Category.Category.min":            "Category of the plant must be at least or more than 3 characters",
	"Category.Category.max":            "A Categories name can not exceed 100 characters",
	"Category.Category.catalogtext":    "Category " + catalogTextMessage,
	"Category.Description.min":         "Category description can not be less than 30",
	"Category.Description.max":         "Category description can not exceed 500 characters",
	"Category.Description.catalogtext": "Description " + catalogTextMessage,
}

var schema = newSchemaValidator()

func newSchemaValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("catalogtext", func(fl validator.FieldLevel) bool {
		return catalogText.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		return finite(fl.Field().Float())
	}); err != nil {
		panic(err)
	}
	return v
}

// normalizePlant applies the stored form of a plant name.
func normalizePlant(p *Plant) {
	p.Name = strings.ToUpper(strings.TrimSpace(p.Name))
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Instruction == nil {
		p.Instruction = []string{}
	}
	if p.Benefits == nil {
		p.Benefits = []string{}
	}
}

func normalizeCategory(c *Category) {
	c.Category = strings.TrimSpace(c.Category)
	c.Description = strings.TrimSpace(c.Description)
}

func validatePlant(p *Plant) error {
	return schemaError(schema.Struct(p))
}

func validateCategory(c *Category) error {
	return schemaError(schema.Struct(c))
}

func schemaError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := schemaMessages[fe.StructNamespace()+"."+fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		fields[fe.Field()] = msg
	}
	return invalidFields(fields)
}
