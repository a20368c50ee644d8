package catalog

import (
	"bytes"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// PlantInput is a validated plant write payload. A nil field was not present
// in the request and must not be touched.
type PlantInput struct {
	Name             *string
	Price            *float64
	Category         *string
	Availability     *int
	Images           *[]string
	Instruction      *[]string
	Benefits         *[]string
	Difficulty       *string
	LightRequirement *string
	Featured         *bool
}

// ParsePlantCreate validates a create body; name and category are required.
func ParsePlantCreate(body []byte) (PlantInput, error) {
	return parsePlant(body, true)
}

// ParsePlantUpdate validates an update body; every field is optional but must
// be well-typed when present.
func ParsePlantUpdate(body []byte) (PlantInput, error) {
	return parsePlant(body, false)
}

func parsePlant(body []byte, create bool) (PlantInput, error) {
	var in PlantInput

	body = bytes.TrimSpace(body)
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return in, invalid("Request body must be a JSON object.")
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return in, invalid("Request body must be a JSON object.")
	}

	if r := doc.Get("name"); r.Exists() || create {
		if r.Type != gjson.String || !lengthBetween(r.Str, 2, 100) {
			return in, invalid("Name is required and must be 2-100 characters.")
		}
		in.Name = &r.Str
	}

	if r := doc.Get("price"); r.Exists() {
		if r.Type != gjson.Number || !finite(r.Num) || r.Num < 0 {
			return in, invalid("Price must be a non-negative number.")
		}
		price := r.Num
		in.Price = &price
	}

	if r := doc.Get("category"); r.Exists() || create {
		if r.Type != gjson.String || strings.TrimSpace(r.Str) == "" {
			return in, invalid("Category is required.")
		}
		id := strings.TrimSpace(r.Str)
		in.Category = &id
	}

	if r := doc.Get("availability"); r.Exists() {
		if r.Type != gjson.Number || !finite(r.Num) || r.Num < 0 || r.Num != math.Trunc(r.Num) || r.Num > math.MaxInt32 {
			return in, invalid("Availability must be a non-negative number.")
		}
		n := int(r.Num)
		in.Availability = &n
	}

	lists := []struct {
		key   string
		label string
		dst   **[]string
	}{
		{"images", "Images", &in.Images},
		{"instruction", "Instruction", &in.Instruction},
		{"benefits", "Benefits", &in.Benefits},
	}
	for _, l := range lists {
		r := doc.Get(l.key)
		if !r.Exists() || (create && r.Type == gjson.Null) {
			continue
		}
		values, err := stringArray(r, l.label)
		if err != nil {
			return in, err
		}
		*l.dst = &values
	}

	texts := []struct {
		key   string
		label string
		dst   **string
	}{
		{"difficulty", "Difficulty", &in.Difficulty},
		{"lightRequirement", "LightRequirement", &in.LightRequirement},
	}
	for _, t := range texts {
		r := doc.Get(t.key)
		if !r.Exists() {
			continue
		}
		if r.Type != gjson.String {
			return in, invalid(t.label + " must be a string.")
		}
		value := strings.TrimSpace(r.Str)
		*t.dst = &value
	}

	if r := doc.Get("featured"); r.Exists() {
		if !r.IsBool() {
			return in, invalid("Featured must be a boolean.")
		}
		featured := r.Bool()
		in.Featured = &featured
	}

	return in, nil
}

func stringArray(r gjson.Result, label string) ([]string, error) {
	if !r.IsArray() {
		return nil, invalid(label + " must be an array.")
	}
	elems := r.Array()
	out := make([]string, 0, len(elems))
	for _, el := range elems {
		switch el.Type {
		case gjson.String:
			out = append(out, el.Str)
		case gjson.Number, gjson.True, gjson.False:
			out = append(out, el.Raw)
		default:
			return nil, invalid(label + " must be an array.")
		}
	}
	return out, nil
}

// finite rejects JSON numbers outside the float64 range, which parse to ±Inf.
func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

func lengthBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

// newPlant builds a plant from a create payload, applying defaults for
// absent optional fields.
func (in PlantInput) newPlant() *Plant {
	p := &Plant{}
	in.applyTo(p)
	normalizePlant(p)
	return p
}

// applyTo merges only the present fields into p.
func (in PlantInput) applyTo(p *Plant) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil && *in.Category != p.Category.ID {
		p.Category = CategoryRef{ID: *in.Category}
	}
	if in.Availability != nil {
		p.Availability = *in.Availability
	}
	if in.Images != nil {
		p.Images = cloneStrings(*in.Images)
	}
	if in.Instruction != nil {
		p.Instruction = cloneStrings(*in.Instruction)
	}
	if in.Benefits != nil {
		p.Benefits = cloneStrings(*in.Benefits)
	}
	if in.Difficulty != nil {
		p.Difficulty = *in.Difficulty
	}
	if in.LightRequirement != nil {
		p.LightRequirement = *in.LightRequirement
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
}

// CategoryRequest is the body of a category create call.
type CategoryRequest struct {
	Category    string `json:"category"`
	Description string `json:"description"`
}
