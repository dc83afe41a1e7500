// Package validation reúne las reglas de validación de entrada.
//
// Las reglas por campo son variantes cerradas de Rule y se evalúan con Check; los DTO
// con etiquetas `validate` pasan por Struct (go-playground/validator).
package validation

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Rule es una variante de regla de campo. Solo este paquete puede definir variantes.
type Rule interface {
	required() bool
}

// StringRule longitud en runas dentro de [Min, Max]; Max 0 = sin tope.
type StringRule struct {
	Required bool
	Min, Max int
}

// NumberRule número (o texto numérico) dentro de [Min, Max] si se indican.
// Integer rechaza decimales y notación exponencial.
type NumberRule struct {
	Required bool
	Integer  bool
	Min, Max *float64
}

// EmailRule dirección de correo válida.
type EmailRule struct {
	Required bool
}

// DateRule fecha en RFC 3339 o YYYY-MM-DD.
type DateRule struct {
	Required bool
}

// BooleanRule bool o texto "true"/"false".
type BooleanRule struct {
	Required bool
}

// ArrayRule slice con longitud dentro de [Min, Max]; Max 0 = sin tope.
type ArrayRule struct {
	Required bool
	Min, Max int
}

func (r StringRule) required() bool  { return r.Required }
func (r NumberRule) required() bool  { return r.Required }
func (r EmailRule) required() bool   { return r.Required }
func (r DateRule) required() bool    { return r.Required }
func (r BooleanRule) required() bool { return r.Required }
func (r ArrayRule) required() bool   { return r.Required }

// Bound ayuda a construir los límites opcionales de NumberRule.
func Bound(v float64) *float64 { return &v }

// DateLayouts formatos aceptados por DateRule.
var DateLayouts = []string{time.RFC3339, "2006-01-02"}

// FieldError error de un campo.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string { return e.Field + ": " + e.Message }

// Errors lista de errores por campo.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}

// Schema reglas por nombre de campo.
type Schema map[string]Rule

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Check evalúa value contra rule. Un valor vacío solo falla si la regla es obligatoria.
func Check(value any, rule Rule) error {
	if isEmpty(value) {
		if rule == nil || rule.required() {
			return fmt.Errorf("es obligatorio")
		}
		return nil
	}
	switch r := rule.(type) {
	case StringRule:
		return checkString(value, r)
	case NumberRule:
		return checkNumber(value, r)
	case EmailRule:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("debe ser texto")
		}
		once.Do(setup)
		if err := validate.Var(s, "email"); err != nil {
			return fmt.Errorf("no es un email válido")
		}
		return nil
	case DateRule:
		if _, ok := value.(time.Time); ok {
			return nil
		}
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("debe ser una fecha")
		}
		if _, err := ParseDate(s); err != nil {
			return err
		}
		return nil
	case BooleanRule:
		switch v := value.(type) {
		case bool:
			return nil
		case string:
			if _, err := strconv.ParseBool(v); err != nil {
				return fmt.Errorf("debe ser true o false")
			}
			return nil
		}
		return fmt.Errorf("debe ser true o false")
	case ArrayRule:
		return checkArray(value, r)
	default:
		return fmt.Errorf("regla desconocida %T", rule)
	}
}

func checkString(value any, r StringRule) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("debe ser texto")
	}
	n := utf8.RuneCountInString(s)
	if n < r.Min {
		return fmt.Errorf("debe tener al menos %d caracteres", r.Min)
	}
	if r.Max > 0 && n > r.Max {
		return fmt.Errorf("debe tener como máximo %d caracteres", r.Max)
	}
	return nil
}

func checkNumber(value any, r NumberRule) error {
	var f float64
	switch v := value.(type) {
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case float64:
		if r.Integer && v != math.Trunc(v) {
			return fmt.Errorf("debe ser un número entero")
		}
		f = v
	case string:
		v = strings.TrimSpace(v)
		if r.Integer {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("debe ser un número entero")
			}
			f = float64(n)
			break
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("debe ser un número")
		}
		f = parsed
	default:
		return fmt.Errorf("debe ser un número")
	}
	if r.Min != nil && f < *r.Min {
		return fmt.Errorf("debe ser mayor o igual que %v", *r.Min)
	}
	if r.Max != nil && f > *r.Max {
		return fmt.Errorf("debe ser menor o igual que %v", *r.Max)
	}
	return nil
}

func checkArray(value any, r ArrayRule) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("debe ser una lista")
	}
	n := rv.Len()
	if n < r.Min {
		return fmt.Errorf("debe tener al menos %d elementos", r.Min)
	}
	if r.Max > 0 && n > r.Max {
		return fmt.Errorf("debe tener como máximo %d elementos", r.Max)
	}
	return nil
}

// ParseDate interpreta s con DateLayouts.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha inválida, use YYYY-MM-DD o RFC 3339")
}

// Validate aplica schema sobre fields. Devuelve nil o Errors ordenado por campo.
func Validate(fields map[string]any, schema Schema) error {
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	slices.Sort(names)

	var errs Errors
	for _, name := range names {
		if err := Check(fields[name], schema[name]); err != nil {
			errs = append(errs, FieldError{Field: name, Message: err.Error()})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
