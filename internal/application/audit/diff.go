package audit

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
)

// ComputeDiff compara dos snapshots campo a campo (comparación superficial).
//
//   - clave en after con valor distinto (o ausente en before): {before[k] o nil, after[k]}
//   - clave solo en before: {before[k], nil}
//
// Mapas, slices y punteros se comparan por referencia, nunca estructuralmente.
// Devuelve nil, y no un mapa vacío, cuando no hay diferencias.
func ComputeDiff(before, after entity.Snapshot) entity.Diff {
	var diff entity.Diff
	put := func(k string, c entity.FieldChange) {
		if diff == nil {
			diff = entity.Diff{}
		}
		diff[k] = c
	}
	for k, av := range after {
		bv, ok := before[k]
		if !ok || !shallowEqual(bv, av) {
			put(k, entity.FieldChange{Before: bv, After: av})
		}
	}
	for k, bv := range before {
		if _, ok := after[k]; !ok {
			put(k, entity.FieldChange{Before: bv, After: nil})
		}
	}
	return diff
}

// SnapshotOf convierte una estructura en Snapshot usando sus etiquetas json.
func SnapshotOf(v any) (entity.Snapshot, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(entity.Snapshot); ok {
		return s, nil
	}
	if m, ok := v.(map[string]any); ok {
		return entity.Snapshot(m), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	var s entity.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("snapshot: %T no es un objeto: %w", v, err)
	}
	return s, nil
}

func shallowEqual(a, b any) (eq bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if eq, ok := numericEqual(va, vb); ok {
		return eq
	}
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map, reflect.Pointer, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	if !va.Type().Comparable() {
		return false
	}
	// Un struct comparable puede contener interfaces con valores no comparables.
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// numericEqual compara números de distinto tipo Go por valor (1 == 1.0), como hace JSON.
func numericEqual(va, vb reflect.Value) (equal, ok bool) {
	ka, kb := numKind(va.Kind()), numKind(vb.Kind())
	if ka == 0 || kb == 0 {
		return false, false
	}
	switch {
	case ka == 'i' && kb == 'i':
		return va.Int() == vb.Int(), true
	case ka == 'u' && kb == 'u':
		return va.Uint() == vb.Uint(), true
	}
	return toFloat(va) == toFloat(vb), true
}

func numKind(k reflect.Kind) byte {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return 'i'
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return 'u'
	case reflect.Float32, reflect.Float64:
		return 'f'
	}
	return 0
}

func toFloat(v reflect.Value) float64 {
	switch numKind(v.Kind()) {
	case 'i':
		return float64(v.Int())
	case 'u':
		return float64(v.Uint())
	}
	return v.Float()
}
