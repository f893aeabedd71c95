// Package golearn converts between admitprep Frames and
// github.com/sjwhitworth/golearn/base DenseInstances, and exports cleaned
// admissions as ARFF for model training.
package golearn

import (
	"fmt"
	"math"
	"strings"

	"github.com/sjwhitworth/golearn/base"

	ap "github.com/wdm0006/admitprep/pkg/admitprep"
	iox "github.com/wdm0006/admitprep/pkg/io/ioutils"
)

// Missing is the category written for null string cells.
const Missing = "?"

// DefaultRelation names the ARFF relation when none is given.
const DefaultRelation = "admissions"

// AttributeName makes a column name safe for ARFF headers.
func AttributeName(name string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == ',' || r == '\'' || r == '"' || r == '%' || r == '{' || r == '}' {
			return '_'
		}
		return r
	}, name)
}

// ToDenseInstances converts a Frame into golearn DenseInstances. Numeric
// columns become float attributes with nulls as NaN; string columns become
// categorical attributes with nulls as Missing. classColumn, when set, is
// registered as the class attribute.
func ToDenseInstances(f *ap.Frame, classColumn string) (*base.DenseInstances, error) {
	schema := f.Schema()
	attrs := make([]base.Attribute, len(schema.Columns))
	classIdx := -1
	for i, cs := range schema.Columns {
		switch cs.Type {
		case ap.KindFloat, ap.KindInt:
			attrs[i] = base.NewFloatAttribute(AttributeName(cs.Name))
		default:
			ca := new(base.CategoricalAttribute)
			ca.SetName(AttributeName(cs.Name))
			attrs[i] = ca
		}
		if cs.Name == classColumn {
			classIdx = i
		}
	}
	if classColumn != "" && classIdx < 0 {
		return nil, fmt.Errorf("class %q: %w", classColumn, ap.ErrColumnNotFound)
	}

	inst := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, len(attrs))
	for i, a := range attrs {
		specs[i] = inst.AddAttribute(a)
	}
	if classIdx >= 0 {
		if err := inst.AddClassAttribute(attrs[classIdx]); err != nil {
			return nil, err
		}
	}
	if err := inst.Extend(f.Rows()); err != nil {
		return nil, err
	}

	for c, cs := range schema.Columns {
		col, _ := f.ColumnByName(cs.Name)
		for r := 0; r < f.Rows(); r++ {
			switch tc := col.(type) {
			case *ap.FloatColumn:
				v, ok := tc.Get(r)
				if !ok {
					v = math.NaN()
				}
				inst.Set(specs[c], r, base.PackFloatToBytes(v))
			case *ap.IntColumn:
				v := math.NaN()
				if iv, ok := tc.Get(r); ok {
					v = float64(iv)
				}
				inst.Set(specs[c], r, base.PackFloatToBytes(v))
			case *ap.StringColumn:
				v, ok := tc.Get(r)
				if !ok {
					v = Missing
				}
				inst.Set(specs[c], r, attrs[c].GetSysValFromString(v))
			}
		}
	}
	return inst, nil
}

// WriteARFF exports f as a dense ARFF file.
func WriteARFF(path string, f *ap.Frame, relation, classColumn string) error {
	if relation == "" {
		relation = DefaultRelation
	}
	inst, err := ToDenseInstances(f, classColumn)
	if err != nil {
		return err
	}
	if err := iox.EnsureDir(path); err != nil {
		return err
	}
	if err := base.SerializeInstancesToDenseARFF(inst, path, relation); err != nil {
		return fmt.Errorf("write arff: %w", err)
	}
	return nil
}
