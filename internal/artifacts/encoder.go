package artifacts

import "fmt"

// LabelEncoder is the bijection between classifier class index and occupation
// name.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// ClassName maps a class index back to its occupation name.
func (e *LabelEncoder) ClassName(index int) (string, error) {
	if index < 0 || index >= len(e.Classes) {
		return "", fmt.Errorf("class index %d out of range [0, %d)", index, len(e.Classes))
	}
	return e.Classes[index], nil
}

// Len returns the number of classes.
func (e *LabelEncoder) Len() int {
	return len(e.Classes)
}

func (e *LabelEncoder) validate() error {
	if len(e.Classes) == 0 {
		return fmt.Errorf("label encoder has no classes")
	}
	seen := make(map[string]struct{}, len(e.Classes))
	for _, c := range e.Classes {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("label encoder has duplicate class %q", c)
		}
		seen[c] = struct{}{}
	}
	return nil
}
