package enums

import "fmt"

// ModelKind selects a concrete churn/fraud model variant.
type ModelKind string

const (
	ModelKindLogistic ModelKind = "logistic"
	ModelKindBaseline ModelKind = "baseline"
)

var validModelKinds = []ModelKind{
	ModelKindLogistic,
	ModelKindBaseline,
}

func (m ModelKind) String() string {
	return string(m)
}

func (m ModelKind) IsValid() bool {
	for _, candidate := range validModelKinds {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseModelKind converts raw input into a ModelKind.
func ParseModelKind(value string) (ModelKind, error) {
	for _, candidate := range validModelKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid model kind %q", value)
}
