package enums

// DatasetStatus describes the lifecycle state of a cached dataset.
type DatasetStatus string

const (
	DatasetStatusFetching DatasetStatus = "fetching"
	DatasetStatusCached   DatasetStatus = "cached"
	DatasetStatusFailed   DatasetStatus = "failed"
)

var validDatasetStatuses = []DatasetStatus{
	DatasetStatusFetching,
	DatasetStatusCached,
	DatasetStatusFailed,
}

// String returns the literal string for the status.
func (d DatasetStatus) String() string {
	return string(d)
}

// IsValid reports whether the status is known.
func (d DatasetStatus) IsValid() bool {
	for _, candidate := range validDatasetStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}
