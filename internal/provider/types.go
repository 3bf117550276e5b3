package provider

// Variable names a model output variable within a run.
type Variable struct {
	RunID   string
	Model   string
	VarName string
}

// DataQuery selects one time step of a variable. Level is -1 for flat
// variables.
type DataQuery struct {
	Variable
	Time  float64
	Level int
}

// Run is an entry of the run listing.
type Run struct {
	InstanceID  string `json:"InstanceId"`
	CreatedTime string `json:"CreatedTime"`
}

// VariableInfo is the body of the info endpoint.
type VariableInfo struct {
	Time struct {
		Values []float64 `json:"values"`
	} `json:"time"`
}

type dataResponse struct {
	Data []float64 `json:"data"`
}
